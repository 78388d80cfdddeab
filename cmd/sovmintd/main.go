// main.go - sovmintd: the confidential mint authorization daemon.
//
// Startup sequence:
//   - load configuration (YAML file + SOVMINT_* environment overrides)
//   - build the governor committee from the configured public-key shares
//   - compile the mint circuit and generate or load the Groth16 keys
//   - restore the mint ledger from disk when one exists
//   - wire the orchestrator, event bus, and HTTP server
//
// The daemon exposes POST /v1/mint for submissions, GET /v1/committee and
// GET /v1/ledger for inspection, plus /healthz and /metrics.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/rs/zerolog"

	"github.com/sovchain/sovmint/internal/governance"
	"github.com/sovchain/sovmint/internal/mintauth"
	"github.com/sovchain/sovmint/internal/mintcircuit"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
}

func run(cfg *Config, logger zerolog.Logger) error {
	logger.Info().Str("version", version).Msg("starting sovmintd")
	metrics := NewMetrics()

	// Governor committee from configured key shares.
	governors, err := parseGovernors(cfg.Governors)
	if err != nil {
		return err
	}
	committee, capability, err := governance.NewCommittee(governors, cfg.Threshold)
	if err != nil {
		return fmt.Errorf("committee setup failed: %w", err)
	}
	if err := committee.SetEpoch(capability, cfg.Epoch); err != nil {
		return fmt.Errorf("epoch restore failed: %w", err)
	}
	logger.Info().
		Int("governors", committee.Size()).
		Int("threshold", committee.Threshold()).
		Uint64("epoch", committee.Epoch()).
		Msg("committee initialized")

	// Circuit compilation and Groth16 key material.
	ccs, err := mintcircuit.Compile()
	if err != nil {
		return fmt.Errorf("circuit compilation failed: %w", err)
	}
	if err := os.MkdirAll(cfg.KeyDir, 0o755); err != nil {
		return fmt.Errorf("key directory: %w", err)
	}
	pkPath := filepath.Join(cfg.KeyDir, "mint_pk.bin")
	vkPath := filepath.Join(cfg.KeyDir, "mint_vk.bin")
	_, vk, err := mintcircuit.SetupOrLoadKeys(ccs, pkPath, vkPath)
	if err != nil {
		return fmt.Errorf("key setup failed: %w", err)
	}
	verifier := mintcircuit.NewVerifier(vk)
	logger.Info().Str("vk", vkPath).Msg("verifying key ready")

	// Restore the mint ledger when one exists on disk.
	ledger := mintauth.NewLedger()
	if l, err := mintauth.LoadLedgerFromFile(cfg.LedgerPath); err == nil {
		ledger = l
		logger.Info().Int("records", len(l.Records)).Str("path", cfg.LedgerPath).Msg("ledger restored")
	}

	bus := mintauth.NewBus(metrics.Registry())
	orch := mintauth.NewOrchestrator(committee, verifier,
		mintauth.WithBus(bus),
		mintauth.WithLedger(ledger),
	)

	for _, lc := range cfg.Licenses {
		pubkey, err := parseKey32(lc.Pubkey)
		if err != nil {
			return fmt.Errorf("license for %s: %w", lc.Minter, err)
		}
		orch.RegisterLicense(mintauth.NewLicense(lc.Minter, pubkey, lc.DailyLimit))
		logger.Info().Str("minter", lc.Minter).Uint64("daily_limit", lc.DailyLimit).Msg("license registered")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persist the ledger and write audit entries as mints settle.
	go auditLoop(ctx, bus, orch, cfg.LedgerPath, logger)

	health := NewHealthChecker(version)
	health.RegisterComponent("verifying_key", func() error {
		_, err := os.Stat(vkPath)
		return err
	})
	health.RegisterComponent("committee", func() error {
		if committee.Size() < committee.Threshold() {
			return fmt.Errorf("committee below threshold")
		}
		return nil
	})

	server := NewServer(cfg, logger, metrics, orch, health)
	err = server.Run(ctx)
	logger.Info().Msg("sovmintd stopped")
	return err
}

// auditLoop subscribes to mint events, persisting the ledger after every
// settlement and logging every outcome for audit.
func auditLoop(ctx context.Context, bus *mintauth.Bus, orch *mintauth.Orchestrator, ledgerPath string, logger zerolog.Logger) {
	events := bus.Subscribe(
		mintauth.EventMintSucceeded,
		mintauth.EventMintFailed,
		mintauth.EventEpochAdvanced,
		mintauth.EventProposalExecuted,
	)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch data := ev.Data.(type) {
			case mintauth.MintSucceededData:
				if err := orch.Ledger().SaveToFile(ledgerPath); err != nil {
					logger.Error().Err(err).Msg("ledger persistence failed")
				}
				logger.Info().
					Uint64("nonce", data.Nonce).
					Uint64("epoch", data.Epoch).
					Str("commitment_x", hex.EncodeToString(data.CommitmentX[:])).
					Msg("mint settled")
			case mintauth.MintFailedData:
				logger.Warn().
					Uint64("nonce", data.Nonce).
					Str("reason", data.Reason).
					Msg("mint rejected")
			case mintauth.EpochAdvancedData:
				logger.Info().Uint64("epoch", data.Epoch).Msg("epoch advanced")
			case mintauth.ProposalData:
				logger.Info().
					Uint64("proposal", data.ProposalID).
					Str("action", data.Action).
					Msg("proposal executed")
			}
		}
	}
}

// parseGovernors decodes the configured committee members.
func parseGovernors(configs []GovernorConfig) ([]governance.Governor, error) {
	governors := make([]governance.Governor, 0, len(configs))
	for _, gc := range configs {
		raw, err := hex.DecodeString(gc.PubKey)
		if err != nil {
			return nil, fmt.Errorf("governor %s: pubkey is not valid hex: %w", gc.Addr, err)
		}
		var pk bn254.G1Affine
		if _, err := pk.SetBytes(raw); err != nil {
			return nil, fmt.Errorf("governor %s: invalid public key: %w", gc.Addr, err)
		}
		governors = append(governors, governance.Governor{Addr: gc.Addr, PubKey: pk})
	}
	return governors, nil
}

// parseKey32 decodes a hex-encoded 32-byte key.
func parseKey32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("pubkey is not valid hex: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("pubkey must be 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
