// server.go - HTTP surface of the mint authorization daemon.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/sovchain/sovmint/internal/mintauth"
	"github.com/sovchain/sovmint/internal/mintcircuit"
	"github.com/sovchain/sovmint/internal/threshold"
)

// Server exposes the submission, committee, and operational endpoints.
type Server struct {
	cfg     *Config
	log     zerolog.Logger
	metrics *Metrics
	orch    *mintauth.Orchestrator
	limiter *MinterRateLimiter
	health  *HealthChecker
	srv     *http.Server
}

// NewServer wires the HTTP routes.
func NewServer(cfg *Config, log zerolog.Logger, metrics *Metrics, orch *mintauth.Orchestrator, health *HealthChecker) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		orch:    orch,
		health:  health,
		limiter: NewMinterRateLimiter(
			cfg.RateLimit.MaxTokens,
			cfg.RateLimit.RefillRate,
			time.Duration(cfg.RateLimit.RefillPeriodSec)*time.Second,
		),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/mint", s.handleMint)
	mux.HandleFunc("/v1/committee", s.handleCommittee)
	mux.HandleFunc("/v1/ledger", s.handleLedger)
	mux.Handle("/healthz", health.Handler())
	mux.Handle("/metrics", metrics.Handler())

	s.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// mintRequest is the wire form of one submission. Proof is the 128-byte
// compressed Groth16 proof, PublicInputs the 144-byte canonical encoding,
// Signature the serialized threshold signature, all hex.
type mintRequest struct {
	Minter       string `json:"minter"`
	Proof        string `json:"proof"`
	PublicInputs string `json:"public_inputs"`
	Signature    string `json:"signature"`
}

type mintResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Nonce  uint64 `json:"nonce,omitempty"`
	Epoch  uint64 `json:"epoch,omitempty"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: "malformed request body"})
		return
	}
	if req.Minter == "" {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: "minter is required"})
		return
	}

	if !s.limiter.Allow(req.Minter) {
		s.metrics.RateLimited.Inc()
		s.log.Warn().Str("minter", req.Minter).Msg("submission rate limited")
		writeJSON(w, http.StatusTooManyRequests, mintResponse{Status: "rejected", Reason: "rate limited"})
		return
	}

	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: "proof is not valid hex"})
		return
	}
	inputBytes, err := hex.DecodeString(req.PublicInputs)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: "public inputs are not valid hex"})
		return
	}
	pub, err := mintcircuit.PublicInputsFromBytes(inputBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: err.Error()})
		return
	}
	sigBytes, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: "signature is not valid hex"})
		return
	}
	sig, err := threshold.SignatureFromBytes(sigBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, mintResponse{Status: "rejected", Reason: err.Error()})
		return
	}

	start := time.Now()
	err = s.orch.SubmitMint(mintauth.Submission{
		Minter:    req.Minter,
		Proof:     proof,
		Public:    pub,
		Signature: sig,
	})
	s.metrics.VerifyDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := mintauth.ReasonFor(err)
		s.metrics.MintSubmissions.WithLabelValues("rejected").Inc()
		s.metrics.MintFailures.WithLabelValues(reason).Inc()
		s.log.Warn().
			Str("minter", req.Minter).
			Uint64("nonce", pub.Nonce).
			Str("reason", reason).
			Err(err).
			Msg("mint rejected")
		writeJSON(w, http.StatusUnprocessableEntity, mintResponse{Status: "rejected", Reason: reason})
		return
	}

	s.metrics.MintSubmissions.WithLabelValues("accepted").Inc()
	s.log.Info().
		Str("minter", req.Minter).
		Uint64("nonce", pub.Nonce).
		Uint64("epoch", pub.Epoch).
		Msg("mint authorized")
	writeJSON(w, http.StatusOK, mintResponse{Status: "authorized", Nonce: pub.Nonce, Epoch: pub.Epoch})
}

type committeeInfo struct {
	Size      int    `json:"size"`
	Threshold int    `json:"threshold"`
	Epoch     uint64 `json:"epoch"`
	Nonce     uint64 `json:"nonce"`
}

func (s *Server) handleCommittee(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c := s.orch.Committee()
	writeJSON(w, http.StatusOK, committeeInfo{
		Size:      c.Size(),
		Threshold: c.Threshold(),
		Epoch:     c.Epoch(),
		Nonce:     c.Nonce(),
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Ledger())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
