package mintauth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovchain/sovmint/internal/governance"
	"github.com/sovchain/sovmint/internal/mintcircuit"
	"github.com/sovchain/sovmint/internal/threshold"
)

const (
	testMinter = "bank-alpha"
	testLimit  = uint64(1_000_000)
	testEpoch  = uint64(100)
)

func testMinterKey() [32]byte {
	var pk [32]byte
	pk[0] = 0x42
	return pk
}

// testCommittee deals a 4-of-6 share set and builds the matching committee
// at the test epoch.
func testCommittee(t *testing.T) ([]threshold.Share, *governance.Committee, *governance.Capability) {
	t.Helper()
	shares, _, err := threshold.Deal(6, 4)
	require.NoError(t, err)

	governors := make([]governance.Governor, len(shares))
	for i, s := range shares {
		governors[i] = governance.Governor{Addr: fmt.Sprintf("gov-%d", i), PubKey: s.Public}
	}
	committee, cap, err := governance.NewCommittee(governors, 4)
	require.NoError(t, err)
	require.NoError(t, committee.SetEpoch(cap, testEpoch))
	return shares, committee, cap
}

// signContext produces a quorum signature over the canonical serialization.
func signContext(t *testing.T, shares []threshold.Share, pub mintcircuit.PublicInputs, indices []int) *threshold.Signature {
	t.Helper()
	sig, err := threshold.Sign(shares, indices, pub.SigningMessage())
	require.NoError(t, err)
	return sig
}

// testContext builds public inputs whose hash bindings match the test
// license. The commitment coordinates are arbitrary; tests that reach the
// pairing check build real proofs instead.
func testContext(nonce, epoch uint64) mintcircuit.PublicInputs {
	pub := mintcircuit.PublicInputs{
		AuthorityHash: mintcircuit.AuthorityHash(testMinterKey()),
		LimitHash:     mintcircuit.LimitHash(testLimit),
		Nonce:         nonce,
		Epoch:         epoch,
	}
	pub.CommitmentX[0] = 0x01
	pub.CommitmentY[0] = 0x02
	return pub
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event within deadline")
		return Event{}
	}
}

type denyAll struct{}

func (denyAll) TransferPermitted(string, mintcircuit.PublicInputs) bool { return false }

// TestSubmissionRejections exercises every fail-closed path that precedes
// the pairing check. No check may mutate state on rejection.
func TestSubmissionRejections(t *testing.T) {
	shares, committee, _ := testCommittee(t)

	bus := NewBus(nil)
	failures := bus.Subscribe(EventMintFailed)

	// The pairing check is never reached in this test, so no verifying key
	// is needed.
	orch := NewOrchestrator(committee, mintcircuit.NewVerifier(nil), WithBus(bus))
	orch.RegisterLicense(NewLicense(testMinter, testMinterKey(), testLimit))

	dummyProof := make([]byte, mintcircuit.ProofLength)
	quorum := []int{0, 2, 3, 5}

	cases := []struct {
		name    string
		sub     func() Submission
		wantErr error
		reason  string
	}{
		{
			name: "Truncated Proof",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				return Submission{Minter: testMinter, Proof: dummyProof[:127], Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: mintcircuit.ErrInvalidProofLength,
			reason:  "InvalidProofLength",
		},
		{
			name: "Unknown Minter",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				return Submission{Minter: "bank-unknown", Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: ErrLicenseNotFound,
			reason:  "LicenseNotFound",
		},
		{
			name: "Nonce Ahead",
			sub: func() Submission {
				pub := testContext(5, testEpoch)
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: ErrNonceMismatch,
			reason:  "NonceMismatch",
		},
		{
			name: "Stale Epoch",
			sub: func() Submission {
				pub := testContext(0, testEpoch-1)
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: ErrEpochMismatch,
			reason:  "EpochMismatch",
		},
		{
			name: "Authority Hash Mismatch",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				pub.AuthorityHash[0] ^= 0xff
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: ErrAuthorityHashMismatch,
			reason:  "AuthorityHashMismatch",
		},
		{
			name: "Limit Hash Mismatch",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				pub.LimitHash[0] ^= 0xff
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, quorum)}
			},
			wantErr: ErrLimitHashMismatch,
			reason:  "LimitHashMismatch",
		},
		{
			name: "Signature Over Wrong Message",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				other := testContext(1, testEpoch)
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, other, quorum)}
			},
			wantErr: ErrThresholdSignatureFailed,
			reason:  "ThresholdSignatureFailed",
		},
		{
			name: "Below Quorum Signature",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub, Signature: signContext(t, shares, pub, []int{0, 1, 2})}
			},
			wantErr: ErrThresholdSignatureFailed,
			reason:  "ThresholdSignatureFailed",
		},
		{
			name: "Missing Signature",
			sub: func() Submission {
				pub := testContext(0, testEpoch)
				return Submission{Minter: testMinter, Proof: dummyProof, Public: pub}
			},
			wantErr: ErrThresholdSignatureFailed,
			reason:  "ThresholdSignatureFailed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := orch.SubmitMint(tc.sub())
			require.ErrorIs(t, err, tc.wantErr)

			ev := waitEvent(t, failures)
			data, ok := ev.Data.(MintFailedData)
			require.True(t, ok)
			assert.Equal(t, tc.reason, data.Reason)
		})
	}

	// No rejection may have advanced any counter or written any record.
	lic, ok := orch.License(testMinter)
	require.True(t, ok)
	assert.Equal(t, uint64(0), lic.NextNonce)
	assert.Equal(t, uint64(0), committee.Nonce())
	assert.Empty(t, orch.Ledger().Records)
}

func TestComplianceDenial(t *testing.T) {
	shares, committee, _ := testCommittee(t)

	bus := NewBus(nil)
	failures := bus.Subscribe(EventMintFailed)

	orch := NewOrchestrator(committee, mintcircuit.NewVerifier(nil),
		WithBus(bus),
		WithOracle(denyAll{}),
	)
	orch.RegisterLicense(NewLicense(testMinter, testMinterKey(), testLimit))

	// Everything up to the compliance verdict is valid; the oracle runs
	// before the pairing check, so the rejection never touches the proof.
	pub := testContext(0, testEpoch)
	err := orch.SubmitMint(Submission{
		Minter:    testMinter,
		Proof:     make([]byte, mintcircuit.ProofLength),
		Public:    pub,
		Signature: signContext(t, shares, pub, []int{0, 2, 3, 5}),
	})
	require.ErrorIs(t, err, ErrComplianceDenied)

	ev := waitEvent(t, failures)
	assert.Equal(t, "ComplianceDenied", ev.Data.(MintFailedData).Reason)
}

// TestMintAuthorizationFlow is the full protocol round: real Groth16 proofs
// against a 4-of-6 governor quorum, replay and stale-epoch rejections, and
// the audit trail they leave behind.
func TestMintAuthorizationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Groth16 setup in short mode")
	}

	shares, committee, cap := testCommittee(t)

	ccs, err := mintcircuit.Compile()
	require.NoError(t, err)
	dir := t.TempDir()
	pk, vk, err := mintcircuit.SetupOrLoadKeys(ccs, dir+"/pk.bin", dir+"/vk.bin")
	require.NoError(t, err)
	prover := mintcircuit.NewProver(ccs, pk)

	bus := NewBus(nil)
	successes := bus.Subscribe(EventMintSucceeded)

	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	orch := NewOrchestrator(committee, mintcircuit.NewVerifier(vk),
		WithBus(bus),
		WithClock(func() time.Time { return fixed }),
	)
	lic := NewLicense(testMinter, testMinterKey(), testLimit)
	lic.NextNonce = 7
	orch.RegisterLicense(lic)

	witness, err := mintcircuit.NewWitness(250_000, testMinterKey(), testLimit)
	require.NoError(t, err)

	quorum := []int{0, 2, 3, 5}
	prove := func(nonce, epoch uint64) ([]byte, mintcircuit.PublicInputs) {
		proof, pub, err := prover.Prove(witness, nonce, epoch)
		require.NoError(t, err)
		return proof, pub
	}

	proof7, pub7 := prove(7, testEpoch)

	t.Run("Authorized Mint", func(t *testing.T) {
		err := orch.SubmitMint(Submission{
			Minter:    testMinter,
			Proof:     proof7,
			Public:    pub7,
			Signature: signContext(t, shares, pub7, quorum),
		})
		require.NoError(t, err)

		assert.Equal(t, uint64(8), lic.NextNonce)
		assert.Equal(t, uint64(1), committee.Nonce())
		require.Len(t, orch.Ledger().Records, 1)
		assert.Equal(t, uint64(7), orch.Ledger().Records[0].Nonce)
		assert.Equal(t, fixed, orch.Ledger().Records[0].Timestamp)

		ev := waitEvent(t, successes)
		data := ev.Data.(MintSucceededData)
		assert.Equal(t, pub7.CommitmentX, data.CommitmentX)
		assert.Equal(t, uint64(7), data.Nonce)
	})

	t.Run("Second Minter Starts At Nonce Zero", func(t *testing.T) {
		// Nonce sequences are per license: a second minter's first mint at
		// nonce 0 must be admitted alongside the first minter's history.
		var betaKey [32]byte
		betaKey[0] = 0x43
		betaLic := NewLicense("bank-beta", betaKey, testLimit)
		orch.RegisterLicense(betaLic)

		betaWitness, err := mintcircuit.NewWitness(10_000, betaKey, testLimit)
		require.NoError(t, err)
		proof, pub, err := prover.Prove(betaWitness, 0, testEpoch)
		require.NoError(t, err)

		err = orch.SubmitMint(Submission{
			Minter:    "bank-beta",
			Proof:     proof,
			Public:    pub,
			Signature: signContext(t, shares, pub, quorum),
		})
		require.NoError(t, err)

		assert.Equal(t, uint64(1), betaLic.NextNonce)
		assert.Equal(t, uint64(8), lic.NextNonce)
		assert.Equal(t, uint64(2), committee.Nonce())
		assert.True(t, orch.Ledger().HasRecord("bank-beta", 0))
		assert.True(t, orch.Ledger().HasRecord(testMinter, 7))
	})

	t.Run("Replay Rejected", func(t *testing.T) {
		err := orch.SubmitMint(Submission{
			Minter:    testMinter,
			Proof:     proof7,
			Public:    pub7,
			Signature: signContext(t, shares, pub7, quorum),
		})
		require.ErrorIs(t, err, ErrNonceMismatch)
	})

	t.Run("Epoch Advance Invalidates Pending Proofs", func(t *testing.T) {
		proof8, pub8 := prove(8, testEpoch)
		sig := signContext(t, shares, pub8, quorum)

		epoch, err := orch.AdvanceEpoch(cap)
		require.NoError(t, err)
		require.Equal(t, testEpoch+1, epoch)

		err = orch.SubmitMint(Submission{Minter: testMinter, Proof: proof8, Public: pub8, Signature: sig})
		require.ErrorIs(t, err, ErrEpochMismatch)

		// Re-proving at the new epoch recovers.
		proof8b, pub8b := prove(8, epoch)
		err = orch.SubmitMint(Submission{
			Minter:    testMinter,
			Proof:     proof8b,
			Public:    pub8b,
			Signature: signContext(t, shares, pub8b, quorum),
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(9), lic.NextNonce)
	})

	t.Run("Proof For Different Context Rejected", func(t *testing.T) {
		// A quorum can be tricked into signing a context the proof does not
		// attest to; the pairing check catches it.
		_, pub9 := prove(9, committee.Epoch())
		err := orch.SubmitMint(Submission{
			Minter:    testMinter,
			Proof:     proof7,
			Public:    pub9,
			Signature: signContext(t, shares, pub9, quorum),
		})
		require.ErrorIs(t, err, mintcircuit.ErrProofVerificationFailed)
		assert.Equal(t, uint64(9), lic.NextNonce)
		assert.Equal(t, uint64(3), committee.Nonce())
	})
}

func TestGovernanceNotifications(t *testing.T) {
	_, committee, cap := testCommittee(t)

	bus := NewBus(nil)
	events := bus.Subscribe(
		EventCommitteeInitialized,
		EventProposalCreated,
		EventProposalApproved,
		EventProposalExecuted,
		EventEpochAdvanced,
	)

	orch := NewOrchestrator(committee, mintcircuit.NewVerifier(nil), WithBus(bus))

	ev := waitEvent(t, events)
	require.Equal(t, EventCommitteeInitialized, ev.Type)
	init := ev.Data.(CommitteeInitializedData)
	assert.Equal(t, 6, init.Members)
	assert.Equal(t, 4, init.Threshold)

	p, err := orch.CreateProposal("gov-0", "add_governor", []byte("gov-6"), 10)
	require.NoError(t, err)
	ev = waitEvent(t, events)
	assert.Equal(t, EventProposalCreated, ev.Type)
	assert.Equal(t, 1, ev.Data.(ProposalData).Approvals)

	for _, addr := range []string{"gov-1", "gov-2", "gov-3"} {
		require.NoError(t, orch.ApproveProposal(addr, p))
		ev = waitEvent(t, events)
		assert.Equal(t, EventProposalApproved, ev.Type)
	}
	assert.True(t, committee.ProposalReady(p))

	require.NoError(t, orch.ExecuteProposal("gov-0", p))
	ev = waitEvent(t, events)
	assert.Equal(t, EventProposalExecuted, ev.Type)
	assert.True(t, ev.Data.(ProposalData).Ready)

	_, err = orch.AdvanceEpoch(cap)
	require.NoError(t, err)
	ev = waitEvent(t, events)
	assert.Equal(t, EventEpochAdvanced, ev.Type)
	assert.Equal(t, testEpoch+1, ev.Data.(EpochAdvancedData).Epoch)

	// Governance errors pass through unchanged.
	_, err = orch.CreateProposal("stranger", "x", nil, 1)
	assert.True(t, errors.Is(err, governance.ErrNotGovernor))
	_, err = orch.AdvanceEpoch(nil)
	assert.True(t, errors.Is(err, governance.ErrBadCapability))
}

func TestReasonCodes(t *testing.T) {
	cases := map[string]error{
		"NonceMismatch":            ErrNonceMismatch,
		"EpochMismatch":            ErrEpochMismatch,
		"LicenseNotFound":          ErrLicenseNotFound,
		"ComplianceDenied":         ErrComplianceDenied,
		"ThresholdSignatureFailed": threshold.ErrSignatureInvalid,
		"ProofVerificationFailed":  mintcircuit.ErrProofVerificationFailed,
		"Unknown":                  errors.New("something else"),
	}
	for want, err := range cases {
		assert.Equal(t, want, ReasonFor(fmt.Errorf("wrapped: %w", err)))
	}
}
