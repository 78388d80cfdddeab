// orchestrator.go - The mint authorization pipeline.
//
// One submission, one atomic decision: format -> nonce -> epoch -> license
// bindings -> quorum signature -> compliance -> pairing check. Any rejection
// leaves every counter and record untouched and emits a failure event with a
// reason code; success advances the license nonce by exactly one, appends an
// audit record, and emits a success event carrying only public data.

package mintauth

import (
	"fmt"
	"sync"
	"time"

	"github.com/sovchain/sovmint/internal/governance"
	"github.com/sovchain/sovmint/internal/mintcircuit"
	"github.com/sovchain/sovmint/internal/threshold"
)

// Submission is one (proof, public inputs, threshold signature) triple.
type Submission struct {
	Minter    string
	Proof     []byte
	Public    mintcircuit.PublicInputs
	Signature *threshold.Signature
}

// Orchestrator sequences proof, signature, and governance checks into one
// atomic mint decision. Invocations are serialized by a single mutex,
// standing in for the external total-order mechanism.
type Orchestrator struct {
	mu        sync.Mutex
	committee *governance.Committee
	verifier  *mintcircuit.Verifier
	licenses  map[string]*License
	ledger    *Ledger
	bus       *Bus
	oracle    ComplianceOracle
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBus attaches an event bus for notifications.
func WithBus(b *Bus) Option { return func(o *Orchestrator) { o.bus = b } }

// WithOracle attaches a compliance oracle.
func WithOracle(c ComplianceOracle) Option { return func(o *Orchestrator) { o.oracle = c } }

// WithLedger resumes from a previously persisted ledger.
func WithLedger(l *Ledger) Option { return func(o *Orchestrator) { o.ledger = l } }

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// NewOrchestrator wires the committee and proof verifier together and
// announces the committee on the bus.
func NewOrchestrator(committee *governance.Committee, verifier *mintcircuit.Verifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		committee: committee,
		verifier:  verifier,
		licenses:  make(map[string]*License),
		ledger:    NewLedger(),
		oracle:    AllowAll{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.bus.Publish(EventCommitteeInitialized, CommitteeInitializedData{
		Members:   committee.Size(),
		Threshold: committee.Threshold(),
		Epoch:     committee.Epoch(),
	})
	return o
}

// RegisterLicense installs or replaces a minter's license.
func (o *Orchestrator) RegisterLicense(l *License) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.licenses[l.Minter] = l
}

// License returns the license registered for a minter.
func (o *Orchestrator) License(minter string) (*License, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.licenses[minter]
	return l, ok
}

// Ledger exposes the audit ledger (for persistence and inspection).
func (o *Orchestrator) Ledger() *Ledger { return o.ledger }

// Committee exposes the governed committee.
func (o *Orchestrator) Committee() *governance.Committee { return o.committee }

// SubmitMint runs the fail-closed admission pipeline. The returned error is
// nil iff the mint was admitted and recorded.
func (o *Orchestrator) SubmitMint(sub Submission) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.validate(sub); err != nil {
		o.bus.Publish(EventMintFailed, MintFailedData{
			Reason: ReasonFor(err),
			Nonce:  sub.Public.Nonce,
		})
		return err
	}

	// Commit: all checks passed. The record is appended before any counter
	// moves, so a failed append rejects with every piece of state untouched.
	if err := o.ledger.Append(NewRecord(sub.Minter, sub.Public, o.now())); err != nil {
		o.bus.Publish(EventMintFailed, MintFailedData{Reason: ReasonFor(err), Nonce: sub.Public.Nonce})
		return err
	}
	o.licenses[sub.Minter].NextNonce++
	o.committee.AdvanceNonce()

	o.bus.Publish(EventMintSucceeded, MintSucceededData{
		CommitmentX:   sub.Public.CommitmentX,
		CommitmentY:   sub.Public.CommitmentY,
		AuthorityHash: sub.Public.AuthorityHash,
		Nonce:         sub.Public.Nonce,
		Epoch:         sub.Public.Epoch,
	})
	return nil
}

func (o *Orchestrator) validate(sub Submission) error {
	// 1. Fixed proof size, before any curve work.
	if len(sub.Proof) != mintcircuit.ProofLength {
		return fmt.Errorf("%w: got %d, want %d", mintcircuit.ErrInvalidProofLength, len(sub.Proof), mintcircuit.ProofLength)
	}

	lic, ok := o.licenses[sub.Minter]
	if !ok {
		return fmt.Errorf("%w: %s", ErrLicenseNotFound, sub.Minter)
	}

	// 2. Strict nonce equality: rejects both replay and skipping.
	if sub.Public.Nonce != lic.NextNonce {
		return fmt.Errorf("%w: got %d, expected %d", ErrNonceMismatch, sub.Public.Nonce, lic.NextNonce)
	}

	// 3. Exact epoch: rejects stale and forward-dated proofs.
	if sub.Public.Epoch != o.committee.Epoch() {
		return fmt.Errorf("%w: got %d, current %d", ErrEpochMismatch, sub.Public.Epoch, o.committee.Epoch())
	}

	// 4. License bindings: the proof must speak for this minter's key and
	// this minter's policy limit, not a differently-policed witness.
	if sub.Public.AuthorityHash != lic.AuthorityHash {
		return ErrAuthorityHashMismatch
	}
	if sub.Public.LimitHash != lic.LimitHash {
		return ErrLimitHashMismatch
	}

	// 5. Quorum signature over the canonical serialization.
	if err := threshold.Verify(o.committee.MemberPubKeys(), o.committee.Threshold(), sub.Signature, sub.Public.SigningMessage()); err != nil {
		return fmt.Errorf("%w: %w", ErrThresholdSignatureFailed, err)
	}

	// 6. Compliance verdict.
	if !o.oracle.TransferPermitted(sub.Minter, sub.Public) {
		return ErrComplianceDenied
	}

	// 7. The pairing check, last and most expensive.
	return o.verifier.Verify(sub.Proof, sub.Public)
}

// AdvanceEpoch increments the committee epoch under its capability and
// emits the notification.
func (o *Orchestrator) AdvanceEpoch(cap *governance.Capability) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	epoch, err := o.committee.AdvanceEpoch(cap)
	if err != nil {
		return epoch, err
	}
	o.bus.Publish(EventEpochAdvanced, EpochAdvancedData{Epoch: epoch})
	return epoch, nil
}

// CreateProposal opens a governance proposal and emits the notification.
func (o *Orchestrator) CreateProposal(caller, action string, params []byte, expiryEpochs uint64) (*governance.Proposal, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, err := o.committee.CreateProposal(caller, action, params, expiryEpochs)
	if err != nil {
		return nil, err
	}
	o.bus.Publish(EventProposalCreated, ProposalData{
		ProposalID: p.ID,
		Action:     p.Action,
		Approvals:  p.Approvals(),
		Ready:      o.committee.ProposalReady(p),
	})
	return p, nil
}

// ApproveProposal records an approval and emits the notification.
func (o *Orchestrator) ApproveProposal(caller string, p *governance.Proposal) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.committee.ApproveProposal(caller, p); err != nil {
		return err
	}
	o.bus.Publish(EventProposalApproved, ProposalData{
		ProposalID: p.ID,
		Action:     p.Action,
		Approvals:  p.Approvals(),
		Ready:      o.committee.ProposalReady(p),
	})
	return nil
}

// ExecuteProposal seals a ready proposal and emits the notification.
func (o *Orchestrator) ExecuteProposal(caller string, p *governance.Proposal) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.committee.ExecuteProposal(caller, p); err != nil {
		return err
	}
	o.bus.Publish(EventProposalExecuted, ProposalData{
		ProposalID: p.ID,
		Action:     p.Action,
		Approvals:  p.Approvals(),
		Ready:      true,
	})
	return nil
}
