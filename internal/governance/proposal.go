// proposal.go - Proposal lifecycle: Created -> Approving -> Ready ->
// Executed, or Expired once the epoch passes the expiry offset.
//
// Expiry is evaluated lazily, at approval and execution time only. Reaching
// quorum is established here; applying the proposed action belongs to
// whichever module owns the action type.

package governance

import (
	"errors"
	"fmt"
)

var (
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")
	ErrProposalExpired         = errors.New("proposal expired")
	ErrProposalNotReady        = errors.New("proposal has not reached quorum")
)

// Proposal is a pending governance action with its distinct-approver set.
type Proposal struct {
	ID           uint64
	Action       string
	Params       []byte
	approvers    map[string]struct{}
	CreatedEpoch uint64
	ExpiryEpochs uint64
	Executed     bool
}

// CreateProposal opens a proposal. The caller must be a current member and
// is auto-counted as the first approver.
func (c *Committee) CreateProposal(caller, action string, params []byte, expiryEpochs uint64) (*Proposal, error) {
	if !c.IsMember(caller) {
		return nil, fmt.Errorf("%w: %s", ErrNotGovernor, caller)
	}
	c.proposalID++
	p := &Proposal{
		ID:           c.proposalID,
		Action:       action,
		Params:       params,
		approvers:    map[string]struct{}{caller: {}},
		CreatedEpoch: c.epoch,
		ExpiryEpochs: expiryEpochs,
	}
	return p, nil
}

// ApproveProposal records the caller's approval. Approving twice is a no-op;
// executed or expired proposals reject.
func (c *Committee) ApproveProposal(caller string, p *Proposal) error {
	if !c.IsMember(caller) {
		return fmt.Errorf("%w: %s", ErrNotGovernor, caller)
	}
	if p.Executed {
		return ErrProposalAlreadyExecuted
	}
	if c.proposalExpired(p) {
		return fmt.Errorf("%w: created at epoch %d, expiry %d, now %d", ErrProposalExpired, p.CreatedEpoch, p.ExpiryEpochs, c.epoch)
	}
	p.approvers[caller] = struct{}{}
	return nil
}

// ProposalReady reports whether distinct approvals meet the threshold.
func (c *Committee) ProposalReady(p *Proposal) bool {
	return len(p.approvers) >= c.threshold
}

// ExecuteProposal marks a ready proposal executed. The action itself is
// applied by its owning module; this only seals that quorum was reached.
func (c *Committee) ExecuteProposal(caller string, p *Proposal) error {
	if !c.IsMember(caller) {
		return fmt.Errorf("%w: %s", ErrNotGovernor, caller)
	}
	if p.Executed {
		return ErrProposalAlreadyExecuted
	}
	if c.proposalExpired(p) {
		return fmt.Errorf("%w: created at epoch %d, expiry %d, now %d", ErrProposalExpired, p.CreatedEpoch, p.ExpiryEpochs, c.epoch)
	}
	if !c.ProposalReady(p) {
		return fmt.Errorf("%w: %d/%d approvals", ErrProposalNotReady, len(p.approvers), c.threshold)
	}
	p.Executed = true
	return nil
}

// Approvals returns the distinct-approver count.
func (p *Proposal) Approvals() int { return len(p.approvers) }

func (c *Committee) proposalExpired(p *Proposal) bool {
	return c.epoch > p.CreatedEpoch+p.ExpiryEpochs
}
