// Package governance implements the governor committee state machine:
// capability-gated membership, monotonic epoch and mint counters, and the
// proposal lifecycle.
//
// Exactly one Capability exists per committee; it is minted by NewCommittee
// and every mutation of membership or epochs requires it. Proposal expiry is
// checked lazily at approval/execution time, never by a background sweep.
//
// The package assumes an external total-order mechanism serializes calls; it
// carries no locking of its own.
package governance

import (
	"errors"
	"fmt"
	"sync/atomic"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
)

const (
	// MaxGovernors bounds committee size.
	MaxGovernors = 6
	// DefaultThreshold is the approval quorum used when none is given.
	DefaultThreshold = 4
)

var (
	ErrBadCapability          = errors.New("capability does not belong to this committee")
	ErrCommitteeSizeInvalid   = errors.New("committee size invalid")
	ErrGovernorAlreadyPresent = errors.New("governor already present")
	ErrGovernorNotFound       = errors.New("governor not found")
	ErrNotGovernor            = errors.New("caller is not a committee member")
)

// Governor is one committee member: an identity plus the BN254 public-key
// share used by threshold-signature verification. The share index is the
// member's position in the committee.
type Governor struct {
	Addr   string
	PubKey bn254.G1Affine
}

// Capability is the unique, non-duplicable authorization token for one
// committee. Only NewCommittee creates one; holders may mutate membership
// and advance epochs.
type Capability struct {
	committeeID uint64
}

// Committee is the governor set plus the counters every other component
// references: the epoch that bounds proof freshness and the global mint
// nonce.
type Committee struct {
	id         uint64
	members    []Governor
	threshold  int
	epoch      uint64
	nonce      uint64
	proposalID uint64
}

var committeeIDs atomic.Uint64

// NewCommittee creates a committee and mints its single capability.
// Invariant: threshold <= |members| <= MaxGovernors.
func NewCommittee(members []Governor, threshold int) (*Committee, *Capability, error) {
	if len(members) == 0 || len(members) > MaxGovernors {
		return nil, nil, fmt.Errorf("%w: %d members", ErrCommitteeSizeInvalid, len(members))
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold > len(members) {
		return nil, nil, fmt.Errorf("%w: threshold %d > %d members", ErrCommitteeSizeInvalid, threshold, len(members))
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.Addr]; dup {
			return nil, nil, fmt.Errorf("%w: %s", ErrGovernorAlreadyPresent, m.Addr)
		}
		seen[m.Addr] = struct{}{}
	}

	c := &Committee{
		id:        committeeIDs.Add(1),
		members:   append([]Governor(nil), members...),
		threshold: threshold,
	}
	return c, &Capability{committeeID: c.id}, nil
}

func (c *Committee) guard(cap *Capability) error {
	if cap == nil || cap.committeeID != c.id {
		return ErrBadCapability
	}
	return nil
}

// AddGovernor appends a member. Requires the committee's capability; fails
// if the address is already present or the committee is full.
func (c *Committee) AddGovernor(cap *Capability, g Governor) error {
	if err := c.guard(cap); err != nil {
		return err
	}
	if len(c.members) >= MaxGovernors {
		return fmt.Errorf("%w: already %d members", ErrCommitteeSizeInvalid, len(c.members))
	}
	if c.indexOf(g.Addr) >= 0 {
		return fmt.Errorf("%w: %s", ErrGovernorAlreadyPresent, g.Addr)
	}
	c.members = append(c.members, g)
	return nil
}

// RemoveGovernor drops a member. Requires the capability; fails if the
// address is absent or removal would break the threshold invariant.
func (c *Committee) RemoveGovernor(cap *Capability, addr string) error {
	if err := c.guard(cap); err != nil {
		return err
	}
	idx := c.indexOf(addr)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrGovernorNotFound, addr)
	}
	if len(c.members)-1 < c.threshold {
		return fmt.Errorf("%w: %d members cannot satisfy threshold %d", ErrCommitteeSizeInvalid, len(c.members)-1, c.threshold)
	}
	c.members = append(c.members[:idx], c.members[idx+1:]...)
	return nil
}

// AdvanceEpoch monotonically increments the epoch. Requires the capability.
func (c *Committee) AdvanceEpoch(cap *Capability) (uint64, error) {
	if err := c.guard(cap); err != nil {
		return c.epoch, err
	}
	c.epoch++
	return c.epoch, nil
}

// SetEpoch initializes the epoch counter, e.g. when resuming from a
// persisted state. It never moves the counter backwards.
func (c *Committee) SetEpoch(cap *Capability, epoch uint64) error {
	if err := c.guard(cap); err != nil {
		return err
	}
	if epoch > c.epoch {
		c.epoch = epoch
	}
	return nil
}

// AdvanceNonce increments the global mint counter. Called by the mint
// orchestrator on every admitted mint; unlike membership and epochs it is
// not capability-gated, since admission itself is the serialized gate.
func (c *Committee) AdvanceNonce() uint64 {
	c.nonce++
	return c.nonce
}

// Epoch returns the current epoch.
func (c *Committee) Epoch() uint64 { return c.epoch }

// Nonce returns the global mint counter.
func (c *Committee) Nonce() uint64 { return c.nonce }

// Threshold returns the approval quorum.
func (c *Committee) Threshold() int { return c.threshold }

// Size returns the current member count.
func (c *Committee) Size() int { return len(c.members) }

// IsMember reports whether addr currently sits on the committee.
func (c *Committee) IsMember(addr string) bool { return c.indexOf(addr) >= 0 }

// MemberPubKeys returns the public-key shares in index order, the shape the
// threshold-signature verifier consumes.
func (c *Committee) MemberPubKeys() []bn254.G1Affine {
	keys := make([]bn254.G1Affine, len(c.members))
	for i, m := range c.members {
		keys[i] = m.PubKey
	}
	return keys
}

// Members returns a copy of the member list.
func (c *Committee) Members() []Governor {
	return append([]Governor(nil), c.members...)
}

func (c *Committee) indexOf(addr string) int {
	for i, m := range c.members {
		if m.Addr == addr {
			return i
		}
	}
	return -1
}
