// witness.go - Private witness for the minting relation.

package mintcircuit

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrZeroAmount  = errors.New("amount must be positive")
	ErrOverLimit   = errors.New("amount exceeds daily limit")
	ErrNilBlinding = errors.New("blinding factor is nil")
)

// Witness is the minter's private input: the hidden amount, the commitment
// blinding factor, the minter public key, and the policy daily limit.
type Witness struct {
	Amount     uint64
	Blinding   *big.Int
	Pubkey     [32]byte
	DailyLimit uint64
}

// NewWitness builds a witness with a fresh random blinding factor.
func NewWitness(amount uint64, pubkey [32]byte, dailyLimit uint64) (*Witness, error) {
	blinding, err := RandomBlinding()
	if err != nil {
		return nil, fmt.Errorf("blinding generation failed: %w", err)
	}
	return &Witness{
		Amount:     amount,
		Blinding:   blinding,
		Pubkey:     pubkey,
		DailyLimit: dailyLimit,
	}, nil
}

// Validate checks the policy bounds the circuit will enforce. Failing early
// here saves the caller a multi-second proving run that cannot succeed.
func (w *Witness) Validate() error {
	if w.Blinding == nil {
		return ErrNilBlinding
	}
	if w.Amount == 0 {
		return ErrZeroAmount
	}
	if w.Amount > w.DailyLimit {
		return ErrOverLimit
	}
	return nil
}

// PublicInputs derives the full authorization context for this witness at
// the given replay counters.
func (w *Witness) PublicInputs(nonce, epoch uint64) PublicInputs {
	cx, cy := Commit(w.Amount, w.Blinding)
	return PublicInputs{
		CommitmentX:   cx.Bytes(),
		CommitmentY:   cy.Bytes(),
		AuthorityHash: AuthorityHash(w.Pubkey),
		LimitHash:     LimitHash(w.DailyLimit),
		Nonce:         nonce,
		Epoch:         epoch,
	}
}

// assignment returns the full circuit assignment (public and private).
func (w *Witness) assignment(pub *PublicInputs) *MintCircuit {
	a := pub.assignment()
	a.Amount = w.Amount
	a.Blinding = w.Blinding
	pk := hashToField(w.Pubkey[:])
	a.Pubkey = pk.BigInt(new(big.Int))
	a.DailyLimit = w.DailyLimit
	return a
}
