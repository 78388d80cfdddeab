// license.go - Per-minter mint license.

package mintauth

import (
	"github.com/sovchain/sovmint/internal/mintcircuit"
)

// License ties a minter to its policy: the daily limit bound into every
// proof, the authority hash of the minter's key, and the strictly
// sequential nonce. NextNonce advances by exactly one per admitted mint and
// never moves backwards.
type License struct {
	Minter        string
	AuthorityHash [32]byte
	DailyLimit    uint64
	LimitHash     [32]byte
	MintedToday   uint64
	NextNonce     uint64
}

// NewLicense derives the hash bindings for a minter key and daily limit.
// The amount stays hidden on the confidential path; MintedToday is fed by
// the transparent settlement leg, not by the orchestrator.
func NewLicense(minter string, pubkey [32]byte, dailyLimit uint64) *License {
	return &License{
		Minter:        minter,
		AuthorityHash: mintcircuit.AuthorityHash(pubkey),
		DailyLimit:    dailyLimit,
		LimitHash:     mintcircuit.LimitHash(dailyLimit),
	}
}

// RecordSettlement accumulates a disclosed settlement amount into the daily
// total.
func (l *License) RecordSettlement(amount uint64) {
	l.MintedToday += amount
}

// ResetDay clears the daily accumulator at the policy rollover.
func (l *License) ResetDay() {
	l.MintedToday = 0
}
