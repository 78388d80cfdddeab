package mintcircuit

import (
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"
)

// AmountBits is the width of the range decomposition for amounts and limits.
const AmountBits = 64

// MintCircuit proves, without revealing the witness, that:
//
//	C = amount*G + blinding*H
//	0 < amount <= dailyLimit < 2^64
//	MiMC(pubkey) = authorityHash
//	MiMC(dailyLimit) = limitHash
//
// Public inputs are declared in canonical signal order; verifiers repack the
// authorization context into the same order.
type MintCircuit struct {
	// Public inputs
	CommitmentX   frontend.Variable `gnark:",public"`
	CommitmentY   frontend.Variable `gnark:",public"`
	AuthorityHash frontend.Variable `gnark:",public"`
	LimitHash     frontend.Variable `gnark:",public"`
	Nonce         frontend.Variable `gnark:",public"`
	Epoch         frontend.Variable `gnark:",public"`

	// Private inputs
	Amount     frontend.Variable
	Blinding   frontend.Variable
	Pubkey     frontend.Variable
	DailyLimit frontend.Variable
}

func (c *MintCircuit) Define(api frontend.API) error {
	// Step 1: range decomposition. ToBinary enforces that amount and
	// dailyLimit are exactly 64 boolean digits whose weighted sum
	// reconstructs the value. The limit is range-checked too: without it a
	// limit near the field modulus would wrap and bypass the policy bound.
	api.ToBinary(c.Amount, AmountBits)
	api.ToBinary(c.DailyLimit, AmountBits)

	// Step 2: policy bounds (amount > 0, amount <= dailyLimit)
	api.AssertIsDifferent(c.Amount, 0)
	api.AssertIsLessOrEqual(c.Amount, c.DailyLimit)

	// Step 3: Pedersen commitment (C = amount*G + blinding*H)
	curve, err := twistededwards.NewEdCurve(api, tedwards.BN254)
	if err != nil {
		return err
	}
	g, h := pedersenBases()
	gPoint := twistededwards.Point{X: g.X.BigInt(new(big.Int)), Y: g.Y.BigInt(new(big.Int))}
	hPoint := twistededwards.Point{X: h.X.BigInt(new(big.Int)), Y: h.Y.BigInt(new(big.Int))}
	commitment := curve.DoubleBaseScalarMul(gPoint, hPoint, c.Amount, c.Blinding)
	curve.AssertIsOnCurve(commitment)
	api.AssertIsEqual(c.CommitmentX, commitment.X)
	api.AssertIsEqual(c.CommitmentY, commitment.Y)

	// Step 4: authority binding (MiMC(pubkey) = authorityHash)
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.Pubkey)
	api.AssertIsEqual(c.AuthorityHash, hasher.Sum())

	// Step 5: limit binding (MiMC(dailyLimit) = limitHash)
	hasher.Reset()
	hasher.Write(c.DailyLimit)
	api.AssertIsEqual(c.LimitHash, hasher.Sum())

	// Step 6: replay-prevention fields are part of the statement and must
	// fit the 8-byte wire encoding
	api.ToBinary(c.Nonce, AmountBits)
	api.ToBinary(c.Epoch, AmountBits)

	return nil
}
