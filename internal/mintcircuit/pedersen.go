// pedersen.go - Pedersen commitment over the Baby Jubjub curve.
//
// The commitment scheme is perfectly hiding (the blinding factor masks the
// amount) and computationally binding (two openings of the same point yield a
// discrete-log relation between G and H).

package mintcircuit

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

// pedersenHTag is the domain tag fed to the hash-to-point derivation of H.
// Changing it changes the relation and invalidates every existing key.
const pedersenHTag = "sovmint/pedersen/generator-h/v1"

var (
	basesOnce sync.Once
	baseG     twistededwards.PointAffine
	baseH     twistededwards.PointAffine
)

// pedersenBases returns the two commitment generators. G is the standard
// Baby Jubjub base point; H is hash-derived with no known discrete-log
// relation to G.
func pedersenBases() (twistededwards.PointAffine, twistededwards.PointAffine) {
	basesOnce.Do(func() {
		params := twistededwards.GetEdwardsCurve()
		baseG = params.Base
		baseH = deriveGenerator(pedersenHTag)
	})
	return baseG, baseH
}

// deriveGenerator maps a domain tag to a prime-order curve point by
// try-and-increment: y = MiMC(tag, counter), solve a*x^2 + y^2 = 1 + d*x^2*y^2
// for x, then clear the cofactor.
func deriveGenerator(tag string) twistededwards.PointAffine {
	params := twistededwards.GetEdwardsCurve()
	cofactor := params.Cofactor.BigInt(new(big.Int))

	var tagFr fr.Element
	tagFr.SetBytes([]byte(tag))
	tagBytes := tagFr.Bytes()

	for ctr := uint64(0); ; ctr++ {
		var ctrFr fr.Element
		ctrFr.SetUint64(ctr)
		ctrBytes := ctrFr.Bytes()

		h := mimc.NewMiMC()
		h.Write(tagBytes[:])
		h.Write(ctrBytes[:])

		var y fr.Element
		y.SetBytes(h.Sum(nil))

		// x^2 = (1 - y^2) / (a - d*y^2)
		var y2, num, den, x2, x fr.Element
		y2.Square(&y)
		num.SetOne()
		num.Sub(&num, &y2)
		den.Mul(&params.D, &y2)
		den.Sub(&params.A, &den)
		if den.IsZero() {
			continue
		}
		den.Inverse(&den)
		x2.Mul(&num, &den)
		if x.Sqrt(&x2) == nil {
			continue
		}

		var p twistededwards.PointAffine
		p.X = x
		p.Y = y
		if !p.IsOnCurve() {
			continue
		}
		p.ScalarMultiplication(&p, cofactor)
		// (0, 1) is the identity
		if p.X.IsZero() {
			continue
		}
		return p
	}
}

// Commit computes C = amount*G + blinding*H and returns its affine
// coordinates. Deterministic for fixed (amount, blinding).
func Commit(amount uint64, blinding *big.Int) (fr.Element, fr.Element) {
	g, h := pedersenBases()

	var aG, bH, c twistededwards.PointAffine
	aG.ScalarMultiplication(&g, new(big.Int).SetUint64(amount))
	bH.ScalarMultiplication(&h, blinding)
	c.Add(&aG, &bH)
	return c.X, c.Y
}

// RandomBlinding draws a uniform blinding factor below the Baby Jubjub
// subgroup order.
func RandomBlinding() (*big.Int, error) {
	params := twistededwards.GetEdwardsCurve()
	return rand.Int(rand.Reader, &params.Order)
}

// hashToField reduces arbitrary bytes into the scalar field, used for the
// authority and limit hash bindings.
func hashToField(data []byte) fr.Element {
	var e fr.Element
	e.SetBytes(data)
	return e
}

// AuthorityHash computes the MiMC binding of a minter public key. The key is
// reduced into the field so the native value matches the in-circuit witness.
func AuthorityHash(pubkey [32]byte) [32]byte {
	pk := hashToField(pubkey[:])
	pkBytes := pk.Bytes()

	h := mimc.NewMiMC()
	h.Write(pkBytes[:])

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out.Bytes()
}

// LimitHash computes the MiMC binding of a policy daily limit.
func LimitHash(dailyLimit uint64) [32]byte {
	var l fr.Element
	l.SetUint64(dailyLimit)
	lBytes := l.Bytes()

	h := mimc.NewMiMC()
	h.Write(lBytes[:])

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out.Bytes()
}
