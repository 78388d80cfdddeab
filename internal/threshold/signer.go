// signer.go - Signer-side share generation and quorum signing.
//
// Signature collection is an out-of-band coordination protocol among
// governors; the helpers here model one honest coordination round, which is
// what the tests and local tooling need. Verification never depends on them.

package threshold

import (
	"fmt"
	"math/big"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Share is one governor's slice of the committee signing secret: the
// evaluation of the dealer polynomial at x = index + 1, plus its public
// image.
type Share struct {
	Index  int
	Secret fr.Element
	Public bn254.G1Affine
}

// Deal splits a fresh random secret into n shares with reconstruction
// threshold t and returns the shares together with the group public key.
// Any t shares interpolate the secret at zero; fewer reveal nothing.
func Deal(n, t int) ([]Share, bn254.G1Affine, error) {
	if t < 1 || t > n {
		return nil, bn254.G1Affine{}, fmt.Errorf("invalid sharing parameters n=%d t=%d", n, t)
	}

	coeffs := make([]fr.Element, t)
	for i := range coeffs {
		if _, err := coeffs[i].SetRandom(); err != nil {
			return nil, bn254.G1Affine{}, fmt.Errorf("share generation failed: %w", err)
		}
	}

	shares := make([]Share, n)
	for i := range shares {
		var x fr.Element
		x.SetUint64(uint64(i) + 1)
		shares[i].Index = i
		shares[i].Secret = evalPoly(coeffs, x)
		shares[i].Public.ScalarMultiplicationBase(shares[i].Secret.BigInt(new(big.Int)))
	}

	var groupKey bn254.G1Affine
	groupKey.ScalarMultiplicationBase(coeffs[0].BigInt(new(big.Int)))
	return shares, groupKey, nil
}

// PublicKeys extracts the per-share public keys in index order, the shape
// committee membership stores.
func PublicKeys(shares []Share) []bn254.G1Affine {
	keys := make([]bn254.G1Affine, len(shares))
	for i, s := range shares {
		keys[i] = s.Public
	}
	return keys
}

// Sign produces an aggregate signature over message from the shares at the
// given indices. Each participant contributes a nonce commitment and a
// Lagrange-weighted partial; the sum satisfies s*G = R + e*Y_agg.
func Sign(shares []Share, indices []int, message []byte) (*Signature, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(shares) {
			return nil, fmt.Errorf("%w: index %d", ErrSignerOutOfRange, idx)
		}
	}
	coeffs, err := lagrangeCoefficients(indices)
	if err != nil {
		return nil, err
	}

	nonces := make([]fr.Element, len(indices))
	var r bn254.G1Affine
	for pos := range indices {
		if _, err := nonces[pos].SetRandom(); err != nil {
			return nil, fmt.Errorf("nonce generation failed: %w", err)
		}
		var ri bn254.G1Affine
		ri.ScalarMultiplicationBase(nonces[pos].BigInt(new(big.Int)))
		r.Add(&r, &ri)
	}

	yAgg, err := aggregatePublicKey(PublicKeys(shares), indices)
	if err != nil {
		return nil, err
	}
	e := challenge(&r, &yAgg, message)

	// s = sum(k_i + e * lambda_i * s_i)
	var s fr.Element
	for pos, idx := range indices {
		var part fr.Element
		part.Mul(&e, &coeffs[pos])
		part.Mul(&part, &shares[idx].Secret)
		part.Add(&part, &nonces[pos])
		s.Add(&s, &part)
	}

	sig := &Signature{R: r, S: s}
	sig.SignerIndices = append(sig.SignerIndices, indices...)
	return sig, nil
}

// evalPoly evaluates the dealer polynomial at x by Horner's rule.
func evalPoly(coeffs []fr.Element, x fr.Element) fr.Element {
	var acc fr.Element
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc.Mul(&acc, &x)
		acc.Add(&acc, &coeffs[i])
	}
	return acc
}
