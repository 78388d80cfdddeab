// Package threshold implements quorum signature verification for mint
// authorizations: a Schnorr-style check s*G = R + e*Y_agg where Y_agg is the
// Lagrange interpolation of the participating governors' public-key shares.
//
// Verification fails closed on every malformed input: too few signers,
// duplicate indices, indices outside the committee, or a bad equation all
// reject. There is deliberately no permissive path.
package threshold

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// SignatureLength is the fixed binary size of an encoded signature header:
// R (compressed G1, 32) + s (fr scalar, 32) + signer count (1), followed by
// one byte per signer index.
const SignatureLength = 65

var (
	ErrInsufficientSigners = errors.New("fewer signers than threshold")
	ErrDuplicateSigner     = errors.New("duplicate signer index")
	ErrSignerOutOfRange    = errors.New("signer index outside committee")
	ErrSignatureInvalid    = errors.New("threshold signature invalid")
	ErrMalformedSignature  = errors.New("malformed threshold signature")
)

// Signature is an aggregate Schnorr signature produced by a quorum of
// governors over the canonical public-input serialization.
type Signature struct {
	R             bn254.G1Affine
	S             fr.Element
	SignerIndices []int
}

// Bytes encodes the signature as R || s || count || indices.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureLength+len(sig.SignerIndices))
	r := sig.R.Bytes()
	out = append(out, r[:]...)
	s := sig.S.Bytes()
	out = append(out, s[:]...)
	out = append(out, byte(len(sig.SignerIndices)))
	for _, idx := range sig.SignerIndices {
		out = append(out, byte(idx))
	}
	return out
}

// SignatureFromBytes decodes the R || s || count || indices layout.
func SignatureFromBytes(data []byte) (*Signature, error) {
	if len(data) < SignatureLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedSignature, len(data))
	}
	var sig Signature
	if _, err := sig.R.SetBytes(data[0:32]); err != nil {
		return nil, fmt.Errorf("%w: nonce point: %v", ErrMalformedSignature, err)
	}
	sig.S.SetBytes(data[32:64])
	count := int(data[64])
	if len(data) != SignatureLength+count {
		return nil, fmt.Errorf("%w: index list truncated", ErrMalformedSignature)
	}
	sig.SignerIndices = make([]int, count)
	for i := range count {
		sig.SignerIndices[i] = int(data[SignatureLength+i])
	}
	return &sig, nil
}

// Verify checks sig over message against the committee's public-key shares.
// Checks run in order: quorum size, index distinctness, index membership,
// then the Schnorr equation with the Lagrange-aggregated public key.
func Verify(pubKeys []bn254.G1Affine, quorum int, sig *Signature, message []byte) error {
	if sig == nil {
		return ErrMalformedSignature
	}
	if len(sig.SignerIndices) < quorum {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientSigners, len(sig.SignerIndices), quorum)
	}
	seen := make(map[int]struct{}, len(sig.SignerIndices))
	for _, idx := range sig.SignerIndices {
		if idx < 0 || idx >= len(pubKeys) {
			return fmt.Errorf("%w: index %d, committee size %d", ErrSignerOutOfRange, idx, len(pubKeys))
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: index %d", ErrDuplicateSigner, idx)
		}
		seen[idx] = struct{}{}
	}

	yAgg, err := aggregatePublicKey(pubKeys, sig.SignerIndices)
	if err != nil {
		return err
	}

	e := challenge(&sig.R, &yAgg, message)

	// s*G == R + e*Y_agg
	var lhs, eY, rhs bn254.G1Affine
	lhs.ScalarMultiplicationBase(sig.S.BigInt(new(big.Int)))
	eY.ScalarMultiplication(&yAgg, e.BigInt(new(big.Int)))
	rhs.Add(&sig.R, &eY)
	if !lhs.Equal(&rhs) {
		return ErrSignatureInvalid
	}
	return nil
}

// aggregatePublicKey recomputes Y_agg = sum(lambda_i * Y_i) over the signer
// subset, the interpolation of the committee secret's public image at zero.
func aggregatePublicKey(pubKeys []bn254.G1Affine, indices []int) (bn254.G1Affine, error) {
	coeffs, err := lagrangeCoefficients(indices)
	if err != nil {
		return bn254.G1Affine{}, err
	}
	var acc bn254.G1Affine
	for pos, idx := range indices {
		var term bn254.G1Affine
		term.ScalarMultiplication(&pubKeys[idx], coeffs[pos].BigInt(new(big.Int)))
		acc.Add(&acc, &term)
	}
	return acc, nil
}

// lagrangeCoefficients evaluates the basis polynomials at zero for the
// interpolation points x_i = index + 1.
func lagrangeCoefficients(indices []int) ([]fr.Element, error) {
	coeffs := make([]fr.Element, len(indices))
	for i, idxI := range indices {
		var xi fr.Element
		xi.SetUint64(uint64(idxI) + 1)

		var num, den fr.Element
		num.SetOne()
		den.SetOne()
		for j, idxJ := range indices {
			if j == i {
				continue
			}
			var xj, diff fr.Element
			xj.SetUint64(uint64(idxJ) + 1)
			diff.Sub(&xj, &xi)
			if diff.IsZero() {
				return nil, fmt.Errorf("%w: index %d", ErrDuplicateSigner, idxI)
			}
			num.Mul(&num, &xj)
			den.Mul(&den, &diff)
		}
		den.Inverse(&den)
		coeffs[i].Mul(&num, &den)
	}
	return coeffs, nil
}

// challenge derives the Fiat-Shamir scalar e = H(R || Y_agg || message).
func challenge(r, yAgg *bn254.G1Affine, message []byte) fr.Element {
	h := sha256.New()
	rb := r.Bytes()
	h.Write(rb[:])
	yb := yAgg.Bytes()
	h.Write(yb[:])
	h.Write(message)
	var e fr.Element
	e.SetBytes(h.Sum(nil))
	return e
}
