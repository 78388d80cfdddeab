// verifier.go - Groth16 proof verification for the minting relation.
//
// Verification is one pairing equation against a verifying key prepared at
// load time, O(1) in the constraint count. Length checks reject malformed
// submissions before any curve arithmetic runs.

package mintcircuit

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"
)

// ErrProofVerificationFailed reports a well-formed proof that does not
// satisfy the pairing check for the given public inputs.
var ErrProofVerificationFailed = errors.New("proof verification failed")

// Verifier checks minting proofs against a fixed verifying key.
type Verifier struct {
	vk groth16.VerifyingKey
}

// NewVerifier wraps an already-loaded verifying key.
func NewVerifier(vk groth16.VerifyingKey) *Verifier {
	return &Verifier{vk: vk}
}

// LoadVerifier reads the verifying key from disk. A malformed key is fatal
// here, at initialization, never per submission.
func LoadVerifier(path string) (*Verifier, error) {
	vk, err := LoadVerifyingKey(path)
	if err != nil {
		return nil, fmt.Errorf("verifying key load failed: %w", err)
	}
	return NewVerifier(vk), nil
}

// Verify checks the 128-byte proof against the repacked public inputs.
// Returns nil iff the proof is valid for exactly this context.
func (v *Verifier) Verify(proofBytes []byte, pub PublicInputs) error {
	proof, err := UnmarshalProof(proofBytes)
	if err != nil {
		return err
	}
	w, err := pub.PublicWitness()
	if err != nil {
		return err
	}
	if err := groth16.Verify(proof, v.vk, w); err != nil {
		return fmt.Errorf("%w: %v", ErrProofVerificationFailed, err)
	}
	return nil
}
