// prover.go - Groth16 proof generation for the minting relation.
//
// Proving is a CPU-bound, seconds-scale operation performed off-chain by the
// minter. Nothing here touches shared state.

package mintcircuit

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Prover generates minting proofs against a fixed constraint system and
// proving key.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
}

// NewProver wraps a compiled constraint system and its proving key.
func NewProver(ccs constraint.ConstraintSystem, pk groth16.ProvingKey) *Prover {
	return &Prover{ccs: ccs, pk: pk}
}

// Prove validates the witness, derives the authorization context for the
// given replay counters, and produces the fixed 128-byte proof.
func (p *Prover) Prove(w *Witness, nonce, epoch uint64) ([]byte, PublicInputs, error) {
	if err := w.Validate(); err != nil {
		return nil, PublicInputs{}, fmt.Errorf("invalid witness: %w", err)
	}

	pub := w.PublicInputs(nonce, epoch)
	fullWitness, err := frontend.NewWitness(w.assignment(&pub), ecc.BN254.ScalarField())
	if err != nil {
		return nil, PublicInputs{}, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(p.ccs, p.pk, fullWitness)
	if err != nil {
		return nil, PublicInputs{}, fmt.Errorf("proof generation failed: %w", err)
	}

	proofBytes, err := MarshalProof(proof)
	if err != nil {
		return nil, PublicInputs{}, err
	}
	return proofBytes, pub, nil
}

// MarshalProof serializes a BN254 Groth16 proof into the fixed 128-byte
// on-chain layout: A (G1 compressed) || B (G2 compressed) || C (G1
// compressed).
func MarshalProof(proof groth16.Proof) ([]byte, error) {
	bp, ok := proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", proof)
	}
	var buf bytes.Buffer
	buf.Grow(ProofLength)
	a := bp.Ar.Bytes()
	buf.Write(a[:])
	b := bp.Bs.Bytes()
	buf.Write(b[:])
	c := bp.Krs.Bytes()
	buf.Write(c[:])
	return buf.Bytes(), nil
}

// UnmarshalProof parses the fixed 128-byte proof layout. Each point is
// decompressed with subgroup checks; any malformed encoding fails closed.
func UnmarshalProof(data []byte) (groth16.Proof, error) {
	if len(data) != ProofLength {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidProofLength, len(data), ProofLength)
	}
	var bp groth16_bn254.Proof
	if _, err := bp.Ar.SetBytes(data[0:32]); err != nil {
		return nil, fmt.Errorf("proof point A: %w", err)
	}
	if _, err := bp.Bs.SetBytes(data[32:96]); err != nil {
		return nil, fmt.Errorf("proof point B: %w", err)
	}
	if _, err := bp.Krs.SetBytes(data[96:128]); err != nil {
		return nil, fmt.Errorf("proof point C: %w", err)
	}
	return &bp, nil
}
