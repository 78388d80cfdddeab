// public_inputs.go - Canonical public-input context shared by the proof
// verifier, the threshold-signature verifier, and the mint orchestrator.
//
// The byte layouts here are load-bearing: the 144-byte signing message and
// the 6-element public-signal packing must match what governors sign and
// what the constraint system declares.

package mintcircuit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
)

const (
	// ProofLength is the compressed Groth16 proof size on BN254:
	// A (G1, 32) + B (G2, 64) + C (G1, 32).
	ProofLength = 128

	// MessageLength is the canonical signing-message size:
	// four 32-byte field encodings plus two 8-byte little-endian counters.
	MessageLength = 144

	// NumPublicInputs is the declared public-signal count of the circuit.
	NumPublicInputs = 6
)

var (
	ErrInvalidProofLength       = errors.New("invalid proof length")
	ErrInvalidPublicInputLength = errors.New("invalid public input length")
)

// PublicInputs is the mint authorization context: everything that was proved
// and everything the governor quorum signed. Immutable once constructed.
type PublicInputs struct {
	CommitmentX   [32]byte `json:"commitment_x"`
	CommitmentY   [32]byte `json:"commitment_y"`
	AuthorityHash [32]byte `json:"authority_hash"`
	LimitHash     [32]byte `json:"limit_hash"`
	Nonce         uint64   `json:"nonce"`
	Epoch         uint64   `json:"epoch"`
}

// SigningMessage returns the exact 144-byte message governors co-sign:
// Cx || Cy || authorityHash || limitHash || nonce LE || epoch LE.
func (p *PublicInputs) SigningMessage() []byte {
	msg := make([]byte, 0, MessageLength)
	msg = append(msg, p.CommitmentX[:]...)
	msg = append(msg, p.CommitmentY[:]...)
	msg = append(msg, p.AuthorityHash[:]...)
	msg = append(msg, p.LimitHash[:]...)
	nonce := uint64LE(p.Nonce)
	msg = append(msg, nonce[:]...)
	epoch := uint64LE(p.Epoch)
	msg = append(msg, epoch[:]...)
	return msg
}

// uint64LE fixes the counter encoding for the canonical serialization.
func uint64LE(v uint64) [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b
}

// PublicInputsFromBytes parses the canonical 144-byte serialization.
func PublicInputsFromBytes(b []byte) (PublicInputs, error) {
	var p PublicInputs
	if len(b) != MessageLength {
		return p, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicInputLength, len(b), MessageLength)
	}
	copy(p.CommitmentX[:], b[0:32])
	copy(p.CommitmentY[:], b[32:64])
	copy(p.AuthorityHash[:], b[64:96])
	copy(p.LimitHash[:], b[96:128])
	p.Nonce = binary.LittleEndian.Uint64(b[128:136])
	p.Epoch = binary.LittleEndian.Uint64(b[136:144])
	return p, nil
}

// assignment returns a circuit assignment carrying only the public signals,
// in declared order. Nonce and epoch are zero-extended into full field
// elements by the witness builder.
func (p *PublicInputs) assignment() *MintCircuit {
	return &MintCircuit{
		CommitmentX:   new(big.Int).SetBytes(p.CommitmentX[:]),
		CommitmentY:   new(big.Int).SetBytes(p.CommitmentY[:]),
		AuthorityHash: new(big.Int).SetBytes(p.AuthorityHash[:]),
		LimitHash:     new(big.Int).SetBytes(p.LimitHash[:]),
		Nonce:         p.Nonce,
		Epoch:         p.Epoch,
	}
}

// PublicWitness packs the context into the 6 public field elements expected
// by the pairing check.
func (p *PublicInputs) PublicWitness() (witness.Witness, error) {
	w, err := frontend.NewWitness(p.assignment(), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("public witness creation failed: %w", err)
	}
	return w, nil
}
