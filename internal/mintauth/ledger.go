// ledger.go - Append-only audit ledger of confidential mint records.
//
// A record never reveals the amount: only the commitment, the counters, and
// a timestamp. The ledger persists as a single JSON file.
//
// NOTE: Ledger is not thread-safe by itself; the orchestrator serializes
// access.

package mintauth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sovchain/sovmint/internal/mintcircuit"
)

// Record is one admitted confidential mint. Nonces are sequenced per
// license, so records are keyed by (minter, nonce).
type Record struct {
	Minter      string    `json:"minter"`
	CommitmentX string    `json:"commitment_x"` // hex
	CommitmentY string    `json:"commitment_y"` // hex
	Epoch       uint64    `json:"epoch"`
	Nonce       uint64    `json:"nonce"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecord builds the audit entry for an admitted context.
func NewRecord(minter string, pub mintcircuit.PublicInputs, ts time.Time) Record {
	return Record{
		Minter:      minter,
		CommitmentX: hex.EncodeToString(pub.CommitmentX[:]),
		CommitmentY: hex.EncodeToString(pub.CommitmentY[:]),
		Epoch:       pub.Epoch,
		Nonce:       pub.Nonce,
		Timestamp:   ts,
	}
}

// Ledger is the canonical, append-only list of mint records.
type Ledger struct {
	Records []Record `json:"records"`
}

// NewLedger creates a new, empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Records: make([]Record, 0)}
}

// Append adds a record. Per-minter nonce uniqueness is guaranteed upstream
// by the orchestrator; the check here catches corruption.
func (l *Ledger) Append(r Record) error {
	if l.HasRecord(r.Minter, r.Nonce) {
		return fmt.Errorf("%w: %s/%d", ErrDuplicateRecord, r.Minter, r.Nonce)
	}
	l.Records = append(l.Records, r)
	return nil
}

// HasRecord reports whether this minter already has a record at this nonce.
func (l *Ledger) HasRecord(minter string, nonce uint64) bool {
	for _, r := range l.Records {
		if r.Minter == minter && r.Nonce == nonce {
			return true
		}
	}
	return false
}

// SaveToFile persists the ledger as JSON, overwriting the file.
func (l *Ledger) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// LoadLedgerFromFile loads a persisted ledger.
func LoadLedgerFromFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var l Ledger
	if err := json.NewDecoder(f).Decode(&l); err != nil {
		return nil, err
	}
	return &l, nil
}
