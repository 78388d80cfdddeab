package mintauth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovchain/sovmint/internal/mintcircuit"
)

func testRecord(minter string, nonce uint64) Record {
	pub := mintcircuit.PublicInputs{Nonce: nonce, Epoch: testEpoch}
	pub.CommitmentX[0] = byte(nonce)
	return NewRecord(minter, pub, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
}

func TestLedgerAppend(t *testing.T) {
	l := NewLedger()

	require.NoError(t, l.Append(testRecord(testMinter, 0)))
	require.NoError(t, l.Append(testRecord(testMinter, 1)))
	assert.Len(t, l.Records, 2)
	assert.True(t, l.HasRecord(testMinter, 0))
	assert.False(t, l.HasRecord(testMinter, 2))

	err := l.Append(testRecord(testMinter, 1))
	require.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Len(t, l.Records, 2)

	// Nonces are sequenced per license: another minter's nonce 0 is a
	// distinct record, not a replay.
	require.NoError(t, l.Append(testRecord("bank-beta", 0)))
	assert.True(t, l.HasRecord("bank-beta", 0))
	assert.Len(t, l.Records, 3)
}

func TestLedgerPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l := NewLedger()
	require.NoError(t, l.Append(testRecord(testMinter, 0)))
	require.NoError(t, l.Append(testRecord(testMinter, 1)))
	require.NoError(t, l.SaveToFile(path))

	loaded, err := LoadLedgerFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Records, 2)
	assert.Equal(t, l.Records[0].CommitmentX, loaded.Records[0].CommitmentX)
	assert.Equal(t, testMinter, loaded.Records[0].Minter)
	assert.Equal(t, uint64(1), loaded.Records[1].Nonce)
	assert.True(t, l.Records[0].Timestamp.Equal(loaded.Records[0].Timestamp))

	_, err = LoadLedgerFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLicenseBindings(t *testing.T) {
	lic := NewLicense(testMinter, testMinterKey(), testLimit)

	assert.Equal(t, mintcircuit.AuthorityHash(testMinterKey()), lic.AuthorityHash)
	assert.Equal(t, mintcircuit.LimitHash(testLimit), lic.LimitHash)
	assert.Equal(t, uint64(0), lic.NextNonce)

	lic.RecordSettlement(300)
	lic.RecordSettlement(200)
	assert.Equal(t, uint64(500), lic.MintedToday)
	lic.ResetDay()
	assert.Equal(t, uint64(0), lic.MintedToday)
}

func TestEventBus(t *testing.T) {
	bus := NewBus(nil)

	t.Run("Type Filtering", func(t *testing.T) {
		ch := bus.Subscribe(EventEpochAdvanced)
		bus.Publish(EventMintFailed, MintFailedData{Reason: "NonceMismatch"})
		bus.Publish(EventEpochAdvanced, EpochAdvancedData{Epoch: 5})

		ev := waitEvent(t, ch)
		assert.Equal(t, EventEpochAdvanced, ev.Type)
		assert.Equal(t, uint64(5), ev.Data.(EpochAdvancedData).Epoch)
		select {
		case ev := <-ch:
			t.Fatalf("unexpected event %s", ev.Type)
		default:
		}
	})

	t.Run("Slow Subscriber Drops", func(t *testing.T) {
		ch := bus.Subscribe(EventMintSucceeded)
		for range subscriberQueueSize + 8 {
			bus.Publish(EventMintSucceeded, MintSucceededData{})
		}
		assert.Len(t, ch, subscriberQueueSize)
	})

	t.Run("Nil Bus Is Safe", func(t *testing.T) {
		var none *Bus
		none.Publish(EventMintFailed, nil)
	})
}
