package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/cellkit/core/store/kv"
	"go.dedis.ch/cellkit/core/types"
	"go.dedis.ch/cellkit/testing/fake"
)

func TestLedger_SaveLoad(t *testing.T) {
	db := makeDB(t)

	l := NewLedger(WithEngine(fake.NewEngine(1)))

	code, err := l.Deploy([]byte("code"))
	require.NoError(t, err)

	kind := makeLock(3)
	op := types.NewOutPoint(types.Hash{0xa}, 0)
	l.CreateAt(op, types.CellOutput{Capacity: 1000e8, Lock: makeLock(1), Type: &kind}, []byte("a"))

	block := l.NewBlock(7)

	hash, err := l.Receive(makeTx(op))
	require.NoError(t, err)

	require.NoError(t, l.Save(db))

	loaded, err := Load(db, WithEngine(fake.NewEngine(1)))
	require.NoError(t, err)

	require.Equal(t, l.Len(), loaded.Len())
	require.Equal(t, block, loaded.Tip())
	require.False(t, loaded.IsLive(op))
	require.True(t, loaded.IsLive(types.NewOutPoint(hash, 0)))

	meta, found := loaded.GetByDataHash(types.HashOf([]byte("code")))
	require.True(t, found)
	require.Equal(t, code, meta.OutPoint)

	require.Len(t, loaded.GetByTypeHash(kind.Hash()), 1)

	committed, found := loaded.GetTransaction(hash)
	require.True(t, found)
	require.Equal(t, hash, committed.Transaction.Hash())
	require.Equal(t, block.Hash, committed.Info.BlockHash)

	out, found := loaded.Get(types.NewOutPoint(hash, 0))
	require.True(t, found)
	require.Equal(t, types.Bytes("out"), out.Data)
	require.Equal(t, committed.Info, *out.TxInfo)

	cells := loaded.Cells()
	require.Equal(t, code, cells[0].OutPoint)

	// The next transaction continues the numbering of the block.
	hash, err = loaded.Receive(makeTx(types.NewOutPoint(hash, 0)))
	require.NoError(t, err)

	out, _ = loaded.Get(types.NewOutPoint(hash, 0))
	require.Equal(t, 1, out.TxInfo.Index)

	// Saving again overwrites the snapshot.
	require.NoError(t, loaded.Save(db))

	again, err := Load(db)
	require.NoError(t, err)
	require.Equal(t, loaded.Len(), again.Len())
}

func TestLoad_Empty(t *testing.T) {
	l, err := Load(makeDB(t))
	require.NoError(t, err)
	require.Equal(t, 0, l.Len())
	require.Equal(t, GenesisHash, l.Tip().Hash)
}

func TestLoad_Corrupted(t *testing.T) {
	db := makeDB(t)

	err := db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(cellsBucket)
		require.NoError(t, err)

		return bucket.Set([]byte{1}, []byte("{"))
	})
	require.NoError(t, err)

	_, err = Load(db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load ledger: invalid cell 01: ")

	db = makeDB(t)

	err = db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(metaBucket)
		require.NoError(t, err)

		return bucket.Set(tipKey, []byte{1})
	})
	require.NoError(t, err)

	_, err = Load(db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load ledger: unknown tip ")
}

// -----------------------------------------------------------------------------
// Utility functions

func makeDB(t *testing.T) kv.DB {
	db, err := kv.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db
}
