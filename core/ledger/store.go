package ledger

import (
	"encoding/binary"
	"encoding/json"

	"go.dedis.ch/cellkit/core/store/kv"
	"go.dedis.ch/cellkit/core/types"
	"golang.org/x/xerrors"
)

var (
	cellsBucket   = []byte("cells")
	headersBucket = []byte("headers")
	txsBucket     = []byte("transactions")
	metaBucket    = []byte("meta")

	tipKey    = []byte("tip")
	tipTxsKey = []byte("tip_txs")
)

type storedCell struct {
	OutPoint types.OutPoint         `json:"out_point"`
	Output   types.CellOutput       `json:"output"`
	Data     types.Bytes            `json:"data"`
	Info     *types.TransactionInfo `json:"info,omitempty"`
	Live     bool                   `json:"live"`
}

// Save writes a snapshot of the ledger in the database. A previous snapshot is
// overwritten.
func (l *Ledger) Save(db kv.DB) error {
	err := db.Update(func(tx kv.WritableTx) error {
		for _, name := range [][]byte{cellsBucket, headersBucket, txsBucket, metaBucket} {
			err := tx.DeleteBucket(name)
			if err != nil {
				return err
			}
		}

		err := l.saveCells(tx)
		if err != nil {
			return xerrors.Errorf("cells: %v", err)
		}

		err = l.saveHeaders(tx)
		if err != nil {
			return xerrors.Errorf("headers: %v", err)
		}

		err = l.saveTransactions(tx)
		if err != nil {
			return xerrors.Errorf("transactions: %v", err)
		}

		meta, err := tx.GetBucketOrCreate(metaBucket)
		if err != nil {
			return xerrors.Errorf("meta: %v", err)
		}

		err = meta.Set(tipKey, l.tip.Bytes())
		if err != nil {
			return xerrors.Errorf("meta: %v", err)
		}

		err = meta.Set(tipTxsKey, encodeIndex(uint64(l.tipTxs)))
		if err != nil {
			return xerrors.Errorf("meta: %v", err)
		}

		tx.OnCommit(func() {
			l.logger.Info().Int("cells", len(l.order)).Msg("ledger saved")
		})

		return nil
	})

	if err != nil {
		return xerrors.Errorf("failed to save ledger: %v", err)
	}

	return nil
}

func (l *Ledger) saveCells(tx kv.WritableTx) error {
	bucket, err := tx.GetBucketOrCreate(cellsBucket)
	if err != nil {
		return err
	}

	// Keys follow the insertion order so that the indices are rebuilt in the
	// same order.
	for i, op := range l.order {
		c := l.cells[op]

		value, err := json.Marshal(storedCell{
			OutPoint: op,
			Output:   c.output,
			Data:     c.data,
			Info:     c.info,
			Live:     c.live,
		})
		if err != nil {
			return xerrors.Errorf("failed to encode %v: %v", op, err)
		}

		err = bucket.Set(encodeIndex(uint64(i)), value)
		if err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) saveHeaders(tx kv.WritableTx) error {
	bucket, err := tx.GetBucketOrCreate(headersBucket)
	if err != nil {
		return err
	}

	for hash, header := range l.headers {
		value, err := json.Marshal(header)
		if err != nil {
			return xerrors.Errorf("failed to encode %v: %v", hash, err)
		}

		err = bucket.Set(hash.Bytes(), value)
		if err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) saveTransactions(tx kv.WritableTx) error {
	bucket, err := tx.GetBucketOrCreate(txsBucket)
	if err != nil {
		return err
	}

	for hash, committed := range l.txs {
		value, err := json.Marshal(committed)
		if err != nil {
			return xerrors.Errorf("failed to encode %v: %v", hash, err)
		}

		err = bucket.Set(hash.Bytes(), value)
		if err != nil {
			return err
		}
	}

	return nil
}

// Load creates a ledger from the snapshot in the database. An empty database
// returns an empty ledger.
func Load(db kv.DB, opts ...Option) (*Ledger, error) {
	l := NewLedger(opts...)

	err := db.View(func(tx kv.ReadableTx) error {
		cells := tx.GetBucket(cellsBucket)
		if cells != nil {
			err := cells.ForEach(func(k, v []byte) error {
				var stored storedCell

				err := json.Unmarshal(v, &stored)
				if err != nil {
					return xerrors.Errorf("invalid cell %x: %v", k, err)
				}

				l.insert(stored.OutPoint, stored.Output, stored.Data, stored.Info)

				if !stored.Live {
					l.cells[stored.OutPoint].live = false
					promCells.Dec()
				}

				return nil
			})
			if err != nil {
				return err
			}
		}

		headers := tx.GetBucket(headersBucket)
		if headers != nil {
			err := headers.ForEach(func(k, v []byte) error {
				var header types.Header

				err := json.Unmarshal(v, &header)
				if err != nil {
					return xerrors.Errorf("invalid header %x: %v", k, err)
				}

				l.headers[header.Hash] = header

				return nil
			})
			if err != nil {
				return err
			}
		}

		txs := tx.GetBucket(txsBucket)
		if txs != nil {
			err := txs.ForEach(func(k, v []byte) error {
				var committed CommittedTransaction

				err := json.Unmarshal(v, &committed)
				if err != nil {
					return xerrors.Errorf("invalid transaction %x: %v", k, err)
				}

				l.txs[committed.Transaction.Hash()] = committed

				return nil
			})
			if err != nil {
				return err
			}
		}

		meta := tx.GetBucket(metaBucket)
		if meta != nil {
			var tip types.Hash
			copy(tip[:], meta.Get(tipKey))

			_, found := l.headers[tip]
			if !found {
				return xerrors.Errorf("unknown tip %v", tip)
			}

			l.tip = tip

			index := meta.Get(tipTxsKey)
			if len(index) == 8 {
				l.tipTxs = int(binary.BigEndian.Uint64(index))
			}
		}

		return nil
	})

	if err != nil {
		return nil, xerrors.Errorf("failed to load ledger: %v", err)
	}

	l.logger.Info().Int("cells", len(l.order)).Msg("ledger loaded")

	return l, nil
}

func encodeIndex(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)

	return key
}
