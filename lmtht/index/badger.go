package index

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	"github.com/dapperlabs/lmtht/lmtht/model"
)

// codeNodePosition prefixes every key this package writes into badger, so
// a NodeIndex can share a database with other keyspaces if an embedder
// wants that.
const codeNodePosition = byte(1)

func badgerKey(i model.Index) []byte {
	k := make([]byte, 9)
	k[0] = codeNodePosition
	binary.BigEndian.PutUint64(k[1:], i)
	return k
}

// BadgerIndex is a NodeIndex backed by a badger.DB, for deployments that
// want the position index to survive a restart without replaying every
// entry's INodes. It is purely an accelerant: losing the database and
// starting empty is always safe, since every lookup the core performs
// also has a root-guided-descent fallback.
type BadgerIndex struct {
	db *badger.DB
}

// NewBadgerIndex wraps an already-open badger.DB.
func NewBadgerIndex(db *badger.DB) *BadgerIndex {
	return &BadgerIndex{db: db}
}

func (idx *BadgerIndex) Lookup(i model.Index) (int64, bool) {
	var pos int64
	err := idx.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(i))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.Errorf("corrupt node index value of length %d", len(val))
			}
			pos = int64(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return 0, false
	}
	return pos, true
}

func (idx *BadgerIndex) Put(i model.Index, pos int64) {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(pos))
	_ = idx.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(i), val)
	})
}

func (idx *BadgerIndex) Close() error {
	return idx.db.Close()
}
