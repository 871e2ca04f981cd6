// Package index provides optional acceleration structures for resolving
// an entry index i to the storage position of the entry that holds it,
// sparing the core a root-guided descent (§4.6) on every lookup. Every
// node ever addressed as (i,j) lives in the entry written for index i,
// so position only ever depends on i, never on j.
//
// Both implementations are caches in the strict sense: losing their
// contents never produces a wrong answer, only a slower one, since the
// core always falls back to the root-guided descent on a miss.
package index

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/dapperlabs/lmtht/lmtht/model"
)

// NodeIndex resolves an entry index to the byte offset of the entry
// written for it.
type NodeIndex interface {
	Lookup(i model.Index) (pos int64, ok bool)
	Put(i model.Index, pos int64)
	Close() error
}

// LRUIndex is a bounded in-memory NodeIndex backed by
// hashicorp/golang-lru, the same eviction strategy used elsewhere in this
// codebase's caches (storage/badger/cache.go uses simpler random
// eviction; this upgrades that to true least-recently-used behavior).
type LRUIndex struct {
	cache *lru.Cache
}

// NewLRUIndex returns an LRUIndex holding at most size entries.
func NewLRUIndex(size int) (*LRUIndex, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUIndex{cache: c}, nil
}

func (idx *LRUIndex) Lookup(i model.Index) (int64, bool) {
	v, ok := idx.cache.Get(i)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

func (idx *LRUIndex) Put(i model.Index, pos int64) {
	idx.cache.Add(i, pos)
}

func (idx *LRUIndex) Close() error { return nil }
