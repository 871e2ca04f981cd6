// Package lmtht implements the logarithmic multi-tier hash tree: an
// append-only, verifiable sequence where every append writes one
// contiguous entry to the tail of a Storage and every prior entry stays
// untouched forever. See recovery.go for Open, this file for the Tree
// type and Append, and query.go for read access and proof
// reconstruction.
package lmtht

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/index"
	"github.com/dapperlabs/lmtht/lmtht/model"
	"github.com/dapperlabs/lmtht/lmtht/storage"
	"github.com/dapperlabs/lmtht/module"
	"github.com/dapperlabs/lmtht/module/metrics"
)

// Node is a node address paired with its digest, the shape returned by
// Append and Root.
type Node struct {
	I    model.Index
	J    uint8
	Hash []byte
}

// cacheSnapshot is the immutable latest-cache value §5 describes: the
// last entry written, and the pure geometry model for the length it
// implies. A pointer to one is swapped into Tree.cache atomically on
// every successful append, and on Open; readers load it once per query
// and never re-read it.
type cacheSnapshot struct {
	tail *Entry
	gen  model.Tree
}

func emptyCache() *cacheSnapshot {
	return &cacheSnapshot{gen: model.New(0)}
}

func (c *cacheSnapshot) n() model.Index { return c.gen.N() }

func (c *cacheSnapshot) rootRef() (NodeRef, bool) {
	if c.tail == nil {
		return NodeRef{}, false
	}
	addr, _ := c.tail.Root()
	return NodeRef{Pos: c.tail.Position, I: addr.I, J: addr.J}, true
}

func (c *cacheSnapshot) root() (Node, bool) {
	if c.tail == nil {
		return Node{}, false
	}
	addr, h := c.tail.Root()
	return Node{I: addr.I, J: addr.J, Hash: h}, true
}

// Tree is the public handle onto a logarithmic multi-tier hash tree.
// Construct one with Open. A Tree is safe for concurrent use by one
// writer and any number of readers, per §5: Append serializes itself
// internally, and Query snapshots the cache before descending.
type Tree struct {
	storage storage.Storage
	hasher  hash.Hasher
	logger  zerolog.Logger
	metrics module.Metrics
	index   index.NodeIndex

	panicOnInconsistency bool

	writeMu sync.Mutex
	cache   atomic.Value // *cacheSnapshot
}

// Option configures a Tree at construction time.
type Option func(*Tree)

// WithLogger overrides the zerolog.Logger used for warnings raised during
// recovery (e.g. a tail entry that does not end at EOF, which makes Open
// fail with DamagedStorage).
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tree) { t.logger = logger }
}

// WithMetrics attaches a module.Metrics collector. The default is
// metrics.NoopCollector.
func WithMetrics(m module.Metrics) Option {
	return func(t *Tree) { t.metrics = m }
}

// WithIndex attaches a node-position accelerant. Without one, every
// lookup performs the root-guided descent of §4.6 from scratch.
func WithIndex(idx index.NodeIndex) Option {
	return func(t *Tree) { t.index = idx }
}

// WithPanicOnInconsistency makes an internal-state-inconsistency error
// panic instead of being returned, surfacing the failure at the point it
// was detected rather than unwinding through the caller. The Rust
// original made this a compile-time switch; here it is a runtime
// constructor choice.
func WithPanicOnInconsistency(v bool) Option {
	return func(t *Tree) { t.panicOnInconsistency = v }
}

func newTree(s storage.Storage, hasher hash.Hasher, opts []Option) *Tree {
	t := &Tree{
		storage: s,
		hasher:  hasher,
		logger:  zerolog.Nop(),
		metrics: metrics.NoopCollector{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tree) snapshot() *cacheSnapshot {
	return t.cache.Load().(*cacheSnapshot)
}

func (t *Tree) fail(kind errs.Kind, format string, args ...interface{}) error {
	err := errs.Newf(kind, format, args...)
	if t.panicOnInconsistency && kind == errs.Inconsistent {
		panic(err)
	}
	return err
}

// N returns the current number of leaves appended.
func (t *Tree) N() model.Index {
	return t.snapshot().n()
}

// Height returns the height of the current generation root, or 0 when
// empty.
func (t *Tree) Height() uint8 {
	return t.snapshot().gen.Height()
}

// Root returns the current generation root's address and digest, or
// ok=false when the tree is empty.
func (t *Tree) Root() (Node, bool) {
	return t.snapshot().root()
}

// RootHash returns the current generation root's digest, or nil when
// empty.
func (t *Tree) RootHash() []byte {
	n, ok := t.snapshot().root()
	if !ok {
		return nil
	}
	return n.Hash
}

// readEntryAt opens a fresh cursor (per §5, every operation gets its
// own), seeks to pos, and parses one entry from it.
func (t *Tree) readEntryAt(pos int64, verify bool) (*Entry, error) {
	cur, err := t.storage.Open(false)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Seek(pos, storage.SeekStart); err != nil {
		return nil, err
	}
	e, err := ReadEntry(cur, t.hasher, verify)
	if err != nil {
		if verify && errs.Is(err, errs.ChecksumMismatch) {
			t.metrics.ChecksumFailure()
		}
		return nil, err
	}
	e.Position = pos
	return e, nil
}

// locateEntryPosition finds the storage position of the entry written
// for index target, starting the root-guided descent of §4.6 from
// start. Every node ever addressed as (i,j) lives in the entry written
// for index i, so this never needs j.
func (t *Tree) locateEntryPosition(start NodeRef, target model.Index) (int64, error) {
	if start.I == target {
		return start.Pos, nil
	}
	if t.index != nil {
		if pos, ok := t.index.Lookup(target); ok {
			return pos, nil
		}
	}

	cur := start
	for hops := 0; hops < model.IndexSize; hops++ {
		if cur.J == 0 {
			return 0, t.fail(errs.Inconsistent, "descent reached leaf %d before locating entry %d", cur.I, target)
		}
		e, err := t.readEntryAt(cur.Pos, false)
		if err != nil {
			return 0, err
		}
		rec, ok := e.INode(cur.J)
		if !ok {
			return 0, t.fail(errs.Inconsistent, "entry %d missing expected INode at height %d", cur.I, cur.J)
		}
		left := rec.Left
		right := NodeRef{Pos: cur.Pos, I: cur.I, J: cur.J - 1}

		var next NodeRef
		switch {
		case target <= left.I:
			next = left
		case target <= cur.I:
			next = right
		default:
			return 0, t.fail(errs.Inconsistent, "target index %d out of range descending from (%d,%d)", target, cur.I, cur.J)
		}
		if next.I == target {
			if t.index != nil {
				t.index.Put(target, next.Pos)
			}
			return next.Pos, nil
		}
		cur = next
	}
	return 0, t.fail(errs.Inconsistent, "descent exceeded %d hops without locating entry %d; storage may contain a circular reference", model.IndexSize, target)
}

// nodeHash extracts the digest of (i,j) from the entry written for index
// i. Callers must already know that entry's position.
func nodeHash(e *Entry, j uint8) ([]byte, bool) {
	if j == 0 {
		return e.LeafHash, true
	}
	rec, ok := e.INode(j)
	if !ok {
		return nil, false
	}
	return rec.Hash, true
}

// Append writes payload as the next leaf and returns the new generation
// root. It is the only mutating operation on a Tree and serializes with
// any other concurrent Append.
func (t *Tree) Append(payload []byte) (Node, error) {
	if len(payload) > MaxPayloadSize {
		return Node{}, errs.Newf(errs.PayloadTooLarge, "payload of %d bytes exceeds MAX_PAYLOAD_SIZE", len(payload))
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	started := t.metrics.AppendStarted()

	snap := t.snapshot()
	i := snap.n() + 1

	position, err := t.storage.Size()
	if err != nil {
		return Node{}, err
	}

	leafHash := t.hasher.Hash(payload)
	gen := model.New(i)
	plans := gen.INodes()

	records := make([]INodeRecord, 0, len(plans))
	runningHash := leafHash

	if len(plans) > 0 {
		prevRoot, ok := snap.rootRef()
		if !ok {
			return Node{}, t.fail(errs.Inconsistent, "no previous root available to resolve left siblings for entry %d", i)
		}
		for _, plan := range plans {
			leftPos, err := t.locateEntryPosition(prevRoot, plan.Left.I)
			if err != nil {
				return Node{}, err
			}
			leftEntry, err := t.readEntryAt(leftPos, false)
			if err != nil {
				return Node{}, err
			}
			leftHash, ok := nodeHash(leftEntry, plan.Left.J)
			if !ok {
				return Node{}, t.fail(errs.Inconsistent, "left sibling (%d,%d) missing from its own entry", plan.Left.I, plan.Left.J)
			}
			combined := t.hasher.Combine(leftHash, runningHash)
			records = append(records, INodeRecord{
				J:    plan.Addr.J,
				Left: NodeRef{Pos: leftPos, I: plan.Left.I, J: plan.Left.J},
				Hash: combined,
			})
			runningHash = combined
		}
	}

	entry := &Entry{
		Position: position,
		I:        i,
		Payload:  payload,
		LeafHash: leafHash,
		INodes:   records,
	}

	wcur, err := t.storage.Open(true)
	if err != nil {
		return Node{}, err
	}
	if _, err := wcur.Seek(0, storage.SeekEnd); err != nil {
		wcur.Close()
		return Node{}, err
	}
	if _, _, err := WriteEntry(wcur, t.hasher, entry); err != nil {
		wcur.Close()
		return Node{}, err
	}
	if err := wcur.Flush(); err != nil {
		wcur.Close()
		return Node{}, err
	}
	if err := wcur.Close(); err != nil {
		return Node{}, err
	}

	newSnap := &cacheSnapshot{tail: entry, gen: gen}
	t.cache.Store(newSnap)

	if t.index != nil {
		t.index.Put(i, position)
	}

	root, _ := newSnap.root()
	t.metrics.AppendFinished(started, len(payload), len(records))
	t.metrics.TreeHeight(int(gen.Height()))
	t.metrics.TreeLength(i)

	return root, nil
}
