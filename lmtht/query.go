package lmtht

import (
	"github.com/gammazero/deque"

	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/model"
	"github.com/dapperlabs/lmtht/lmtht/storage"
)

// Value is one leaf's payload, labeled with the index it was appended at.
type Value struct {
	I       model.Index
	Payload []byte
}

// Branch is one sibling digest collected while descending to a target
// node: the hash needed, alongside the target's own subtree root, to
// reconstruct an ancestor further up the tree.
type Branch struct {
	Addr model.Address
	Hash []byte
}

// ValuesWithBranches is the result of GetValuesWithHashes: every leaf
// covered by the requested subtree, plus the sibling branches collected
// on the way down, ordered deepest-first (nearest the target first,
// nearest the generation root last). Root reconstructs the generation
// root's digest from these alone, without touching storage again.
type ValuesWithBranches struct {
	Values   []Value
	Branches []Branch

	hasher hash.Hasher
}

type foldNode struct {
	i    model.Index
	hash []byte
}

func orderByI(a, b foldNode) (left, right foldNode) {
	if a.i < b.i {
		return a, b
	}
	return b, a
}

// Root reconstructs the digest of the ancestor the branches were
// collected up to (the generation root, when GetValuesWithHashes was
// asked for the full set of branches down to it). Leaves are first
// folded pairwise bottom-up, carrying an odd tail unchanged to the next
// level, the same rule §4.1 uses to build unbalanced subtrees; the
// resulting subtree root is then folded with each branch in turn,
// deepest first.
func (r *ValuesWithBranches) Root() []byte {
	if len(r.Values) == 0 {
		if len(r.Branches) == 0 {
			return nil
		}
		last := r.Branches[len(r.Branches)-1]
		return last.Hash
	}

	level := make([]foldNode, len(r.Values))
	for idx, v := range r.Values {
		level[idx] = foldNode{i: v.I, hash: r.hasher.Hash(v.Payload)}
	}
	for len(level) > 1 {
		m := len(level)
		pairs := m / 2
		next := make([]foldNode, 0, pairs+1)
		for p := 0; p < pairs; p++ {
			left, right := orderByI(level[2*p], level[2*p+1])
			next = append(next, foldNode{i: right.i, hash: r.hasher.Combine(left.hash, right.hash)})
		}
		if m%2 == 1 {
			next = append(next, level[m-1])
		}
		level = next
	}

	cur := level[0]
	for _, br := range r.Branches {
		left, right := orderByI(cur, foldNode{i: br.Addr.I, hash: br.Hash})
		cur = foldNode{i: right.i, hash: r.hasher.Combine(left.hash, right.hash)}
	}
	return cur.hash
}

// Query is a read-only handle onto one immutable snapshot of a Tree. All
// of its methods see the same generation, even if Append runs
// concurrently against the Tree it was taken from.
type Query struct {
	t    *Tree
	snap *cacheSnapshot
}

// Query snapshots the tree's current cache and returns a handle for
// performing one or more reads against exactly that generation.
func (t *Tree) Query() *Query {
	return &Query{t: t, snap: t.snapshot()}
}

// N returns the generation length this query sees.
func (q *Query) N() model.Index { return q.snap.n() }

// Get returns the payload appended at index i, verifying its checksum.
// ok is false when i is out of range or the tree is empty.
func (q *Query) Get(i model.Index) ([]byte, bool, error) {
	n := q.snap.n()
	if n == 0 || i == 0 || i > n {
		return nil, false, nil
	}
	root, ok := q.snap.rootRef()
	if !ok {
		return nil, false, nil
	}
	pos, err := q.t.locateEntryPosition(root, i)
	if err != nil {
		return nil, false, err
	}
	entry, err := q.t.readEntryAt(pos, true)
	if err != nil {
		return nil, false, err
	}
	if entry.I != i {
		return nil, false, q.t.fail(errs.BadNodeBoundary, "resolved entry %d while looking for %d", entry.I, i)
	}
	return entry.Payload, true, nil
}

// GetWithHashes is GetValuesWithHashes(i, 0): the single leaf at i, plus
// the branches needed to fold it back up to the generation root.
func (q *Query) GetWithHashes(i model.Index) (*ValuesWithBranches, bool, error) {
	return q.GetValuesWithHashes(i, 0)
}

// GetValuesWithHashes returns every leaf covered by the subtree rooted
// at (i,j), plus the sibling branches collected while descending to it
// from the generation root, per §4.5. The branches, combined with the
// returned leaves via ValuesWithBranches.Root, reconstruct the
// generation root's digest without any further storage access.
func (q *Query) GetValuesWithHashes(i model.Index, j uint8) (*ValuesWithBranches, bool, error) {
	n := q.snap.n()
	if n == 0 || i == 0 || i > n {
		return nil, false, nil
	}
	path, ok := q.snap.gen.PathTo(i, j)
	if !ok {
		return nil, false, nil
	}
	rootRef, ok := q.snap.rootRef()
	if !ok {
		return nil, false, nil
	}

	started := q.t.metrics.QueryStarted()

	branches := make([]Branch, 0, len(path))
	currentEntry := q.snap.tail
	for _, step := range path {
		rec, ok := currentEntry.INode(step.From.J)
		if !ok {
			return nil, false, q.t.fail(errs.Inconsistent, "entry %d missing INode at height %d during descent", currentEntry.I, step.From.J)
		}

		if step.Side == model.Left {
			branchJ := step.From.J - 1
			branchHash, ok := nodeHash(currentEntry, branchJ)
			if !ok {
				return nil, false, q.t.fail(errs.Inconsistent, "right sibling missing at (%d,%d)", step.From.I, branchJ)
			}
			branches = append(branches, Branch{Addr: model.Address{I: step.From.I, J: branchJ}, Hash: branchHash})

			nextEntry, err := q.t.readEntryAt(rec.Left.Pos, false)
			if err != nil {
				return nil, false, err
			}
			currentEntry = nextEntry
		} else {
			leftEntry, err := q.t.readEntryAt(rec.Left.Pos, false)
			if err != nil {
				return nil, false, err
			}
			branchHash, ok := nodeHash(leftEntry, rec.Left.J)
			if !ok {
				return nil, false, q.t.fail(errs.Inconsistent, "left sibling missing at (%d,%d)", rec.Left.I, rec.Left.J)
			}
			branches = append(branches, Branch{Addr: model.Address{I: rec.Left.I, J: rec.Left.J}, Hash: branchHash})
		}
	}
	// Collected root-to-target; ValuesWithBranches orders deepest-first.
	for l, r := 0, len(branches)-1; l < r; l, r = l+1, r-1 {
		branches[l], branches[r] = branches[r], branches[l]
	}

	lo, hi := model.Range(i, j)
	values, err := q.t.getValuesBelongingTo(lo, hi, rootRef)
	if err != nil {
		return nil, false, err
	}

	q.t.metrics.QueryFinished(started, len(branches))

	return &ValuesWithBranches{Values: values, Branches: branches, hasher: q.t.hasher}, true, nil
}

// getValuesBelongingTo streams the contiguous leaves [lo, hi] by seeking
// once to lo's entry and reading forward: every entry ever written sits
// back-to-back with the next, in append order, so no further seeking is
// needed once the first entry is located. Leaves are accumulated in a
// deque since the caller only needs them in order, not randomly indexed,
// and the range's size is not known to be small.
func (t *Tree) getValuesBelongingTo(lo, hi model.Index, start NodeRef) ([]Value, error) {
	pos, err := t.locateEntryPosition(start, lo)
	if err != nil {
		return nil, err
	}

	cur, err := t.storage.Open(false)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if _, err := cur.Seek(pos, storage.SeekStart); err != nil {
		return nil, err
	}

	var dq deque.Deque
	for k := lo; k <= hi; k++ {
		e, err := ReadEntry(cur, t.hasher, true)
		if err != nil {
			if errs.Is(err, errs.ChecksumMismatch) {
				t.metrics.ChecksumFailure()
			}
			return nil, err
		}
		if e.I != k {
			return nil, t.fail(errs.BadNodeBoundary, "expected leaf %d while streaming range [%d,%d], found %d", k, lo, hi, e.I)
		}
		dq.PushBack(Value{I: e.I, Payload: e.Payload})
	}

	values := make([]Value, dq.Len())
	for idx := range values {
		values[idx] = dq.At(idx).(Value)
	}
	return values, nil
}
