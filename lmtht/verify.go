package lmtht

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/model"
	"github.com/dapperlabs/lmtht/lmtht/storage"
)

// VerifyAll re-reads every entry from index 1 through the current root
// and recomputes its checksum, reporting every failure found rather than
// stopping at the first. It exists for offline/maintenance auditing —
// normal reads already verify the one entry they touch.
func (t *Tree) VerifyAll() error {
	snap := t.snapshot()
	n := snap.n()
	if n == 0 {
		return nil
	}
	root, ok := snap.rootRef()
	if !ok {
		return nil
	}

	pos, err := t.locateEntryPosition(root, 1)
	if err != nil {
		return err
	}

	cur, err := t.storage.Open(false)
	if err != nil {
		return err
	}
	defer cur.Close()
	if _, err := cur.Seek(pos, storage.SeekStart); err != nil {
		return err
	}

	var result *multierror.Error
	for k := model.Index(1); k <= n; k++ {
		e, err := ReadEntry(cur, t.hasher, true)
		if err != nil {
			if errs.Is(err, errs.ChecksumMismatch) {
				t.metrics.ChecksumFailure()
			}
			result = multierror.Append(result, errors.Wrapf(err, "entry %d", k))
			continue
		}
		if e.I != k {
			result = multierror.Append(result, errors.Errorf("entry %d: expected index %d, found %d", k, k, e.I))
		}
	}
	return result.ErrorOrNil()
}
