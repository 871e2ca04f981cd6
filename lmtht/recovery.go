package lmtht

import (
	"encoding/binary"
	"io"

	"github.com/dapperlabs/lmtht/lmtht/errs"
	"github.com/dapperlabs/lmtht/lmtht/hash"
	"github.com/dapperlabs/lmtht/lmtht/model"
	"github.com/dapperlabs/lmtht/lmtht/storage"
)

// trailerSize is the fixed width of an entry's offset + checksum fields,
// the only part of an entry a recovering reader can locate without first
// knowing where the entry begins.
const trailerSize = 4 + 8

// Open validates the storage header and, if a body exists, locates and
// verifies the tail entry to rebuild the in-memory cache, per §4.3. It is
// the only constructor for a Tree.
func Open(s storage.Storage, hasher hash.Hasher, opts ...Option) (*Tree, error) {
	t := newTree(s, hasher, opts)

	size, err := s.Size()
	if err != nil {
		return nil, err
	}

	if size == 0 {
		if err := writeEmptyHeader(s); err != nil {
			return nil, err
		}
		t.cache.Store(emptyCache())
		return t, nil
	}

	if size < headerSize {
		return nil, errs.New(errs.BadMagic, "file is shorter than the 4-byte header")
	}

	rcur, err := s.Open(false)
	if err != nil {
		return nil, err
	}
	defer rcur.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(rcur, header); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading header")
	}
	if err := CheckHeader(header); err != nil {
		return nil, err
	}

	if size == headerSize {
		t.cache.Store(emptyCache())
		return t, nil
	}

	if size < headerSize+trailerSize {
		return nil, errs.New(errs.DamagedStorage, "file too short to contain a complete trailer")
	}

	if _, err := rcur.Seek(size-12, storage.SeekStart); err != nil {
		return nil, err
	}
	var offsetBuf [4]byte
	if _, err := io.ReadFull(rcur, offsetBuf[:]); err != nil {
		return nil, errs.Wrap(err, errs.DamagedStorage, "reading tail offset")
	}
	offset := binary.LittleEndian.Uint32(offsetBuf[:])

	tailStart := size - 4 - 8 - int64(offset)
	if tailStart < headerSize {
		return nil, errs.Newf(errs.DamagedStorage, "tail offset %d points before the header", offset)
	}

	if _, err := rcur.Seek(tailStart, storage.SeekStart); err != nil {
		return nil, err
	}
	entry, err := ReadEntry(rcur, hasher, true)
	if err != nil {
		if errs.Is(err, errs.ChecksumMismatch) {
			t.metrics.ChecksumFailure()
		}
		return nil, err
	}
	entry.Position = tailStart

	landed, err := rcur.Position()
	if err != nil {
		return nil, err
	}
	if landed != size {
		t.logger.Warn().
			Int64("landed_at", landed).
			Int64("expected_eof", size).
			Msg("tail entry did not end exactly at EOF; treating storage as damaged")
		return nil, errs.Newf(errs.DamagedStorage, "cursor landed at %d after parsing the tail entry, expected EOF at %d", landed, size)
	}

	t.cache.Store(&cacheSnapshot{tail: entry, gen: model.New(entry.I)})
	return t, nil
}

func writeEmptyHeader(s storage.Storage) error {
	wcur, err := s.Open(true)
	if err != nil {
		return err
	}
	defer wcur.Close()
	if err := WriteHeader(wcur); err != nil {
		return err
	}
	return wcur.Flush()
}
