// Package storage provides the seekable byte-stream abstraction the core
// is built on: a Storage opens Cursors, and a Cursor is a position-aware
// reader/writer. File-backed and in-memory implementations are provided;
// both satisfy the same single-writer/multi-reader contract described by
// the core's recovery and append algorithms.
package storage

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/dapperlabs/lmtht/lmtht/errs"
)

// Whence mirrors io.Seeker's origins by name, so callers of this package
// never need to import "io" just to seek.
type Whence int

const (
	SeekStart   Whence = iota // relative to the beginning of the stream
	SeekCurrent               // relative to the current position
	SeekEnd                   // relative to the end of the stream
)

// Cursor is a single seek/read/write handle onto a Storage. Seeking past
// the end on a write extends the stream with zero bytes; writing to a
// Cursor opened read-only fails.
type Cursor interface {
	io.Reader
	io.Writer
	// Seek moves the cursor and returns its new absolute position.
	Seek(offset int64, whence Whence) (int64, error)
	// Position returns the cursor's current absolute offset.
	Position() (int64, error)
	// Flush forces any buffered writes out to the backing medium.
	Flush() error
	// Close releases any resources held by this cursor (e.g. a file
	// handle). It does not close the underlying Storage.
	Close() error
}

// Storage opens Cursors onto a single underlying byte sequence. Multiple
// Cursors may be open concurrently: one writer's cursor and any number of
// readers', per the single-writer/multi-reader model in §5.
type Storage interface {
	// Open returns a new Cursor. If writable is false, Write on the
	// returned Cursor must fail.
	Open(writable bool) (Cursor, error)
	// Size returns the current length of the stored byte sequence.
	Size() (int64, error)
}

// FileStorage is a Storage backed by a local file on disk.
type FileStorage struct {
	path string
}

// NewFileStorage returns a FileStorage rooted at path. The file is
// created the first time it is opened for writing if it does not already
// exist.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Open(writable bool) (Cursor, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(s.path, flag, 0o644)
	if err != nil {
		return nil, errs.Wrap(err, errs.OpenFailed, s.path)
	}
	return &fileCursor{f: f, writable: writable}, nil
}

func (s *FileStorage) Size() (int64, error) {
	fi, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Wrap(err, errs.OpenFailed, s.path)
	}
	return fi.Size(), nil
}

type fileCursor struct {
	f        *os.File
	writable bool
}

func (c *fileCursor) Read(p []byte) (int, error) { return c.f.Read(p) }

func (c *fileCursor) Write(p []byte) (int, error) {
	if !c.writable {
		return 0, errors.New("permission denied: cursor opened read-only")
	}
	return c.f.Write(p)
}

func (c *fileCursor) Seek(offset int64, whence Whence) (int64, error) {
	return c.f.Seek(offset, int(whence))
}

func (c *fileCursor) Position() (int64, error) {
	return c.f.Seek(0, io.SeekCurrent)
}

func (c *fileCursor) Flush() error {
	return c.f.Sync()
}

func (c *fileCursor) Close() error {
	return c.f.Close()
}

// MemStorage is a Storage backed by an in-memory buffer, guarded by a
// reader-writer lock so that concurrent cursors can read while one
// writer appends. It is used by tests and by any embedding that does not
// need the tree to outlive the process.
type MemStorage struct {
	mu  sync.RWMutex
	buf []byte
}

// NewMemStorage returns an empty in-memory Storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{}
}

func (s *MemStorage) Open(writable bool) (Cursor, error) {
	return &memCursor{s: s, writable: writable}, nil
}

func (s *MemStorage) Size() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.buf)), nil
}

type memCursor struct {
	s        *MemStorage
	writable bool
	pos      int64
}

func (c *memCursor) Read(p []byte) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	if c.pos >= int64(len(c.s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, c.s.buf[c.pos:])
	c.pos += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (c *memCursor) Write(p []byte) (int, error) {
	if !c.writable {
		return 0, errors.New("permission denied: cursor opened read-only")
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	end := c.pos + int64(len(p))
	if end > int64(len(c.s.buf)) {
		grown := make([]byte, end)
		copy(grown, c.s.buf)
		c.s.buf = grown
	}
	n := copy(c.s.buf[c.pos:end], p)
	c.pos += int64(n)
	return n, nil
}

func (c *memCursor) Seek(offset int64, whence Whence) (int64, error) {
	c.s.mu.RLock()
	size := int64(len(c.s.buf))
	c.s.mu.RUnlock()

	var next int64
	switch whence {
	case SeekStart:
		next = offset
	case SeekCurrent:
		next = c.pos + offset
	case SeekEnd:
		next = size + offset
	default:
		return 0, errors.Errorf("unknown whence %d", whence)
	}
	if next < 0 {
		return 0, errors.Errorf("negative seek position %d", next)
	}
	if next > size && c.writable {
		c.s.mu.Lock()
		if next > int64(len(c.s.buf)) {
			grown := make([]byte, next)
			copy(grown, c.s.buf)
			c.s.buf = grown
		}
		c.s.mu.Unlock()
	}
	c.pos = next
	return c.pos, nil
}

func (c *memCursor) Position() (int64, error) { return c.pos, nil }

func (c *memCursor) Flush() error { return nil }

func (c *memCursor) Close() error { return nil }
