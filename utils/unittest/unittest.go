package unittest

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	"github.com/dapperlabs/lmtht/lmtht/storage"
)

func ExpectPanic(expectedMsg string, t *testing.T) {
	if r := recover(); r != nil {
		err := r.(error)
		if err.Error() != expectedMsg {
			t.Errorf("expected %v to be %v", err, expectedMsg)
		}
		return
	}
	t.Errorf("Expected to panic with `%s`, but did not panic", expectedMsg)
}

// AssertReturnsBefore asserts that the given function returns before the
// duration expires.
func AssertReturnsBefore(t *testing.T, f func(), duration time.Duration) {
	done := make(chan struct{})

	go func() {
		f()
		close(done)
	}()

	select {
	case <-time.After(duration):
		t.Log("function did not return in time")
		t.Fail()
	case <-done:
		return
	}
}

// RunWithTempStorage runs f against a storage.FileStorage backed by a
// freshly created temp file, removing the file once f returns.
func RunWithTempStorage(t *testing.T, f func(s storage.Storage)) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("lmtht-test-%d", rand.Uint64()))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	defer os.RemoveAll(dir)

	f(storage.NewFileStorage(filepath.Join(dir, "store.log")))
}

// RunWithBadgerDB runs f against a badger.DB backed by a fresh temp
// directory, closing and removing it once f returns.
func RunWithBadgerDB(t *testing.T, f func(*badger.DB)) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("lmtht-test-db-%d", rand.Uint64()))

	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	require.Nil(t, err)

	defer func() {
		db.Close()
		os.RemoveAll(dir)
	}()

	f(db)
}
