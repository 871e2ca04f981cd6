package module

import "time"

// Metrics is the instrumentation surface the tree core reports through.
// It is optional: a Tree constructed without one uses metrics.NoopCollector
// and pays no observability cost.
type Metrics interface {
	// AppendStarted starts a span timing one Append call.
	AppendStarted() time.Time

	// AppendFinished reports the completion of an Append: its duration
	// since AppendStarted, the payload size, and the number of fresh
	// INodes the geometry model produced for it.
	AppendFinished(started time.Time, payloadSize int, inodesProduced int)

	// QueryStarted starts a span timing one query-engine descent.
	QueryStarted() time.Time

	// QueryFinished reports the completion of a query: its duration and
	// the number of branch hashes collected along the descent.
	QueryFinished(started time.Time, branchesCollected int)

	// TreeHeight reports the current generation root's height after a
	// successful append.
	TreeHeight(height int)

	// TreeLength reports the current number of leaves after a successful
	// append.
	TreeLength(n uint64)

	// ChecksumFailure is called whenever a read detects a tampered or
	// corrupted entry.
	ChecksumFailure()
}
