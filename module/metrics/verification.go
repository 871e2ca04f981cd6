package metrics

import (
	"time"

	"github.com/dapperlabs/lmtht/module"
)

// NoopCollector implements module.Metrics by doing nothing. It is the
// default when a Tree is constructed without an explicit collector, so
// instrumentation is always opt-in.
type NoopCollector struct{}

var _ module.Metrics = (*NoopCollector)(nil)

func (NoopCollector) AppendStarted() time.Time           { return time.Time{} }
func (NoopCollector) AppendFinished(time.Time, int, int) {}
func (NoopCollector) QueryStarted() time.Time             { return time.Time{} }
func (NoopCollector) QueryFinished(time.Time, int)        {}
func (NoopCollector) TreeHeight(int)                       {}
func (NoopCollector) TreeLength(uint64)                    {}
func (NoopCollector) ChecksumFailure()                     {}
