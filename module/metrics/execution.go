package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dapperlabs/lmtht/module"
)

const namespace = "lmtht"

var (
	appendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "append",
		Name:      "duration_seconds",
		Help:      "time taken to append one entry, from ENode construction to cache swap",
		Buckets:   prometheus.DefBuckets,
	})
	appendPayloadSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "append",
		Name:      "payload_bytes",
		Help:      "size of appended payloads",
		Buckets:   []float64{16, 64, 256, 1024, 4096, 16384, 65536},
	})
	appendINodesProduced = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "append",
		Name:      "inodes_produced",
		Help:      "number of fresh internal nodes produced per append",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})
	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "time taken by one root-guided descent",
		Buckets:   prometheus.DefBuckets,
	})
	queryBranchesCollected = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "branches_collected",
		Help:      "number of proof branch hashes collected per query",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})
	treeHeightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "height",
		Help:      "height of the current generation root",
	})
	treeLengthGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "length",
		Help:      "number of leaves appended so far",
	})
	checksumFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checksum_failures_total",
		Help:      "number of entries that failed checksum verification on read",
	})
)

// PrometheusCollector implements module.Metrics by reporting to the
// default Prometheus registry via promauto, the same pattern used
// throughout this codebase's other collectors.
type PrometheusCollector struct{}

// NewPrometheusCollector returns a Metrics implementation backed by
// package-level Prometheus collectors.
func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{}
}

var _ module.Metrics = (*PrometheusCollector)(nil)

func (c *PrometheusCollector) AppendStarted() time.Time {
	return time.Now()
}

func (c *PrometheusCollector) AppendFinished(started time.Time, payloadSize int, inodesProduced int) {
	appendDuration.Observe(time.Since(started).Seconds())
	appendPayloadSize.Observe(float64(payloadSize))
	appendINodesProduced.Observe(float64(inodesProduced))
}

func (c *PrometheusCollector) QueryStarted() time.Time {
	return time.Now()
}

func (c *PrometheusCollector) QueryFinished(started time.Time, branchesCollected int) {
	queryDuration.Observe(time.Since(started).Seconds())
	queryBranchesCollected.Observe(float64(branchesCollected))
}

func (c *PrometheusCollector) TreeHeight(height int) {
	treeHeightGauge.Set(float64(height))
}

func (c *PrometheusCollector) TreeLength(n uint64) {
	treeLengthGauge.Set(float64(n))
}

func (c *PrometheusCollector) ChecksumFailure() {
	checksumFailures.Inc()
}
