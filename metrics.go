package goVerify

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one Verifier counter or histogram.
//
// The failure IDs share their numeric values with the matching Kind, so
// MetricForKind is a conversion rather than a lookup.
type MetricID uint16

const (
	// MetricVerifySuccess counts tokens that passed every check.
	MetricVerifySuccess MetricID = iota
	MetricStructureError
	MetricMalformedEncoding
	MetricInvalidJSON
	MetricUnknownAlgorithm
	MetricAlgorithmNotAllowed
	MetricKeyMismatch
	MetricSignatureInvalid
	MetricExpired
	MetricNotYetValid
	MetricIssuedInFuture
	MetricMissingClaim
	MetricIssuerMismatch
	MetricAudienceMismatch
	MetricMalformedClaim
	// MetricUnknownKeyID counts tokens whose kid matched no configured key.
	MetricUnknownKeyID
	// MetricTokenRevoked counts otherwise valid tokens found on the revocation list.
	MetricTokenRevoked
	// MetricRevocationError counts failed revocation backend lookups.
	MetricRevocationError
	// MetricVerifyLatency is the histogram of Verify call durations.
	MetricVerifyLatency
	metricIDCount
)

// MetricForKind returns the failure counter for k.
func MetricForKind(k Kind) MetricID {
	return MetricID(k)
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free Verifier counters. A nil or disabled Metrics drops
// every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id. Safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the latency histogram. Only MetricVerifyLatency has
// buckets; other IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency buckets when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

// Bucket upper bounds: 100µs, 250µs, 500µs, 1ms, 2.5ms, 5ms, 10ms, +Inf.
// HMAC verifications land in the first buckets; RSA and ECDSA in the middle.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 100:
		return 0
	case us <= 250:
		return 1
	case us <= 500:
		return 2
	case us <= 1000:
		return 3
	case us <= 2500:
		return 4
	case us <= 5000:
		return 5
	case us <= 10000:
		return 6
	default:
		return 7
	}
}
