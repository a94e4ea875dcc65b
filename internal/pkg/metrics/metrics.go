package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	appends             uint64
	sequenceRejections  uint64
	chainBreaks         uint64
	evaluations         uint64
	acknowledgmentsReqd uint64
	publishes           uint64
	offlineQueued       uint64
	totalRequests       uint64
	errorRequests       uint64
	totalDurationMs     uint64
}

func New() *Collector {
	return &Collector{}
}

// The counter methods are nil-safe so services can run without a collector.

func (c *Collector) Append() {
	if c != nil {
		atomic.AddUint64(&c.appends, 1)
	}
}

func (c *Collector) SequenceRejected() {
	if c != nil {
		atomic.AddUint64(&c.sequenceRejections, 1)
	}
}

func (c *Collector) ChainBroken() {
	if c != nil {
		atomic.AddUint64(&c.chainBreaks, 1)
	}
}

func (c *Collector) Evaluation() {
	if c != nil {
		atomic.AddUint64(&c.evaluations, 1)
	}
}

func (c *Collector) AcknowledgmentRequired() {
	if c != nil {
		atomic.AddUint64(&c.acknowledgmentsReqd, 1)
	}
}

func (c *Collector) Published() {
	if c != nil {
		atomic.AddUint64(&c.publishes, 1)
	}
}

func (c *Collector) OfflineQueued() {
	if c != nil {
		atomic.AddUint64(&c.offlineQueued, 1)
	}
}

// Record counts one HTTP request.
func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"appendsTotal":                 atomic.LoadUint64(&c.appends),
		"sequenceRejectionsTotal":      atomic.LoadUint64(&c.sequenceRejections),
		"chainBreaksTotal":             atomic.LoadUint64(&c.chainBreaks),
		"evaluationsTotal":             atomic.LoadUint64(&c.evaluations),
		"acknowledgmentsRequiredTotal": atomic.LoadUint64(&c.acknowledgmentsReqd),
		"publishesTotal":               atomic.LoadUint64(&c.publishes),
		"offlineQueuedTotal":           atomic.LoadUint64(&c.offlineQueued),
		"requestsTotal":                total,
		"errorsTotal":                  atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":                avg,
	}
}
