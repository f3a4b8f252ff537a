package pipeline

import "sync/atomic"

// Metrics holds the pipeline counters. All fields are updated atomically
// from the processing loop.
type Metrics struct {
	Received     atomic.Uint64
	Completed    atomic.Uint64
	Dropped      atomic.Uint64
	Passed       atomic.Uint64
	Errors       atomic.Uint64
	ReportErrors atomic.Uint64
}

// Stats is a plain snapshot of Metrics.
type Stats struct {
	Received     uint64
	Completed    uint64
	Dropped      uint64
	Passed       uint64
	Errors       uint64
	ReportErrors uint64
}

// Snapshot reads all counters.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		Received:     m.Received.Load(),
		Completed:    m.Completed.Load(),
		Dropped:      m.Dropped.Load(),
		Passed:       m.Passed.Load(),
		Errors:       m.Errors.Load(),
		ReportErrors: m.ReportErrors.Load(),
	}
}
