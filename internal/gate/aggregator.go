package gate

import "quillfire.xyz/ipgate/internal/core"

// Aggregator latches each stage's drop/error contribution as it appears and
// combines them into the final verdict. Latches are keyed to the active
// firewall target: the target selected when a scan was started decides which
// match latch its done pulse lands in.
type Aggregator struct {
	input     core.Header
	working   core.Header
	processed core.Header

	ttlDrop  bool
	csumErr  bool
	srcMatch bool
	dstMatch bool
	watchdog bool

	targetSource bool
	valid        bool
}

// Reset clears everything, including any latched verdict.
func (a *Aggregator) Reset() {
	*a = Aggregator{}
}

// StartSession clears the four latches and snapshots the input header.
func (a *Aggregator) StartSession(h core.Header) {
	*a = Aggregator{input: h, working: h, processed: h}
}

// Working returns the current working header: the session snapshot, updated
// by the TTL stage once its output has appeared.
func (a *Aggregator) Working() core.Header {
	return a.working
}

// Input returns the session input exactly as submitted. The stages never
// touch it; checksum verification reads it.
func (a *Aggregator) Input() core.Header {
	return a.input
}

// Observe folds one tick's stage outputs into the latches.
func (a *Aggregator) Observe(p Pulses, ttl TTLResult, ck ChecksumResult, scan ScanOutputs) {
	if ttl.Valid {
		a.ttlDrop = ttl.Drop
		a.working = ttl.Header
		a.processed = ttl.Header
	}
	if ck.Valid {
		a.csumErr = ck.Err
		a.working = ck.Header
		a.processed = ck.Header
	}
	if scan.Done {
		if a.targetSource {
			a.srcMatch = scan.Match
		} else {
			a.dstMatch = scan.Match
		}
	}
	if p.StartFirewall {
		a.targetSource = p.TargetSource
	}
	if p.Watchdog {
		a.watchdog = true
	}
	if p.SetValid {
		a.valid = true
	}
}

// Valid reports whether a completed verdict is latched.
func (a *Aggregator) Valid() bool {
	return a.valid
}

// Verdict returns the combined decision. Meaningful only once Valid is true.
func (a *Aggregator) Verdict() core.Verdict {
	return core.Verdict{
		Drop:   a.ttlDrop || a.csumErr || a.srcMatch || a.dstMatch || a.watchdog,
		Header: a.processed,
		Debug: core.DebugFlags{
			TTLDrop:          a.ttlDrop,
			ChecksumError:    a.csumErr,
			SourceMatch:      a.srcMatch,
			DestinationMatch: a.dstMatch,
			Watchdog:         a.watchdog,
		},
	}
}
