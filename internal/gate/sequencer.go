package gate

// Sequencer states.
type seqState uint8

const (
	seqIdle seqState = iota
	seqRunning
)

// Pulses are the sequencer's one-tick control outputs. Every enable is
// asserted for exactly the tick it is returned on.
type Pulses struct {
	EnableTTL      bool
	EnableChecksum bool
	StartFirewall  bool
	TargetSource   bool
	SetValid       bool
	SetDone        bool

	// Accepted is asserted on the tick a start trigger is taken while idle.
	Accepted bool
	// Watchdog is asserted when a firewall wait exceeded the stall budget
	// and the session was terminated; SetValid and SetDone accompany it.
	Watchdog bool
}

// Sequencer interprets the microprogram: it fetches one control word per
// advancing tick, pulses stage enables, stalls on firewall waits and signals
// session completion.
type Sequencer struct {
	prog Microprogram

	// stallBudget bounds consecutive firewall-wait ticks; 0 means unbounded,
	// restoring the original stall-forever behavior.
	stallBudget int

	state   seqState
	pc      uint8
	stalled int
}

// NewSequencer creates a sequencer for prog. The program must already be
// validated; Fetch panics on out-of-range branches.
func NewSequencer(prog Microprogram, stallBudget int) *Sequencer {
	return &Sequencer{prog: prog, stallBudget: stallBudget}
}

// Busy reports whether a session is in flight.
func (q *Sequencer) Busy() bool {
	return q.state == seqRunning
}

// PC returns the current program counter.
func (q *Sequencer) PC() uint8 {
	return q.pc
}

// Reset collapses the sequencer to idle immediately, discarding any
// in-flight session.
func (q *Sequencer) Reset() {
	q.state = seqIdle
	q.pc = addrIdle
	q.stalled = 0
}

// Step advances the sequencer one tick. start is the external start trigger;
// scan carries the firewall scanner's registered outputs for this tick.
//
// The stall condition is WaitFirewall && scan.Busy. On the tick a start
// pulse is issued the scanner is not yet busy, so the word completes and the
// start is never re-pulsed; on the scanner's done tick busy is already
// clear, so the stall breaks exactly then.
func (q *Sequencer) Step(start bool, scan ScanOutputs) Pulses {
	var p Pulses

	switch q.state {
	case seqIdle:
		// Start triggers while busy are ignored, not queued.
		if start {
			q.state = seqRunning
			q.pc = addrTTL
			q.stalled = 0
			p.Accepted = true
		}

	case seqRunning:
		w := q.prog.Fetch(q.pc)

		if w.WaitFirewall && scan.Busy {
			q.stalled++
			if q.stallBudget > 0 && q.stalled > q.stallBudget {
				p.Watchdog = true
				p.SetValid = true
				p.SetDone = true
				q.state = seqIdle
				q.pc = addrIdle
				q.stalled = 0
			}
			return p
		}
		q.stalled = 0

		p.EnableTTL = w.EnableTTL
		p.EnableChecksum = w.EnableChecksum
		p.StartFirewall = w.StartFirewall
		p.TargetSource = w.TargetSource
		p.SetValid = w.SetValid
		p.SetDone = w.SetDone

		if w.SetDone {
			q.state = seqIdle
			q.pc = addrIdle
		} else {
			q.pc = w.Next
		}
	}

	return p
}
