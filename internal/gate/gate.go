package gate

import (
	"fmt"

	"quillfire.xyz/ipgate/internal/core"
)

// DefaultStallBudget bounds a firewall wait to this many consecutive stall
// ticks. Generous for any realistic table.
const DefaultStallBudget = 64

// maxSessionTicks is a hard safety cap for Process. A canonical session over
// a table of N entries completes in well under 16+2N ticks; this cap only
// trips on a broken program.
const maxSessionTicks = 4096

// Config fixes the gate's construction-time parameters. Nothing here is
// runtime-mutable.
type Config struct {
	// Table is the ordered blocked-address list, exact 32-bit values.
	Table []uint32
	// VerifyChecksum enables input-checksum verification in the checksum
	// engine. Off by default.
	VerifyChecksum bool
	// StallBudget bounds firewall-wait stalls in ticks. Zero selects
	// DefaultStallBudget; a negative value disables the bound.
	StallBudget int
	// Program overrides the canonical microprogram when non-nil.
	Program *Microprogram
}

// Gate is the assembled pipeline: sequencer, microprogram, TTL stage,
// checksum engine, firewall scanner and result aggregator, all advancing in
// lockstep under Tick. At most one session is in flight at a time.
type Gate struct {
	seq     *Sequencer
	ttl     *TTLStage
	csum    *ChecksumEngine
	scanner *Scanner
	agg     *Aggregator

	start    bool
	startHdr core.Header
}

// New builds a gate from cfg.
func New(cfg Config) (*Gate, error) {
	prog := DefaultMicroprogram()
	if cfg.Program != nil {
		prog = *cfg.Program
	}
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}
	budget := cfg.StallBudget
	if budget == 0 {
		budget = DefaultStallBudget
	} else if budget < 0 {
		budget = 0
	}
	return &Gate{
		seq:     NewSequencer(prog, budget),
		ttl:     &TTLStage{},
		csum:    NewChecksumEngine(cfg.VerifyChecksum),
		scanner: NewScanner(cfg.Table),
		agg:     &Aggregator{},
	}, nil
}

// Busy reports whether a session is in flight.
func (g *Gate) Busy() bool {
	return g.seq.Busy()
}

// Submit asserts the start trigger with a header. It reports whether the
// trigger can be accepted: while busy the trigger has no effect. The session
// actually begins on the next Tick.
func (g *Gate) Submit(h core.Header) bool {
	if g.seq.Busy() || g.start {
		return false
	}
	g.start = true
	g.startHdr = h
	return true
}

// Tick advances the whole pipeline one tick. Evaluation order within the
// tick preserves the synchronous model: every component sees the others'
// registered outputs as of the start of the tick.
func (g *Gate) Tick() {
	scanOut := g.scanner.Outputs()
	pulses := g.seq.Step(g.start, scanOut)
	if pulses.Accepted {
		g.agg.StartSession(g.startHdr)
	}
	// A start trigger is a pulse, not a level: consumed or ignored, never queued.
	g.start = false

	ttlOut := g.ttl.Step(pulses.EnableTTL, g.agg.Working())

	// The checksum engine sees the TTL stage's output the tick it appears,
	// so the recomputed checksum covers the decremented TTL. Verification
	// checks the untouched session input.
	csumIn := g.agg.Working()
	if ttlOut.Valid {
		csumIn = ttlOut.Header
	}
	csumOut := g.csum.Step(pulses.EnableChecksum, csumIn, g.agg.Input())

	scanAddr := csumIn.Dst
	if pulses.TargetSource {
		scanAddr = csumIn.Src
	}
	g.scanner.Step(pulses.StartFirewall, scanAddr)

	// A watchdog termination abandons the hung scan; the scanner must not
	// leak a stale done pulse into the next session.
	if pulses.Watchdog {
		g.scanner.Reset()
	}

	g.agg.Observe(pulses, ttlOut, csumOut, scanOut)
}

// Reset returns every component to its initial state, discarding all
// in-flight session data. No partial result survives.
func (g *Gate) Reset() {
	g.seq.Reset()
	g.ttl.Reset()
	g.csum.Reset()
	g.scanner.Reset()
	g.agg.Reset()
	g.start = false
	g.startHdr = core.Header{}
}

// Result returns the latched verdict and whether it is valid. The verdict
// stays latched until the next accepted start or a reset.
func (g *Gate) Result() (core.Verdict, bool) {
	if !g.agg.Valid() {
		return core.Verdict{}, false
	}
	return g.agg.Verdict(), true
}

// Process runs one complete session synchronously: submit, tick until the
// verdict is valid, return it. This is the driver loop most callers want.
func (g *Gate) Process(h core.Header) (core.Verdict, error) {
	if !g.Submit(h) {
		return core.Verdict{}, core.ErrGateBusy
	}
	for i := 0; i < maxSessionTicks; i++ {
		g.Tick()
		if !g.Busy() {
			if v, ok := g.Result(); ok {
				return v, nil
			}
		}
	}
	return core.Verdict{}, core.ErrSessionAborted
}
