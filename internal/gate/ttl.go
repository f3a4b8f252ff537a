package gate

import "quillfire.xyz/ipgate/internal/core"

// TTLResult is the TTL stage output for one tick. Valid pulses exactly one
// tick after the stage was enabled; all other fields are meaningful only on
// that tick.
type TTLResult struct {
	Valid  bool
	Drop   bool
	Header core.Header
}

// TTLStage decrements the TTL field, or flags expiry when the packet has no
// hops left. Pure transform with one-tick output latency.
type TTLStage struct {
	pending bool
	in      core.Header
}

// Reset discards any in-flight input.
func (s *TTLStage) Reset() {
	s.pending = false
	s.in = core.Header{}
}

// Step advances the stage one tick. The returned result reflects the input
// latched on the previous tick; the current enable/input pair is latched for
// the next one.
func (s *TTLStage) Step(enable bool, in core.Header) TTLResult {
	var out TTLResult
	if s.pending {
		out.Valid = true
		out.Header = s.in
		if s.in.TTL <= 1 {
			out.Drop = true
			out.Header.TTL = 0
		} else {
			out.Header.TTL--
		}
	}
	s.pending = enable
	if enable {
		s.in = in
	}
	return out
}
