package gate

import "fmt"

// Scanner states.
type scanState uint8

const (
	scanIdle scanState = iota
	scanChecking
	scanDone
)

// ScanOutputs are the scanner's registered outputs for one tick. Done pulses
// for exactly one tick; Match is meaningful only while Done is asserted.
type ScanOutputs struct {
	Busy  bool
	Done  bool
	Match bool
}

// Scanner walks a fixed ordered table of blocked addresses looking for an
// exact 32-bit match, one entry per tick. It is a singleton resource: the
// sequencer serializes its two uses per session.
type Scanner struct {
	table []uint32

	state scanState
	addr  uint32
	index int
	match bool
}

// NewScanner creates a scanner over table. The table is captured by
// reference and must not change for the lifetime of the scanner.
func NewScanner(table []uint32) *Scanner {
	return &Scanner{table: table}
}

// Reset collapses the scanner to idle, discarding any scan in progress.
func (s *Scanner) Reset() {
	s.state = scanIdle
	s.addr = 0
	s.index = 0
	s.match = false
}

// Outputs returns the registered outputs for the current tick without
// advancing state.
func (s *Scanner) Outputs() ScanOutputs {
	switch s.state {
	case scanChecking:
		return ScanOutputs{Busy: true}
	case scanDone:
		return ScanOutputs{Done: true, Match: s.match}
	default:
		return ScanOutputs{}
	}
}

// Step advances the scanner one tick. A start pulse is honored only while
// idle; starts during a scan are ignored.
func (s *Scanner) Step(start bool, addr uint32) {
	switch s.state {
	case scanIdle:
		if start {
			s.addr = addr
			s.index = 0
			s.match = false
			if len(s.table) == 0 {
				s.state = scanDone
			} else {
				s.state = scanChecking
			}
		}

	case scanChecking:
		if s.index < 0 || s.index >= len(s.table) {
			panic(fmt.Sprintf("gate: scanner rule index %d out of range", s.index))
		}
		if s.table[s.index] == s.addr {
			s.match = true
			s.state = scanDone
		} else if s.index == len(s.table)-1 {
			s.state = scanDone
		} else {
			s.index++
		}

	case scanDone:
		s.state = scanIdle
	}
}
