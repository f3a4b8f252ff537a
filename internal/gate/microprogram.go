package gate

import (
	"fmt"
	"strings"
)

// ProgramSize is the number of microprogram slots (4-bit addressable).
const ProgramSize = 16

// Microprogram is the fixed, ordered control store the sequencer interprets.
// Sequencing policy lives entirely in this table; the sequencer itself only
// fetches, pulses and branches.
type Microprogram [ProgramSize]ControlWord

// Canonical program addresses. Address 0 is the idle/dispatch slot: the
// sequencer parks there and a new session always enters at address 1.
const (
	addrIdle     = 0
	addrTTL      = 1
	addrChecksum = 2
	addrScanSrc  = 3
	addrWaitSrc  = 4
	addrScanDst  = 5
	addrWaitDst  = 6
	addrFinish   = 7
)

// DefaultMicroprogram returns the canonical pipeline sequence: TTL, checksum,
// firewall on source, firewall on destination, finish. Slots 8-15 are no-ops
// branching back to 0, reserved for future stages.
func DefaultMicroprogram() Microprogram {
	var m Microprogram
	m[addrIdle] = ControlWord{Next: addrTTL}
	m[addrTTL] = ControlWord{EnableTTL: true, Next: addrChecksum}
	m[addrChecksum] = ControlWord{EnableChecksum: true, Next: addrScanSrc}
	m[addrScanSrc] = ControlWord{StartFirewall: true, TargetSource: true, WaitFirewall: true, Next: addrWaitSrc}
	m[addrWaitSrc] = ControlWord{WaitFirewall: true, Next: addrScanDst}
	m[addrScanDst] = ControlWord{StartFirewall: true, WaitFirewall: true, Next: addrWaitDst}
	m[addrWaitDst] = ControlWord{WaitFirewall: true, Next: addrFinish}
	m[addrFinish] = ControlWord{SetValid: true, SetDone: true, Next: addrIdle}
	for i := addrFinish + 1; i < ProgramSize; i++ {
		m[i] = ControlWord{Next: addrIdle}
	}
	return m
}

// Validate checks that every branch target stays inside the store. The Next
// field is 5 bits wide for wire compatibility, so values 16-31 are encodable
// but never legal here.
func (m Microprogram) Validate() error {
	for i, w := range m {
		if w.Next >= ProgramSize {
			return fmt.Errorf("microprogram slot %d: next address %d out of range", i, w.Next)
		}
	}
	return nil
}

// Fetch returns the control word at pc. An out-of-range pc is unreachable by
// construction and treated as a fatal invariant violation.
func (m Microprogram) Fetch(pc uint8) ControlWord {
	if pc >= ProgramSize {
		panic(fmt.Sprintf("gate: program counter %d out of range", pc))
	}
	return m[pc]
}

// Disassemble renders the whole store, one slot per line with its packed form.
func (m Microprogram) Disassemble() string {
	var b strings.Builder
	for i, w := range m {
		fmt.Fprintf(&b, "%2d  0x%04x  %s\n", i, w.Pack(), w)
	}
	return b.String()
}
