// Package gate implements the microprogrammed IPv4 header pipeline: the
// sequencer, the microprogram store, the TTL / checksum / firewall stages and
// the result aggregator. The whole pipeline advances in discrete ticks; all
// outputs of a tick are computed from component state as of the start of the
// tick, and state updates commit before the next one.
package gate

import (
	"fmt"
	"strings"
)

// ControlWord is one microinstruction. It encodes which stages to pulse on
// the tick it executes and where the program counter goes next.
type ControlWord struct {
	EnableTTL      bool
	EnableChecksum bool
	StartFirewall  bool
	// TargetSource selects the firewall operand: source address when true,
	// destination address when false. Only meaningful with StartFirewall.
	TargetSource bool
	WaitFirewall bool
	SetValid     bool
	SetDone      bool
	Next         uint8 // 5-bit next address, 0-31
}

// Packed 16-bit layout, MSB first. Bits 8-5 are reserved and zero.
const (
	cwEnableTTL      = 1 << 15
	cwEnableChecksum = 1 << 14
	cwStartFirewall  = 1 << 13
	cwTargetSource   = 1 << 12
	cwWaitFirewall   = 1 << 11
	cwSetValid       = 1 << 10
	cwSetDone        = 1 << 9
	cwNextMask       = 0x1f
)

// Pack encodes the control word into its 16-bit wire form.
func (w ControlWord) Pack() uint16 {
	var v uint16
	if w.EnableTTL {
		v |= cwEnableTTL
	}
	if w.EnableChecksum {
		v |= cwEnableChecksum
	}
	if w.StartFirewall {
		v |= cwStartFirewall
	}
	if w.TargetSource {
		v |= cwTargetSource
	}
	if w.WaitFirewall {
		v |= cwWaitFirewall
	}
	if w.SetValid {
		v |= cwSetValid
	}
	if w.SetDone {
		v |= cwSetDone
	}
	v |= uint16(w.Next) & cwNextMask
	return v
}

// UnpackControlWord decodes a 16-bit packed control word.
func UnpackControlWord(v uint16) ControlWord {
	return ControlWord{
		EnableTTL:      v&cwEnableTTL != 0,
		EnableChecksum: v&cwEnableChecksum != 0,
		StartFirewall:  v&cwStartFirewall != 0,
		TargetSource:   v&cwTargetSource != 0,
		WaitFirewall:   v&cwWaitFirewall != 0,
		SetValid:       v&cwSetValid != 0,
		SetDone:        v&cwSetDone != 0,
		Next:           uint8(v & cwNextMask),
	}
}

// String renders the word as a short disassembly line.
func (w ControlWord) String() string {
	var ops []string
	if w.EnableTTL {
		ops = append(ops, "ttl")
	}
	if w.EnableChecksum {
		ops = append(ops, "csum")
	}
	if w.StartFirewall {
		if w.TargetSource {
			ops = append(ops, "fw.start(src)")
		} else {
			ops = append(ops, "fw.start(dst)")
		}
	}
	if w.WaitFirewall {
		ops = append(ops, "fw.wait")
	}
	if w.SetValid {
		ops = append(ops, "valid")
	}
	if w.SetDone {
		ops = append(ops, "done")
	}
	if len(ops) == 0 {
		ops = append(ops, "nop")
	}
	return fmt.Sprintf("%-40s -> %d", strings.Join(ops, " "), w.Next)
}
