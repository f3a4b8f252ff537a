package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlWordPackLayout(t *testing.T) {
	tests := []struct {
		name string
		word ControlWord
		want uint16
	}{
		{"empty", ControlWord{}, 0x0000},
		{"enable ttl", ControlWord{EnableTTL: true}, 0x8000},
		{"enable checksum", ControlWord{EnableChecksum: true}, 0x4000},
		{"start firewall", ControlWord{StartFirewall: true}, 0x2000},
		{"target source", ControlWord{TargetSource: true}, 0x1000},
		{"wait firewall", ControlWord{WaitFirewall: true}, 0x0800},
		{"set valid", ControlWord{SetValid: true}, 0x0400},
		{"set done", ControlWord{SetDone: true}, 0x0200},
		{"next only", ControlWord{Next: 0x1f}, 0x001f},
		{"scan source slot", ControlWord{StartFirewall: true, TargetSource: true, WaitFirewall: true, Next: 4}, 0x3804},
		{"finish slot", ControlWord{SetValid: true, SetDone: true, Next: 0}, 0x0600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.word.Pack())
		})
	}
}

func TestControlWordRoundTrip(t *testing.T) {
	words := []ControlWord{
		{},
		{EnableTTL: true, Next: 2},
		{EnableChecksum: true, Next: 3},
		{StartFirewall: true, TargetSource: true, WaitFirewall: true, Next: 4},
		{SetValid: true, SetDone: true, Next: 0},
		{Next: 31},
	}
	for _, w := range words {
		assert.Equal(t, w, UnpackControlWord(w.Pack()))
	}
}

func TestDefaultMicroprogram(t *testing.T) {
	m := DefaultMicroprogram()
	require.NoError(t, m.Validate())

	// Canonical sequence addresses 0-7.
	assert.Equal(t, ControlWord{Next: 1}, m[0], "idle dispatch")
	assert.Equal(t, ControlWord{EnableTTL: true, Next: 2}, m[1])
	assert.Equal(t, ControlWord{EnableChecksum: true, Next: 3}, m[2])
	assert.Equal(t, ControlWord{StartFirewall: true, TargetSource: true, WaitFirewall: true, Next: 4}, m[3])
	assert.Equal(t, ControlWord{WaitFirewall: true, Next: 5}, m[4])
	assert.Equal(t, ControlWord{StartFirewall: true, WaitFirewall: true, Next: 6}, m[5])
	assert.Equal(t, ControlWord{WaitFirewall: true, Next: 7}, m[6])
	assert.Equal(t, ControlWord{SetValid: true, SetDone: true, Next: 0}, m[7])

	// Slots 8-15 are no-ops returning to the dispatch slot.
	for i := 8; i < ProgramSize; i++ {
		assert.Equal(t, ControlWord{Next: 0}, m[i], "slot %d", i)
	}
}

func TestMicroprogramValidate(t *testing.T) {
	m := DefaultMicroprogram()
	m[3].Next = 16 // encodable in 5 bits, but outside the store
	assert.Error(t, m.Validate())
}

func TestMicroprogramFetchPanics(t *testing.T) {
	m := DefaultMicroprogram()
	assert.Panics(t, func() { m.Fetch(ProgramSize) })
}

func TestMicroprogramDisassemble(t *testing.T) {
	out := DefaultMicroprogram().Disassemble()
	assert.Contains(t, out, "fw.start(src)")
	assert.Contains(t, out, "fw.start(dst)")
	assert.Contains(t, out, "valid done")
}
