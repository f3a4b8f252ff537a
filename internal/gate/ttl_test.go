package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillfire.xyz/ipgate/internal/core"
)

func TestTTLStage(t *testing.T) {
	tests := []struct {
		name     string
		ttl      uint8
		wantTTL  uint8
		wantDrop bool
	}{
		{"expired at zero", 0, 0, true},
		{"expired at one", 1, 0, true},
		{"decrement from two", 2, 1, false},
		{"decrement from 64", 64, 63, false},
		{"decrement from max", 255, 254, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s TTLStage
			in := core.Header{VersionIHL: 0x45, TTL: tt.ttl, Src: 1, Dst: 2}

			out := s.Step(true, in)
			assert.False(t, out.Valid, "no output on the enable tick")

			out = s.Step(false, core.Header{})
			require.True(t, out.Valid)
			assert.Equal(t, tt.wantDrop, out.Drop)
			assert.Equal(t, tt.wantTTL, out.Header.TTL)

			// Only the TTL field changes.
			want := in
			want.TTL = tt.wantTTL
			assert.Equal(t, want, out.Header)
		})
	}
}

func TestTTLStagePulse(t *testing.T) {
	var s TTLStage
	s.Step(true, core.Header{TTL: 10})
	out := s.Step(false, core.Header{})
	require.True(t, out.Valid)

	out = s.Step(false, core.Header{})
	assert.False(t, out.Valid, "validity is a single-tick pulse")
}

func TestTTLStageReset(t *testing.T) {
	var s TTLStage
	s.Step(true, core.Header{TTL: 10})
	s.Reset()
	out := s.Step(false, core.Header{})
	assert.False(t, out.Valid)
}
