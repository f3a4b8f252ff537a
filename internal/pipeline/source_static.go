package pipeline

import (
	"context"
	"net/netip"

	"quillfire.xyz/ipgate/internal/core"
)

// StaticSource emits a fixed slice of headers. Used by the sample mode and
// by tests.
type StaticSource struct {
	name    string
	headers []core.Header
}

// NewStaticSource creates a source over headers.
func NewStaticSource(name string, headers []core.Header) *StaticSource {
	return &StaticSource{name: name, headers: headers}
}

func (s *StaticSource) Name() string { return s.name }

// Headers implements Source.
func (s *StaticSource) Headers(ctx context.Context, out chan<- core.Header) error {
	for _, h := range s.headers {
		select {
		case out <- h:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SampleHeaders returns a small demonstration workload: expired TTL, a clean
// pass, a blocked source and a zero TTL.
func SampleHeaders() []core.Header {
	return []core.Header{
		sampleHeader(1, "10.1.0.7", "10.1.0.8"),
		sampleHeader(64, "10.1.0.7", "10.1.0.8"),
		sampleHeader(64, "8.8.8.8", "10.1.0.8"),
		sampleHeader(0, "10.1.0.7", "10.1.0.8"),
	}
}

func sampleHeader(ttl uint8, src, dst string) core.Header {
	s, _ := core.AddrToUint32(netip.MustParseAddr(src))
	d, _ := core.AddrToUint32(netip.MustParseAddr(dst))
	return core.Header{
		VersionIHL:     0x45,
		TOS:            0,
		TotalLength:    84,
		Identification: 0x1c46,
		FlagsFragment:  0x4000,
		TTL:            ttl,
		Protocol:       6,
		Src:            s,
		Dst:            d,
	}
}
