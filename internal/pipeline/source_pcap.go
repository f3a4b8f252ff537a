package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"quillfire.xyz/ipgate/internal/core"
	"quillfire.xyz/ipgate/internal/log"
)

// PcapSource reads a pcap file and emits the IPv4 header of every IPv4
// packet in it. Non-IPv4 frames and undecodable frames are skipped, not
// errors.
type PcapSource struct {
	path string

	// layer caches for the decoding parser
	ethLayer  layers.Ethernet
	ipv4Layer layers.IPv4
}

// NewPcapSource creates a source over the pcap file at path.
func NewPcapSource(path string) *PcapSource {
	return &PcapSource{path: path}
}

func (s *PcapSource) Name() string { return "pcap:" + s.path }

// Headers implements Source.
func (s *PcapSource) Headers(ctx context.Context, out chan<- core.Header) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open pcap file: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read pcap file %s: %w", s.path, err)
	}

	first := layers.LayerTypeEthernet
	if r.LinkType() == layers.LinkTypeRaw || r.LinkType() == layers.LinkTypeIPv4 {
		first = layers.LayerTypeIPv4
	}
	parser := gopacket.NewDecodingLayerParser(first, &s.ethLayer, &s.ipv4Layer)
	parser.IgnoreUnsupported = true
	decoded := make([]gopacket.LayerType, 0, 4)

	skipped := 0
	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}

		if err := parser.DecodeLayers(data, &decoded); err != nil {
			skipped++
			continue
		}
		sawIPv4 := false
		for _, lt := range decoded {
			if lt == layers.LayerTypeIPv4 {
				sawIPv4 = true
				break
			}
		}
		if !sawIPv4 {
			skipped++
			continue
		}

		select {
		case out <- headerFromLayer(&s.ipv4Layer):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if skipped > 0 {
		log.GetLogger().WithField("skipped", skipped).Debug("non-IPv4 packets skipped")
	}
	return nil
}

// headerFromLayer converts a decoded gopacket IPv4 layer into the fixed
// 20-byte header representation. Options, if any, are not carried.
func headerFromLayer(ip *layers.IPv4) core.Header {
	var src, dst uint32
	if v := ip.SrcIP.To4(); v != nil {
		src = binary.BigEndian.Uint32(v)
	}
	if v := ip.DstIP.To4(); v != nil {
		dst = binary.BigEndian.Uint32(v)
	}
	return core.Header{
		VersionIHL:     ip.Version<<4 | ip.IHL,
		TOS:            ip.TOS,
		TotalLength:    ip.Length,
		Identification: ip.Id,
		FlagsFragment:  uint16(ip.Flags)<<13 | ip.FragOffset&0x1fff,
		TTL:            ip.TTL,
		Protocol:       uint8(ip.Protocol),
		Checksum:       ip.Checksum,
		Src:            src,
		Dst:            dst,
	}
}
