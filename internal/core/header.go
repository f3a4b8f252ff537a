// Package core defines core data structures with zero external dependencies.
package core

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// HeaderLen is the size of a fixed IPv4 header without options.
const HeaderLen = 20

// Header is a fixed 20-byte IPv4 header. Field order and widths mirror the
// on-wire layout exactly; all multi-byte fields are held in host-native form
// and marshalled big-endian.
type Header struct {
	VersionIHL    uint8  // version (high nibble) + header length in 32-bit words
	TOS           uint8  // type of service / DSCP+ECN
	TotalLength   uint16
	Identification uint16
	FlagsFragment uint16 // flags (3 bits) + fragment offset (13 bits)
	TTL           uint8
	Protocol      uint8
	Checksum      uint16
	Src           uint32
	Dst           uint32
}

// MarshalBinary encodes the header into its 20-byte wire form.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderLen)
	buf[0] = h.VersionIHL
	buf[1] = h.TOS
	binary.BigEndian.PutUint16(buf[2:4], h.TotalLength)
	binary.BigEndian.PutUint16(buf[4:6], h.Identification)
	binary.BigEndian.PutUint16(buf[6:8], h.FlagsFragment)
	buf[8] = h.TTL
	buf[9] = h.Protocol
	binary.BigEndian.PutUint16(buf[10:12], h.Checksum)
	binary.BigEndian.PutUint32(buf[12:16], h.Src)
	binary.BigEndian.PutUint32(buf[16:20], h.Dst)
	return buf, nil
}

// UnmarshalBinary decodes a 20-byte wire-form header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderLen {
		return ErrHeaderTooShort
	}
	h.VersionIHL = data[0]
	h.TOS = data[1]
	h.TotalLength = binary.BigEndian.Uint16(data[2:4])
	h.Identification = binary.BigEndian.Uint16(data[4:6])
	h.FlagsFragment = binary.BigEndian.Uint16(data[6:8])
	h.TTL = data[8]
	h.Protocol = data[9]
	h.Checksum = binary.BigEndian.Uint16(data[10:12])
	h.Src = binary.BigEndian.Uint32(data[12:16])
	h.Dst = binary.BigEndian.Uint32(data[16:20])
	return nil
}

// Words returns the header as ten big-endian 16-bit words, the unit the
// checksum algorithm operates on.
func (h Header) Words() [10]uint16 {
	return [10]uint16{
		uint16(h.VersionIHL)<<8 | uint16(h.TOS),
		h.TotalLength,
		h.Identification,
		h.FlagsFragment,
		uint16(h.TTL)<<8 | uint16(h.Protocol),
		h.Checksum,
		uint16(h.Src >> 16),
		uint16(h.Src & 0xffff),
		uint16(h.Dst >> 16),
		uint16(h.Dst & 0xffff),
	}
}

// SrcAddr returns the source address as a netip.Addr.
func (h Header) SrcAddr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.Src)
	return netip.AddrFrom4(b)
}

// DstAddr returns the destination address as a netip.Addr.
func (h Header) DstAddr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.Dst)
	return netip.AddrFrom4(b)
}

// AddrToUint32 converts an IPv4 netip.Addr to its 32-bit numeric form.
func AddrToUint32(a netip.Addr) (uint32, error) {
	if !a.Is4() {
		return 0, fmt.Errorf("%w: %s", ErrNotIPv4, a)
	}
	b := a.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

func (h Header) String() string {
	return fmt.Sprintf("ipv4 %s -> %s ttl=%d proto=%d csum=0x%04x",
		h.SrcAddr(), h.DstAddr(), h.TTL, h.Protocol, h.Checksum)
}
