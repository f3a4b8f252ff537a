// Package blocklist holds the fixed blocked-address table the firewall
// scanner walks. The table is immutable once built: validation happens at
// construction and there is no runtime mutation path.
package blocklist

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"

	"quillfire.xyz/ipgate/internal/core"
)

// DefaultSize is the canonical table length.
const DefaultSize = 10

// Table is an ordered list of distinct 32-bit IPv4 addresses.
type Table struct {
	entries []uint32
	addrs   []netip.Addr
}

// rulesFile is the on-disk YAML shape: a single `blocked` list of dotted
// quads.
type rulesFile struct {
	Blocked []string `yaml:"blocked"`
}

// New builds a table from addrs. Every entry must be IPv4 and distinct, and
// the table must not be empty.
func New(addrs []netip.Addr) (*Table, error) {
	if len(addrs) == 0 {
		return nil, core.ErrTableEmpty
	}
	t := &Table{
		entries: make([]uint32, 0, len(addrs)),
		addrs:   make([]netip.Addr, 0, len(addrs)),
	}
	seen := make(map[uint32]struct{}, len(addrs))
	for i, a := range addrs {
		v, err := core.AddrToUint32(a)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("%w: %s at index %d", core.ErrTableDuplicate, a, i)
		}
		seen[v] = struct{}{}
		t.entries = append(t.entries, v)
		t.addrs = append(t.addrs, a)
	}
	return t, nil
}

// Default returns the built-in table of ten entries.
func Default() *Table {
	t, err := New(defaultAddrs())
	if err != nil {
		panic(err) // built-in table is known good
	}
	return t
}

// LoadFile reads a YAML rules file and builds a table from it.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	addrs := make([]netip.Addr, 0, len(rf.Blocked))
	for i, s := range rf.Blocked {
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("rules file %s entry %d: %w", path, i, err)
		}
		addrs = append(addrs, a)
	}
	return New(addrs)
}

// Len returns the table size.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the raw 32-bit values in table order. The slice is shared;
// callers must treat it as read-only.
func (t *Table) Entries() []uint32 {
	return t.entries
}

// Addrs returns the entries as netip addresses in table order.
func (t *Table) Addrs() []netip.Addr {
	return t.addrs
}

// Contains evaluates every entry at once, the comparator-array equivalent of
// the scanner's sequential walk. Same result, no tick timing; used as a
// cross-check and by callers that do not need the scan protocol.
func (t *Table) Contains(addr uint32) bool {
	for _, e := range t.entries {
		if e == addr {
			return true
		}
	}
	return false
}

// ContainsAddr is Contains for a netip address. Non-IPv4 addresses never
// match.
func (t *Table) ContainsAddr(a netip.Addr) bool {
	v, err := core.AddrToUint32(a)
	if err != nil {
		return false
	}
	return t.Contains(v)
}

func defaultAddrs() []netip.Addr {
	raw := []string{
		"203.0.113.5",
		"203.0.113.6",
		"198.51.100.23",
		"198.51.100.99",
		"192.0.2.17",
		"192.0.2.44",
		"100.64.0.1",
		"172.16.254.254",
		"192.168.13.37",
		"8.8.8.8",
	}
	addrs := make([]netip.Addr, len(raw))
	for i, s := range raw {
		addrs[i] = netip.MustParseAddr(s)
	}
	return addrs
}
