package core

// DebugFlags breaks the combined drop decision down by contributor.
type DebugFlags struct {
	TTLDrop          bool
	ChecksumError    bool
	SourceMatch      bool
	DestinationMatch bool
	// Watchdog is set when a firewall wait exceeded the configured stall
	// budget and the session was terminated early.
	Watchdog bool
}

// Verdict is the result of one complete session: the combined drop decision,
// the processed header (TTL updated, checksum recomputed) and the per-stage
// debug flags.
type Verdict struct {
	Drop   bool
	Header Header
	Debug  DebugFlags
}

// FirewallMatch reports whether either firewall lookup hit the table.
func (v Verdict) FirewallMatch() bool {
	return v.Debug.SourceMatch || v.Debug.DestinationMatch
}
