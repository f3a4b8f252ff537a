package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mitchellh/mapstructure"

	"quillfire.xyz/ipgate/internal/config"
	"quillfire.xyz/ipgate/internal/core"
)

// BuildReporter constructs a reporter from its config entry. Reporter
// options arrive as a loose map and are decoded per type.
func BuildReporter(cfg config.ReporterConfig) (Reporter, error) {
	switch cfg.Type {
	case "console":
		return NewConsoleReporter(os.Stdout), nil
	case "jsonl":
		var opts JSONLOptions
		if err := mapstructure.Decode(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("jsonl reporter options: %w", err)
		}
		return NewJSONLReporter(opts)
	default:
		return nil, fmt.Errorf("unknown reporter type %q", cfg.Type)
	}
}

// ConsoleReporter writes one human-readable line per verdict.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter creates a console reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Name() string { return "console" }

func (r *ConsoleReporter) Report(_ context.Context, v *core.Verdict) error {
	action := "pass"
	if v.Drop {
		action = "drop"
	}
	_, err := fmt.Fprintf(r.w, "%-4s  %s  ttl_drop=%t csum_err=%t src_match=%t dst_match=%t\n",
		action, v.Header,
		v.Debug.TTLDrop, v.Debug.ChecksumError, v.Debug.SourceMatch, v.Debug.DestinationMatch)
	return err
}

func (r *ConsoleReporter) Flush(context.Context) error { return nil }

// JSONLOptions configures the JSON-lines reporter.
type JSONLOptions struct {
	Path string `mapstructure:"path"`
}

// JSONLReporter appends one JSON object per verdict to a file.
type JSONLReporter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// verdictRecord is the serialized shape; stable field names independent of
// the in-memory structs.
type verdictRecord struct {
	Drop     bool   `json:"drop"`
	Src      string `json:"src"`
	Dst      string `json:"dst"`
	TTL      uint8  `json:"ttl"`
	Checksum uint16 `json:"checksum"`
	TTLDrop  bool   `json:"drop_ttl"`
	CsumErr  bool   `json:"drop_checksum"`
	Firewall bool   `json:"drop_firewall"`
	Watchdog bool   `json:"watchdog,omitempty"`
}

// NewJSONLReporter creates a JSON-lines reporter.
func NewJSONLReporter(opts JSONLOptions) (*JSONLReporter, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("jsonl reporter requires 'path' option")
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &JSONLReporter{f: f, enc: json.NewEncoder(f)}, nil
}

func (r *JSONLReporter) Name() string { return "jsonl" }

func (r *JSONLReporter) Report(_ context.Context, v *core.Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(verdictRecord{
		Drop:     v.Drop,
		Src:      v.Header.SrcAddr().String(),
		Dst:      v.Header.DstAddr().String(),
		TTL:      v.Header.TTL,
		Checksum: v.Header.Checksum,
		TTLDrop:  v.Debug.TTLDrop,
		CsumErr:  v.Debug.ChecksumError,
		Firewall: v.FirewallMatch(),
		Watchdog: v.Debug.Watchdog,
	})
}

func (r *JSONLReporter) Flush(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Sync()
}
