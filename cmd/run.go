package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quillfire.xyz/ipgate/internal/blocklist"
	"quillfire.xyz/ipgate/internal/config"
	"quillfire.xyz/ipgate/internal/gate"
	"quillfire.xyz/ipgate/internal/log"
	"quillfire.xyz/ipgate/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run headers from the configured source through the gate",
	Long: `Run builds the gate from the configuration (blocked-address table,
checksum verification toggle, stall budget), feeds it every header the
configured source produces and reports each verdict. With no config file the
built-in sample headers and the default table are used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		table, err := loadTable(cfg.Gate)
		if err != nil {
			return err
		}

		g, err := gate.New(gate.Config{
			Table:          table.Entries(),
			VerifyChecksum: cfg.Gate.VerifyChecksum,
			StallBudget:    cfg.Gate.StallBudget,
		})
		if err != nil {
			return err
		}

		source, err := buildSource(cfg.Pipeline.Source)
		if err != nil {
			return err
		}
		reporters := make([]pipeline.Reporter, 0, len(cfg.Pipeline.Reporters))
		for _, rc := range cfg.Pipeline.Reporters {
			r, err := pipeline.BuildReporter(rc)
			if err != nil {
				return err
			}
			reporters = append(reporters, r)
		}

		p, err := pipeline.New(pipeline.Config{
			Gate:       g,
			Source:     source,
			Reporters:  reporters,
			BufferSize: cfg.Pipeline.BufferSize,
		})
		if err != nil {
			return err
		}

		if err := p.Start(); err != nil {
			return err
		}
		if err := p.Wait(); err != nil {
			return err
		}

		stats := p.Stats()
		log.GetLogger().WithFields(map[string]interface{}{
			"received": stats.Received,
			"dropped":  stats.Dropped,
			"passed":   stats.Passed,
			"errors":   stats.Errors,
		}).Info("run complete")
		return nil
	},
}

func loadTable(cfg config.GateConfig) (*blocklist.Table, error) {
	if cfg.BlocklistFile == "" {
		return blocklist.Default(), nil
	}
	t, err := blocklist.LoadFile(cfg.BlocklistFile)
	if err != nil {
		return nil, fmt.Errorf("load blocklist: %w", err)
	}
	return t, nil
}

func buildSource(cfg config.SourceConfig) (pipeline.Source, error) {
	switch cfg.Type {
	case "pcap":
		return pipeline.NewPcapSource(cfg.Path), nil
	case "sample", "":
		return pipeline.NewStaticSource("sample", pipeline.SampleHeaders()), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
