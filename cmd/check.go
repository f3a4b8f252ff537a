package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quillfire.xyz/ipgate/internal/gate"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and show the control store",
	Long: `Check loads and validates the configuration and the blocked-address
table, then prints the table and a disassembly of the microprogram with each
slot's packed 16-bit control word.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table, err := loadTable(cfg.Gate)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config: ok\n\n")

		fmt.Fprintf(out, "blocked addresses (%d entries):\n", table.Len())
		for i, a := range table.Addrs() {
			fmt.Fprintf(out, "  %2d  %s\n", i, a)
		}

		prog := gate.DefaultMicroprogram()
		if err := prog.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nmicroprogram:\n%s", prog.Disassemble())
		return nil
	},
}
