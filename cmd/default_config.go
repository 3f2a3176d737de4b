package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sim "github.com/ed-sim/ed-sim/sim"
)

// defaultsCmd prints the built-in reference department as YAML, ready to be
// edited and passed back with run --config.
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in department configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDefaultConfig(cmd.OutOrStdout())
	},
}

func writeDefaultConfig(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sim.DefaultConfig()); err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	return enc.Close()
}
