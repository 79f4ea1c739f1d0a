package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
	"go-circuit-lab/internal/script"
)

var (
	scriptTimeout time.Duration
	loadPath      string
	printState    bool
)

var runCmd = &cobra.Command{
	Use:   "run <script.lua>",
	Short: "Run a Lua circuit script",
	Long: `Run a Lua script against a fresh simulator, optionally seeded from a
circuit definition, and print the script output followed by the semantic state.

Example:
  circuitctl run examples/bulb.lua
  circuitctl run --load bench.json --state probe.lua`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading script: %w", err)
		}

		sim := engine.NewSimulator(engine.WithLogger(logger))
		if loadPath != "" {
			if err := loadDefinition(sim, loadPath); err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
		defer cancel()

		result, err := script.NewRunner(logger).Run(ctx, sim, string(source))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, line := range result.Output {
			fmt.Fprintln(out, line)
		}
		if printState {
			return writeJSON(cmd, sim.State())
		}
		return writeJSON(cmd, result.Semantics)
	},
}

// loadDefinition parses a circuit file and installs it in sim
func loadDefinition(sim *engine.Simulator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading circuit: %w", err)
	}
	parser, err := models.NewCircuitParser()
	if err != nil {
		return err
	}
	def, err := parser.ParseCircuit(data)
	if err != nil {
		return err
	}
	return sim.Load(def)
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	runCmd.Flags().DurationVarP(&scriptTimeout, "timeout", "t", 5*time.Second, "maximum script run time")
	runCmd.Flags().StringVar(&loadPath, "load", "", "circuit definition to load before the script runs")
	runCmd.Flags().BoolVar(&printState, "state", false, "print the full circuit state instead of the semantics")
	rootCmd.AddCommand(runCmd)
}
