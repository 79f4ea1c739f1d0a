package cmd

import (
	"github.com/spf13/cobra"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
)

// EvalReport is printed by the eval command
type EvalReport struct {
	Semantics    models.SemanticState `json:"semantics"`
	Tags         []string             `json:"tags"`
	Topology     string               `json:"topology"`
	Measurements engine.Measurements  `json:"measurements"`
	Violations   []engine.Violation   `json:"violations"`
	State        *engine.State        `json:"state,omitempty"`
}

var evalState bool

var evalCmd = &cobra.Command{
	Use:   "eval <circuit.json>",
	Short: "Evaluate a circuit definition",
	Long: `Validate a JSON circuit definition against the schema, simulate it and
print its semantic state, measurements and wiring diagnostics.

Example:
  circuitctl eval bench.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sim := engine.NewSimulator(engine.WithLogger(logger))
		if err := loadDefinition(sim, args[0]); err != nil {
			return err
		}

		sem := sim.Semantics()
		report := EvalReport{
			Semantics:    sem,
			Tags:         sem.Tags(),
			Topology:     string(sem.Topology()),
			Measurements: sim.Measurements(),
			Violations:   sim.Diagnose(),
		}
		if evalState {
			report.State = sim.State()
		}
		return writeJSON(cmd, report)
	},
}

func init() {
	evalCmd.Flags().BoolVar(&evalState, "state", false, "include the full circuit state")
	rootCmd.AddCommand(evalCmd)
}
