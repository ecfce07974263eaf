package main

import (
	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mathsteps",
	Short: "Step-by-step math problem solver",
	Long: `MathSteps solves math problems with full step-by-step working.

Problems come in as free text, LaTeX, or plain expressions. The pipeline
classifies the problem, canonicalizes the notation, runs the symbolic
engine, and emits numbered solution steps with LaTeX rendering.

Supported operations:
  - Linear and quadratic equations, systems of equations
  - Derivatives (any order) and definite/indefinite integrals
  - Limits, simplification, factoring, expansion
  - Matrix operations (determinant, inverse, transpose, rref, multiply)`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mathsteps/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mathsteps home directory (default: ~/.mathsteps)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
