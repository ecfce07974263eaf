package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/config"
	"github.com/stepmath/mathsteps/internal/explain"
	"github.com/stepmath/mathsteps/internal/render"
	"github.com/stepmath/mathsteps/internal/solver"
)

var solveRender string

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a math problem locally (no server required)",
	Long: `Solve a math problem in-process, without a running server.

The full pipeline runs locally: classification, canonicalization, the
symbolic engine, and step synthesis. LLM explanations are used when
enabled in the config; history recording is skipped.

Examples:
  mathsteps solve -e "2*x + 5 = 15"
  mathsteps solve -p derivative -e "x**2 + 4*x"
  mathsteps solve -p text -e "Find the derivative of x^2 + 4x"
  mathsteps solve -e "x**2 - 4 = 0" --render markdown`,
}

func init() {
	var req solver.Request

	solveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if req.Operation == solver.OpText && req.OriginalInput == "" {
			req.OriginalInput = req.Expression
		}
		req.SkipHistory = true

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		s := solver.New(solver.Config{
			Gate: explainGate(mgr.Get()),
		})

		sol, err := s.Solve(cmd.Context(), req)
		if err != nil {
			return err
		}

		switch solveRender {
		case "":
			return api.Output(sol)
		case "markdown":
			fmt.Print(render.Markdown(sol))
			return nil
		case "html":
			page, err := render.HTML(sol)
			if err != nil {
				return err
			}
			fmt.Print(page)
			return nil
		default:
			return fmt.Errorf("unknown render format %q (want markdown or html)", solveRender)
		}
	}

	solveCmd.Flags().StringVarP(&req.Operation, "operation", "p", "solve", "operation: solve, derivative, integral, limit, simplify, factor, expand, matrix, text")
	solveCmd.Flags().StringVarP(&req.Expression, "expression", "e", "", "expression, equation, or problem text")
	solveCmd.Flags().StringVarP(&req.Variable, "variable", "v", "", "target variable (default: x)")
	solveCmd.Flags().IntVar(&req.Order, "order", 0, "derivative order")
	solveCmd.Flags().BoolVar(&req.Definite, "definite", false, "definite integral")
	solveCmd.Flags().StringVar(&req.Lower, "lower", "", "lower integration bound")
	solveCmd.Flags().StringVar(&req.Upper, "upper", "", "upper integration bound")
	solveCmd.Flags().StringVar(&req.Point, "point", "", "limit approach point")
	solveCmd.Flags().StringVar(&req.Side, "side", "", "limit side: +, -, both")
	solveCmd.Flags().StringVar(&req.MatrixOp, "matrix-op", "", "matrix operation: determinant, inverse, transpose, rref, multiply")
	solveCmd.Flags().StringVar(&solveRender, "render", "", "render the solution as markdown or html instead of structured output")
	_ = solveCmd.MarkFlagRequired("expression")

	rootCmd.AddCommand(solveCmd)
}

// explainGate builds the explanation gate from config, or nil when
// explanations are disabled or no API key resolves.
func explainGate(cfg *config.Config) *explain.Gate {
	if !cfg.Explain.Enabled {
		return nil
	}
	apiKey := cfg.ExplainAPIKey()
	if apiKey == "" {
		return nil
	}
	client, err := explain.NewCerebrasClient(explain.Config{
		APIKey:  apiKey,
		Model:   cfg.Explain.Model,
		BaseURL: cfg.ExplainBaseURL(),
	})
	if err != nil {
		return nil
	}
	return explain.NewGate(explain.NewService(client), cfg.ExplainTimeout())
}
