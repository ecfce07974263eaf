package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/render"
	"github.com/stepmath/mathsteps/internal/solver"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// SolveEndpoint handles POST /api/v1/solve.
type SolveEndpoint struct{}

func (e *SolveEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/v1/solve", e.handler
}

func (e *SolveEndpoint) RequiresInit() bool { return true }

func (e *SolveEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req solver.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.RequestID = uuid.New().String()

	sol, err := svcctx.SolverFrom(r.Context()).Solve(r.Context(), req)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		page, err := render.HTML(sol)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page))
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// writeSolveError maps pipeline failures to the fallback contract:
// anything the deterministic pipeline could not interpret or compute
// comes back 422 with the free-text suggestion set.
func writeSolveError(w http.ResponseWriter, err error) {
	var fe *solver.FallbackError
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:             fe.Error(),
			FallbackSuggested: true,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (e *SolveEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req solver.Request
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a math problem",
		Long: `Solve a math problem on the running server.

Examples:
  mathsteps api solve -p solve -e "2*x + 5 = 15"
  mathsteps api solve -p derivative -e "x**2 + 4*x" -v x
  mathsteps api solve -p integral -e "x**2" --definite --lower 0 --upper 1
  mathsteps api solve -p text -e "Find the derivative of x^2 + 4x"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Operation == solver.OpText && req.OriginalInput == "" {
				req.OriginalInput = req.Expression
			}
			client := api.NewClient(getServerURL())
			var sol solver.Solution
			if err := client.Post(cmd.Context(), "/api/v1/solve", req, &sol); err != nil {
				return err
			}
			return api.Output(sol)
		},
	}
	cmd.Flags().StringVarP(&req.Operation, "operation", "p", "solve", "operation: solve, derivative, integral, limit, simplify, factor, expand, matrix, text")
	cmd.Flags().StringVarP(&req.Expression, "expression", "e", "", "expression, equation, or problem text")
	cmd.Flags().StringVarP(&req.Variable, "variable", "v", "", "target variable (default: x)")
	cmd.Flags().IntVar(&req.Order, "order", 0, "derivative order")
	cmd.Flags().BoolVar(&req.Definite, "definite", false, "definite integral")
	cmd.Flags().StringVar(&req.Lower, "lower", "", "lower integration bound")
	cmd.Flags().StringVar(&req.Upper, "upper", "", "upper integration bound")
	cmd.Flags().StringVar(&req.Point, "point", "", "limit approach point")
	cmd.Flags().StringVar(&req.Side, "side", "", "limit side: +, -, both")
	cmd.Flags().StringVar(&req.MatrixOp, "matrix-op", "", "matrix operation: determinant, inverse, transpose, rref, multiply")
	_ = cmd.MarkFlagRequired("expression")
	return cmd
}
