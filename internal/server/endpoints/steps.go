package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/notation"
	"github.com/stepmath/mathsteps/internal/steps"
)

// StepsRequest asks for the explanatory steps of one operation without
// running the full solve pipeline.
type StepsRequest struct {
	Expression string `json:"expression"`
	Operation  string `json:"operation"`
	Variable   string `json:"variable,omitempty"`
	Order      int    `json:"order,omitempty"`
	Lower      string `json:"lower,omitempty"`
	Upper      string `json:"upper,omitempty"`
	MatrixOp   string `json:"matrix_operation,omitempty"`
}

// StepsResponse holds the serialized step sequence.
type StepsResponse struct {
	Steps []steps.SerializedStep `json:"steps"`
}

// StepsEndpoint handles POST /api/v1/steps.
type StepsEndpoint struct{}

func (e *StepsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/v1/steps", e.handler
}

func (e *StepsEndpoint) RequiresInit() bool { return false }

func (e *StepsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req StepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Expression) == "" {
		writeError(w, http.StatusBadRequest, "expression is required")
		return
	}

	variable := req.Variable
	if variable == "" {
		variable = "x"
	}
	order := req.Order
	if order < 1 {
		order = 1
	}

	// Matrix literals skip canonicalization; everything else is
	// normalized first so steps narrate the parsed form.
	expr := req.Expression
	if req.Operation != "matrix" {
		canon, err := notation.Canonicalize(req.Expression)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:             err.Error(),
				FallbackSuggested: true,
			})
			return
		}
		expr = canon
	}

	var list []steps.Step
	switch req.Operation {
	case "solve":
		equation := expr
		if !strings.Contains(equation, "=") {
			equation += " = 0"
		}
		list = steps.BuildEquation(equation, variable)
	case "derivative":
		list = steps.BuildDerivative(expr, variable, order)
	case "integral":
		list = steps.BuildIntegral(expr, variable, req.Lower, req.Upper)
	case "matrix":
		op := req.MatrixOp
		if op == "" {
			op = "determinant"
		}
		list = steps.BuildMatrix(expr, op)
	default:
		writeError(w, http.StatusBadRequest, "operation must be one of solve, derivative, integral, matrix")
		return
	}

	writeJSON(w, http.StatusOK, StepsResponse{Steps: steps.SerializeSteps(list)})
}

func (e *StepsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var req StepsRequest
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Generate explanatory steps for an operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StepsResponse
			if err := client.Post(cmd.Context(), "/api/v1/steps", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&req.Expression, "expression", "e", "", "expression, equation, or matrix literal")
	cmd.Flags().StringVarP(&req.Operation, "operation", "p", "solve", "operation: solve, derivative, integral, matrix")
	cmd.Flags().StringVarP(&req.Variable, "variable", "v", "", "target variable (default: x)")
	cmd.Flags().IntVar(&req.Order, "order", 0, "derivative order")
	cmd.Flags().StringVar(&req.Lower, "lower", "", "lower integration bound")
	cmd.Flags().StringVar(&req.Upper, "upper", "", "upper integration bound")
	cmd.Flags().StringVar(&req.MatrixOp, "matrix-op", "", "matrix operation")
	_ = cmd.MarkFlagRequired("expression")
	return cmd
}
