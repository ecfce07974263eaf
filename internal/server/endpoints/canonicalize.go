package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/notation"
)

// CanonicalizeRequest carries a raw LaTeX or loose-notation fragment.
type CanonicalizeRequest struct {
	Expression string `json:"expression"`
}

// CanonicalizeResponse returns the engine-ready form.
type CanonicalizeResponse struct {
	Canonical string `json:"canonical"`
}

// CanonicalizeEndpoint handles POST /api/v1/canonicalize.
type CanonicalizeEndpoint struct{}

func (e *CanonicalizeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/v1/canonicalize", e.handler
}

func (e *CanonicalizeEndpoint) RequiresInit() bool { return false }

func (e *CanonicalizeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CanonicalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Expression) == "" {
		writeError(w, http.StatusBadRequest, "expression is required")
		return
	}

	canon, err := notation.Canonicalize(req.Expression)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:             err.Error(),
			FallbackSuggested: true,
		})
		return
	}
	writeJSON(w, http.StatusOK, CanonicalizeResponse{Canonical: canon})
}

func (e *CanonicalizeEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "canonicalize <expression>",
		Short: "Normalize LaTeX or loose notation into engine syntax",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp CanonicalizeResponse
			req := CanonicalizeRequest{Expression: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/v1/canonicalize", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
