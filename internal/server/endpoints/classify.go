package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/classify"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// ClassifyRequest carries free problem text.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyEndpoint handles POST /api/v1/classify. It exposes the
// classifier alone, without solving.
type ClassifyEndpoint struct {
	// classifier serves requests when no solver pipeline is attached
	// (CLI-built servers always attach one; tests may not).
	classifier *classify.Classifier
}

func (e *ClassifyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/v1/classify", e.handler
}

func (e *ClassifyEndpoint) RequiresInit() bool { return false }

func (e *ClassifyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if e.classifier == nil {
		e.classifier = classify.New()
	}
	problem, err := e.classifier.Classify(req.Text)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
		logger.Debug("classified problem",
			"type", problem.Type,
			"confidence", problem.Confidence)
	}
	writeJSON(w, http.StatusOK, problem)
}

func (e *ClassifyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a math problem from free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var problem classify.ParsedProblem
			req := ClassifyRequest{Text: strings.Join(args, " ")}
			if err := client.Post(cmd.Context(), "/api/v1/classify", req, &problem); err != nil {
				return err
			}
			return api.Output(problem)
		},
	}
}
