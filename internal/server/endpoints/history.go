package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/history"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// defaultHistoryLimit is the page size when none is requested.
const defaultHistoryLimit = 20

// HistoryResponse lists recent solve events, newest first.
type HistoryResponse struct {
	Events []history.SolveEvent `json:"events"`
}

// HistoryEndpoint handles GET /api/v1/history.
type HistoryEndpoint struct{}

func (e *HistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/v1/history", e.handler
}

func (e *HistoryEndpoint) RequiresInit() bool { return true }

func (e *HistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.HistoryFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusNotFound, "history recording is disabled")
		return
	}
	if _, ok := rec.(history.Nop); ok {
		writeError(w, http.StatusNotFound, "history recording is disabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := rec.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history: "+err.Error())
		return
	}
	if events == nil {
		events = []history.SolveEvent{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Events: events})
}

func (e *HistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent solve events",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HistoryResponse
			path := "/api/v1/history?limit=" + strconv.Itoa(limit)
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "maximum number of events")
	return cmd
}
