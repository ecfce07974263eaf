package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stepmath/mathsteps/internal/api"
	"github.com/stepmath/mathsteps/internal/solver"
	"github.com/stepmath/mathsteps/internal/svcctx"
)

// defaultBatchLimit bounds parallel solves when config provides none.
const defaultBatchLimit = 4

// maxBatchSize caps one batch request.
const maxBatchSize = 50

// BatchRequest is a list of independent solve requests.
type BatchRequest struct {
	Requests []solver.Request `json:"requests"`
}

// BatchItem is one per-request outcome. Exactly one of Solution and
// Error is set; a failed item never fails the batch.
type BatchItem struct {
	Solution          *solver.Solution `json:"solution,omitempty"`
	Error             string           `json:"error,omitempty"`
	FallbackSuggested bool             `json:"fallback_suggested,omitempty"`
}

// BatchResponse preserves request order.
type BatchResponse struct {
	Items []BatchItem `json:"items"`
}

// SolveBatchEndpoint handles POST /api/v1/solve/batch. The pipeline is
// pure per invocation, so items run in parallel under a bounded group.
type SolveBatchEndpoint struct{}

func (e *SolveBatchEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/v1/solve/batch", e.handler
}

func (e *SolveBatchEndpoint) RequiresInit() bool { return true }

func (e *SolveBatchEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "requests must not be empty")
		return
	}
	if len(req.Requests) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "too many requests in one batch")
		return
	}

	s := svcctx.SolverFrom(r.Context())
	limit := svcctx.BatchLimitFrom(r.Context())
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	items := make([]BatchItem, len(req.Requests))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(limit)
	for i, item := range req.Requests {
		g.Go(func() error {
			item.RequestID = uuid.New().String()
			sol, err := s.Solve(ctx, item)
			if err != nil {
				var fe *solver.FallbackError
				items[i] = BatchItem{
					Error:             err.Error(),
					FallbackSuggested: errors.As(err, &fe),
				}
				return nil
			}
			items[i] = BatchItem{Solution: sol}
			return nil
		})
	}
	// Workers only record outcomes, so the group error is always nil.
	_ = g.Wait()

	writeJSON(w, http.StatusOK, BatchResponse{Items: items})
}

func (e *SolveBatchEndpoint) Command(getServerURL func() string) *cobra.Command {
	var operation string
	cmd := &cobra.Command{
		Use:   "batch <expression>...",
		Short: "Solve several problems in one request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := BatchRequest{}
			for _, expr := range args {
				req.Requests = append(req.Requests, solver.Request{
					Operation:  operation,
					Expression: expr,
				})
			}
			client := api.NewClient(getServerURL())
			var resp BatchResponse
			if err := client.Post(cmd.Context(), "/api/v1/solve/batch", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&operation, "operation", "p", "solve", "operation applied to every expression")
	return cmd
}
