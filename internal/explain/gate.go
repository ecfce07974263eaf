package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/stepmath/mathsteps/internal/cas"
	"github.com/stepmath/mathsteps/internal/notation"
	"github.com/stepmath/mathsteps/internal/steps"
)

// Status reports how an explanation attempt ended. Off means the gate
// never ran; rejected means the model kept disagreeing with the
// canonical result.
type Status string

const (
	StatusOff      Status = "off"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
)

// DefaultTimeout bounds one full gate run, both attempts included.
const DefaultTimeout = 10 * time.Second

// gateAttempts is the generation budget: the first try plus one retry
// carrying the rejected answer back as correction context.
const gateAttempts = 2

var errMismatch = errors.New("final answer does not match canonical result")

// Gate verifies generated explanations against the canonical result
// before anyone sees them. A Gate failure is never an error for the
// caller; the deterministic steps remain the response.
type Gate struct {
	svc     *Service
	timeout time.Duration
}

// NewGate wraps a service with verification. timeout <= 0 selects
// DefaultTimeout.
func NewGate(svc *Service, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{svc: svc, timeout: timeout}
}

// Explain generates a narration for a solved problem and returns it
// only when the model's final answer matches the canonical result.
// Mismatches retry once with correction context; API failures,
// malformed replies and timeouts do not retry.
func (g *Gate) Explain(ctx context.Context, req Request) ([]steps.SerializedStep, Status) {
	if g == nil || !g.svc.Configured() {
		return nil, StatusOff
	}
	if strings.TrimSpace(req.CanonicalLaTeX) == "" {
		return nil, StatusOff
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var verified *Result
	err := retry.Do(
		func() error {
			res, err := g.svc.Generate(ctx, req)
			if err != nil {
				return err
			}
			if !Equivalent(req.CanonicalLaTeX, res.FinalAnswerLaTeX) {
				req.PreviousAnswer = res.FinalAnswerLaTeX
				return fmt.Errorf("%w: expected %s, got %s", errMismatch, req.CanonicalLaTeX, res.FinalAnswerLaTeX)
			}
			verified = res
			return nil
		},
		retry.Attempts(gateAttempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errMismatch) }),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("explanation mismatch, retrying with correction",
				"operation", req.Operation, "error", err)
		}),
	)
	if err != nil {
		if errors.Is(err, errMismatch) {
			slog.Error("explanation still mismatched, keeping engine steps",
				"operation", req.Operation)
			return nil, StatusRejected
		}
		slog.Error("explanation generation failed",
			"operation", req.Operation, "error", err)
		return nil, StatusError
	}
	return verified.Serialized(), StatusAccepted
}

// Equivalent reports whether two rendered expressions denote the same
// mathematical value. Equations compare side by side; anything that
// does not survive canonicalization and parsing compares unequal.
func Equivalent(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, "=") || strings.Contains(b, "=") {
		la, ra, okA := strings.Cut(a, "=")
		lb, rb, okB := strings.Cut(b, "=")
		if !okA || !okB {
			return false
		}
		return Equivalent(la, lb) && Equivalent(ra, rb)
	}

	ea, err := parseRendered(a)
	if err != nil {
		slog.Debug("cannot compare rendered expression", "input", a, "error", err)
		return false
	}
	eb, err := parseRendered(b)
	if err != nil {
		slog.Debug("cannot compare rendered expression", "input", b, "error", err)
		return false
	}

	diff := cas.Expand(cas.Subtract(ea, eb))
	n, ok := diff.(*cas.Num)
	return ok && n.IsZero()
}

func parseRendered(s string) (cas.Expr, error) {
	canon, err := notation.Canonicalize(s)
	if err != nil {
		return nil, err
	}
	return cas.Parse(canon)
}
