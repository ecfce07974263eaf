// Package explain generates AI narrations for solved problems while
// keeping the math engine as the source of truth. A Service turns one
// solved problem into a prompt, sends it to a chat model and parses
// the strict JSON reply; the Gate then verifies the model's final
// answer against the canonical result and discards the narration on
// any disagreement. The deterministic steps are always the fallback.
package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stepmath/mathsteps/internal/steps"
)

// DefaultModel is the chat model used for explanations.
const DefaultModel = "llama-3.3-70b"

// Error kinds. Every failure in this package wraps exactly one of
// these, so callers match with errors.Is.
var (
	// ErrNotConfigured marks a missing API key or chat client.
	ErrNotConfigured = errors.New("explanation service not configured")
	// ErrAPI marks upstream chat-completion failures.
	ErrAPI = errors.New("explanation request failed")
	// ErrResponse marks replies that are not valid explanation JSON.
	ErrResponse = errors.New("malformed explanation response")
)

// Step is one narrated step of an AI explanation.
type Step struct {
	StepNumber  int    `json:"step_number"`
	Explanation string `json:"explanation"`
	LaTeX       string `json:"latex"`
}

// Result is a single explanation attempt. FinalAnswerLaTeX is the
// model's claim and must be verified against the canonical result
// before the steps are shown to anyone.
type Result struct {
	Steps            []Step
	FinalAnswerLaTeX string
}

// Serialized converts the narration into transport steps. Step numbers
// the model left out or mangled fall back to list position.
func (r *Result) Serialized() []steps.SerializedStep {
	out := make([]steps.SerializedStep, 0, len(r.Steps))
	for i, s := range r.Steps {
		n := s.StepNumber
		if n <= 0 {
			n = i + 1
		}
		out = append(out, steps.SerializedStep{
			Title:       fmt.Sprintf("Step %d", n),
			LaTeX:       steps.CleanLaTeX(s.LaTeX),
			Explanation: strings.TrimSpace(s.Explanation),
		})
	}
	return out
}

// Request describes the solved problem an explanation is wanted for.
type Request struct {
	ProblemText    string
	Operation      string
	CanonicalLaTeX string                 // authoritative result, never changed
	EngineSteps    []steps.SerializedStep // deterministic steps, passed as reference material

	// PreviousAnswer carries a rejected final answer back to the model
	// so the retry can correct it. Set by the Gate, not by callers.
	PreviousAnswer string
}

// Client is the minimal chat surface an explanation needs.
type Client interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Service builds prompts and parses replies for one chat client. It
// performs no correctness checks of its own.
type Service struct {
	client Client
}

// NewService wraps a chat client. A nil client yields a service that
// reports itself unconfigured, which keeps explanation strictly
// optional for callers.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Configured reports whether the service can reach a model.
func (s *Service) Configured() bool {
	return s != nil && s.client != nil
}

// Generate runs one explanation attempt. Callers must verify the
// returned FinalAnswerLaTeX before using the steps.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: no chat client", ErrNotConfigured)
	}
	raw, err := s.client.Chat(ctx, buildPrompt(req))
	if err != nil {
		if errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrAPI) || errors.Is(err, ErrResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAPI, err)
	}
	return parseResult(raw)
}

// buildPrompt makes explicit that the solution is already known and the
// model's role is purely explanatory.
func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an advanced mathematics tutor similar to Symbolab.\n\n")
	b.WriteString("You are given a math problem and its CORRECT final result computed by a ")
	b.WriteString("deterministic math engine. Your job is ONLY to explain step-by-step how one ")
	b.WriteString("can arrive at this result. You MUST NOT change the result.\n\n")
	fmt.Fprintf(&b, "Problem (as typed by the user):\n%s\n\n", req.ProblemText)
	fmt.Fprintf(&b, "Operation type: %s\n", req.Operation)
	fmt.Fprintf(&b, "Correct final result (LaTeX, authoritative): %s\n\n", req.CanonicalLaTeX)

	if len(req.EngineSteps) > 0 {
		b.WriteString("The math engine also produced these internal steps (they are correct but may be terse):\n")
		for _, s := range req.EngineSteps {
			fmt.Fprintf(&b, "- %s: %s | %s\n", s.Title, s.LaTeX, s.Explanation)
		}
		b.WriteString("\nUse these steps as a reference but you may reorganize them for clarity.\n\n")
	}

	if req.PreviousAnswer != "" {
		b.WriteString("IMPORTANT: Your previous explanation produced an incorrect final result:\n")
		fmt.Fprintf(&b, "- Your incorrect final result: %s\n", req.PreviousAnswer)
		fmt.Fprintf(&b, "- Correct final result (must use this): %s\n\n", req.CanonicalLaTeX)
		b.WriteString("You MUST now re-generate the explanation so that the final answer EXACTLY ")
		b.WriteString("matches the correct result. Do NOT introduce any alternative answers.\n\n")
	}

	b.WriteString(`Output requirements (VERY IMPORTANT):
- You must NOT recompute the result; treat the provided final result as absolute truth.
- Explain the reasoning step-by-step, showing key algebraic or calculus operations.
- Emulate Symbolab-style pedagogy: no large jumps; show intermediate transformations.
- Prefer exact math such as fractions and radicals over decimals.
- Return JSON ONLY, with NO markdown, NO code fences, and NO text outside JSON.

Your JSON must have this exact structure:
{
  "steps": [
    {
      "step_number": 1,
      "explanation": "...",
      "latex": "..."
    }
  ],
  "final_answer": {
    "latex": "..."
  }
}

STRICT RULES:
- Do NOT change the numerical or symbolic value of the final answer.
- Do NOT propose multiple different final answers.
- The final_answer latex MUST be mathematically equivalent to the given correct result.
- Use valid LaTeX without $ or \[ \] delimiters inside the strings.
- Use double quotes for all JSON keys and string values.
`)
	return b.String()
}
