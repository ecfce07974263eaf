package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stepmath/mathsteps/internal/steps"
)

const validReply = `{"steps":[{"step_number":1,"explanation":"Apply the power rule.","latex":"2x"}],"final_answer":{"latex":"2x"}}`

func TestServiceGenerate(t *testing.T) {
	mock := &MockClient{Responses: []string{validReply}}
	svc := NewService(mock)

	res, err := svc.Generate(context.Background(), Request{
		ProblemText:    "derivative of x^2",
		Operation:      "derivative",
		CanonicalLaTeX: "2 x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(res.Steps))
	}
	if res.Steps[0].Explanation != "Apply the power rule." {
		t.Errorf("unexpected explanation %q", res.Steps[0].Explanation)
	}
	if res.FinalAnswerLaTeX != "2x" {
		t.Errorf("unexpected final answer %q", res.FinalAnswerLaTeX)
	}
}

func TestServiceGenerateUnconfigured(t *testing.T) {
	svc := NewService(nil)
	if svc.Configured() {
		t.Fatal("expected unconfigured service")
	}
	if _, err := svc.Generate(context.Background(), Request{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}

	var nilSvc *Service
	if nilSvc.Configured() {
		t.Error("expected nil service to report unconfigured")
	}
}

func TestServiceGenerateWrapsClientError(t *testing.T) {
	svc := NewService(&MockClient{Err: errors.New("connection refused")})
	_, err := svc.Generate(context.Background(), Request{})
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("expected ErrAPI, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestServiceGenerateMalformedReply(t *testing.T) {
	svc := NewService(&MockClient{Responses: []string{"I cannot answer that."}})
	if _, err := svc.Generate(context.Background(), Request{}); !errors.Is(err, ErrResponse) {
		t.Errorf("expected ErrResponse, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	req := Request{
		ProblemText:    "solve 2x + 5 = 15",
		Operation:      "solve",
		CanonicalLaTeX: "x = 5",
		EngineSteps: []steps.SerializedStep{
			{Title: "State the equation", LaTeX: "2 x + 5 = 15", Explanation: "We need to solve for x."},
		},
	}

	prompt := buildPrompt(req)
	for _, want := range []string{
		"You are an advanced mathematics tutor similar to Symbolab.",
		"solve 2x + 5 = 15",
		"Operation type: solve",
		"Correct final result (LaTeX, authoritative): x = 5",
		"- State the equation: 2 x + 5 = 15 | We need to solve for x.",
		"Use these steps as a reference but you may reorganize them for clarity.",
		"Return JSON ONLY",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "IMPORTANT: Your previous explanation") {
		t.Error("correction block should only appear on retries")
	}

	req.PreviousAnswer = "x = 7"
	retryPrompt := buildPrompt(req)
	if !strings.Contains(retryPrompt, "IMPORTANT: Your previous explanation produced an incorrect final result") {
		t.Error("expected correction block on retry")
	}
	if !strings.Contains(retryPrompt, "Your incorrect final result: x = 7") {
		t.Error("expected rejected answer in retry prompt")
	}
}

func TestBuildPromptWithoutEngineSteps(t *testing.T) {
	prompt := buildPrompt(Request{ProblemText: "x^2", Operation: "simplify", CanonicalLaTeX: "x^{2}"})
	if strings.Contains(prompt, "internal steps") {
		t.Error("expected no engine-step block when there are no steps")
	}
}

func TestResultSerialized(t *testing.T) {
	res := &Result{
		Steps: []Step{
			{StepNumber: 1, Explanation: "First move everything left.", LaTeX: `\[2x - 10 = 0\]`},
			{Explanation: "Then divide.", LaTeX: "$x = 5$"},
		},
		FinalAnswerLaTeX: "x = 5",
	}

	got := res.Serialized()
	if len(got) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got))
	}
	if got[0].Title != "Step 1" || got[1].Title != "Step 2" {
		t.Errorf("unexpected titles %q, %q", got[0].Title, got[1].Title)
	}
	if got[0].LaTeX != "2x - 10 = 0" {
		t.Errorf("expected delimiters stripped, got %q", got[0].LaTeX)
	}
	if got[1].LaTeX != "x = 5" {
		t.Errorf("expected delimiters stripped, got %q", got[1].LaTeX)
	}
}
