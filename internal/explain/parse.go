package explain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resultSchemaJSON is the contract a model reply must satisfy. It is
// deliberately strict: a reply that drops the final answer or types a
// step wrong is discarded rather than half-read.
const resultSchemaJSON = `{
  "type": "object",
  "required": ["steps", "final_answer"],
  "properties": {
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["explanation", "latex"],
        "properties": {
          "step_number": {"type": "integer"},
          "explanation": {"type": "string"},
          "latex": {"type": "string"}
        }
      }
    },
    "final_answer": {
      "type": "object",
      "required": ["latex"],
      "properties": {
        "latex": {"type": "string"}
      }
    }
  }
}`

var resultSchema = jsonschema.MustCompileString("explanation.json", resultSchemaJSON)

// parseResult decodes one model reply into a Result. Code fences and
// chatter around the JSON document are tolerated; everything inside it
// is validated against the schema.
func parseResult(raw string) (*Result, error) {
	candidate, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrResponse, err)
	}
	if err := resultSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponse, err)
	}

	var payload struct {
		Steps       []Step `json:"steps"`
		FinalAnswer struct {
			LaTeX string `json:"latex"`
		} `json:"final_answer"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponse, err)
	}

	out := &Result{FinalAnswerLaTeX: strings.TrimSpace(payload.FinalAnswer.LaTeX)}
	for i, s := range payload.Steps {
		if s.StepNumber <= 0 {
			s.StepNumber = i + 1
		}
		s.Explanation = strings.TrimSpace(s.Explanation)
		s.LaTeX = strings.TrimSpace(s.LaTeX)
		out.Steps = append(out.Steps, s)
	}
	return out, nil
}

// extractJSON finds the JSON document in a completion, with lightweight
// recovery for markdown code fences and text around the outermost
// object.
func extractJSON(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrResponse)
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractObjectCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var probe any
		if json.Unmarshal([]byte(candidate), &probe) == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no JSON document found", ErrResponse)
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractObjectCandidate cuts from the first "{" to the last "}". The
// explanation schema roots an object, so arrays need no handling here.
func extractObjectCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}
