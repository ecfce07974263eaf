package steps

import "testing"

func TestCleanLaTeX(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dollar delimiters", "$x$", "x"},
		{"display delimiters", `\[ \frac{1}{2} \]`, `\frac{1}{2}`},
		{"inline delimiters", `\(x + 1\)`, "x + 1"},
		{"interior dollars", "$x$ + $y$", "x + y"},
		{"surrounding space", "  x^2  ", "x^2"},
		{"already clean", `\frac{d}{dx}`, `\frac{d}{dx}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanLaTeX(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSerializeMixedItems(t *testing.T) {
	items := []any{
		Step{Title: "Square", LaTeX: `\[x^2\]`, Explanation: " raise to the second power "},
		"$E = mc^2$",
		map[string]any{"latex": "$y$"},
		map[string]any{"title": "Known", "latex": `\(z\)`, "junk": 1},
		map[string]any{"title": "Check", "latex": "x", "explanation": 42},
		42,
		nil,
		(*Step)(nil),
	}

	got := Serialize(items)
	if len(got) != 5 {
		t.Fatalf("expected 5 serialized steps, got %d: %v", len(got), got)
	}

	if got[0].Title != "Square" || got[0].LaTeX != "x^2" || got[0].Explanation != "raise to the second power" {
		t.Errorf("unexpected step serialization: %+v", got[0])
	}
	if got[1].Title != "Step" || got[1].LaTeX != "E = mc^2" {
		t.Errorf("unexpected string serialization: %+v", got[1])
	}
	if got[2].Title != "Step" || got[2].LaTeX != "y" {
		t.Errorf("unexpected map serialization: %+v", got[2])
	}
	if got[3].Title != "Known" || got[3].LaTeX != "z" {
		t.Errorf("unexpected titled map serialization: %+v", got[3])
	}
	if got[4].Explanation != "42" {
		t.Errorf("expected coerced explanation %q, got %q", "42", got[4].Explanation)
	}
}

func TestSerializePointerStep(t *testing.T) {
	got := Serialize([]any{&Step{LaTeX: "$a$"}})
	if len(got) != 1 {
		t.Fatalf("expected 1 serialized step, got %d", len(got))
	}
	if got[0].Title != "Step" || got[0].LaTeX != "a" {
		t.Errorf("unexpected pointer serialization: %+v", got[0])
	}
}

func TestSerializeSteps(t *testing.T) {
	list := []Step{
		{Title: "State", LaTeX: "x + 1 = 2"},
		{Title: "Solution", LaTeX: "x = 1", Explanation: "Therefore, x = 1"},
	}
	got := SerializeSteps(list)
	if len(got) != 2 {
		t.Fatalf("expected 2 serialized steps, got %d", len(got))
	}
	if got[0].Title != "State" || got[1].Title != "Solution" {
		t.Errorf("expected order preserved, got %v", got)
	}
	if got[1].Explanation != "Therefore, x = 1" {
		t.Errorf("unexpected explanation %q", got[1].Explanation)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if got := Serialize(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := SerializeSteps(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
