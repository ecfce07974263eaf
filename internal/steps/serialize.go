package steps

import (
	"fmt"
	"log/slog"
	"strings"
)

// SerializedStep is the transport form of a step: the three fields
// every client renders. Formula and operation hints stay internal.
type SerializedStep struct {
	Title       string `json:"title"`
	LaTeX       string `json:"latex"`
	Explanation string `json:"explanation"`
}

// Serialize normalizes heterogeneous step items for transport. Steps,
// string-keyed maps, and bare strings are accepted; a bare string
// becomes the latex field under the default title. Items that cannot be
// coerced are logged and skipped, so one bad entry never drops the
// whole list.
func Serialize(items []any) []SerializedStep {
	out := make([]SerializedStep, 0, len(items))
	for i, item := range items {
		s, ok := serializeItem(item)
		if !ok {
			slog.Warn("skipping unserializable step", "index", i, "type", fmt.Sprintf("%T", item))
			continue
		}
		out = append(out, s)
	}
	return out
}

// SerializeSteps is the common case: a homogeneous list straight from a
// builder.
func SerializeSteps(list []Step) []SerializedStep {
	items := make([]any, len(list))
	for i, s := range list {
		items[i] = s
	}
	return Serialize(items)
}

func serializeItem(item any) (SerializedStep, bool) {
	switch v := item.(type) {
	case Step:
		return SerializedStep{
			Title:       withDefault(strings.TrimSpace(v.Title), "Step"),
			LaTeX:       CleanLaTeX(v.LaTeX),
			Explanation: strings.TrimSpace(v.Explanation),
		}, true
	case *Step:
		if v == nil {
			return SerializedStep{}, false
		}
		return serializeItem(*v)
	case string:
		return SerializedStep{Title: "Step", LaTeX: CleanLaTeX(v)}, true
	case map[string]any:
		return SerializedStep{
			Title:       withDefault(coerceText(v["title"]), "Step"),
			LaTeX:       CleanLaTeX(coerceText(v["latex"])),
			Explanation: coerceText(v["explanation"]),
		}, true
	default:
		return SerializedStep{}, false
	}
}

func coerceText(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func withDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
