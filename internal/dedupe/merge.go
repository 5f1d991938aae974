package dedupe

import (
	"strings"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

// MergeOverlapping collapses chronologically adjacent records of the same
// type and model/tool name whose time ranges overlap or touch. The merged
// record keeps the earlier record's identity and start, extends the end to
// the later of the two, and concatenates textual content. This reducer is
// independent of Deduplicate; both may be applied.
func MergeOverlapping(records []*record.Request) []*record.Request {
	sorted := sortedClones(records)
	if len(sorted) == 0 {
		return sorted
	}

	out := []*record.Request{sorted[0]}
	for _, r := range sorted[1:] {
		last := out[len(out)-1]
		if mergeable(last, r) {
			mergeInto(last, r)
			continue
		}
		out = append(out, r)
	}
	return out
}

// mergeable requires matching type and name, and ranges that overlap or
// touch: the later record starts no later than the earlier one ends. A
// record still running extends to its start time only.
func mergeable(a, b *record.Request) bool {
	if a.Type != b.Type || displayKey(a) != displayKey(b) {
		return false
	}
	aEnd := a.EndTime
	if aEnd.IsZero() {
		aEnd = a.StartTime
	}
	return !b.StartTime.After(aEnd)
}

// displayKey is the per-type grouping name: model for llm and embedding
// records, tool name for tool calls.
func displayKey(r *record.Request) string {
	switch c := r.Content.(type) {
	case record.LLMContent:
		return c.Model
	case record.ToolCallContent:
		return c.ToolName
	case record.EmbeddingContent:
		return c.EmbeddingModel
	}
	return ""
}

func mergeInto(dst, src *record.Request) {
	srcEnd := src.EndTime
	if srcEnd.IsZero() {
		srcEnd = src.StartTime
	}
	if srcEnd.After(dst.EndTime) {
		dst.EndTime = srcEnd
	}
	if !dst.EndTime.IsZero() {
		dst.Duration = dst.EndTime.Sub(dst.StartTime)
	}
	if src.Status.Terminal() {
		dst.Status = src.Status
	}

	switch dc := dst.Content.(type) {
	case record.LLMContent:
		sc, ok := src.Content.(record.LLMContent)
		if !ok {
			return
		}
		merged := dc
		if sc.Prompt != "" {
			if merged.Prompt != "" {
				merged.Prompt += "\n" + sc.Prompt
			} else {
				merged.Prompt = sc.Prompt
			}
		}
		if sc.Response != "" {
			merged.Response = sc.Response
		}
		if sc.Tokens != 0 {
			merged.Tokens = sc.Tokens
		}
		dst.Content = merged
	case record.ToolCallContent:
		sc, ok := src.Content.(record.ToolCallContent)
		if !ok {
			return
		}
		dst.Content = record.MergeContent(dc, sc)
	case record.EmbeddingContent:
		sc, ok := src.Content.(record.EmbeddingContent)
		if !ok {
			return
		}
		merged := dc
		if sc.Input != "" {
			merged.Input = strings.TrimSpace(merged.Input + " " + sc.Input)
		}
		if len(sc.Embedding) > 0 {
			merged.Embedding = sc.Embedding
		}
		dst.Content = merged
	}
}
