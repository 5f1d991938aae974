// Package timeline normalizes deduplicated records into relative-time,
// colored-bar data consumed identically by every renderer.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

// Bar is one renderable record, expressed as offsets from the timeline
// start.
type Bar struct {
	ID       string
	Name     string
	Color    string
	Type     record.Type
	Status   record.Status
	Start    time.Duration
	End      time.Duration
	Duration time.Duration
}

// Timeline is the normalized view of a record set.
type Timeline struct {
	Start         time.Time
	End           time.Time
	TotalDuration time.Duration
	Bars          []Bar
}

// Build computes the timeline bounds and one bar per record, in start-time
// order. Records still running occupy a zero-length range at their start.
// Empty input yields a zero-width timeline with no bars.
func Build(records []*record.Request) Timeline {
	if len(records) == 0 {
		return Timeline{}
	}

	sorted := make([]*record.Request, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	start := sorted[0].StartTime
	end := start
	for _, r := range sorted {
		e := r.EndTime
		if e.IsZero() {
			e = r.StartTime
		}
		if e.After(end) {
			end = e
		}
	}

	tl := Timeline{
		Start:         start,
		End:           end,
		TotalDuration: end.Sub(start),
		Bars:          make([]Bar, 0, len(sorted)),
	}
	for _, r := range sorted {
		e := r.EndTime
		if e.IsZero() {
			e = r.StartTime
		}
		bar := Bar{
			ID:       r.ID,
			Name:     barName(r),
			Color:    barColor(r.Type, r.Status),
			Type:     r.Type,
			Status:   r.Status,
			Start:    r.StartTime.Sub(start),
			End:      e.Sub(start),
			Duration: e.Sub(r.StartTime),
		}
		tl.Bars = append(tl.Bars, bar)
	}
	return tl
}

const nameLimit = 48

// barName builds a short human-readable summary for a record.
func barName(r *record.Request) string {
	switch c := r.Content.(type) {
	case record.LLMContent:
		if c.Prompt != "" {
			return truncate(c.Prompt, nameLimit)
		}
		if c.Model != "" {
			return fmt.Sprintf("llm (%s)", c.Model)
		}
	case record.ToolCallContent:
		if c.ToolName != "" {
			return truncate(c.ToolName, nameLimit)
		}
	case record.EmbeddingContent:
		if c.Input != "" {
			return truncate(c.Input, nameLimit)
		}
		if c.EmbeddingModel != "" {
			return fmt.Sprintf("embedding (%s)", c.EmbeddingModel)
		}
	}
	return string(r.Type)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

type colorKey struct {
	t record.Type
	s record.Status
}

// defaultColor is used for any type/status combination without an entry.
const defaultColor = "#9e9e9e"

var colors = map[colorKey]string{
	{record.TypeLLM, record.StatusRunning}:         "#64b5f6",
	{record.TypeLLM, record.StatusCompleted}:       "#1f6feb",
	{record.TypeLLM, record.StatusFailed}:          "#ef4444",
	{record.TypeToolCall, record.StatusRunning}:    "#ffb74d",
	{record.TypeToolCall, record.StatusCompleted}:  "#f59e0b",
	{record.TypeToolCall, record.StatusFailed}:     "#ef4444",
	{record.TypeEmbedding, record.StatusRunning}:   "#81c784",
	{record.TypeEmbedding, record.StatusCompleted}: "#10b981",
	{record.TypeEmbedding, record.StatusFailed}:    "#ef4444",
}

func barColor(t record.Type, s record.Status) string {
	if c, ok := colors[colorKey{t, s}]; ok {
		return c
	}
	return defaultColor
}
