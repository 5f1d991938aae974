package coordinator

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nothatDinger/qwen-code-trace/internal/logstore"
	"github.com/nothatDinger/qwen-code-trace/internal/record"
	"github.com/nothatDinger/qwen-code-trace/internal/render"
)

// ExportFormat selects an export serialization.
type ExportFormat string

const (
	ExportJSON  ExportFormat = "json"
	ExportCSV   ExportFormat = "csv"
	ExportGantt ExportFormat = "gantt"
)

// ErrUnsupportedExportFormat marks a caller error: an export format outside
// the supported set.
var ErrUnsupportedExportFormat = errors.New("unsupported export format")

// ExportOptions configures Export.
type ExportOptions struct {
	Format          ExportFormat
	IncludeContent  bool
	IncludeMetadata bool
	Filter          logstore.Filter
}

// Export serializes the filtered records. The gantt format renders the
// deduplicated timeline as HTML; json and csv export the merged view
// as-is.
func (c *Coordinator) Export(ctx context.Context, opts ExportOptions) ([]byte, error) {
	switch opts.Format {
	case ExportJSON:
		records, err := c.GetRequests(opts.Filter)
		if err != nil {
			return nil, err
		}
		return exportJSON(records, opts)
	case ExportCSV:
		records, err := c.GetRequests(opts.Filter)
		if err != nil {
			return nil, err
		}
		return exportCSV(records, opts)
	case ExportGantt:
		return c.Render(ctx, render.FormatHTML, opts.Filter, "")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, opts.Format)
	}
}

// exportRequest is the JSON export shape; content and metadata are gated
// by the export options.
type exportRequest struct {
	ID         string           `json:"id"`
	Type       record.Type      `json:"type"`
	Status     record.Status    `json:"status"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    *time.Time       `json:"end_time,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	Content    record.Content   `json:"content,omitempty"`
	Metadata   *record.Metadata `json:"metadata,omitempty"`
}

func exportJSON(records []*record.Request, opts ExportOptions) ([]byte, error) {
	out := make([]exportRequest, 0, len(records))
	for _, r := range records {
		e := exportRequest{
			ID:        r.ID,
			Type:      r.Type,
			Status:    r.Status,
			StartTime: r.StartTime,
		}
		if !r.EndTime.IsZero() {
			end := r.EndTime
			e.EndTime = &end
			e.DurationMs = r.Duration.Milliseconds()
		}
		if opts.IncludeContent {
			e.Content = r.Content
		}
		if opts.IncludeMetadata {
			meta := r.Metadata
			e.Metadata = &meta
		}
		out = append(out, e)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling export: %w", err)
	}
	return data, nil
}

func exportCSV(records []*record.Request, opts ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "type", "status", "start_time", "end_time", "duration_ms"}
	if opts.IncludeContent {
		header = append(header, "summary")
	}
	if opts.IncludeMetadata {
		header = append(header, "session_id", "prompt_id", "request_id")
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ID,
			string(r.Type),
			string(r.Status),
			r.StartTime.UTC().Format(time.RFC3339Nano),
			"",
			"",
		}
		if !r.EndTime.IsZero() {
			row[4] = r.EndTime.UTC().Format(time.RFC3339Nano)
			row[5] = strconv.FormatInt(r.Duration.Milliseconds(), 10)
		}
		if opts.IncludeContent {
			row = append(row, contentSummary(r))
		}
		if opts.IncludeMetadata {
			row = append(row, r.Metadata.SessionID, r.Metadata.PromptID, r.Metadata.RequestID)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

func contentSummary(r *record.Request) string {
	switch c := r.Content.(type) {
	case record.LLMContent:
		return firstLine(c.Prompt)
	case record.ToolCallContent:
		return c.ToolName
	case record.EmbeddingContent:
		return firstLine(c.Input)
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
