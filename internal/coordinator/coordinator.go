// Package coordinator composes the ledger, the durable log, the
// deduplicator, and the renderers behind one explicitly constructed facade.
// It replaces any notion of a global trace manager: callers create one,
// pass it down, and Close it on teardown.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/nothatDinger/qwen-code-trace/internal/config"
	"github.com/nothatDinger/qwen-code-trace/internal/dedupe"
	"github.com/nothatDinger/qwen-code-trace/internal/ledger"
	"github.com/nothatDinger/qwen-code-trace/internal/logstore"
	"github.com/nothatDinger/qwen-code-trace/internal/record"
	"github.com/nothatDinger/qwen-code-trace/internal/render"
	"github.com/nothatDinger/qwen-code-trace/internal/timeline"
)

// Options configures a Coordinator. Zero values fall back to loaded
// settings, the default slog logger, and no raster backend.
type Options struct {
	Settings *config.Settings
	Logger   *slog.Logger
	Raster   render.RasterEncoder
}

// Coordinator is the session-scoped trace facade.
type Coordinator struct {
	logger    *slog.Logger
	settings  *config.Settings
	collector *ledger.Collector
	store     *logstore.Store
	renderer  *render.Renderer
}

// New builds a Coordinator from options.
func New(opts Options) *Coordinator {
	settings := opts.Settings
	if settings == nil {
		settings = config.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Coordinator{
		logger:    logger,
		settings:  settings,
		collector: ledger.New(settings.IsEnabled()),
		store:     logstore.New(settings.Dir, logger),
		renderer:  render.NewRenderer(opts.Raster),
	}
	c.collector.Subscribe(&persistSink{c: c})
	return c
}

// persistSink bridges ledger completions to the durable log. Persistence is
// best-effort: a failed write is logged and swallowed so tracing can never
// abort the operation it observes.
type persistSink struct {
	c *Coordinator
}

func (s *persistSink) RequestStarted(*record.Request) {}
func (s *persistSink) RequestUpdated(*record.Request) {}

func (s *persistSink) RequestCompleted(r *record.Request) {
	if err := s.c.store.Save(r); err != nil {
		s.c.logger.Warn("trace persistence failed", "id", r.ID, "error", err)
	}
}

// Enabled reports whether lifecycle calls are being tracked.
func (c *Coordinator) Enabled() bool { return c.collector.Enabled() }

// Start begins tracking a request and returns its id, or the empty sentinel
// when tracing is disabled.
func (c *Coordinator) Start(t record.Type, content record.Content, meta record.Metadata) string {
	return c.collector.Start(t, content, meta)
}

// Update merges partial content into a running request.
func (c *Coordinator) Update(id string, content record.Content) {
	c.collector.Update(id, content)
}

// Complete finishes a request; the completion triggers the durable write.
func (c *Coordinator) Complete(id string, content record.Content, status record.Status) {
	c.collector.Complete(id, content, status)
}

// GetRequests merges the live ledger view with the durable log, dedupes by
// id (live entries win), applies the filter, sorts by start time, and
// paginates.
func (c *Coordinator) GetRequests(f logstore.Filter) ([]*record.Request, error) {
	storeFilter := f
	storeFilter.Offset = 0
	storeFilter.Limit = 0
	stored, err := c.store.Query(storeFilter)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var merged []*record.Request
	for _, r := range c.collector.All() {
		if f.SessionID != "" && r.Metadata.SessionID != f.SessionID {
			continue
		}
		if !f.Matches(r) {
			continue
		}
		seen[r.ID] = true
		merged = append(merged, r)
	}
	for _, r := range stored {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartTime.Before(merged[j].StartTime)
	})

	if f.Offset > 0 {
		if f.Offset >= len(merged) {
			return nil, nil
		}
		merged = merged[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(merged) {
		merged = merged[:f.Limit]
	}
	return merged, nil
}

// GetStats aggregates statistics over the merged live and durable view.
func (c *Coordinator) GetStats(f logstore.Filter) (logstore.Stats, error) {
	f.Offset = 0
	f.Limit = 0
	records, err := c.GetRequests(f)
	if err != nil {
		return logstore.Stats{}, err
	}
	return logstore.ComputeStats(records), nil
}

// TimelineRequests returns the filtered records after the content-overlap
// passes: superset/duplicate removal, then merging of touching ranges.
func (c *Coordinator) TimelineRequests(f logstore.Filter) ([]*record.Request, error) {
	records, err := c.GetRequests(f)
	if err != nil {
		return nil, err
	}
	return dedupe.MergeOverlapping(dedupe.Deduplicate(records)), nil
}

// Timeline builds the normalized timeline for the filtered, deduplicated
// record set.
func (c *Coordinator) Timeline(f logstore.Filter) (timeline.Timeline, error) {
	records, err := c.TimelineRequests(f)
	if err != nil {
		return timeline.Timeline{}, err
	}
	return timeline.Build(records), nil
}

// Render serializes the timeline for the filtered records in the given
// format. When outputPath is non-empty the result is also written there;
// rendering itself is pure.
func (c *Coordinator) Render(ctx context.Context, format render.Format, f logstore.Filter, outputPath string) ([]byte, error) {
	tl, err := c.Timeline(f)
	if err != nil {
		return nil, err
	}
	out, err := c.renderer.Render(ctx, format, tl)
	if err != nil {
		return nil, err
	}
	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("writing render output: %w", err)
		}
	}
	return out, nil
}

// SessionIDs lists sessions present in the durable log.
func (c *Coordinator) SessionIDs() ([]string, error) {
	return c.store.SessionIDs()
}

// DeleteSessionData removes a session's log and raw payload slot.
func (c *Coordinator) DeleteSessionData(sessionID string) error {
	return c.store.DeleteSession(sessionID)
}

// DeleteOldData removes durable records older than the given number of
// days and returns how many were removed.
func (c *Coordinator) DeleteOldData(days int) (int, error) {
	return c.store.DeleteOlderThan(days)
}

// ClearAll removes every session's durable data.
func (c *Coordinator) ClearAll() error {
	return c.store.ClearAll()
}

// SaveRawPayload overwrites the session's raw payload slot.
func (c *Coordinator) SaveRawPayload(sessionID string, p logstore.RawPayload) error {
	return c.store.SaveRaw(sessionID, p)
}

// RawPayload returns the stored raw payload for a session, or nil.
func (c *Coordinator) RawPayload(sessionID string) (*logstore.RawPayload, error) {
	return c.store.LoadRaw(sessionID)
}

// Close flushes completed records that have not reached the durable log.
// Save is idempotent, so re-flushing already-persisted records is harmless.
func (c *Coordinator) Close() error {
	if err := c.store.SaveMany(c.collector.Completed()); err != nil {
		return fmt.Errorf("flushing trace records: %w", err)
	}
	return nil
}
