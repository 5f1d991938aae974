package logstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), nil)
}

func makeRecord(id, session string, t record.Type, start time.Time) *record.Request {
	end := start.Add(100 * time.Millisecond)
	r := &record.Request{
		ID:        id,
		Type:      t,
		Status:    record.StatusCompleted,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Metadata:  record.Metadata{SessionID: session},
	}
	switch t {
	case record.TypeLLM:
		r.Content = record.LLMContent{Prompt: "prompt-" + id, Model: "qwen-coder"}
	case record.TypeToolCall:
		r.Content = record.ToolCallContent{ToolName: "tool-" + id}
	case record.TypeEmbedding:
		r.Content = record.EmbeddingContent{Input: "input-" + id}
	}
	return r
}

func TestSaveIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	r := makeRecord("r1", "s1", record.TypeLLM, base)

	require.NoError(t, s.Save(r))
	require.NoError(t, s.Save(r))

	got, err := s.Query(Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, got, 1, "saving the same id twice stores one copy")

	// The file itself holds a single line.
	data, err := os.ReadFile(s.sessionPath("s1"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 1)
}

func TestSaveManyBatchesAndFilters(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	r1 := makeRecord("r1", "s1", record.TypeLLM, base)
	r2 := makeRecord("r2", "s1", record.TypeToolCall, base.Add(time.Second))
	r3 := makeRecord("r3", "s2", record.TypeLLM, base)
	require.NoError(t, s.Save(r1))

	require.NoError(t, s.SaveMany([]*record.Request{r1, r2, r3, nil}))

	s1, err := s.Query(Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, s1, 2)

	s2, err := s.Query(Filter{SessionID: "s2"})
	require.NoError(t, err)
	assert.Len(t, s2, 1)
}

func TestQueryFilters(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveMany([]*record.Request{
		makeRecord("a", "s1", record.TypeLLM, base),
		makeRecord("b", "s1", record.TypeToolCall, base.Add(time.Second)),
		makeRecord("c", "s1", record.TypeLLM, base.Add(2*time.Second)),
		makeRecord("d", "s2", record.TypeEmbedding, base.Add(3*time.Second)),
	}))

	llm, err := s.Query(Filter{Type: record.TypeLLM})
	require.NoError(t, err)
	require.Len(t, llm, 2)
	for _, r := range llm {
		assert.Equal(t, record.TypeLLM, r.Type)
	}

	ranged, err := s.Query(Filter{
		Since: base.Add(time.Second),
		Until: base.Add(2 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	for _, r := range ranged {
		assert.False(t, r.StartTime.Before(base.Add(time.Second)))
		assert.False(t, r.StartTime.After(base.Add(2*time.Second)))
	}

	failed, err := s.Query(Filter{Status: record.StatusFailed})
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestQuerySortsAndPaginates(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// Save out of chronological order.
	require.NoError(t, s.SaveMany([]*record.Request{
		makeRecord("late", "s1", record.TypeLLM, base.Add(2*time.Second)),
		makeRecord("early", "s1", record.TypeLLM, base),
		makeRecord("mid", "s1", record.TypeLLM, base.Add(time.Second)),
	}))

	all, err := s.Query(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{all[0].ID, all[1].ID, all[2].ID})

	page, err := s.Query(Filter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].ID)

	past, err := s.Query(Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestQueryMissingStoreIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	got, err := s.Query(Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Query(Filter{SessionID: "nope"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(makeRecord("good", "s1", record.TypeLLM, base)))

	f, err := os.OpenFile(s.sessionPath("s1"), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("this is not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, s.Save(makeRecord("good2", "s1", record.TypeLLM, base.Add(time.Second))))

	got, err := s.Query(Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Len(t, got, 2, "malformed line skipped, valid lines kept")
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ok := makeRecord("ok", "s1", record.TypeLLM, base)
	bad := makeRecord("bad", "s1", record.TypeToolCall, base.Add(time.Second))
	bad.Status = record.StatusFailed
	require.NoError(t, s.SaveMany([]*record.Request{ok, bad}))

	st, err := s.Stats(Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.ByType[record.TypeLLM])
	assert.Equal(t, 1, st.ByStatus[record.StatusFailed])
	assert.Equal(t, 200*time.Millisecond, st.TotalDuration)
	assert.Equal(t, 100*time.Millisecond, st.AvgDuration)
	assert.InDelta(t, 0.5, st.ErrorRate, 1e-9)
}

func TestDeleteOlderThan(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	old := makeRecord("old", "s1", record.TypeLLM, now.Add(-31*24*time.Hour))
	fresh := makeRecord("fresh", "s1", record.TypeLLM, now.Add(-24*time.Hour))
	require.NoError(t, s.SaveMany([]*record.Request{old, fresh}))

	removed, err := s.DeleteOlderThan(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := s.Query(Filter{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestDeleteOlderThanRemovesEmptySessions(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, s.Save(makeRecord("old", "s1", record.TypeLLM, now.Add(-40*24*time.Hour))))

	removed, err := s.DeleteOlderThan(30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ids, err := s.SessionIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(makeRecord("a", "s1", record.TypeLLM, base)))
	require.NoError(t, s.Save(makeRecord("b", "s2", record.TypeLLM, base)))
	require.NoError(t, s.SaveRaw("s1", RawPayload{Timestamp: base, Request: "req"}))

	require.NoError(t, s.DeleteSession("s1"))

	got, err := s.Query(Filter{SessionID: "s1"})
	require.NoError(t, err)
	assert.Empty(t, got)

	raw, err := s.LoadRaw("s1")
	require.NoError(t, err)
	assert.Nil(t, raw)

	other, err := s.Query(Filter{SessionID: "s2"})
	require.NoError(t, err)
	assert.Len(t, other, 1)

	// Unknown session: no error.
	require.NoError(t, s.DeleteSession("never-existed"))
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(makeRecord("a", "s1", record.TypeLLM, base)))
	require.NoError(t, s.Save(makeRecord("b", "s2", record.TypeLLM, base)))
	require.NoError(t, s.SaveRaw("s2", RawPayload{Timestamp: base, Response: "resp"}))

	require.NoError(t, s.ClearAll())

	ids, err := s.SessionIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	got, err := s.Query(Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSessionIDs(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(makeRecord("a", "alpha", record.TypeLLM, base)))
	require.NoError(t, s.Save(makeRecord("b", "beta", record.TypeLLM, base)))

	ids, err := s.SessionIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, ids)
}

func TestSanitizeSession(t *testing.T) {
	assert.Equal(t, "abc-123_x", sanitizeSession("abc-123_x"))
	assert.Equal(t, "abc", sanitizeSession("a/b/../c"))
	assert.Equal(t, "unnamed", sanitizeSession("///"))
}
