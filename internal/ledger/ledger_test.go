package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

type recordingObserver struct {
	started   []*record.Request
	updated   []*record.Request
	completed []*record.Request
}

func (o *recordingObserver) RequestStarted(r *record.Request)   { o.started = append(o.started, r) }
func (o *recordingObserver) RequestUpdated(r *record.Request)   { o.updated = append(o.updated, r) }
func (o *recordingObserver) RequestCompleted(r *record.Request) { o.completed = append(o.completed, r) }

func meta(session string) record.Metadata {
	return record.Metadata{SessionID: session}
}

func TestLifecycle(t *testing.T) {
	c := New(true)
	obs := &recordingObserver{}
	c.Subscribe(obs)

	id := c.Start(record.TypeLLM, record.LLMContent{Prompt: "Hello"}, meta("s1"))
	require.NotEmpty(t, id)
	require.Len(t, c.Active(), 1)
	assert.Empty(t, c.Completed())

	c.Update(id, record.LLMContent{Response: "partial"})
	c.Complete(id, record.LLMContent{Response: "Hi there", Tokens: 10}, record.StatusCompleted)

	assert.Empty(t, c.Active())
	completed := c.Completed()
	require.Len(t, completed, 1)

	r := completed[0]
	assert.Equal(t, record.StatusCompleted, r.Status)
	assert.False(t, r.EndTime.IsZero())
	assert.Equal(t, r.EndTime.Sub(r.StartTime), r.Duration)
	assert.GreaterOrEqual(t, r.Duration.Nanoseconds(), int64(0))

	content := r.Content.(record.LLMContent)
	assert.Equal(t, "Hello", content.Prompt)
	assert.Equal(t, "Hi there", content.Response)
	assert.Equal(t, 10, content.Tokens)

	require.Len(t, obs.started, 1)
	require.Len(t, obs.updated, 1)
	require.Len(t, obs.completed, 1)
}

func TestCompleteIsIdempotent(t *testing.T) {
	c := New(true)
	obs := &recordingObserver{}
	c.Subscribe(obs)

	id := c.Start(record.TypeToolCall, record.ToolCallContent{ToolName: "grep"}, meta("s1"))
	c.Complete(id, nil, record.StatusCompleted)
	c.Complete(id, nil, record.StatusFailed) // double completion: no-op

	completed := c.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, record.StatusCompleted, completed[0].Status)
	assert.Len(t, obs.completed, 1, "exactly one completion notification")
}

func TestCompleteUnknownID(t *testing.T) {
	c := New(true)
	c.Complete("no-such-id", nil, record.StatusCompleted)
	assert.Empty(t, c.Completed())
}

func TestUpdateUnknownID(t *testing.T) {
	c := New(true)
	c.Update("no-such-id", record.LLMContent{Prompt: "x"})
	assert.Empty(t, c.All())
}

func TestNonTerminalCompleteStatusDefaultsToCompleted(t *testing.T) {
	c := New(true)
	id := c.Start(record.TypeLLM, nil, meta("s1"))
	c.Complete(id, nil, record.StatusRunning)

	completed := c.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, record.StatusCompleted, completed[0].Status)
}

func TestDisabledCollectorNoOps(t *testing.T) {
	c := New(false)
	obs := &recordingObserver{}
	c.Subscribe(obs)

	id := c.Start(record.TypeLLM, record.LLMContent{Prompt: "x"}, meta("s1"))
	assert.Empty(t, id, "disabled tracing returns the sentinel id")

	c.Update(id, record.LLMContent{Response: "y"})
	c.Complete(id, nil, record.StatusCompleted)

	assert.Empty(t, c.All())
	assert.Empty(t, obs.started)
	assert.Empty(t, obs.completed)
}

func TestViewsReturnCopies(t *testing.T) {
	c := New(true)
	id := c.Start(record.TypeToolCall, record.ToolCallContent{ToolName: "grep", ToolArgs: map[string]any{"pattern": "a"}}, meta("s1"))

	view := c.Active()
	require.Len(t, view, 1)
	view[0].Content.(record.ToolCallContent).ToolArgs["pattern"] = "mutated"

	c.Complete(id, nil, record.StatusCompleted)
	got := c.Completed()[0].Content.(record.ToolCallContent)
	assert.Equal(t, "a", got.ToolArgs["pattern"], "view mutation must not reach the ledger")
}

func TestStats(t *testing.T) {
	c := New(true)

	id1 := c.Start(record.TypeLLM, record.LLMContent{Prompt: "a"}, meta("s1"))
	id2 := c.Start(record.TypeLLM, record.LLMContent{Prompt: "b"}, meta("s1"))
	id3 := c.Start(record.TypeToolCall, record.ToolCallContent{ToolName: "grep"}, meta("s1"))
	c.Start(record.TypeEmbedding, record.EmbeddingContent{Input: "x"}, meta("s1")) // left running

	c.Complete(id1, nil, record.StatusCompleted)
	c.Complete(id2, nil, record.StatusFailed)
	c.Complete(id3, nil, record.StatusCompleted)

	s := c.Stats()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.ByType[record.TypeLLM])
	assert.Equal(t, 1, s.ByType[record.TypeToolCall])
	assert.Equal(t, 1, s.ByType[record.TypeEmbedding])
	assert.Equal(t, 2, s.ByStatus[record.StatusCompleted])
	assert.Equal(t, 1, s.ByStatus[record.StatusFailed])
	assert.Equal(t, 1, s.ByStatus[record.StatusRunning])
	assert.InDelta(t, 0.25, s.ErrorRate, 1e-9)
}

func TestStatsEmpty(t *testing.T) {
	c := New(true)
	s := c.Stats()
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgDuration)
	assert.Zero(t, s.ErrorRate)
}
