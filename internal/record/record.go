// Package record defines the traced request data model shared by the
// ledger, the durable log, and the visualization pipeline.
package record

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of traced call.
type Type string

const (
	TypeLLM       Type = "llm"
	TypeToolCall  Type = "tool_call"
	TypeEmbedding Type = "embedding"
)

// Status is the lifecycle state of a request. Transitions only move
// forward: running → completed or running → failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Metadata carries caller-supplied correlation identifiers. SessionID
// groups records into a session, the unit of durable storage.
type Metadata struct {
	SessionID       string   `json:"session_id"`
	PromptID        string   `json:"prompt_id,omitempty"`
	RequestID       string   `json:"request_id,omitempty"`
	ParentRequestID string   `json:"parent_request_id,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Environment     string   `json:"environment,omitempty"`
}

// Content is the type-specific payload of a request. Exactly one concrete
// variant exists per Type.
type Content interface {
	// Kind returns the request type this content belongs to.
	Kind() Type
	// merge returns a copy with non-zero fields of other layered on top.
	merge(other Content) Content
	clone() Content
}

// LLMContent holds fields for a model call.
type LLMContent struct {
	Prompt   string `json:"prompt,omitempty"`
	Response string `json:"response,omitempty"`
	Model    string `json:"model,omitempty"`
	Tokens   int    `json:"tokens,omitempty"`
}

func (LLMContent) Kind() Type { return TypeLLM }

func (c LLMContent) clone() Content { return c }

func (c LLMContent) merge(other Content) Content {
	o, ok := other.(LLMContent)
	if !ok {
		return c
	}
	if o.Prompt != "" {
		c.Prompt = o.Prompt
	}
	if o.Response != "" {
		c.Response = o.Response
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.Tokens != 0 {
		c.Tokens = o.Tokens
	}
	return c
}

// ToolCallContent holds fields for a tool invocation.
type ToolCallContent struct {
	ToolName   string         `json:"tool_name,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`
	ToolResult string         `json:"tool_result,omitempty"`
	ToolError  string         `json:"tool_error,omitempty"`
}

func (ToolCallContent) Kind() Type { return TypeToolCall }

func (c ToolCallContent) clone() Content {
	if c.ToolArgs != nil {
		args := make(map[string]any, len(c.ToolArgs))
		for k, v := range c.ToolArgs {
			args[k] = v
		}
		c.ToolArgs = args
	}
	return c
}

func (c ToolCallContent) merge(other Content) Content {
	o, ok := other.(ToolCallContent)
	if !ok {
		return c
	}
	merged := c.clone().(ToolCallContent)
	if o.ToolName != "" {
		merged.ToolName = o.ToolName
	}
	if len(o.ToolArgs) > 0 {
		if merged.ToolArgs == nil {
			merged.ToolArgs = make(map[string]any, len(o.ToolArgs))
		}
		for k, v := range o.ToolArgs {
			merged.ToolArgs[k] = v
		}
	}
	if o.ToolResult != "" {
		merged.ToolResult = o.ToolResult
	}
	if o.ToolError != "" {
		merged.ToolError = o.ToolError
	}
	return merged
}

// EmbeddingContent holds fields for an embedding call.
type EmbeddingContent struct {
	Input          string    `json:"input,omitempty"`
	Embedding      []float64 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
}

func (EmbeddingContent) Kind() Type { return TypeEmbedding }

func (c EmbeddingContent) clone() Content {
	if c.Embedding != nil {
		c.Embedding = append([]float64(nil), c.Embedding...)
	}
	return c
}

func (c EmbeddingContent) merge(other Content) Content {
	o, ok := other.(EmbeddingContent)
	if !ok {
		return c
	}
	if o.Input != "" {
		c.Input = o.Input
	}
	if len(o.Embedding) > 0 {
		c.Embedding = append([]float64(nil), o.Embedding...)
	}
	if o.EmbeddingModel != "" {
		c.EmbeddingModel = o.EmbeddingModel
	}
	return c
}

// MergeContent shallow-merges src into dst and returns the result. A nil dst
// yields a copy of src; a nil or type-mismatched src leaves dst unchanged.
// Content merging is additive: later fields layer on top, the variant is
// never replaced wholesale.
func MergeContent(dst, src Content) Content {
	if dst == nil {
		if src == nil {
			return nil
		}
		return src.clone()
	}
	if src == nil || src.Kind() != dst.Kind() {
		return dst
	}
	return dst.merge(src)
}

// Request is one traced lifecycle unit.
type Request struct {
	ID        string
	Type      Type
	Status    Status
	StartTime time.Time
	EndTime   time.Time // zero while running
	Duration  time.Duration
	Content   Content
	Metadata  Metadata
}

// Done reports whether the request reached a terminal state.
func (r *Request) Done() bool { return r.Status.Terminal() }

// Clone returns a deep copy safe to hand to consumers that must not mutate
// the ledger's canonical entry.
func (r *Request) Clone() *Request {
	c := *r
	if r.Content != nil {
		c.Content = r.Content.clone()
	}
	if r.Metadata.Tags != nil {
		c.Metadata.Tags = append([]string(nil), r.Metadata.Tags...)
	}
	return &c
}

// requestJSON is the persisted wire form: one self-describing JSON object
// per line, with the content variant keyed by the type tag.
type requestJSON struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Status     Status          `json:"status"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    *time.Time      `json:"end_time,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	Metadata   Metadata        `json:"metadata"`
}

// MarshalJSON encodes the request with its typed content variant inline.
func (r Request) MarshalJSON() ([]byte, error) {
	v := requestJSON{
		ID:        r.ID,
		Type:      r.Type,
		Status:    r.Status,
		StartTime: r.StartTime,
		Metadata:  r.Metadata,
	}
	if !r.EndTime.IsZero() {
		end := r.EndTime
		v.EndTime = &end
		v.DurationMs = r.Duration.Milliseconds()
	}
	if r.Content != nil {
		data, err := json.Marshal(r.Content)
		if err != nil {
			return nil, err
		}
		v.Content = data
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes the request, selecting the content variant from the
// type tag.
func (r *Request) UnmarshalJSON(data []byte) error {
	var v requestJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	r.ID = v.ID
	r.Type = v.Type
	r.Status = v.Status
	r.StartTime = v.StartTime
	r.Metadata = v.Metadata
	r.EndTime = time.Time{}
	r.Duration = 0
	r.Content = nil

	if v.EndTime != nil {
		r.EndTime = *v.EndTime
		r.Duration = time.Duration(v.DurationMs) * time.Millisecond
	}

	if len(v.Content) > 0 {
		content, err := decodeContent(v.Type, v.Content)
		if err != nil {
			return err
		}
		r.Content = content
	}
	return nil
}

func decodeContent(t Type, data json.RawMessage) (Content, error) {
	switch t {
	case TypeLLM:
		var c LLMContent
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeToolCall:
		var c ToolCallContent
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeEmbedding:
		var c EmbeddingContent
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown request type %q", t)
	}
}
