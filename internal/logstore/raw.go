package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// noopResponse is the terminal stream marker some runtimes emit when a call
// produced no payload. It carries no audit value and is never stored.
const noopResponse = "[DONE]"

// RawPayload is the most recent unprocessed request/response pair for a
// session, kept for audit and debugging.
type RawPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Request   string    `json:"request,omitempty"`
	Response  string    `json:"response,omitempty"`
}

// SaveRaw overwrites the session's raw payload slot. Unlike the request log
// this slot is last-write-wins, not append-only. Terminal no-op responses
// are filtered out.
func (s *Store) SaveRaw(sessionID string, p RawPayload) error {
	if p.Response == noopResponse {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating trace directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling raw payload: %w", err)
	}
	if err := os.WriteFile(s.rawPath(sessionID), data, 0o644); err != nil {
		return fmt.Errorf("writing raw payload: %w", err)
	}
	return nil
}

// LoadRaw returns the stored raw payload for a session, or (nil, nil) when
// none exists.
func (s *Store) LoadRaw(sessionID string) (*RawPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.rawPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading raw payload: %w", err)
	}
	var p RawPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("skipping malformed raw payload", "session", sessionID, "error", err)
		return nil, nil
	}
	return &p, nil
}
