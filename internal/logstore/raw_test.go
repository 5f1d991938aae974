package logstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawPayloadLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRaw("s1", RawPayload{Timestamp: base, Request: "first"}))
	require.NoError(t, s.SaveRaw("s1", RawPayload{Timestamp: base.Add(time.Second), Request: "second"}))

	p, err := s.LoadRaw("s1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "second", p.Request, "the slot holds only the most recent payload")
}

func TestRawPayloadFiltersNoopResponse(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRaw("s1", RawPayload{Timestamp: base, Request: "keep", Response: "real"}))
	require.NoError(t, s.SaveRaw("s1", RawPayload{Timestamp: base.Add(time.Second), Response: noopResponse}))

	p, err := s.LoadRaw("s1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "keep", p.Request, "no-op terminal payload must never overwrite the slot")
}

func TestRawPayloadMissing(t *testing.T) {
	s := newTestStore(t)
	p, err := s.LoadRaw("never-written")
	require.NoError(t, err)
	assert.Nil(t, p)
}
