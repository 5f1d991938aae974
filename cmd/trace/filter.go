package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/logstore"
	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

// filterFlags binds the shared record-selection flags used by the query
// subcommands.
type filterFlags struct {
	session string
	typ     string
	status  string
	since   string
	until   string
	offset  int
	limit   int
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.session, "session", "", "Restrict to one session id")
	cmd.Flags().StringVar(&ff.typ, "type", "", "Filter by request type (llm, tool_call, embedding)")
	cmd.Flags().StringVar(&ff.status, "status", "", "Filter by status (running, completed, failed)")
	cmd.Flags().StringVar(&ff.since, "since", "", "Only records starting at or after this RFC3339 time")
	cmd.Flags().StringVar(&ff.until, "until", "", "Only records starting at or before this RFC3339 time")
	cmd.Flags().IntVar(&ff.offset, "offset", 0, "Skip this many records")
	cmd.Flags().IntVar(&ff.limit, "limit", 0, "Return at most this many records (0 = all)")
}

func (ff *filterFlags) build() (logstore.Filter, error) {
	f := logstore.Filter{
		SessionID: ff.session,
		Type:      record.Type(ff.typ),
		Status:    record.Status(ff.status),
		Offset:    ff.offset,
		Limit:     ff.limit,
	}
	if ff.since != "" {
		t, err := time.Parse(time.RFC3339, ff.since)
		if err != nil {
			return f, fmt.Errorf("parsing --since: %w", err)
		}
		f.Since = t
	}
	if ff.until != "" {
		t, err := time.Parse(time.RFC3339, ff.until)
		if err != nil {
			return f, fmt.Errorf("parsing --until: %w", err)
		}
		f.Until = t
	}
	return f, nil
}
