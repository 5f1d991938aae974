// Package logstore persists completed requests as append-only, per-session
// NDJSON files, one self-describing record per line.
package logstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

const (
	logSuffix = ".jsonl"
	rawSuffix = ".raw.json"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func sanitizeSession(id string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(id), "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Store reads and writes per-session request logs under a single directory.
//
// The save path is read-then-append: the store mutex serializes writers in
// this process, but two processes writing the same session can each miss the
// other's ids and append a duplicate. Readers dedupe by id in memory, so a
// duplicate line is redundant rather than harmful.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir. The directory is created on demand.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, sanitizeSession(sessionID)+logSuffix)
}

func (s *Store) rawPath(sessionID string) string {
	return filepath.Join(s.dir, sanitizeSession(sessionID)+rawSuffix)
}

// Save appends the record to its session log unless a record with the same
// id is already present. Saving the same record twice yields one stored copy.
func (s *Store) Save(r *record.Request) error {
	return s.SaveMany([]*record.Request{r})
}

// SaveMany batches records by session, drops ids already present in each
// session log, and appends the remainder in one write per session.
func (s *Store) SaveMany(records []*record.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySession := make(map[string][]*record.Request)
	var order []string
	for _, r := range records {
		if r == nil {
			continue
		}
		sid := r.Metadata.SessionID
		if _, ok := bySession[sid]; !ok {
			order = append(order, sid)
		}
		bySession[sid] = append(bySession[sid], r)
	}

	for _, sid := range order {
		if err := s.appendNew(sid, bySession[sid]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendNew(sessionID string, records []*record.Request) error {
	existing, err := s.readSession(sessionID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[r.ID] = true
	}

	var fresh []*record.Request
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.OpenFile(s.sessionPath(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	for _, r := range fresh {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("appending record: %w", err)
		}
	}
	return nil
}

// readSession loads a session log. Missing files read as empty; malformed
// lines are skipped so one bad line never poisons the store.
func (s *Store) readSession(sessionID string) ([]*record.Request, error) {
	return s.readFile(s.sessionPath(sessionID))
}

func (s *Store) readFile(path string) ([]*record.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var out []*record.Request
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var r record.Request
		if err := json.Unmarshal(line, &r); err != nil {
			s.logger.Warn("skipping malformed trace line", "path", path, "error", err)
			continue
		}
		out = append(out, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session log: %w", err)
	}
	return out, nil
}

// Filter selects records for Query and Stats. Zero values mean "no
// constraint". Since/Until bound the record start time, inclusive.
type Filter struct {
	SessionID string
	Type      record.Type
	Status    record.Status
	Since     time.Time
	Until     time.Time
	Offset    int
	Limit     int
}

// Matches applies the predicate fields. SessionID and pagination are
// handled by the caller, not here.
func (f Filter) Matches(r *record.Request) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && r.StartTime.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.StartTime.After(f.Until) {
		return false
	}
	return true
}

// Query loads the sessions selected by the filter, applies the predicates,
// sorts ascending by start time and paginates (offset before limit).
// Duplicate ids across lines collapse to the first occurrence.
func (s *Store) Query(f Filter) ([]*record.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(f)
}

func (s *Store) queryLocked(f Filter) ([]*record.Request, error) {
	var all []*record.Request
	if f.SessionID != "" {
		records, err := s.readSession(f.SessionID)
		if err != nil {
			return nil, err
		}
		all = records
	} else {
		ids, err := s.sessionIDsLocked()
		if err != nil {
			return nil, err
		}
		for _, sid := range ids {
			records, err := s.readSession(sid)
			if err != nil {
				return nil, err
			}
			all = append(all, records...)
		}
	}

	seen := make(map[string]bool, len(all))
	var out []*record.Request
	for _, r := range all {
		if r.ID != "" && seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if f.Matches(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Stats summarizes the records selected by a filter.
type Stats struct {
	Total         int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	ByType        map[record.Type]int
	ByStatus      map[record.Status]int
	ErrorRate     float64
}

// Stats computes aggregate statistics over Query(f). Pagination fields in
// the filter are ignored.
func (s *Store) Stats(f Filter) (Stats, error) {
	f.Offset = 0
	f.Limit = 0
	records, err := s.Query(f)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records), nil
}

// ComputeStats summarizes an already-loaded record set. Requests still
// running contribute to counts but not to duration or error rate.
func ComputeStats(records []*record.Request) Stats {
	st := Stats{
		ByType:   make(map[record.Type]int),
		ByStatus: make(map[record.Status]int),
	}
	var doneCount, failed int
	for _, r := range records {
		st.Total++
		st.ByType[r.Type]++
		st.ByStatus[r.Status]++
		if r.Done() {
			doneCount++
			st.TotalDuration += r.Duration
			if r.Status == record.StatusFailed {
				failed++
			}
		}
	}
	if doneCount > 0 {
		st.AvgDuration = st.TotalDuration / time.Duration(doneCount)
	}
	if st.Total > 0 {
		st.ErrorRate = float64(failed) / float64(st.Total)
	}
	return st
}

// SessionIDs lists the sessions present in the store, newest file first.
func (s *Store) SessionIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionIDsLocked()
}

func (s *Store) sessionIDsLocked() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading trace directory: %w", err)
	}

	type sessionInfo struct {
		id  string
		mod time.Time
	}
	var infos []sessionInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), logSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, sessionInfo{
			id:  strings.TrimSuffix(e.Name(), logSuffix),
			mod: info.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].mod.After(infos[j].mod) })

	ids := make([]string, 0, len(infos))
	for _, si := range infos {
		ids = append(ids, si.id)
	}
	return ids, nil
}

// DeleteOlderThan removes records whose start time is before now minus the
// given number of days, rewriting each session log in place. It returns the
// number of records removed. Session logs left empty are deleted entirely.
func (s *Store) DeleteOlderThan(days int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	ids, err := s.sessionIDsLocked()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, sid := range ids {
		records, err := s.readSession(sid)
		if err != nil {
			return removed, err
		}
		var kept []*record.Request
		for _, r := range records {
			if r.StartTime.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == len(records) {
			continue
		}
		if len(kept) == 0 {
			if err := os.Remove(s.sessionPath(sid)); err != nil && !os.IsNotExist(err) {
				return removed, fmt.Errorf("removing session log: %w", err)
			}
			continue
		}
		if err := s.rewriteSession(sid, kept); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (s *Store) rewriteSession(sessionID string, records []*record.Request) error {
	path := s.sessionPath(sessionID)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("rewriting session log: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			f.Close()      //nolint:errcheck
			os.Remove(tmp) //nolint:errcheck
			return fmt.Errorf("rewriting session log: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("rewriting session log: %w", err)
	}
	return os.Rename(tmp, path)
}

// DeleteSession removes a session's log and its raw payload slot. Unknown
// sessions are a no-op.
func (s *Store) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.sessionPath(sessionID), s.rawPath(sessionID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting session data: %w", err)
		}
	}
	return nil
}

// ClearAll removes every session log and raw payload in the store.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading trace directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), logSuffix) && !strings.HasSuffix(e.Name(), rawSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clearing trace data: %w", err)
		}
	}
	return nil
}
