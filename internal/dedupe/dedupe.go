// Package dedupe removes redundant trace records. Runtimes frequently
// re-send growing prefixes of the same logical call (a prompt accumulating
// context across retries), which would otherwise render as distinct
// timeline bars.
package dedupe

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/nothatDinger/qwen-code-trace/internal/record"
)

// Deduplicate returns the records with exact duplicates and subsets of
// already-kept records removed, ordered by start time. The input is not
// mutated.
//
// Tie-breaking is deliberately literal: an exact hash match keeps the
// first-seen record, and the containment test only drops the current record
// when an already-kept record is a superset of it. A later, larger record
// therefore survives this pass; the earlier subset it shadows is collapsed
// separately by MergeOverlapping.
func Deduplicate(records []*record.Request) []*record.Request {
	sorted := sortedClones(records)

	seen := make(map[string]bool, len(sorted))
	var kept []*record.Request
	for _, r := range sorted {
		h := contentHash(r)
		if seen[h] {
			continue
		}

		subsumed := false
		for _, k := range kept {
			if supersedes(k, r) {
				subsumed = true
				break
			}
		}
		if subsumed {
			continue
		}

		seen[h] = true
		kept = append(kept, r)
	}
	return kept
}

func sortedClones(records []*record.Request) []*record.Request {
	out := make([]*record.Request, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// contentHash digests the type-relevant subset of a record's content.
func contentHash(r *record.Request) string {
	h := blake3.New()
	h.Write([]byte(r.Type)) //nolint:errcheck
	h.Write([]byte{0})      //nolint:errcheck

	switch c := r.Content.(type) {
	case record.LLMContent:
		h.Write([]byte(c.Prompt)) //nolint:errcheck
	case record.ToolCallContent:
		h.Write([]byte(c.ToolName))     //nolint:errcheck
		h.Write([]byte{0})              //nolint:errcheck
		h.Write(canonicalArgs(c.ToolArgs)) //nolint:errcheck
	case record.EmbeddingContent:
		h.Write([]byte(c.Input)) //nolint:errcheck
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// canonicalArgs renders tool args with sorted keys so hashing is stable
// across map iteration order.
func canonicalArgs(args map[string]any) []byte {
	if len(args) == 0 {
		return nil
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, _ := json.Marshal(args[k]) //nolint:errcheck
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
		b.WriteByte(';')
	}
	return []byte(b.String())
}

// supersedes reports whether a's content strictly contains b's, making b
// redundant. Records of different types never supersede each other.
func supersedes(a, b *record.Request) bool {
	if a.Type != b.Type {
		return false
	}
	switch ac := a.Content.(type) {
	case record.LLMContent:
		bc, ok := b.Content.(record.LLMContent)
		if !ok {
			return false
		}
		return len(ac.Prompt) > len(bc.Prompt) && strings.Contains(ac.Prompt, bc.Prompt)
	case record.ToolCallContent:
		bc, ok := b.Content.(record.ToolCallContent)
		if !ok {
			return false
		}
		return toolArgsSuperset(ac, bc)
	case record.EmbeddingContent:
		bc, ok := b.Content.(record.EmbeddingContent)
		if !ok {
			return false
		}
		return len(ac.Input) > len(bc.Input) && strings.Contains(ac.Input, bc.Input)
	}
	return false
}

func toolArgsSuperset(a, b record.ToolCallContent) bool {
	if a.ToolName != b.ToolName {
		return false
	}
	if len(a.ToolArgs) <= len(b.ToolArgs) {
		return false
	}
	for k, bv := range b.ToolArgs {
		av, ok := a.ToolArgs[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}
