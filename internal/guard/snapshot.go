package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SnapshotVersion is the digest snapshot file format version.
const SnapshotVersion = 1

// Snapshot is a before/after JSON artifact written for a mutating
// operation when --emit-digests is set.
type Snapshot struct {
	ID        string      `json:"id"`
	Version   int         `json:"version"`
	Timestamp string      `json:"timestamp"`
	Operation string      `json:"operation"`
	File      string      `json:"file"`
	Selector  string      `json:"selector"`
	Mode      string      `json:"mode"`
	Stage     string      `json:"stage"` // "before" | "after"
	Record    string      `json:"record"`
	Guard     *Guard      `json:"guard,omitempty"`
	Hash      string      `json:"hash"`
	Span      interface{} `json:"span"`
	Snippet   string      `json:"snippet,omitempty"`
}

// NewSnapshot builds a Snapshot with a fresh ID.
func NewSnapshot(timestamp, operation, file, selectorExpr, mode, stage, record, hash string, span interface{}, guard *Guard, includeSnippet bool, snippet string) Snapshot {
	s := Snapshot{
		ID:        uuid.NewString(),
		Version:   SnapshotVersion,
		Timestamp: timestamp,
		Operation: operation,
		File:      file,
		Selector:  selectorExpr,
		Mode:      mode,
		Stage:     stage,
		Record:    record,
		Guard:     guard,
		Hash:      hash,
		Span:      span,
	}
	if includeSnippet {
		s.Snippet = snippet
	}
	return s
}

// WriteSnapshot writes snapshot into dir as
// "<timestamp>__<op>__<file>__<name>[__<hash>]--{before,after}.json".
func WriteSnapshot(dir string, snapshot Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("guard: create digest dir %s: %w", dir, err)
	}

	base := filepath.Base(snapshot.File)
	name := sanitizeComponent(snapshot.Record)
	parts := []string{snapshot.Timestamp, snapshot.Operation, base, name}
	if snapshot.Hash != "" {
		parts = append(parts, sanitizeComponent(snapshot.Hash))
	}
	filename := strings.Join(parts, "__") + "--" + snapshot.Stage + ".json"
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("guard: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("guard: write snapshot %s: %w", path, err)
	}
	return path, nil
}

func sanitizeComponent(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", " ", "_", ":", "_",
		"\"", "", "#", "_", "*", "_",
	)
	return replacer.Replace(s)
}
