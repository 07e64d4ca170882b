// Package store persists task artifacts as human-readable JSON files, one
// directory per task.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const readCacheSize = 32

// Artifact file names at the task root.
const (
	MetaFile       = "meta.json"
	WorldviewFile  = "worldview.json"
	CharactersFile = "characters.json"
	ConflictsFile  = "conflicts.json"
	UpdateFile     = "update.json"
)

// TaskStore is a file-backed artifact store rooted at <root>/<task>.
// Access is existence-check-then-write; concurrent runs against the same
// task are out of scope.
type TaskStore struct {
	dir   string
	task  string
	cache *lru.Cache[string, json.RawMessage]
}

func Open(root, task string) (*TaskStore, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("store: task name is required")
	}
	if strings.Contains(task, "..") || filepath.IsAbs(task) {
		return nil, fmt.Errorf("store: invalid task name: %s", task)
	}
	dir := filepath.Join(root, task)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create task dir: %w", err)
	}
	cache, err := lru.New[string, json.RawMessage](readCacheSize)
	if err != nil {
		return nil, err
	}
	return &TaskStore{dir: dir, task: task, cache: cache}, nil
}

// Task returns the task name.
func (s *TaskStore) Task() string { return s.task }

// Dir returns the task's root directory.
func (s *TaskStore) Dir() string { return s.dir }

// Exists reports whether the named artifact file is present.
func (s *TaskStore) Exists(name string) bool {
	path, err := s.pathFor(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ReadRaw returns the raw bytes of an artifact, served from an LRU cache on
// repeat reads.
func (s *TaskStore) ReadRaw(name string) (json.RawMessage, error) {
	if v, ok := s.cache.Get(name); ok {
		return v, nil
	}
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(b)
	s.cache.Add(name, raw)
	return raw, nil
}

// ReadInto unmarshals an artifact into v.
func (s *TaskStore) ReadInto(name string, v any) error {
	raw, err := s.ReadRaw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", name, err)
	}
	return nil
}

// WriteJSON persists v as indented UTF-8 JSON without HTML escaping.
func (s *TaskStore) WriteJSON(name string, v any) error {
	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	b, err := marshalIndentNoEscape(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	s.cache.Remove(name)
	return nil
}

// ChapterDir ensures and returns the per-chapter runtime directory name,
// relative to the task root.
func (s *TaskStore) ChapterDir(index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("store: chapter index must be >= 1, got %d", index)
	}
	rel := filepath.Join("runtime", fmt.Sprintf("chapter_%d", index))
	if err := os.MkdirAll(filepath.Join(s.dir, rel), 0o755); err != nil {
		return "", err
	}
	return rel, nil
}

// ChapterFile joins a chapter-relative artifact name.
func ChapterFile(index int, name string) string {
	return filepath.Join("runtime", fmt.Sprintf("chapter_%d", index), name)
}

// ReadText reads a plain-text file (e.g. a chapter summary). Missing files
// return an empty string and no error.
func (s *TaskStore) ReadText(name string) (string, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *TaskStore) pathFor(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("store: artifact name is required")
	}
	if strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("store: invalid artifact name: %s", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Unwrap extracts the final artifact from a persisted payload. Artifacts may
// be stored either as the raw value or wrapped as {"final_<kind>": value};
// both shapes yield the same value.
func Unwrap(raw json.RawMessage, kind string) json.RawMessage {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	if v, ok := m["final_"+kind]; ok && len(bytes.TrimSpace(v)) > 0 {
		return v
	}
	return raw
}

func marshalIndentNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
