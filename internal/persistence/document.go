package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// seedDocument is the initial store content: a requester-id keyed ticket map
// and the ticket number counter.
const seedDocument = `{"tickets":{},"counter":0}`

// DocumentStore is a durable key-path document. Every Set reads the whole
// backing file, assigns the leaf along a dot-separated path, and rewrites the
// whole file. A single mutex serializes all access, so concurrent callers
// never interleave read-modify-write cycles.
type DocumentStore struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// OpenDocumentStore opens the store file, creating it (and its parent
// directory) with an empty document when absent.
func OpenDocumentStore(cfg config.StoreConfig, logger *zap.Logger) (*DocumentStore, error) {
	s := &DocumentStore{path: cfg.Path, logger: logger}
	if err := s.ensureFile(); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	logger.Info("document store ready", zap.String("path", cfg.Path))
	return s, nil
}

func (s *DocumentStore) ensureFile() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return s.writeDocumentLocked([]byte(seedDocument))
	} else if err != nil {
		return err
	}
	return nil
}

// Get returns the value at a dot-separated key path. The second return value
// is false when any segment along the path is absent.
func (s *DocumentStore) Get(path string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocumentLocked()
	if err != nil {
		return nil, false, apperrors.NewStorageError(err)
	}

	var current any = doc
	for _, key := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		current, ok = node[key]
		if !ok {
			return nil, false, nil
		}
	}
	return current, true, nil
}

// Set assigns value at a dot-separated key path, creating intermediate
// mapping nodes as needed, and synchronously rewrites the whole document.
// The value is round-tripped through JSON so callers can pass typed structs.
func (s *DocumentStore) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocumentLocked()
	if err != nil {
		return apperrors.NewStorageError(err)
	}

	plain, err := toPlain(value)
	if err != nil {
		return apperrors.NewStorageError(err)
	}

	keys := strings.Split(path, ".")
	node := doc
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = plain

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	if err := s.writeDocumentLocked(encoded); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

// Snapshot returns a copy of the entire document.
func (s *DocumentStore) Snapshot() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocumentLocked()
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return doc, nil
}

// Reset discards all data and restores the seed document. Destructive.
func (s *DocumentStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeDocumentLocked([]byte(seedDocument)); err != nil {
		return apperrors.NewStorageError(err)
	}
	s.logger.Warn("document store reset", zap.String("path", s.path))
	return nil
}

// Raw returns the exact file bytes, for byte-level comparisons in health and
// test tooling.
func (s *DocumentStore) Raw() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return data, nil
}

func (s *DocumentStore) readDocumentLocked() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	return doc, nil
}

// writeDocumentLocked writes via a temp file and rename so the backing file
// is replaced atomically, with the data synced before the call returns.
func (s *DocumentStore) writeDocumentLocked(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tickets-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

func toPlain(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var plain any
	if err := json.Unmarshal(encoded, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}
