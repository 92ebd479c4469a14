package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

// errCorruptDocument marks a data file that exists but cannot be parsed
var errCorruptDocument = errors.New("corrupt data file")

// FileStore keeps every key in a single JSON document on disk. Writes go to a
// temporary file that is renamed over the document, so a crash mid-write
// leaves the previous contents in place.
type FileStore struct {
	path   string
	logger *logger.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store writing to path, creating its directory if needed
func NewFileStore(path string, log *logger.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{
		path:   path,
		logger: log.WithComponent("file_store"),
	}, nil
}

// Get returns the value stored under key. A document that cannot be parsed
// reads as empty; it is moved aside on the next write.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if errors.Is(err, errCorruptDocument) {
		s.logger.Warnw("Corrupt data file, reading as empty", "path", s.path, "key", key, "error", err)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// SetMany merges entries into the document and rewrites it. A document that
// cannot be parsed is moved aside before being replaced.
func (s *FileStore) SetMany(ctx context.Context, entries ...ports.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if errors.Is(err, errCorruptDocument) {
		if err := s.quarantine(); err != nil {
			return err
		}
		doc = make(map[string]string)
	} else if err != nil {
		return err
	}

	for _, e := range entries {
		doc[e.Key] = string(e.Value)
	}
	return s.write(doc)
}

// Ping checks that the data directory is still there
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the location of the JSON document
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}

	doc := make(map[string]string)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w %s: %v", errCorruptDocument, s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (s *FileStore) quarantine() error {
	dest := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, dest); err != nil {
		return fmt.Errorf("move corrupt data file aside: %w", err)
	}
	s.logger.Warnw("Corrupt data file moved aside", "path", s.path, "moved_to", dest)
	return nil
}

var _ ports.KVStore = (*FileStore)(nil)
