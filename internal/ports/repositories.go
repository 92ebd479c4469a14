package ports

import (
	"context"
	"time"
)

// Persisted record keys
const (
	TasksKey      = "tasks"
	VoiceNotesKey = "voiceNotes"
)

// Entry is a single key/value pair written to a KVStore
type Entry struct {
	Key   string
	Value []byte
}

// KVStore defines the key-value medium the task store mirrors its state to.
// Values are opaque bytes; every write fully replaces the previous value.
type KVStore interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// SetMany writes all entries atomically, in order. Either every entry
	// is visible to a later Get or none is.
	SetMany(ctx context.Context, entries ...Entry) error

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error

	// Close releases backend resources
	Close() error
}

// StoreMetrics receives observations about task store operations
type StoreMetrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	SetCollectionSizes(tasks, voiceNotes int)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) ObserveOperation(string, time.Duration, error) {}
func (NopMetrics) SetCollectionSizes(int, int)                   {}
