package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/calendarease/core/internal/domain/entities"
	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

// Operation names reported to StoreMetrics
const (
	OpLoad            = "load"
	OpAddTask         = "add_task"
	OpUpdateTask      = "update_task"
	OpDeleteTask      = "delete_task"
	OpAddVoiceNote    = "add_voice_note"
	OpDeleteVoiceNote = "delete_voice_note"
)

// TaskStore owns the task and voice note collections and mirrors them to a
// key-value backend after every mutation. It is safe for concurrent use;
// mutations and their writes are serialized.
type TaskStore struct {
	kv       ports.KVStore
	logger   *logger.Logger
	metrics  ports.StoreMetrics
	validate *validator.Validate
	newID    func() string
	now      func() time.Time
	loc      *time.Location

	mu         sync.RWMutex
	tasks      []entities.Task
	voiceNotes []entities.VoiceNote
}

// Option configures a TaskStore
type Option func(*TaskStore)

// WithMetrics reports operations to m
func WithMetrics(m ports.StoreMetrics) Option {
	return func(s *TaskStore) { s.metrics = m }
}

// WithIDGenerator replaces the UUID v4 generator
func WithIDGenerator(fn func() string) Option {
	return func(s *TaskStore) { s.newID = fn }
}

// WithClock replaces time.Now, used to stamp voice notes saved without a date
func WithClock(fn func() time.Time) Option {
	return func(s *TaskStore) { s.now = fn }
}

// WithLocation sets the zone used for persisted timestamps that carry no offset.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *TaskStore) { s.loc = loc }
}

// NewTaskStore creates a store backed by kv and loads both collections from it
func NewTaskStore(ctx context.Context, kv ports.KVStore, log *logger.Logger, opts ...Option) (*TaskStore, error) {
	s := &TaskStore{
		kv:       kv,
		logger:   log.WithComponent("task_store"),
		metrics:  ports.NopMetrics{},
		validate: validator.New(),
		newID:    uuid.NewString,
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory collections with the persisted ones. Malformed
// data never fails the reload: the affected collection comes back empty, or
// the affected records are repaired or skipped. Backend read errors are returned.
func (s *TaskStore) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpLoad, time.Since(start), err) }()

	tasks, err := s.loadTasks(ctx)
	if err != nil {
		return err
	}
	notes, err := s.loadVoiceNotes(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tasks = tasks
	s.voiceNotes = notes
	s.mu.Unlock()

	s.metrics.SetCollectionSizes(len(tasks), len(notes))
	s.logger.Infow("Store loaded", "tasks", len(tasks), "voice_notes", len(notes))
	return nil
}

func (s *TaskStore) loadTasks(ctx context.Context) ([]entities.Task, error) {
	data, ok, err := s.kv.Get(ctx, ports.TasksKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ports.TasksKey, err)
	}
	if !ok {
		return []entities.Task{}, nil
	}

	tasks, issues, err := decodeTasks(data, s.validate, s.loc)
	if err != nil {
		s.logger.Warnw("Error parsing persisted tasks, starting empty", "key", ports.TasksKey, "error", err)
		return []entities.Task{}, nil
	}
	s.logIssues(ports.TasksKey, issues)
	return tasks, nil
}

func (s *TaskStore) loadVoiceNotes(ctx context.Context) ([]entities.VoiceNote, error) {
	data, ok, err := s.kv.Get(ctx, ports.VoiceNotesKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ports.VoiceNotesKey, err)
	}
	if !ok {
		return []entities.VoiceNote{}, nil
	}

	notes, issues, err := decodeVoiceNotes(data, s.loc)
	if err != nil {
		s.logger.Warnw("Error parsing persisted voice notes, starting empty", "key", ports.VoiceNotesKey, "error", err)
		return []entities.VoiceNote{}, nil
	}
	s.logIssues(ports.VoiceNotesKey, issues)
	return notes, nil
}

func (s *TaskStore) logIssues(key string, issues []recordIssue) {
	for _, is := range issues {
		s.logger.Warnw("Persisted record "+is.Action,
			"key", key,
			"index", is.Index,
			"field", is.Field,
			"reason", is.Reason,
		)
	}
}

// AddTask assigns a new id to the task, appends it and persists the task collection
func (s *TaskStore) AddTask(ctx context.Context, in entities.NewTask) (task entities.Task, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpAddTask, time.Since(start), err) }()

	if err := s.validate.Struct(in); err != nil {
		return entities.Task{}, fmt.Errorf("%w: %v", entities.ErrInvalidTask, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task = in.Task(s.newID())
	next := append(cloneTasks(s.tasks), task)
	if err := s.commit(ctx, change{tasks: next, setTasks: true}); err != nil {
		return entities.Task{}, err
	}

	s.logger.Infow("Task created", "task_id", task.ID, "title", task.Title)
	return task.Clone(), nil
}

// UpdateTask replaces the fields named by patch on the task with the given id.
// An unknown id is not an error: nothing changes and updated is false. The
// task collection is persisted either way. A patch leaving the task without a
// title or date is rejected and nothing is written.
func (s *TaskStore) UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (updated bool, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpUpdateTask, time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneTasks(s.tasks)
	for i := range next {
		if next[i].ID == id {
			patched := patch.Apply(next[i])
			if err := s.validate.Struct(patched.Input()); err != nil {
				return false, fmt.Errorf("%w: %v", entities.ErrInvalidTask, err)
			}
			next[i] = patched
			updated = true
			break
		}
	}

	if err := s.commit(ctx, change{tasks: next, setTasks: true}); err != nil {
		return false, err
	}

	if updated {
		s.logger.Infow("Task updated", "task_id", id)
	} else {
		s.logger.Debugw("Task update ignored, unknown id", "task_id", id)
	}
	return updated, nil
}

// DeleteTask removes the task and every voice note attached to it. Both
// collections are written in a single atomic write.
func (s *TaskStore) DeleteTask(ctx context.Context, id string) (deleted bool, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpDeleteTask, time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]entities.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID == id {
			deleted = true
			continue
		}
		tasks = append(tasks, t.Clone())
	}

	notes := make([]entities.VoiceNote, 0, len(s.voiceNotes))
	for _, n := range s.voiceNotes {
		if n.TaskID == id {
			continue
		}
		notes = append(notes, n)
	}
	cascaded := len(s.voiceNotes) - len(notes)

	if err := s.commit(ctx, change{tasks: tasks, setTasks: true, notes: notes, setNotes: true}); err != nil {
		return false, err
	}

	if deleted {
		s.logger.Infow("Task deleted", "task_id", id, "voice_notes_removed", cascaded)
	}
	return deleted, nil
}

// GetTask returns the task with the given id
func (s *TaskStore) GetTask(id string) (entities.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return entities.Task{}, false
}

// GetTasksForDate returns the tasks falling on the calendar day of date, in
// stored order. The day is judged in date's location.
func (s *TaskStore) GetTasksForDate(date time.Time) []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entities.Task, 0)
	for _, t := range s.tasks {
		if entities.SameDay(t.Date, date) {
			result = append(result, t.Clone())
		}
	}
	return result
}

// TasksWithReminders returns reminder-enabled tasks ordered by date
func (s *TaskStore) TasksWithReminders() []entities.Task {
	s.mu.RLock()
	result := make([]entities.Task, 0)
	for _, t := range s.tasks {
		if t.ReminderEnabled {
			result = append(result, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

// Tasks returns a copy of the full task collection
func (s *TaskStore) Tasks() []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// AddVoiceNote assigns a new id to the note, appends it and persists the voice
// note collection. A missing title falls back to a timestamped default and a
// missing date to the current time.
func (s *TaskStore) AddVoiceNote(ctx context.Context, in entities.NewVoiceNote) (note entities.VoiceNote, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpAddVoiceNote, time.Since(start), err) }()

	if err := s.validate.Struct(in); err != nil {
		return entities.VoiceNote{}, fmt.Errorf("%w: %v", entities.ErrInvalidVoiceNote, err)
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note = in.VoiceNote(s.newID())
	next := append(cloneNotes(s.voiceNotes), note)
	if err := s.commit(ctx, change{notes: next, setNotes: true}); err != nil {
		return entities.VoiceNote{}, err
	}

	s.logger.Infow("Voice note created", "voice_note_id", note.ID, "task_id", note.TaskID, "duration", note.Duration)
	return note, nil
}

// DeleteVoiceNote removes the note with the given id and persists the voice note
// collection. An unknown id is not an error.
func (s *TaskStore) DeleteVoiceNote(ctx context.Context, id string) (deleted bool, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpDeleteVoiceNote, time.Since(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]entities.VoiceNote, 0, len(s.voiceNotes))
	for _, n := range s.voiceNotes {
		if n.ID == id {
			deleted = true
			continue
		}
		notes = append(notes, n)
	}

	if err := s.commit(ctx, change{notes: notes, setNotes: true}); err != nil {
		return false, err
	}

	if deleted {
		s.logger.Infow("Voice note deleted", "voice_note_id", id)
	}
	return deleted, nil
}

// GetVoiceNotesForTask returns the notes attached to taskID, in stored order
func (s *TaskStore) GetVoiceNotesForTask(taskID string) []entities.VoiceNote {
	result := make([]entities.VoiceNote, 0)
	if taskID == "" {
		return result
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.voiceNotes {
		if n.TaskID == taskID {
			result = append(result, n)
		}
	}
	return result
}

// VoiceNotes returns a copy of the full voice note collection
func (s *TaskStore) VoiceNotes() []entities.VoiceNote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNotes(s.voiceNotes)
}

// change is a staged replacement of one or both collections
type change struct {
	tasks    []entities.Task
	notes    []entities.VoiceNote
	setTasks bool
	setNotes bool
}

// commit writes the staged collections to the backend and, only once the
// write succeeded, installs them in memory. Callers hold s.mu.
func (s *TaskStore) commit(ctx context.Context, c change) error {
	var (
		entries []ports.Entry
		keys    []string
		size    int
	)

	if c.setTasks {
		data, err := encodeTasks(c.tasks)
		if err != nil {
			return err
		}
		entries = append(entries, ports.Entry{Key: ports.TasksKey, Value: data})
		keys = append(keys, ports.TasksKey)
		size += len(data)
	}
	if c.setNotes {
		data, err := encodeVoiceNotes(c.notes)
		if err != nil {
			return err
		}
		entries = append(entries, ports.Entry{Key: ports.VoiceNotesKey, Value: data})
		keys = append(keys, ports.VoiceNotesKey)
		size += len(data)
	}

	start := time.Now()
	err := s.kv.SetMany(ctx, entries...)
	s.logger.LogStoreWrite(keys, size, float64(time.Since(start).Microseconds())/1000, err)
	if err != nil {
		return fmt.Errorf("persist %v: %w", keys, err)
	}

	if c.setTasks {
		s.tasks = c.tasks
	}
	if c.setNotes {
		s.voiceNotes = c.notes
	}
	s.metrics.SetCollectionSizes(len(s.tasks), len(s.voiceNotes))
	return nil
}

func cloneTasks(tasks []entities.Task) []entities.Task {
	out := make([]entities.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func cloneNotes(notes []entities.VoiceNote) []entities.VoiceNote {
	out := make([]entities.VoiceNote, len(notes))
	copy(out, notes)
	return out
}

var _ ports.TaskService = (*TaskStore)(nil)
