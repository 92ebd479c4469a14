package entities

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidTask       = errors.New("invalid task")
	ErrInvalidVoiceNote  = errors.New("invalid voice note")
	ErrTaskNotFound      = errors.New("task not found")
	ErrVoiceNoteNotFound = errors.New("voice note not found")
)

// voiceNoteTitleLayout is used for notes saved without a title.
const voiceNoteTitleLayout = "02.01.2006 15:04"

// Task represents a to-do item bound to a calendar date
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Date            time.Time  `json:"date"`
	Completed       bool       `json:"completed"`
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    *time.Time `json:"reminderTime,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
}

// VoiceNote represents a recorded audio memo, optionally attached to a task
type VoiceNote struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	RecordingURL  string    `json:"recordingUrl"`
	Transcription string    `json:"transcription,omitempty"`
	Date          time.Time `json:"date"`
	Duration      int       `json:"duration"`
	TaskID        string    `json:"taskId,omitempty"`
}

// NewTask holds every task field except the generated ID
type NewTask struct {
	Title           string     `json:"title" validate:"required"`
	Description     string     `json:"description"`
	Date            time.Time  `json:"date" validate:"required"`
	Completed       bool       `json:"completed"`
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    *time.Time `json:"reminderTime"`
	Tags            []string   `json:"tags"`
}

// NewVoiceNote holds every voice note field except the generated ID
type NewVoiceNote struct {
	Title         string    `json:"title"`
	RecordingURL  string    `json:"recordingUrl"`
	Transcription string    `json:"transcription"`
	Date          time.Time `json:"date"`
	Duration      int       `json:"duration" validate:"gte=0"`
	TaskID        string    `json:"taskId"`
}

// TaskPatch names the fields to replace on an existing task. Nil pointers leave
// the field untouched; nullable fields need their Set flag to be cleared.
type TaskPatch struct {
	Title           *string
	Description     *string
	Date            *time.Time
	Completed       *bool
	ReminderEnabled *bool
	ReminderTime    *time.Time
	ReminderTimeSet bool
	Tags            []string
	TagsSet         bool
}

// IsEmpty reports whether the patch names no field at all
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Date == nil &&
		p.Completed == nil &&
		p.ReminderEnabled == nil &&
		!p.ReminderTimeSet && p.ReminderTime == nil &&
		!p.TagsSet
}

// Apply returns a copy of t with the patched fields replaced
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = p.Date.UTC()
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.ReminderEnabled != nil {
		t.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderTimeSet || p.ReminderTime != nil {
		t.ReminderTime = utcPtr(p.ReminderTime)
	}
	if p.TagsSet {
		t.Tags = cloneStrings(p.Tags)
	}
	return t
}

// Task builds the stored task for the given id. Times are normalized to UTC.
func (n NewTask) Task(id string) Task {
	return Task{
		ID:              id,
		Title:           n.Title,
		Description:     n.Description,
		Date:            n.Date.UTC(),
		Completed:       n.Completed,
		ReminderEnabled: n.ReminderEnabled,
		ReminderTime:    utcPtr(n.ReminderTime),
		Tags:            cloneStrings(n.Tags),
	}
}

// VoiceNote builds the stored note for the given id, filling in the default title.
func (n NewVoiceNote) VoiceNote(id string) VoiceNote {
	title := n.Title
	if title == "" {
		title = DefaultVoiceNoteTitle(n.Date)
	}
	return VoiceNote{
		ID:            id,
		Title:         title,
		RecordingURL:  n.RecordingURL,
		Transcription: n.Transcription,
		Date:          n.Date.UTC(),
		Duration:      n.Duration,
		TaskID:        n.TaskID,
	}
}

// Input returns the task's fields without its id, for validation
func (t Task) Input() NewTask {
	return NewTask{
		Title:           t.Title,
		Description:     t.Description,
		Date:            t.Date,
		Completed:       t.Completed,
		ReminderEnabled: t.ReminderEnabled,
		ReminderTime:    t.ReminderTime,
		Tags:            t.Tags,
	}
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	t.ReminderTime = utcPtr(t.ReminderTime)
	t.Tags = cloneStrings(t.Tags)
	return t
}

// DefaultVoiceNoteTitle is the title given to notes saved without one
func DefaultVoiceNoteTitle(at time.Time) string {
	return "Voice note from " + at.Format(voiceNoteTitleLayout)
}

// SameDay reports whether a falls on the same calendar day as b, judged in b's
// location. Time of day is ignored.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func cloneStrings(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
