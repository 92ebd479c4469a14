package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/calendarease/core/internal/domain/entities"
)

// Layouts accepted for persisted timestamps. RFC 3339 parsing also accepts
// fractional seconds, which covers JavaScript's toISOString output. A date-time
// without an offset is read in the store's location; a bare date is UTC.
const (
	localDateTimeLayout = "2006-01-02T15:04:05"
	dateOnlyLayout      = "2006-01-02"
)

// maxDuration caps persisted durations, in seconds
const maxDuration = math.MaxInt32

// recordIssue describes a persisted record that was dropped or repaired on load
type recordIssue struct {
	Index  int
	Field  string
	Action string // "dropped" or "repaired"
	Reason string
}

func encodeTasks(tasks []entities.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []entities.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

func encodeVoiceNotes(notes []entities.VoiceNote) ([]byte, error) {
	if notes == nil {
		notes = []entities.VoiceNote{}
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode voice notes: %w", err)
	}
	return data, nil
}

// decodeTasks parses the persisted task collection. A value that is not a JSON
// array is an error; individual records are validated field by field and
// either repaired or dropped.
func decodeTasks(data []byte, validate *validator.Validate, loc *time.Location) ([]entities.Task, []recordIssue, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode tasks: %w", err)
	}

	var issues []recordIssue
	tasks := make([]entities.Task, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))

	for i, elem := range elems {
		r, ok := newRecordReader(elem, i, loc, &issues)
		if !ok {
			continue
		}

		id, ok := r.requiredString("id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			r.drop("id", "duplicate id")
			continue
		}

		date, ok := r.requiredTime("date")
		if !ok {
			continue
		}

		in := entities.NewTask{
			Title:           r.optionalString("title"),
			Description:     r.optionalString("description"),
			Date:            date,
			Completed:       r.optionalBool("completed"),
			ReminderEnabled: r.optionalBool("reminderEnabled"),
			ReminderTime:    r.optionalTime("reminderTime"),
			Tags:            r.optionalStrings("tags"),
		}
		if err := validate.Struct(in); err != nil {
			r.drop("title", err.Error())
			continue
		}

		seen[id] = struct{}{}
		tasks = append(tasks, in.Task(id))
	}

	return tasks, issues, nil
}

// decodeVoiceNotes parses the persisted voice note collection
func decodeVoiceNotes(data []byte, loc *time.Location) ([]entities.VoiceNote, []recordIssue, error) {
	elems, err := decodeArray(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode voice notes: %w", err)
	}

	var issues []recordIssue
	notes := make([]entities.VoiceNote, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))

	for i, elem := range elems {
		r, ok := newRecordReader(elem, i, loc, &issues)
		if !ok {
			continue
		}

		id, ok := r.requiredString("id")
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			r.drop("id", "duplicate id")
			continue
		}

		date, ok := r.requiredTime("date")
		if !ok {
			continue
		}

		in := entities.NewVoiceNote{
			Title:         r.optionalString("title"),
			RecordingURL:  r.optionalString("recordingUrl"),
			Transcription: r.optionalString("transcription"),
			Date:          date,
			Duration:      r.duration("duration"),
			TaskID:        r.optionalString("taskId"),
		}

		seen[id] = struct{}{}
		notes = append(notes, in.VoiceNote(id))
	}

	return notes, issues, nil
}

func decodeArray(data []byte) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	if elems == nil {
		// "null" is valid JSON but not a collection
		if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			return nil, fmt.Errorf("collection is null")
		}
	}
	return elems, nil
}

// recordReader extracts typed fields from one persisted JSON object and records
// every repair or drop it performs
type recordReader struct {
	fields map[string]json.RawMessage
	index  int
	loc    *time.Location
	issues *[]recordIssue
}

func newRecordReader(elem json.RawMessage, index int, loc *time.Location, issues *[]recordIssue) (recordReader, bool) {
	r := recordReader{index: index, loc: loc, issues: issues}
	if err := json.Unmarshal(elem, &r.fields); err != nil || r.fields == nil {
		r.drop("", "record is not an object")
		return r, false
	}
	return r, true
}

func (r recordReader) drop(field, reason string) {
	*r.issues = append(*r.issues, recordIssue{Index: r.index, Field: field, Action: "dropped", Reason: reason})
}

func (r recordReader) repair(field, reason string) {
	*r.issues = append(*r.issues, recordIssue{Index: r.index, Field: field, Action: "repaired", Reason: reason})
}

// raw returns the field value, treating JSON null as absent
func (r recordReader) raw(field string) (json.RawMessage, bool) {
	v, ok := r.fields[field]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func (r recordReader) requiredString(field string) (string, bool) {
	v, ok := r.raw(field)
	if !ok {
		r.drop(field, "missing")
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || s == "" {
		r.drop(field, "not a non-empty string")
		return "", false
	}
	return s, true
}

func (r recordReader) requiredTime(field string) (time.Time, bool) {
	v, ok := r.raw(field)
	if !ok {
		r.drop(field, "missing")
		return time.Time{}, false
	}
	t, err := parseTimestamp(v, r.loc)
	if err != nil {
		r.drop(field, err.Error())
		return time.Time{}, false
	}
	return t, true
}

func (r recordReader) optionalString(field string) string {
	v, ok := r.raw(field)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		r.repair(field, "not a string")
		return ""
	}
	return s
}

func (r recordReader) optionalBool(field string) bool {
	v, ok := r.raw(field)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		r.repair(field, "not a boolean")
		return false
	}
	return b
}

func (r recordReader) optionalTime(field string) *time.Time {
	v, ok := r.raw(field)
	if !ok {
		return nil
	}
	t, err := parseTimestamp(v, r.loc)
	if err != nil {
		r.repair(field, err.Error())
		return nil
	}
	return &t
}

func (r recordReader) optionalStrings(field string) []string {
	v, ok := r.raw(field)
	if !ok {
		return nil
	}
	var s []string
	if err := json.Unmarshal(v, &s); err != nil {
		r.repair(field, "not a string array")
		return nil
	}
	return s
}

func (r recordReader) duration(field string) int {
	v, ok := r.raw(field)
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		r.repair(field, "not a number")
		return 0
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		r.repair(field, "not a finite number")
		return 0
	case f < 0:
		r.repair(field, "negative duration")
		return 0
	case f > maxDuration:
		r.repair(field, "duration out of range")
		return 0
	}
	return int(f)
}

func parseTimestamp(v json.RawMessage, loc *time.Location) (time.Time, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp is not a string")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(localDateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
