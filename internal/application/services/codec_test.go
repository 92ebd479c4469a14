package services

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendarease/core/internal/domain/entities"
)

func TestDecodeTasks_NotAnArray(t *testing.T) {
	for name, input := range map[string]string{
		"object":  `{"id":"1"}`,
		"garbage": `not json`,
		"null":    `null`,
		"number":  `42`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := decodeTasks([]byte(input), validator.New(), time.UTC)
			require.Error(t, err)
		})
	}
}

func TestDecodeTasks_AcceptsJavaScriptTimestamps(t *testing.T) {
	data := []byte(`[
		{"id":"a","title":"iso","date":"2024-05-01T10:20:30.000Z","completed":true,"reminderEnabled":false},
		{"id":"b","title":"date only","date":"2024-05-02"},
		{"id":"c","title":"no zone","date":"2024-05-03T07:00:00"},
		{"id":"d","title":"offset","date":"2024-05-04T02:00:00+02:00"}
	]`)

	tasks, issues, err := decodeTasks(data, validator.New(), time.UTC)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, tasks, 4)

	assert.Equal(t, time.Date(2024, 5, 1, 10, 20, 30, 0, time.UTC), tasks[0].Date)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), tasks[1].Date)
	assert.Equal(t, time.Date(2024, 5, 3, 7, 0, 0, 0, time.UTC), tasks[2].Date)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), tasks[3].Date)
}

func TestDecodeTasks_NaiveDateTimeUsesLocation(t *testing.T) {
	tz := time.FixedZone("UTC+3", 3*60*60)
	data := []byte(`[
		{"id":"a","title":"naive","date":"2024-05-03T07:00:00"},
		{"id":"b","title":"date only","date":"2024-05-02"},
		{"id":"c","title":"utc","date":"2024-05-01T10:00:00Z"}
	]`)

	tasks, issues, err := decodeTasks(data, validator.New(), tz)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, tasks, 3)

	assert.Equal(t, time.Date(2024, 5, 3, 4, 0, 0, 0, time.UTC), tasks[0].Date)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), tasks[1].Date)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), tasks[2].Date)
}

func TestDecodeTasks_DropsInvalidRecords(t *testing.T) {
	data := []byte(`[
		"not an object",
		{"title":"no id","date":"2024-05-01"},
		{"id":"","title":"empty id","date":"2024-05-01"},
		{"id":"1","date":"2024-05-01"},
		{"id":"2","title":"","date":"2024-05-01"},
		{"id":"3","title":"bad date","date":"yesterday"},
		{"id":"4","title":"no date"},
		{"id":"5","title":"kept","date":"2024-05-01"},
		{"id":"5","title":"duplicate","date":"2024-05-01"}
	]`)

	tasks, issues, err := decodeTasks(data, validator.New(), time.UTC)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "kept", tasks[0].Title)

	require.Len(t, issues, 8)
	for _, is := range issues {
		assert.Equal(t, "dropped", is.Action)
	}
	assert.Equal(t, 8, issues[7].Index)
	assert.Equal(t, "id", issues[7].Field)
}

func TestDecodeTasks_RepairsOptionalFields(t *testing.T) {
	data := []byte(`[{
		"id":"1",
		"title":"repair me",
		"description":7,
		"date":"2024-05-01T09:00:00Z",
		"completed":"yes",
		"reminderEnabled":1,
		"reminderTime":"later",
		"tags":"work"
	}]`)

	tasks, issues, err := decodeTasks(data, validator.New(), time.UTC)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "", task.Description)
	assert.False(t, task.Completed)
	assert.False(t, task.ReminderEnabled)
	assert.Nil(t, task.ReminderTime)
	assert.Nil(t, task.Tags)

	fields := make([]string, 0, len(issues))
	for _, is := range issues {
		assert.Equal(t, "repaired", is.Action)
		assert.Equal(t, 0, is.Index)
		fields = append(fields, is.Field)
	}
	assert.ElementsMatch(t, []string{"description", "completed", "reminderEnabled", "reminderTime", "tags"}, fields)
}

func TestDecodeTasks_NullOptionalFields(t *testing.T) {
	data := []byte(`[{"id":"1","title":"t","date":"2024-05-01","reminderTime":null,"description":null}]`)

	tasks, issues, err := decodeTasks(data, validator.New(), time.UTC)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].ReminderTime)
}

func TestDecodeVoiceNotes_RepairsFields(t *testing.T) {
	data := []byte(`[
		{"id":"a","date":"2024-05-01T14:05:00Z","duration":-3,"taskId":12,"recordingUrl":false},
		{"id":"b","title":"float","date":"2024-05-01T14:05:00Z","duration":12.9,"transcription":"hi"},
		{"id":"c","title":"bad","date":"2024-05-01T14:05:00Z","duration":"long"},
		{"id":"d","title":"no date"}
	]`)

	notes, issues, err := decodeVoiceNotes(data, time.UTC)
	require.NoError(t, err)
	require.Len(t, notes, 3)

	assert.Equal(t, entities.DefaultVoiceNoteTitle(time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC)), notes[0].Title)
	assert.Equal(t, 0, notes[0].Duration)
	assert.Empty(t, notes[0].TaskID)
	assert.Empty(t, notes[0].RecordingURL)

	assert.Equal(t, 12, notes[1].Duration)
	assert.Equal(t, "hi", notes[1].Transcription)

	assert.Equal(t, 0, notes[2].Duration)

	var dropped int
	for _, is := range issues {
		if is.Action == "dropped" {
			dropped++
			assert.Equal(t, 3, is.Index)
			assert.Equal(t, "date", is.Field)
		}
	}
	assert.Equal(t, 1, dropped)
}

func TestDecodeVoiceNotes_OutOfRangeDuration(t *testing.T) {
	data := []byte(`[
		{"id":"a","title":"huge","date":"2024-05-01T14:05:00Z","duration":1e19},
		{"id":"b","title":"overflow","date":"2024-05-01T14:05:00Z","duration":1e400},
		{"id":"c","title":"max","date":"2024-05-01T14:05:00Z","duration":2147483647}
	]`)

	notes, issues, err := decodeVoiceNotes(data, time.UTC)
	require.NoError(t, err)
	require.Len(t, notes, 3)

	assert.Equal(t, 0, notes[0].Duration)
	assert.Equal(t, 0, notes[1].Duration)
	assert.Equal(t, 2147483647, notes[2].Duration)

	require.Len(t, issues, 2)
	for _, is := range issues {
		assert.Equal(t, "repaired", is.Action)
		assert.Equal(t, "duration", is.Field)
	}
}

func TestEncodeNilCollections(t *testing.T) {
	data, err := encodeTasks(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = encodeVoiceNotes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reminder := time.Date(2024, 5, 1, 8, 0, 0, 500, time.UTC)
	tasks := []entities.Task{
		{ID: "1", Title: "a", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), ReminderEnabled: true, ReminderTime: &reminder, Tags: []string{"x"}},
		{ID: "2", Title: "b", Description: "d", Date: time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC), Completed: true},
	}

	data, err := encodeTasks(tasks)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2024-05-01T00:00:00Z"`)

	got, issues, err := decodeTasks(data, validator.New(), time.UTC)
	require.NoError(t, err)
	require.Empty(t, issues)
	assert.Equal(t, tasks, got)
}
