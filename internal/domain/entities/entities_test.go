package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calendarease/core/internal/domain/entities"
)

func TestSameDay(t *testing.T) {
	plus3 := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{"same instant", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"different times", time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC), true},
		{"next day", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC), false},
		{"same day another year", time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"judged in b's location", time.Date(2024, 4, 30, 22, 0, 0, 0, time.UTC), time.Date(2024, 5, 1, 0, 0, 0, 0, plus3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entities.SameDay(tt.a, tt.b))
		})
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	reminder := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	base := entities.Task{
		ID:              "1",
		Title:           "Original",
		Description:     "desc",
		Date:            time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ReminderEnabled: true,
		ReminderTime:    &reminder,
		Tags:            []string{"a"},
	}

	t.Run("empty patch", func(t *testing.T) {
		patch := entities.TaskPatch{}
		require.True(t, patch.IsEmpty())
		assert.Equal(t, base, patch.Apply(base))
	})

	t.Run("named fields only", func(t *testing.T) {
		title := "Renamed"
		loc := time.FixedZone("X", 3600)
		date := time.Date(2024, 6, 1, 1, 0, 0, 0, loc)

		got := entities.TaskPatch{Title: &title, Date: &date}.Apply(base)

		want := base
		want.Title = "Renamed"
		want.Date = date.UTC()
		assert.Equal(t, want, got)
		assert.Equal(t, time.UTC, got.Date.Location())
	})

	t.Run("clear nullable fields", func(t *testing.T) {
		patch := entities.TaskPatch{ReminderTimeSet: true, TagsSet: true}
		require.False(t, patch.IsEmpty())

		got := patch.Apply(base)
		assert.Nil(t, got.ReminderTime)
		assert.Nil(t, got.Tags)
		assert.NotNil(t, base.ReminderTime)
	})
}

func TestNewTask_Task(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	reminder := time.Date(2024, 5, 1, 8, 0, 0, 0, loc)
	tags := []string{"home"}

	task := entities.NewTask{
		Title:        "Laundry",
		Date:         time.Date(2024, 5, 1, 20, 0, 0, 0, loc),
		ReminderTime: &reminder,
		Tags:         tags,
	}.Task("abc")

	assert.Equal(t, "abc", task.ID)
	assert.Equal(t, time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC), task.Date)
	require.NotNil(t, task.ReminderTime)
	assert.Equal(t, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), *task.ReminderTime)

	tags[0] = "changed"
	assert.Equal(t, []string{"home"}, task.Tags)
}

func TestNewVoiceNote_DefaultTitle(t *testing.T) {
	at := time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC)

	note := entities.NewVoiceNote{Date: at, Duration: 10}.VoiceNote("n1")
	assert.Equal(t, "Voice note from 24.12.2024 18:30", note.Title)

	note = entities.NewVoiceNote{Title: "Named", Date: at}.VoiceNote("n2")
	assert.Equal(t, "Named", note.Title)
}

func TestTask_CloneIsDeep(t *testing.T) {
	reminder := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	task := entities.Task{ID: "1", ReminderTime: &reminder, Tags: []string{"a"}}

	clone := task.Clone()
	clone.Tags[0] = "b"
	*clone.ReminderTime = reminder.Add(time.Hour)

	assert.Equal(t, []string{"a"}, task.Tags)
	assert.Equal(t, reminder, *task.ReminderTime)
}

func TestTask_InputRoundTrip(t *testing.T) {
	reminder := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	task := entities.Task{
		ID:              "1",
		Title:           "Call",
		Description:     "d",
		Date:            time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Completed:       true,
		ReminderEnabled: true,
		ReminderTime:    &reminder,
		Tags:            []string{"a"},
	}

	require.Equal(t, task, task.Input().Task("1"))
}
