package ports

import (
	"context"
	"time"

	"github.com/calendarease/core/internal/domain/entities"
)

// TaskService interface for task and voice note operations
type TaskService interface {
	AddTask(ctx context.Context, task entities.NewTask) (entities.Task, error)
	UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (bool, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	GetTask(id string) (entities.Task, bool)
	GetTasksForDate(date time.Time) []entities.Task
	TasksWithReminders() []entities.Task
	Tasks() []entities.Task

	AddVoiceNote(ctx context.Context, note entities.NewVoiceNote) (entities.VoiceNote, error)
	DeleteVoiceNote(ctx context.Context, id string) (bool, error)
	GetVoiceNotesForTask(taskID string) []entities.VoiceNote
	VoiceNotes() []entities.VoiceNote
}
