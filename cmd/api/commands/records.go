package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/calendarease/core/internal/adapters/storage"
	"github.com/calendarease/core/internal/application/services"
	"github.com/calendarease/core/internal/domain/entities"
	"github.com/calendarease/core/internal/infrastructure/config"
	"github.com/calendarease/core/internal/infrastructure/logger"
	"github.com/calendarease/core/internal/ports"
)

const (
	dayLayout      = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// session is a task store opened against the configured backend
type session struct {
	store *services.TaskStore
	kv    ports.KVStore
	log   *logger.Logger
	loc   *time.Location
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	// keep stdout for command output
	logCfg := cfg.Logger
	logCfg.Output = "stderr"
	logCfg.Level = "warn"
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	store, err := services.NewTaskStore(ctx, kv, log, services.WithLocation(cfg.App.Location()))
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &session{store: store, kv: kv, log: log, loc: cfg.App.Location()}, nil
}

func (s *session) Close() {
	s.kv.Close()
	s.log.Close()
}

func parseCLITime(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, dateTimeLayout, dayLayout} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or \"YYYY-MM-DD HH:MM\"", value)
}

// NewTaskCommand creates the task management command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
		Long:  "Create, list, complete and delete calendar tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			dateStr, _ := cmd.Flags().GetString("date")
			description, _ := cmd.Flags().GetString("description")
			reminderStr, _ := cmd.Flags().GetString("reminder")
			tags, _ := cmd.Flags().GetStringSlice("tags")

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			date := time.Now().In(s.loc)
			if dateStr != "" {
				if date, err = parseCLITime(dateStr, s.loc); err != nil {
					return err
				}
			}

			in := entities.NewTask{
				Title:       title,
				Description: description,
				Date:        date,
				Tags:        tags,
			}
			if reminderStr != "" {
				reminder, err := parseCLITime(reminderStr, s.loc)
				if err != nil {
					return err
				}
				in.ReminderEnabled = true
				in.ReminderTime = &reminder
			}

			task, err := s.store.AddTask(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Task created: %s\n", task.ID)
			return nil
		},
	}
	addCmd.Flags().String("title", "", "Task title (required)")
	addCmd.Flags().String("date", "", "Task date, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (default now)")
	addCmd.Flags().String("description", "", "Task description")
	addCmd.Flags().String("reminder", "", "Reminder time; enables the reminder")
	addCmd.Flags().StringSlice("tags", nil, "Comma-separated tags")
	addCmd.MarkFlagRequired("title")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			dateStr, _ := cmd.Flags().GetString("date")

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			tasks := s.store.Tasks()
			if dateStr != "" {
				date, err := time.ParseInLocation(dayLayout, dateStr, s.loc)
				if err != nil {
					return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr)
				}
				tasks = s.store.GetTasksForDate(date)
			}

			return printTasks(cmd.OutOrStdout(), tasks, s.loc)
		},
	}
	listCmd.Flags().String("date", "", "Only tasks on this day (YYYY-MM-DD)")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			completed := !undo
			updated, err := s.store.UpdateTask(cmd.Context(), args[0], entities.TaskPatch{Completed: &completed})
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("%w: %s", entities.ErrTaskNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Task %s completed: %t\n", args[0], completed)
			return nil
		},
	}
	doneCmd.Flags().Bool("undo", false, "Mark the task not completed")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task and its voice notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			removedNotes := len(s.store.GetVoiceNotesForTask(args[0]))
			deleted, err := s.store.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", entities.ErrTaskNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Task %s deleted (%d voice notes removed)\n", args[0], removedNotes)
			return nil
		},
	}

	remindersCmd := &cobra.Command{
		Use:   "reminders",
		Short: "List tasks with reminders, soonest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			return printTasks(cmd.OutOrStdout(), s.store.TasksWithReminders(), s.loc)
		},
	}

	taskCmd.AddCommand(addCmd, listCmd, doneCmd, rmCmd, remindersCmd)
	return taskCmd
}

// NewNoteCommand creates the voice note command
func NewNoteCommand() *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Voice note commands",
		Long:  "Save, list and delete voice notes",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Save a voice note",
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			url, _ := cmd.Flags().GetString("url")
			transcription, _ := cmd.Flags().GetString("transcription")
			duration, _ := cmd.Flags().GetInt("duration")
			taskID, _ := cmd.Flags().GetString("task")

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if taskID != "" {
				if _, ok := s.store.GetTask(taskID); !ok {
					return fmt.Errorf("%w: %s", entities.ErrTaskNotFound, taskID)
				}
			}

			note, err := s.store.AddVoiceNote(cmd.Context(), entities.NewVoiceNote{
				Title:         title,
				RecordingURL:  url,
				Transcription: transcription,
				Duration:      duration,
				TaskID:        taskID,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Voice note created: %s (%s)\n", note.ID, note.Title)
			return nil
		},
	}
	addCmd.Flags().String("title", "", "Note title (default built from the date)")
	addCmd.Flags().String("url", "", "Recording URL")
	addCmd.Flags().String("transcription", "", "Transcribed text")
	addCmd.Flags().Int("duration", 0, "Duration in seconds")
	addCmd.Flags().String("task", "", "Attach to this task ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List voice notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("task")

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			notes := s.store.VoiceNotes()
			if taskID != "" {
				notes = s.store.GetVoiceNotesForTask(taskID)
			}

			return printVoiceNotes(cmd.OutOrStdout(), notes, s.loc)
		},
	}
	listCmd.Flags().String("task", "", "Only notes attached to this task ID")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a voice note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			deleted, err := s.store.DeleteVoiceNote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("%w: %s", entities.ErrVoiceNoteNotFound, args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Voice note %s deleted\n", args[0])
			return nil
		},
	}

	noteCmd.AddCommand(addCmd, listCmd, rmCmd)
	return noteCmd
}

func printTasks(out io.Writer, tasks []entities.Task, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDONE\tREMINDER\tTITLE\tTAGS")
	for _, t := range tasks {
		reminder := "-"
		if t.ReminderEnabled {
			reminder = "on"
			if t.ReminderTime != nil {
				reminder = t.ReminderTime.In(loc).Format(dateTimeLayout)
			}
		}
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.In(loc).Format(dateTimeLayout), done, reminder, t.Title, strings.Join(t.Tags, ","))
	}
	return w.Flush()
}

func printVoiceNotes(out io.Writer, notes []entities.VoiceNote, loc *time.Location) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDURATION\tTASK\tTITLE")
	for _, n := range notes {
		task := n.TaskID
		if task == "" {
			task = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%ds\t%s\t%s\n",
			n.ID, n.Date.In(loc).Format(dateTimeLayout), n.Duration, task, n.Title)
	}
	return w.Flush()
}
