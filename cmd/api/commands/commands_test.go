package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupFileStorage(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("STORAGE_FILE_PATH", filepath.Join(t.TempDir(), "calendarease.json"))
	t.Setenv("APP_TIMEZONE", "UTC")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func createdID(t *testing.T, out, prefix string) string {
	t.Helper()
	line := strings.TrimSpace(out)
	require.True(t, strings.HasPrefix(line, prefix), "unexpected output %q", out)
	return strings.Fields(strings.TrimPrefix(line, prefix))[0]
}

func TestTaskLifecycle(t *testing.T) {
	setupFileStorage(t)

	out, err := run(t, "task", "add", "--title", "Buy milk", "--date", "2024-05-01", "--tags", "home,shop")
	require.NoError(t, err)
	id := createdID(t, out, "Task created: ")

	out, err = run(t, "task", "list", "--date", "2024-05-01")
	require.NoError(t, err)
	require.Contains(t, out, "Buy milk")
	require.Contains(t, out, "home,shop")

	out, err = run(t, "task", "list", "--date", "2024-05-02")
	require.NoError(t, err)
	require.NotContains(t, out, "Buy milk")

	out, err = run(t, "task", "done", id)
	require.NoError(t, err)
	require.Contains(t, out, "completed: true")

	out, err = run(t, "note", "add", "--task", id, "--duration", "42")
	require.NoError(t, err)
	createdID(t, out, "Voice note created: ")

	out, err = run(t, "note", "list", "--task", id)
	require.NoError(t, err)
	require.Contains(t, out, "42s")

	out, err = run(t, "task", "rm", id)
	require.NoError(t, err)
	require.Contains(t, out, "(1 voice notes removed)")

	out, err = run(t, "note", "list")
	require.NoError(t, err)
	require.NotContains(t, out, id)

	_, err = run(t, "task", "rm", id)
	require.Error(t, err)
}

func TestTaskReminders(t *testing.T) {
	setupFileStorage(t)

	_, err := run(t, "task", "add", "--title", "later", "--date", "2024-05-09", "--reminder", "2024-05-09 08:00")
	require.NoError(t, err)
	_, err = run(t, "task", "add", "--title", "plain", "--date", "2024-05-01")
	require.NoError(t, err)
	_, err = run(t, "task", "add", "--title", "sooner", "--date", "2024-05-02", "--reminder", "2024-05-02 07:30")
	require.NoError(t, err)

	out, err := run(t, "task", "reminders")
	require.NoError(t, err)
	require.NotContains(t, out, "plain")
	require.Less(t, strings.Index(out, "sooner"), strings.Index(out, "later"))
}

func TestTaskAddValidation(t *testing.T) {
	setupFileStorage(t)

	_, err := run(t, "task", "add", "--title", "x", "--date", "someday")
	require.Error(t, err)

	_, err = run(t, "task", "add")
	require.Error(t, err)

	_, err = run(t, "note", "add", "--task", "missing")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "CalendarEase v"+Version)
}
