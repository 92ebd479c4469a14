package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator used by every handler
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Layouts accepted for dates sent by clients. Values without an offset are read
// in the server's configured timezone.
var (
	offsetLayouts = []string{time.RFC3339Nano}
	localLayouts  = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}
)

func parseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func parseOptionalDateTime(value *string, loc *time.Location) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDateTime(*value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// NullableString tells an explicit JSON null apart from an absent field
type NullableString struct {
	Value *string
	Set   bool
}

// UnmarshalJSON records that the field was present
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// CreateTaskRequest is the body of POST /tasks
type CreateTaskRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=2000"`
	Date            string   `json:"date" validate:"required"`
	Completed       bool     `json:"completed"`
	ReminderEnabled bool     `json:"reminderEnabled"`
	ReminderTime    *string  `json:"reminderTime"`
	Tags            []string `json:"tags" validate:"omitempty,dive,required,max=50"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:id. Absent fields are left
// untouched; reminderTime may be sent as null to clear it.
type UpdateTaskRequest struct {
	Title           *string        `json:"title" validate:"omitempty,max=200"`
	Description     *string        `json:"description" validate:"omitempty,max=2000"`
	Date            *string        `json:"date"`
	Completed       *bool          `json:"completed"`
	ReminderEnabled *bool          `json:"reminderEnabled"`
	ReminderTime    NullableString `json:"reminderTime"`
	Tags            *[]string      `json:"tags"`
}

// CreateVoiceNoteRequest is the body of POST /voice-notes
type CreateVoiceNoteRequest struct {
	Title         string  `json:"title" validate:"max=200"`
	RecordingURL  string  `json:"recordingUrl" validate:"max=2048"`
	Transcription string  `json:"transcription"`
	Date          *string `json:"date"`
	Duration      int     `json:"duration" validate:"gte=0"`
	TaskID        string  `json:"taskId"`
}

// MessageResponse carries a human-readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
