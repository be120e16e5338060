package months

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Actions accepted by the months form.
const (
	ActionCreate      = "create"
	ActionOpen        = "open"
	ActionClose       = "close"
	ActionUpdateNotes = "update_notes"
)

// ErrUnknownAction is returned for an unrecognised action field.
var ErrUnknownAction = errors.New("months: unknown action")

// Command is a parsed months form submission. It is one of CreateCommand, OpenCommand,
// CloseCommand or UpdateNotesCommand.
type Command interface {
	Action() string
}

// CreateCommand creates a closed period.
type CreateCommand struct {
	Year  int
	Month int
	Notes string
}

// OpenCommand opens a period and archives the prior month.
type OpenCommand struct {
	ID int64
}

// CloseCommand closes a period.
type CloseCommand struct {
	ID int64
}

// UpdateNotesCommand replaces a period's notes.
type UpdateNotesCommand struct {
	ID    int64
	Notes string
}

func (CreateCommand) Action() string      { return ActionCreate }
func (OpenCommand) Action() string        { return ActionOpen }
func (CloseCommand) Action() string       { return ActionClose }
func (UpdateNotesCommand) Action() string { return ActionUpdateNotes }

// ParseCommand turns posted form values into a Command.
func ParseCommand(form url.Values) (Command, error) {
	action := strings.TrimSpace(form.Get("action"))
	switch action {
	case ActionCreate:
		var problems []string
		year, err := strconv.Atoi(strings.TrimSpace(form.Get("year")))
		if err != nil {
			problems = append(problems, "year must be a number")
		}
		month, err := strconv.Atoi(strings.TrimSpace(form.Get("month")))
		if err != nil {
			problems = append(problems, "month must be a number")
		}
		if len(problems) > 0 {
			return nil, &ValidationError{Problems: problems}
		}
		return CreateCommand{Year: year, Month: month, Notes: strings.TrimSpace(form.Get("notes"))}, nil
	case ActionOpen, ActionClose, ActionUpdateNotes:
		id, err := strconv.ParseInt(strings.TrimSpace(form.Get("id")), 10, 64)
		if err != nil || id <= 0 {
			return nil, &ValidationError{Problems: []string{"period id is required"}}
		}
		switch action {
		case ActionOpen:
			return OpenCommand{ID: id}, nil
		case ActionClose:
			return CloseCommand{ID: id}, nil
		default:
			return UpdateNotesCommand{ID: id, Notes: strings.TrimSpace(form.Get("notes"))}, nil
		}
	default:
		return nil, ErrUnknownAction
	}
}
