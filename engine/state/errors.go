package state

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownQuest is wrapped when content references an undefined quest.
	ErrUnknownQuest = errors.New("unknown quest")
	// ErrUnknownVariable is wrapped when content reads an undefined variable.
	ErrUnknownVariable = errors.New("unknown variable")
)

// ContentError reports an authoring mistake: a condition, action or lookup
// referencing a quest or variable that does not exist. Hosts treat it as
// fatal for the run.
type ContentError struct {
	Quest    string
	Variable string // empty for ErrUnknownQuest
	Err      error
}

func (e *ContentError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("quest %q: %v", e.Quest, e.Err)
	}
	return fmt.Sprintf("quest %q: variable %q: %v", e.Quest, e.Variable, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// IsContentError reports whether err is or wraps a *ContentError.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}
