package scheduling

import (
	"fmt"

	"nutrisched/backend/internal/domain"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// InvalidTransitionError reports a status change that is not a legal edge
// in the appointment lifecycle.
type InvalidTransitionError struct {
	From domain.Status
	To   domain.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition appointment from %s to %s", e.From, e.To)
}
