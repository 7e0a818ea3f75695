package queue

import (
	"errors"
	"fmt"

	"outreach/internal/services"
)

// ErrInvalidTransition marks a status change the transition table rejects.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change.
type TransitionError struct {
	ID   int64
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("item %d: %s -> %s is not a permitted transition", e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// storeError tags database failures as transient store unavailability.
func storeError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return services.Wrap(services.ErrStoreUnavailable, "queue", operation, "", err)
}
