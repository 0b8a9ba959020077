package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned when a task does not exist
	ErrTaskNotFound = errors.New("logistics task not found")

	// ErrTaskAlreadyAssigned is returned when accepting a task another courier took first
	ErrTaskAlreadyAssigned = errors.New("task already assigned to a courier")

	// ErrNotAssignedCourier is returned when a courier acts on someone else's task
	ErrNotAssignedCourier = errors.New("caller is not the assigned courier")

	// ErrTaskStateConflict is returned when a conditional task transition matched no
	// row: the task is not in the expected status.
	ErrTaskStateConflict = errors.New("task state conflict")

	// ErrEvidenceRequired is returned when a transition is attempted without photos
	ErrEvidenceRequired = errors.New("evidence photos required")
)

// NewTaskStateConflictError creates an error with transition details
func NewTaskStateConflictError(taskID uuid.UUID, expected TaskStatus) error {
	return fmt.Errorf("%w: task_id=%s, expected=%s", ErrTaskStateConflict, taskID, expected)
}

// IsStateConflictError checks if error is a task state conflict
func IsStateConflictError(err error) bool {
	return errors.Is(err, ErrTaskStateConflict) || errors.Is(err, ErrTaskAlreadyAssigned)
}

// IsAuthorizationError checks if error is a courier ownership error
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotAssignedCourier)
}
