package service

import (
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrNotFound, fmt.Sprintf(format, args...))
}

func permissionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrPermission, fmt.Sprintf(format, args...))
}

func conflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrConflict, fmt.Sprintf(format, args...))
}

func invalidStateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidState, fmt.Sprintf(format, args...))
}

func parseError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrParse, fmt.Sprintf(format, args...))
}
