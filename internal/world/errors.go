// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

package world

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a persistent record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
