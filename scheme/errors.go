package scheme

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError is returned when a scheme key is unknown to a registry.
type NotFoundError struct {
	Name       string
	Candidates []string // set when a short name is ambiguous.
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("scheme: ambiguous name %q (%s)", e.Name, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("scheme: %q not found", e.Name)
}

// IsNotFound returns a boolean indicating whether the error is a not found error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e)
}

// PathError is returned when a dotted path cannot be followed on a scheme.
type PathError struct {
	Scheme string
	Path   []string
	Reason string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("scheme %s: path %q: %s", e.Scheme, strings.Join(e.Path, "."), e.Reason)
}

// IsPathError returns a boolean indicating whether the error is a path error.
func IsPathError(err error) bool {
	if err == nil {
		return false
	}
	var e *PathError
	return errors.As(err, &e)
}
