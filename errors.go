package mixer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Standard sentinel errors, matched by the typed errors below.
var (
	// ErrSchemeResolution is returned for unknown schemes and unknown fields.
	ErrSchemeResolution = errors.New("mixer: scheme resolution failed")

	// ErrPathResolution is returned when an override path or a MIX reference
	// cannot be followed.
	ErrPathResolution = errors.New("mixer: path resolution failed")

	// ErrDependencyCycle is wrapped by path errors of MIX references that
	// depend on each other.
	ErrDependencyCycle = errors.New("mixer: dependency cycle")

	// ErrDirectiveMisuse is returned when a directive is used where it is
	// structurally invalid.
	ErrDirectiveMisuse = errors.New("mixer: directive misuse")

	// ErrGeneratorGap matches warnings about field types without a generator.
	ErrGeneratorGap = errors.New("mixer: no generator")
)

// SchemeResolutionError is returned when a scheme identifier or a field name
// is unknown.
type SchemeResolutionError struct {
	Scheme string // Scheme identifier, or the scheme holding the field
	Field  string // Unknown field, empty for unknown schemes
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *SchemeResolutionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mixer: scheme %s has no field %q", e.Scheme, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("mixer: resolve scheme %v: %v", e.Scheme, e.Err)
	}
	return fmt.Sprintf("mixer: unknown scheme %v", e.Scheme)
}

// Unwrap returns the underlying error.
func (e *SchemeResolutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches SchemeResolutionError.
// This allows errors.Is(err, ErrSchemeResolution) to return true.
func (e *SchemeResolutionError) Is(err error) bool {
	return err == ErrSchemeResolution
}

// IsSchemeResolution returns true if the error is a SchemeResolutionError.
func IsSchemeResolution(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemeResolutionError
	return errors.As(err, &e) || errors.Is(err, ErrSchemeResolution)
}

// PathResolutionError is returned when an override path traverses a
// non-relation field, references a field absent from the target scheme, or
// when MIX references form a cycle.
type PathResolutionError struct {
	Scheme string   // Scheme the path starts from
	Path   []string // Path segments
	Reason string   // What went wrong
	Err    error    // Underlying error, e.g. ErrDependencyCycle
}

// Error returns the error string.
func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("mixer: scheme %s: path %q: %s", e.Scheme, strings.Join(e.Path, "__"), e.Reason)
}

// Unwrap returns the underlying error.
func (e *PathResolutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches PathResolutionError.
func (e *PathResolutionError) Is(err error) bool {
	return err == ErrPathResolution
}

// IsPathResolution returns true if the error is a PathResolutionError.
func IsPathResolution(err error) bool {
	if err == nil {
		return false
	}
	var e *PathResolutionError
	return errors.As(err, &e) || errors.Is(err, ErrPathResolution)
}

// DirectiveMisuseError is returned when a directive is used where it is
// structurally invalid, e.g. GUARD on a field or SELECT on a primitive.
type DirectiveMisuseError struct {
	Scheme string
	Field  string
	Kind   directive.Kind
	Reason string
}

// Error returns the error string.
func (e *DirectiveMisuseError) Error() string {
	return fmt.Sprintf("mixer: %s on %s.%s: %s", e.Kind, e.Scheme, e.Field, e.Reason)
}

// Is reports whether the target error matches DirectiveMisuseError.
func (e *DirectiveMisuseError) Is(err error) bool {
	return err == ErrDirectiveMisuse
}

// IsDirectiveMisuse returns true if the error is a DirectiveMisuseError.
func IsDirectiveMisuse(err error) bool {
	if err == nil {
		return false
	}
	var e *DirectiveMisuseError
	return errors.As(err, &e) || errors.Is(err, ErrDirectiveMisuse)
}

// GeneratorGapWarning reports a field type without a generator. It is not
// returned from blends: the field gets a placeholder value and the warning
// goes to the configured WarningHandler.
type GeneratorGapWarning struct {
	Scheme string
	Field  string
	Type   field.Type
}

// Error returns the warning string.
func (e *GeneratorGapWarning) Error() string {
	return fmt.Sprintf("mixer: no generator for %s.%s of type %s", e.Scheme, e.Field, e.Type)
}

// Is reports whether the target error matches GeneratorGapWarning.
func (e *GeneratorGapWarning) Is(err error) bool {
	return err == ErrGeneratorGap
}

// ConfigError is returned for invalid configuration options.
type ConfigError struct {
	Option string
	Err    error
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("mixer: invalid option %s: %v", e.Option, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}
