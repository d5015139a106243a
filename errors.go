package batch2d

import (
	"errors"
	"strings"
)

// Error taxonomy. Use errors.Is to test for a class of failure and
// errors.As to recover the details.
var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("batch2d: invalid configuration")

	// ErrCompilation is matched by every *CompilationError.
	ErrCompilation = errors.New("batch2d: program compilation failed")
)

// ConfigurationError reports a setup mistake detected while building a
// renderer or program: an unknown vertex attribute, a texture-unit count
// the device cannot provide, a non-positive capacity.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Op == "" {
		return "batch2d: invalid configuration: " + e.Reason
	}
	return "batch2d: " + e.Op + ": " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// CompilationError carries the diagnostic log reported by the device or
// shader validator when a program fails to compile or link.
type CompilationError struct {
	// Stage is "vertex", "fragment" or "link".
	Stage string
	Label string
	Log   string
}

func (e *CompilationError) Error() string {
	var b strings.Builder
	b.WriteString("batch2d: compile ")
	if e.Label != "" {
		b.WriteString(e.Label)
		b.WriteByte(' ')
	}
	b.WriteString(e.Stage)
	b.WriteString(" stage failed")
	if e.Log != "" {
		b.WriteString(": ")
		b.WriteString(e.Log)
	}
	return b.String()
}

// Is reports whether target is ErrCompilation.
func (e *CompilationError) Is(target error) bool {
	return target == ErrCompilation
}

// NewConfigurationError returns a *ConfigurationError for op.
func NewConfigurationError(op, reason string) error {
	return &ConfigurationError{Op: op, Reason: reason}
}
