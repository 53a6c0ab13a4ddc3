package models

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers. Cache corruption is deliberately absent:
// it is recovered locally by regenerating the entry and never propagates.
var (
	// ErrMissingArgument means a required fetch parameter was omitted.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrSourceNotFound means no input file matches the expected pattern.
	ErrSourceNotFound = errors.New("no matching input source found")
)

// SchemaError reports a required column that is absent from a source sheet
// and has no declared default.
type SchemaError struct {
	Sheet  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sheet %q: required column %q not found", e.Sheet, e.Column)
}

// ConfigurationError reports an invalid configuration value, e.g. a negative
// merge tolerance.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}
