package config

import (
	"fmt"
	"strings"

	"bootmatch/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks a loaded configuration.
func Validate(c Config) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(c.ConfigDir) == "" {
		errs.Add("configDir", "is required")
	}
	if strings.TrimSpace(c.LockFile) == "" {
		errs.Add("lockFile", "is required")
	}
	if c.LockInterval < 0 {
		errs.Add("lockInterval", "cannot be negative", c.LockInterval)
	}
	if c.LockWarnEvery < 0 {
		errs.Add("lockWarnEvery", "cannot be negative", c.LockWarnEvery)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", err.Error(), c.LogLevel)
	}

	switch c.Store.Backend {
	case StoreBackendFile:
	case StoreBackendSQLite:
		if c.Store.SQLitePath == "" {
			errs.Add("store.sqlitePath", "is required for the sqlite backend")
		}
	default:
		errs.Add("store.backend", fmt.Sprintf("must be %q or %q", StoreBackendFile, StoreBackendSQLite), c.Store.Backend)
	}

	if c.PXE.Enabled && c.PXE.Command == "" {
		errs.Add("pxe.command", "is required when pxe is enabled")
	}

	return errs
}
