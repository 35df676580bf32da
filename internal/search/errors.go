package search

import (
	"errors"
	"fmt"
)

// Fatal configuration errors. They are reported once, before any traversal.
var (
	ErrEmptyPattern   = errors.New("pattern must not be empty")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrRootNotFound   = errors.New("root path does not exist")
	ErrRootNotDir     = errors.New("root path is not a directory")
	ErrInvalidOption  = errors.New("invalid option")
)

// ConfigError wraps a fatal configuration error with the field it concerns.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErr(field, value string, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// IsConfigError reports whether err is a fatal configuration failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
