package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every FormatError.
	ErrFormat = errors.New("format error")
	// ErrIO matches every IOError.
	ErrIO = errors.New("i/o error")
	// ErrConfig matches every ConfigError.
	ErrConfig = errors.New("config error")
)

// FormatError reports a file that is absent, unreadable or fails schema validation.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid file %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IOError reports a failure to create, read or write a file.
type IOError struct {
	Op   string // "write report", "write bookmarks", ...
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Value, e.Key, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }
