package errorx

import (
	"errors"
	"fmt"
)

// GENERAL ERROR:

// GeneralError - General App Error.
type GeneralError struct {
	message string
	err     error
}

// NewGeneralError - GeneralError constructor.
func NewGeneralError(msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewGeneralErrorWrapper - GeneralError constructor for wrapper of another error.
func NewGeneralErrorWrapper(err error, msg string, args ...any) *GeneralError {
	return &GeneralError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *GeneralError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s # Error wrap: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// DATABASE ERROR

// DatabaseError - Error raised by query execution or by the physical
// commit/rollback on a connection.
type DatabaseError struct {
	message string
	err     error
}

// NewDatabaseError - DatabaseError constructor.
func NewDatabaseError(msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewDatabaseErrorWrapper - DatabaseError constructor for wrapper of another error.
func NewDatabaseErrorWrapper(err error, msg string, args ...any) *DatabaseError {
	return &DatabaseError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *DatabaseError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// Unwrap - return the wrapped error.
func (ge *DatabaseError) Unwrap() error {
	return ge.err
}

// CONFIGURATION ERROR

// ConfigurationError - Error raised while configuring a query execution,
// before any I/O happens: mixing parameter binding modes, wrong value
// counts, missing parameter names, no connection available.
type ConfigurationError struct {
	message string
	err     error
}

// NewConfigurationError - ConfigurationError constructor.
func NewConfigurationError(msg string, args ...any) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(msg, args...), err: nil}
}

// NewConfigurationErrorWrapper - ConfigurationError constructor for wrapper of another error.
func NewConfigurationErrorWrapper(err error, msg string, args ...any) *ConfigurationError {
	return &ConfigurationError{message: fmt.Sprintf(msg, args...), err: err}
}

// Error - return the error string.
func (ge *ConfigurationError) Error() string {
	if ge.err != nil {
		return fmt.Errorf("%s: %w", ge.message, ge.err).Error()
	}

	return ge.message
}

// Unwrap - return the wrapped error.
func (ge *ConfigurationError) Unwrap() error {
	return ge.err
}

// IsConfigurationError reports whether err is a ConfigurationError anywhere
// in its chain.
func IsConfigurationError(err error) bool {
	var confErr *ConfigurationError
	return errors.As(err, &confErr)
}
