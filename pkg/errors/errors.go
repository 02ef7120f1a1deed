// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import "fmt"

// ZcloneError is the coded error type used across the daemon. Metadata
// carries contextual values (command output, snapshot names) for logging.
type ZcloneError struct {
	Code     ErrorCode         `json:"code"`
	Domain   Domain            `json:"domain"`
	Message  string            `json:"message"`
	Details  string            `json:"details,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	cause error
}

func (e *ZcloneError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

func (e *ZcloneError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the error for chaining.
func (e *ZcloneError) WithMetadata(key, value string) *ZcloneError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// New creates a coded error with additional detail text.
func New(code ErrorCode, details string) *ZcloneError {
	def, ok := errorDefinitions[code]
	if !ok {
		def = errorDefinition{message: "Unknown error", domain: DomainMisc}
	}
	return &ZcloneError{
		Code:    code,
		Domain:  def.domain,
		Message: def.message,
		Details: details,
	}
}

// Wrap converts err into a coded error, preserving the cause chain. An
// already-coded error keeps its original code.
func Wrap(err error, code ErrorCode) *ZcloneError {
	if err == nil {
		return nil
	}
	if ze, ok := err.(*ZcloneError); ok {
		return ze
	}
	ze := New(code, err.Error())
	ze.cause = err
	return ze
}

// NewCommandError reports a failed command with its exit status.
func NewCommandError(cmd string, exitCode int, output string) *ZcloneError {
	code := ErrorCode(CommandExecution)
	if exitCode == -1 {
		code = CommandNotFound
	}
	return New(code, output).
		WithMetadata("command", cmd).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode))
}

// IsZcloneError checks whether err is a coded error.
func IsZcloneError(err error) bool {
	_, ok := err.(*ZcloneError)
	return ok
}

// GetErrorCode extracts the code from err, or -1 for foreign errors.
func GetErrorCode(err error) ErrorCode {
	if ze, ok := err.(*ZcloneError); ok {
		return ze.Code
	}
	return -1
}

// HasCode reports whether err is a coded error with the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
