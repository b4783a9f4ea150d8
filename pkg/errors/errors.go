package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrPermission    ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Format errors
	ErrFormatUnknown ErrorCode = "FORMAT_UNKNOWN"
	ErrHeaderParse   ErrorCode = "HEADER_PARSE"
	ErrDataRead      ErrorCode = "DATA_READ"
	ErrCodec         ErrorCode = "CODEC"

	// Model errors
	ErrModelInvalid ErrorCode = "MODEL_INVALID"

	// Conversion errors
	ErrConvert ErrorCode = "CONVERT"

	// Installation errors
	ErrInstall      ErrorCode = "INSTALL"
	ErrMetaInvalid  ErrorCode = "META_INVALID"
	ErrOpExecute    ErrorCode = "OP_EXECUTE"

	// Inventory errors
	ErrInventory ErrorCode = "INVENTORY"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileCreate   ErrorCode = "FILE_CREATE"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// DifftbxError represents a structured error with code and details
type DifftbxError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DifftbxError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DifftbxError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DifftbxError) Is(target error) bool {
	var targetErr *DifftbxError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DifftbxError with the given code and message
func New(code ErrorCode, message string) *DifftbxError {
	return &DifftbxError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DifftbxError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DifftbxError {
	return &DifftbxError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DifftbxError
func Wrap(err error, code ErrorCode, message string) *DifftbxError {
	if err == nil {
		return nil
	}
	return &DifftbxError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DifftbxError {
	if err == nil {
		return nil
	}
	return &DifftbxError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DifftbxError) WithDetail(key string, value interface{}) *DifftbxError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DifftbxError) WithDetails(details map[string]interface{}) *DifftbxError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var derr *DifftbxError
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DifftbxError
func GetErrorCode(err error) ErrorCode {
	var derr *DifftbxError
	if errors.As(err, &derr) {
		return derr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DifftbxError
func GetErrorDetails(err error) map[string]interface{} {
	var derr *DifftbxError
	if errors.As(err, &derr) {
		return derr.Details
	}
	return nil
}
