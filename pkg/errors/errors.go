package errors

import (
	"errors"
	"fmt"
)

// Common pipeline errors
var (
	ErrInsufficientData         = errors.New("insufficient data for analysis")
	ErrInvalidDecompositionMode = errors.New("invalid decomposition mode for input data")
	ErrModelFit                 = errors.New("model fit failed")
	ErrHorizonTooLong           = errors.New("forecast horizon exceeds policy limit")
	ErrInvalidInputData         = errors.New("invalid input data")
	ErrInvalidConfiguration     = errors.New("invalid configuration")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeData          ErrorType = "data"
	ErrorTypeDecomposition ErrorType = "decomposition"
	ErrorTypeModel         ErrorType = "model"
	ErrorTypeForecast      ErrorType = "forecast"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewInsufficientDataError creates an error for series below the minimum
// number of valid intervals.
func NewInsufficientDataError(details string) *AppError {
	return &AppError{
		Type:    ErrorTypeData,
		Code:    CodeInsufficientData,
		Message: "not enough clean intervals for analysis",
		Details: details,
		Cause:   ErrInsufficientData,
	}
}

// NewInvalidDecompositionModeError creates an error for multiplicative
// decomposition requested on non-positive data.
func NewInvalidDecompositionModeError(details string) *AppError {
	return &AppError{
		Type:    ErrorTypeDecomposition,
		Code:    CodeInvalidDecompositionMode,
		Message: "multiplicative decomposition requires strictly positive data",
		Details: details,
		Cause:   ErrInvalidDecompositionMode,
	}
}

// NewModelFitError creates an error for singular or underdetermined fits.
func NewModelFitError(details string) *AppError {
	return &AppError{
		Type:    ErrorTypeModel,
		Code:    CodeModelFit,
		Message: "autoregressive model fit failed",
		Details: details,
		Cause:   ErrModelFit,
	}
}

// NewHorizonTooLongError creates an error for forecast horizons beyond the
// configured maximum.
func NewHorizonTooLongError(horizon, maxHorizon int) *AppError {
	return &AppError{
		Type:    ErrorTypeForecast,
		Code:    CodeHorizonTooLong,
		Message: "forecast horizon exceeds policy limit",
		Details: fmt.Sprintf("requested %d steps, maximum %d", horizon, maxHorizon),
		Cause:   ErrHorizonTooLong,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return NewAppError(ErrorTypeValidation, code, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// IsInsufficientData reports whether err is an insufficient-data error.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

// IsInvalidDecompositionMode reports whether err is an invalid decomposition
// mode error.
func IsInvalidDecompositionMode(err error) bool {
	return errors.Is(err, ErrInvalidDecompositionMode)
}

// IsModelFit reports whether err is a model fit error.
func IsModelFit(err error) bool {
	return errors.Is(err, ErrModelFit)
}

// IsHorizonTooLong reports whether err is a horizon policy error.
func IsHorizonTooLong(err error) bool {
	return errors.Is(err, ErrHorizonTooLong)
}

// Error codes for different error scenarios
const (
	CodeInsufficientData         = "INSUFFICIENT_DATA"
	CodeInvalidDecompositionMode = "INVALID_DECOMPOSITION_MODE"
	CodeModelFit                 = "MODEL_FIT_ERROR"
	CodeHorizonTooLong           = "HORIZON_TOO_LONG"

	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingField     = "MISSING_FIELD"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeOutOfRange       = "OUT_OF_RANGE"
	CodeInvalidTimeRange = "INVALID_TIME_RANGE"

	CodeConfigurationLoad = "CONFIGURATION_LOAD"
	CodeInternalError     = "INTERNAL_ERROR"
)
