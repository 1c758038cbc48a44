package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeEngineError      = "ENGINE_ERROR"
	CodeResolution       = "RESOLUTION_ERROR"
	CodeSource           = "SOURCE_ERROR"
	CodeCache            = "CACHE_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeValidation       = "VALIDATION_ERROR"
)

type EngineError struct {
	Message string
	Code    string
	Context map[string]any
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

func NewEngineError(message, code string, context map[string]any) *EngineError {
	return &EngineError{
		Message: message,
		Code:    code,
		Context: context,
	}
}

func (e *EngineError) engineError() *EngineError {
	return e
}

// coded matches EngineError and every typed error embedding it
type coded interface {
	engineError() *EngineError
}

// CodeOf returns the code of the first engine error in err's chain, or "".
func CodeOf(err error) string {
	var c coded
	if stderrors.As(err, &c) {
		return c.engineError().Code
	}
	return ""
}

// ResolutionError reports that an account's channels could not be determined
type ResolutionError struct {
	*EngineError
	AccountID string
}

func NewResolutionError(message, accountID string, cause error) *ResolutionError {
	return &ResolutionError{
		EngineError: &EngineError{
			Message: message,
			Code:    CodeResolution,
			Context: map[string]any{
				"account_id": accountID,
			},
			Cause: cause,
		},
		AccountID: accountID,
	}
}

// SourceError reports a failed read for one analytics source (channel or video set)
type SourceError struct {
	*EngineError
	Component   string
	AnalyticsID string
}

func NewSourceError(message, component, analyticsID string, cause error) *SourceError {
	return &SourceError{
		EngineError: &EngineError{
			Message: message,
			Code:    CodeSource,
			Context: map[string]any{
				"component":    component,
				"analytics_id": analyticsID,
			},
			Cause: cause,
		},
		Component:   component,
		AnalyticsID: analyticsID,
	}
}

type CacheError struct {
	*EngineError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		EngineError: &EngineError{
			Message: message,
			Code:    CodeCache,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// ErrStoreUnavailable is returned while the store circuit breaker is open
var ErrStoreUnavailable = NewEngineError("analytics store unavailable", CodeStoreUnavailable, nil)

type ValidationError struct {
	*EngineError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		EngineError: &EngineError{
			Message: message,
			Code:    CodeValidation,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}
