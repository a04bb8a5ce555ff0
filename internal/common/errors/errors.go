// Package errors provides standardized error handling for the intent and
// catalog workers, including the BPMN error mapping used by Zeebe jobs.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Intent extraction errors
	ErrCodeResponseFormatInvalid  ErrorCode = "RESPONSE_FORMAT_INVALID"
	ErrCodeIntentValidationFailed ErrorCode = "INTENT_VALIDATION_FAILED"

	// Graph store errors
	ErrCodeGraphConnectionFailed ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeGraphQueryFailed      ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeGraphQueryTimeout     ErrorCode = "GRAPH_QUERY_TIMEOUT"
	ErrCodeInvalidQueryType      ErrorCode = "INVALID_QUERY_TYPE"

	// LLM transport errors
	ErrCodeLLMCallFailed    ErrorCode = "LLM_CALL_FAILED"
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"
	ErrCodePromptNotFound   ErrorCode = "PROMPT_NOT_FOUND"
	ErrCodeActionMatchEmpty ErrorCode = "ACTION_MATCH_EMPTY"

	// Workflow engine errors
	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewFormatError reports model output that is not a single well-formed JSON
// object. Not retryable: re-sending the same prompt would not change the reply.
func NewFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseFormatInvalid,
		Message:   "Model output is not a single valid JSON object",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports a syntactically valid response that violates an
// intent-record invariant (bad id pattern, duplicate id, missing reason, ...).
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentValidationFailed,
		Message:   "Intent candidate validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError reports a failed or type-inconsistent graph store query.
func NewStorageError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGraphQueryFailed,
		Message:   "Graph store query failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGraphConnectionFailedError creates a retryable graph connection error.
func NewGraphConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGraphConnectionFailed,
		Message:   "Graph store connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGraphQueryTimeoutError creates a retryable graph query timeout error.
func NewGraphQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGraphQueryTimeout,
		Message:   "Graph store query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidQueryTypeError creates a non-retryable invalid query type error.
func NewInvalidQueryTypeError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryType,
		Message:   "Unsupported catalog query type",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMCallFailedError creates a retryable LLM transport error.
func NewLLMCallFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "LLM provider call failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM provider call timeout",
		Details:   fmt.Sprintf("provider: %s", provider),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError creates a retryable workflow engine transport error.
func NewBrokerUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   "Workflow engine unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerTimeoutError creates a retryable workflow engine timeout error.
func NewBrokerTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerTimeout,
		Message:   "Workflow engine request timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPromptNotFoundError creates a non-retryable missing template error.
func NewPromptNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptNotFound,
		Message:   "Prompt template not found",
		Details:   fmt.Sprintf("template: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Classification
// ==========================

// IsFormatError reports whether err carries RESPONSE_FORMAT_INVALID.
func IsFormatError(err error) bool {
	return hasCode(err, ErrCodeResponseFormatInvalid)
}

// IsValidationError reports whether err carries INTENT_VALIDATION_FAILED.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeIntentValidationFailed)
}

// IsStorageError reports whether err is a graph store failure of any kind.
func IsStorageError(err error) bool {
	return hasCode(err, ErrCodeGraphQueryFailed) ||
		hasCode(err, ErrCodeGraphConnectionFailed) ||
		hasCode(err, ErrCodeGraphQueryTimeout)
}

// As re-exports the standard errors.As so callers need only one errors
// import.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func hasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count per error code.
// Format and validation errors never retry: replaying the same prompt
// against the same model yields the same malformed answer.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeGraphConnectionFailed,
		ErrCodeGraphQueryFailed,
		ErrCodeLLMCallFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeGraphQueryTimeout,
		ErrCodeLLMTimeout,
		ErrCodeBrokerTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "GRAPH"):
		return "GRAPH"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "PROMPT"):
		return "AI"
	case strings.Contains(codeStr, "FORMAT") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BROKER"):
		return "ENGINE"
	default:
		return "OTHER"
	}
}
