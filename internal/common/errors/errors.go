// Package errors provides standardized error handling for the matching engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration errors: fatal, surfaced before any batch run starts.
	ErrCodeWeightsInvalid         ErrorCode = "SCORING_WEIGHTS_INVALID"
	ErrCodeWeightsMissing         ErrorCode = "SCORING_WEIGHTS_MISSING"
	ErrCodeSectionConfigInvalid   ErrorCode = "SECTION_CONFIG_INVALID"
	ErrCodeBatchConfigInvalid     ErrorCode = "BATCH_CONFIG_INVALID"
	ErrCodeConfigSchemaViolation  ErrorCode = "CONFIG_SCHEMA_VIOLATION"

	// External-dependency errors: recovered locally, never fatal per user.
	ErrCodeAIServiceUnavailable ErrorCode = "AI_SERVICE_UNAVAILABLE"
	ErrCodeAIServiceTimeout     ErrorCode = "AI_SERVICE_TIMEOUT"
	ErrCodeCatalogQueryFailed   ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeUserLoadFailed       ErrorCode = "USER_LOAD_FAILED"

	// Per-user pipeline errors: isolated to one UserProcessingResult.
	ErrCodePipelineTimeout ErrorCode = "PIPELINE_TIMEOUT"
	ErrCodePipelinePanic   ErrorCode = "PIPELINE_PANIC"
	ErrCodeScoringFailed   ErrorCode = "SCORING_FAILED"

	// Storage / delivery collaborator errors.
	ErrCodeResultPersistFailed ErrorCode = "RESULT_PERSIST_FAILED"
	ErrCodeDispatchFailed      ErrorCode = "DISPATCH_FAILED"
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

// AsStandard extracts a *StandardError from err, or nil.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return nil
}

// ==========================
// 2. Error Constructors
// ==========================

// NewWeightsInvalidError reports a fatal scoring-weight configuration problem.
func NewWeightsInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeightsInvalid,
		Message:   "Invalid scoring weight configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeightsMissingError reports a required weight key absent from the
// configuration. Missing keys are never silently defaulted.
func NewWeightsMissingError(component string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeightsMissing,
		Message:   "Required scoring weight key missing",
		Details:   fmt.Sprintf("component: %s", component),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSectionConfigInvalidError reports an invalid section capacity or target.
func NewSectionConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSectionConfigInvalid,
		Message:   "Invalid section configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBatchConfigInvalidError reports an invalid batch orchestration setting.
func NewBatchConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchConfigInvalid,
		Message:   "Invalid batch configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigSchemaViolationError reports a scoring-config document rejected by
// schema validation.
func NewConfigSchemaViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigSchemaViolation,
		Message:   "Scoring configuration document failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIServiceUnavailableError reports a failed semantic-match call. The
// scorer degrades to its fallback score rather than failing the user.
func NewAIServiceUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAIServiceUnavailable,
		Message:   "Semantic match service unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAIServiceTimeoutError reports a semantic-match call exceeding its budget.
func NewAIServiceTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAIServiceTimeout,
		Message:   "Semantic match service timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogQueryFailedError reports a failed job-catalog read.
func NewCatalogQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogQueryFailed,
		Message:   "Job catalog query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserLoadFailedError reports a failed user-service read.
func NewUserLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserLoadFailed,
		Message:   "User profile load failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineTimeoutError reports a per-user run cancelled by its deadline.
func NewPipelineTimeoutError(userID string, limit time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineTimeout,
		Message:   "Per-user pipeline exceeded its processing time limit",
		Details:   fmt.Sprintf("userId: %s, limit: %s", userID, limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelinePanicError wraps a recovered panic from one user's run.
func NewPipelinePanicError(userID string, recovered interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelinePanic,
		Message:   "Per-user pipeline panicked",
		Details:   fmt.Sprintf("userId: %s, panic: %v", userID, recovered),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailedError reports an unexpected scoring failure for one user.
func NewScoringFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "Scoring pipeline failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultPersistFailedError reports a failed MatchingResult write.
func NewResultPersistFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultPersistFailed,
		Message:   "Matching result persistence failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchFailedError reports a failed digest dispatch.
func NewDispatchFailedError(userID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchFailed,
		Message:   "Digest dispatch failed",
		Details:   fmt.Sprintf("userId: %s, error: %s", userID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsRetryable reports whether the error is worth retrying against an external
// dependency. Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	if stdErr := AsStandard(err); stdErr != nil {
		return stdErr.Retryable
	}
	return false
}

// IsFatalConfig reports whether the error must abort startup.
func IsFatalConfig(err error) bool {
	stdErr := AsStandard(err)
	if stdErr == nil {
		return false
	}
	switch stdErr.Code {
	case ErrCodeWeightsInvalid, ErrCodeWeightsMissing,
		ErrCodeSectionConfigInvalid, ErrCodeBatchConfigInvalid,
		ErrCodeConfigSchemaViolation:
		return true
	}
	return false
}

// GetErrorCategory maps a code onto the engine's error taxonomy.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeWeightsInvalid, ErrCodeWeightsMissing,
		ErrCodeSectionConfigInvalid, ErrCodeBatchConfigInvalid,
		ErrCodeConfigSchemaViolation:
		return "configuration"
	case ErrCodeAIServiceUnavailable, ErrCodeAIServiceTimeout,
		ErrCodeCatalogQueryFailed, ErrCodeUserLoadFailed:
		return "external_dependency"
	case ErrCodePipelineTimeout, ErrCodePipelinePanic, ErrCodeScoringFailed:
		return "pipeline"
	case ErrCodeResultPersistFailed, ErrCodeDispatchFailed:
		return "collaborator"
	}
	return "unknown"
}

// GetRetryCount returns how many retries a transient error earns. Retries
// apply only to external-dependency calls, never to a whole per-user run.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAIServiceUnavailable, ErrCodeAIServiceTimeout:
		return 2
	case ErrCodeCatalogQueryFailed, ErrCodeUserLoadFailed,
		ErrCodeResultPersistFailed, ErrCodeDispatchFailed:
		return 1
	}
	return 0
}
