// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
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
	ErrCodeDuplicateEntry    ErrorCode = "DUPLICATE_ENTRY"
	ErrCodeMissingIdentity   ErrorCode = "MISSING_IDENTITY"
	ErrCodeInvalidRecord     ErrorCode = "INVALID_CANDIDATE_RECORD"
	ErrCodeCorruptStore      ErrorCode = "CORRUPT_STORE"
	ErrCodeStoreReadFailed   ErrorCode = "SHORTLIST_READ_FAILED"
	ErrCodeStoreWriteFailed  ErrorCode = "SHORTLIST_WRITE_FAILED"
	ErrCodeStoreConflict     ErrorCode = "SHORTLIST_WRITE_CONFLICT"
	ErrCodeEntryNotFound     ErrorCode = "ENTRY_NOT_FOUND"
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"
	ErrCodeIndexUpdateFailed ErrorCode = "SEARCH_INDEX_UPDATE_FAILED"
	ErrCodeExportFailed      ErrorCode = "EXPORT_FAILED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
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

// WithMetadata returns a copy of e carrying an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	cp := *e
	cp.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newStandardError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateEntryError reports an add whose (name, email) pair is already shortlisted.
// It is informational and never retried.
func NewDuplicateEntryError(name, email string) *StandardError {
	return newStandardError(ErrCodeDuplicateEntry, "Candidate is already in your shortlist",
		fmt.Sprintf("name: %s, email: %s", name, email), false)
}

// NewMissingIdentityError creates a non-retryable validation error.
func NewMissingIdentityError(details string) *StandardError {
	return newStandardError(ErrCodeMissingIdentity, "Candidate record is missing name or email", details, false)
}

// NewInvalidRecordError creates a non-retryable validation error for malformed records.
func NewInvalidRecordError(details string) *StandardError {
	return newStandardError(ErrCodeInvalidRecord, "Candidate record failed validation", details, false)
}

// NewStoreReadFailedError creates a retryable backend read error.
func NewStoreReadFailedError(err error) *StandardError {
	return newStandardError(ErrCodeStoreReadFailed, "Shortlist storage read failed", err.Error(), true)
}

// NewStoreWriteFailedError creates a retryable backend write error.
func NewStoreWriteFailedError(err error) *StandardError {
	return newStandardError(ErrCodeStoreWriteFailed, "Shortlist storage write failed", err.Error(), true)
}

// NewStoreConflictError reports an optimistic write that lost every retry.
func NewStoreConflictError(attempts int) *StandardError {
	return newStandardError(ErrCodeStoreConflict, "Shortlist changed concurrently",
		fmt.Sprintf("gave up after %d attempts", attempts), true)
}

// NewEntryNotFoundError creates a non-retryable lookup error.
func NewEntryNotFoundError(id string) *StandardError {
	return newStandardError(ErrCodeEntryNotFound, "Shortlist entry not found", fmt.Sprintf("id: %s", id), false)
}

// NewParseError creates a non-retryable job variable parse error.
func NewParseError(err error) *StandardError {
	return newStandardError(ErrCodeParseError, "Job variables could not be parsed", err.Error(), false)
}

// NewIndexUpdateFailedError creates a retryable search mirror error.
func NewIndexUpdateFailedError(err error) *StandardError {
	return newStandardError(ErrCodeIndexUpdateFailed, "Search index update failed", err.Error(), true)
}

// NewExportFailedError creates a non-retryable export error.
func NewExportFailedError(err error) *StandardError {
	return newStandardError(ErrCodeExportFailed, "Shortlist export failed", err.Error(), false)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newStandardError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. BPMN Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDuplicateEntry:    "DUPLICATE_ENTRY",
	ErrCodeMissingIdentity:   "MISSING_IDENTITY",
	ErrCodeInvalidRecord:     "INVALID_CANDIDATE_RECORD",
	ErrCodeCorruptStore:      "CORRUPT_STORE",
	ErrCodeStoreReadFailed:   "SHORTLIST_READ_FAILED",
	ErrCodeStoreWriteFailed:  "SHORTLIST_WRITE_FAILED",
	ErrCodeStoreConflict:     "SHORTLIST_WRITE_CONFLICT",
	ErrCodeEntryNotFound:     "ENTRY_NOT_FOUND",
	ErrCodeParseError:        "PARSE_ERROR",
	ErrCodeIndexUpdateFailed: "SEARCH_INDEX_UPDATE_FAILED",
	ErrCodeExportFailed:      "EXPORT_FAILED",
}

// GetRetryCount returns how many job retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeIndexUpdateFailed:
		return 3

	case ErrCodeStoreConflict:
		return 2

	default:
		return 0 // business and validation errors
	}
}

// ConvertToBPMNError maps a StandardError onto the workflow engine's error shape.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory buckets codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SHORTLIST") || strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "IDENTITY") || strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DUPLICATE") || strings.Contains(codeStr, "NOT_FOUND"):
		return "BUSINESS"
	default:
		return "OTHER"
	}
}
