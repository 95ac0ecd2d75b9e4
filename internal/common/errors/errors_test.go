package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		wantCode      string
		wantRetries   int
		wantRetryable bool
	}{
		{
			name:          "write failure is retried",
			err:           NewStoreWriteFailedError(fmt.Errorf("OOM command not allowed")),
			wantCode:      "SHORTLIST_WRITE_FAILED",
			wantRetries:   3,
			wantRetryable: true,
		},
		{
			name:          "conflict gets partial retry",
			err:           NewStoreConflictError(5),
			wantCode:      "SHORTLIST_WRITE_CONFLICT",
			wantRetries:   2,
			wantRetryable: true,
		},
		{
			name:        "missing identity is not retried",
			err:         NewMissingIdentityError("email is required"),
			wantCode:    "MISSING_IDENTITY",
			wantRetries: 0,
		},
		{
			name:        "unmapped code falls back to raw code",
			err:         &StandardError{Code: "SOMETHING_ELSE", Message: "x"},
			wantCode:    "SOMETHING_ELSE",
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.wantRetryable, bpmn.Retryable)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_RetryableFlagWins(t *testing.T) {
	err := NewStoreWriteFailedError(fmt.Errorf("x"))
	err.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(err).Retries)
}

func TestToErrorVariables_IncludesMetadata(t *testing.T) {
	stdErr := NewDuplicateEntryError("Ada Lovelace", "ada@x.com").WithMetadata("entryId", "abc")
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "DUPLICATE_ENTRY", vars["errorCode"])
	assert.Equal(t, "abc", vars["entryId"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars["errorDetails"], "ada@x.com")
}

func TestWithMetadata_DoesNotMutateOriginal(t *testing.T) {
	orig := NewEntryNotFoundError("id-1")
	cp := orig.WithMetadata("k", "v")
	assert.Nil(t, orig.Metadata)
	assert.Equal(t, "v", cp.Metadata["k"])
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("adding candidate: %w", NewStoreReadFailedError(fmt.Errorf("dial tcp: refused")))
	got := Normalize(wrapped)
	assert.Equal(t, ErrCodeStoreReadFailed, got.Code)

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(2), RemainingRetries(5, 3))
	assert.Equal(t, int32(1), RemainingRetries(2, 3))
	assert.Equal(t, int32(2), RemainingRetries(0, 3))
	assert.Equal(t, int32(0), RemainingRetries(1, 3))
}

func TestGetErrorCategory(t *testing.T) {
	require.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStoreWriteFailed))
	require.Equal(t, "STORAGE", GetErrorCategory(ErrCodeCorruptStore))
	require.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexUpdateFailed))
	require.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeMissingIdentity))
	require.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeParseError))
	require.Equal(t, "BUSINESS", GetErrorCategory(ErrCodeDuplicateEntry))
	require.Equal(t, "OTHER", GetErrorCategory(ErrCodeExportFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeStoreReadFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeDuplicateEntry))
}
