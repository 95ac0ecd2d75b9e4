// internal/workers/shortlist/remove-candidate/handler_test.go
package removecandidate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenKV fails every read so Remove cannot load the list.
type brokenKV struct{ *shortlist.MemoryKV }

func (brokenKV) Update(context.Context, string, shortlist.UpdateFunc) error {
	return fmt.Errorf("%w: connection refused", shortlist.ErrReadFailed)
}

func TestParseInput(t *testing.T) {
	input, err := ParseInput(`{"entryId":"abc","other":1}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", input.EntryID)

	for _, vars := range []string{`{}`, `{"entryId":""}`, `{"entryId":true}`, `{"entryId":null}`, `nope`} {
		_, err := ParseInput(vars)
		var stdErr *apperrors.StandardError
		require.True(t, errors.As(err, &stdErr), vars)
		assert.Equal(t, apperrors.ErrCodeParseError, stdErr.Code, vars)
	}
}

func TestParseInput_NumericEntryID(t *testing.T) {
	input, err := ParseInput(`{"entryId":1714550400000}`)
	require.NoError(t, err)
	assert.Equal(t, "1714550400000", input.EntryID)

	input, err = ParseInput(`{"entryId":7}`)
	require.NoError(t, err)
	assert.Equal(t, "7", input.EntryID)
}

func TestExecute_RemovesLegacyNumericEntry(t *testing.T) {
	ctx := context.Background()
	kv := shortlist.NewMemoryKV()
	kv.Set(shortlist.DefaultStorageKey, []byte(`[{"id":1714550400000,"name":"Ada","email":"ada@x.com"}]`))
	store := shortlist.NewStore(kv, "", logger.NewTestLogger(t))

	h, err := NewHandler(DefaultConfig(), store, logger.NewTestLogger(t))
	require.NoError(t, err)

	input, err := ParseInput(`{"entryId":1714550400000}`)
	require.NoError(t, err)
	out, err := h.Execute(ctx, input)
	require.NoError(t, err)
	assert.True(t, out.Removed)
	assert.Equal(t, "1714550400000", out.EntryID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	store := shortlist.NewStore(shortlist.NewMemoryKV(), "", logger.NewTestLogger(t))
	res, err := store.Add(ctx, models.CandidateRecord{Name: "Ada", Email: "ada@x.com"})
	require.NoError(t, err)

	h, err := NewHandler(DefaultConfig(), store, logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{EntryID: "unknown"})
	require.NoError(t, err)
	assert.False(t, out.Removed)

	out, err = h.Execute(ctx, &Input{EntryID: res.Entry.ID.String()})
	require.NoError(t, err)
	assert.True(t, out.Removed)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecute_BackendFailureIsRetryable(t *testing.T) {
	store := shortlist.NewStore(brokenKV{shortlist.NewMemoryKV()}, "", logger.NewTestLogger(t))
	h, err := NewHandler(DefaultConfig(), store, logger.NewTestLogger(t))
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{EntryID: "x"})
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeStoreReadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
