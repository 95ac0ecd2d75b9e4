// internal/workers/shortlist/add-candidate/handler_test.go
package addcandidate

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"talent-shortlist/internal/common/config"
	"talent-shortlist/internal/common/errors"
	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *shortlist.Store) {
	t.Helper()
	store := shortlist.NewStore(shortlist.NewMemoryKV(), "", logger.NewTestLogger(t))
	h, err := NewHandler(DefaultConfig(), store, logger.NewTestLogger(t))
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return h, store
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name     string
		vars     string
		wantCode errors.ErrorCode
	}{
		{"valid", `{"candidate":{"name":"Ada","email":"ada@x.com"},"phase":"HR Interview"}`, ""},
		{"not json", `{"candidate":`, errors.ErrCodeParseError},
		{"missing candidate", `{"phase":"HR Interview"}`, errors.ErrCodeInvalidRecord},
		{"candidate wrong type", `{"candidate":"Ada"}`, errors.ErrCodeInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseInput(tt.vars)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ada", input.Candidate.Name)
				return
			}
			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestExecute_AddsAndFillsDefaults(t *testing.T) {
	h, store := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Candidate:        models.CandidateRecord{Name: "Ada Lovelace", Email: "ada@x.com"},
		Phase:            models.PhaseTechnicalInterview,
		ApplicationLabel: "Backend Engineer",
	})
	require.NoError(t, err)
	assert.True(t, out.Added)
	assert.NotEmpty(t, out.EntryID)
	assert.Equal(t, "2024-05-01", out.ShortlistedAt)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.PhaseTechnicalInterview, entries[0].ShortlistedFrom)
	assert.Equal(t, "Backend Engineer", entries[0].ApplicationLabel)
}

func TestExecute_CandidateFieldsWinOverJobVariables(t *testing.T) {
	h, _ := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Candidate: models.CandidateRecord{
			Name: "Ada", Email: "ada@x.com",
			ShortlistedFrom: models.PhaseSemanticAnalysis, ShortlistedDate: "2024-04-01",
		},
		Phase: models.PhaseHRInterview,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", out.ShortlistedAt)
}

func TestExecute_DuplicateCompletesWithAddedFalse(t *testing.T) {
	h, store := newTestHandler(t)
	input := &Input{Candidate: models.CandidateRecord{Name: "Ada", Email: "ada@x.com"}}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	second, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.Added)
	assert.Equal(t, shortlist.ReasonAlreadyShortlisted, second.Reason)
	assert.Equal(t, first.EntryID, second.EntryID)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExecute_MissingIdentity(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{Candidate: models.CandidateRecord{Name: "Ada"}})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeMissingIdentity, stdErr.Code)
	assert.Equal(t, 0, errors.ConvertToBPMNError(stdErr).Retries)
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	_, err := NewHandler(&Config{Timeout: 0, MaxJobsActive: 1}, nil, logger.NewNoOpLogger())
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 2, Timeout: 1500},
	}}
	wc := FromAppConfig(cfg)
	assert.False(t, wc.Enabled)
	assert.Equal(t, 2, wc.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, wc.Timeout)

	def := FromAppConfig(&config.Config{})
	assert.True(t, def.Enabled)
	assert.NoError(t, def.Validate())
}
