// internal/workers/shortlist/group-candidates/handler_test.go
package groupcandidates

import (
	"context"
	"testing"
	"time"

	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *shortlist.Store) {
	t.Helper()
	for _, rec := range []models.CandidateRecord{
		{Name: "Ada", Email: "ada@x.com", ShortlistedFrom: models.PhaseHRInterview, JobTitle: "Backend Engineer"},
		{Name: "Grace", Email: "grace@x.com", ShortlistedFrom: models.PhaseHRInterview, JobTitle: "Data Scientist"},
		{Name: "Alan", Email: "alan@x.com", ShortlistedFrom: models.PhaseSemanticAnalysis},
	} {
		_, err := store.Add(context.Background(), rec)
		require.NoError(t, err)
	}
}

func newGrouper() *shortlist.Grouper {
	g := shortlist.NewGrouper("General Application", "Unknown Application")
	g.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func TestExecute_GroupsRedisBackedShortlist(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := shortlist.NewStore(shortlist.NewRedisKV(client, 3), "", logger.NewTestLogger(t))
	seed(t, store)

	h, err := NewHandler(DefaultConfig(), store, newGrouper(), logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.PhaseCount)
	assert.Equal(t, 3, out.CandidateCount)
	assert.Equal(t, models.PhaseHRInterview, out.Groups[0].PhaseName)
	assert.Len(t, out.Groups[0].Applications, 2)
	assert.Equal(t, "Unknown Application", out.Groups[1].Applications[0].ApplicationKey)
}

func TestExecute_PhaseFilter(t *testing.T) {
	store := shortlist.NewStore(shortlist.NewMemoryKV(), "", logger.NewTestLogger(t))
	seed(t, store)
	h, err := NewHandler(nil, store, newGrouper(), logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{Phase: models.PhaseSemanticAnalysis})
	require.NoError(t, err)
	assert.Equal(t, 1, out.PhaseCount)
	assert.Equal(t, 1, out.CandidateCount)

	out, err = h.Execute(context.Background(), &Input{Phase: "Offer"})
	require.NoError(t, err)
	assert.NotNil(t, out.Groups)
	assert.Zero(t, out.CandidateCount)
}

func TestExecute_CorruptStoreYieldsEmptyGroups(t *testing.T) {
	kv := shortlist.NewMemoryKV()
	kv.Set(shortlist.DefaultStorageKey, []byte("<html>"))
	store := shortlist.NewStore(kv, "", logger.NewTestLogger(t))
	h, err := NewHandler(nil, store, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Empty(t, out.Groups)
	assert.Zero(t, out.PhaseCount)
}
