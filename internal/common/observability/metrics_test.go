package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"talent-shortlist/internal/common/logger"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation_ExportsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("talent-shortlist-test", reg, logger.NewTestLogger(t))
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordOperation(ctx, "add", "added", 4*time.Millisecond)
	obs.RecordJobProcessed(ctx, "shortlist-add-candidate", "success")
	obs.RecordJobDuration(ctx, "shortlist-add-candidate", 12*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "shortlist_operations")
	assert.Contains(t, joined, "jobs_processed")
}

func TestZeroValueIsSafe(t *testing.T) {
	var obs Observability
	obs.RecordOperation(context.Background(), "list", "ok", time.Millisecond)
	obs.RecordJobProcessed(context.Background(), "x", "ok")
	assert.NoError(t, obs.Shutdown(context.Background()))
}
