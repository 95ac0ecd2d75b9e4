package main

import (
	"errors"
	"testing"
	"time"

	"talent-shortlist/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}, 5, time.Millisecond, log, "dial")
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return errors.New("password authentication failed")
	}, 5, time.Millisecond, log, "dial")
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-transient errors are not retried")

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return errors.New("context deadline exceeded")
	}, 3, time.Millisecond, log, "dial")
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestWorkerTaskTypes(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"shortlist-add-candidate",
		"shortlist-remove-candidate",
		"shortlist-group-candidates",
	}, workerTaskTypes())
}
