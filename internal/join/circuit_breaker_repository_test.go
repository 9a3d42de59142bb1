package join

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarena/pkg/circuitbreaker"
)

func TestCircuitBreakerRepositoryPassesThrough(t *testing.T) {
	repo := NewCircuitBreakerRepository(newMemoryRepository(), circuitbreaker.DefaultSettings("redis-join-pass"))
	ctx := context.Background()

	require.NoError(t, repo.SavePending(ctx, SideJournal, "sm-1", Entry{Value: []byte("x"), Timestamp: t0}, time.Minute))

	entry, err := repo.Pending(ctx, SideJournal, "sm-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("x"), entry.Value)

	missing, err := repo.Pending(ctx, SideRecord, "sm-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	claimed, err := repo.MarkJoined(ctx, "sm-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	joined, err := repo.IsJoined(ctx, "sm-1")
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, "closed", repo.State())
}

func TestCircuitBreakerRepositoryOpens(t *testing.T) {
	inner := newMemoryRepository()
	inner.err = errors.New("connection refused")

	settings := circuitbreaker.DefaultSettings("redis-join-open")
	settings.MinRequests = 2
	settings.FailureRatio = 0.5
	settings.Timeout = time.Minute
	repo := NewCircuitBreakerRepository(inner, settings)
	ctx := context.Background()

	for range 2 {
		_, err := repo.IsJoined(ctx, "sm-1")
		assert.ErrorIs(t, err, inner.err)
	}

	_, err := repo.IsJoined(ctx, "sm-1")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, "open", repo.State())
}
