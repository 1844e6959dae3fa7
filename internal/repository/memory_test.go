package repository

import (
	"context"
	"testing"
	"time"

	"cancelsaga/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOutcomeRepository(t *testing.T) {
	repo := NewMemoryOutcomeRepository(time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetOutcome", func(t *testing.T) {
		result := &models.CancellationResult{BookingID: 123, Success: true}
		require.NoError(t, repo.SaveOutcome(ctx, result))

		got, err := repo.GetOutcome(ctx, 123)
		require.NoError(t, err)
		assert.Equal(t, result, got)

		// stored by value
		result.Success = false
		got, _ = repo.GetOutcome(ctx, 123)
		assert.True(t, got.Success)
	})

	t.Run("Missing", func(t *testing.T) {
		got, err := repo.GetOutcome(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expired", func(t *testing.T) {
		short := NewMemoryOutcomeRepository(time.Millisecond)
		require.NoError(t, short.SaveOutcome(ctx, &models.CancellationResult{BookingID: 9}))
		time.Sleep(5 * time.Millisecond)
		got, err := short.GetOutcome(ctx, 9)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		requester := "user-456"
		allowed, _ := repo.CheckRateLimit(ctx, requester, 2, 100*time.Millisecond)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, requester, 2, 100*time.Millisecond)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, requester, 2, 100*time.Millisecond)
		assert.False(t, allowed)

		allowed, _ = repo.CheckRateLimit(ctx, "someone-else", 2, 100*time.Millisecond)
		assert.True(t, allowed)

		time.Sleep(110 * time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, requester, 2, 100*time.Millisecond)
		assert.True(t, allowed)
	})
}
