package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cancelsaga/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestGetBookingView(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	scheduled := time.Date(2026, 4, 20, 18, 30, 0, 0, time.UTC)
	f := seedBooking(t, db, &scheduled)

	view, err := db.GetBookingView(ctx, f.booking.ID)
	require.NoError(t, err)

	assert.Equal(t, f.booking.ID, view.ID)
	assert.Equal(t, "user-1", view.UserID)
	assert.Equal(t, models.StatusPaid, view.Status)
	require.NotNil(t, view.ScheduledAt)
	assert.True(t, scheduled.Equal(*view.ScheduledAt))
	assert.True(t, decimal.RequireFromString("49.90").Equal(view.Amount))
	assert.Equal(t, "chrg_test_5xyz", view.PaymentRef)
	require.NotNil(t, view.VariantID)
	assert.Equal(t, f.variant.ID, *view.VariantID)
	assert.True(t, view.VariantCapacityLimited)

	assert.Equal(t, "Morning flow", view.Offer.Title)
	assert.Equal(t, models.PolicyModerate, view.Offer.CancellationPolicy)
	require.NotNil(t, view.Offer.EventStartAt)

	assert.Equal(t, f.partner.ID, view.Partner.ID)
	assert.Equal(t, "ops@yogaloft.test", view.Partner.ContactEmail)
	assert.Equal(t, "anna@example.com", view.Customer.Email)
}

func TestGetBookingView_NoVariantNoCustomer(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedBooking(t, db, nil)

	b := models.Booking{UserID: "ghost", OfferID: f.offer.ID, Status: models.StatusPaid, Amount: decimal.NewFromInt(10)}
	require.NoError(t, db.CreateBooking(ctx, &b))

	view, err := db.GetBookingView(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, view.VariantID)
	assert.False(t, view.VariantCapacityLimited)
	assert.Empty(t, view.Customer.Email)
	assert.Nil(t, view.ScheduledAt)
	assert.Equal(t, models.SourceDirect, view.Source)
}

func TestGetBookingView_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetBookingView(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCommitCancellation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seedBooking(t, db, nil)
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	err := db.CommitCancellation(ctx, f.booking.ID, "plans changed", at)
	require.NoError(t, err)

	b, err := db.GetBooking(ctx, f.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "plans changed", *b.CancellationReason)
	require.NotNil(t, b.CancelledAt)
	assert.True(t, at.Equal(*b.CancelledAt))

	t.Run("SecondCommitRejected", func(t *testing.T) {
		err := db.CommitCancellation(ctx, f.booking.ID, "again", at.Add(time.Hour))
		assert.ErrorIs(t, err, ErrAlreadyCancelled)

		b, err := db.GetBooking(ctx, f.booking.ID)
		require.NoError(t, err)
		assert.Equal(t, "plans changed", *b.CancellationReason)
	})

	t.Run("MissingBooking", func(t *testing.T) {
		err := db.CommitCancellation(ctx, 9999, "x", at)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestConcurrentCommitCancellation(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	f := seedBooking(t, db, nil)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.CommitCancellation(context.Background(), f.booking.ID, "race", time.Now())
		}()
	}
	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	}
	assert.Equal(t, 1, successCount, "exactly one writer wins the transition")
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	t.Run("GetBookingView", func(t *testing.T) {
		_, err := db.GetBookingView(ctx, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("CommitCancellation", func(t *testing.T) {
		assert.Error(t, db.CommitCancellation(ctx, 1, "x", time.Now()))
	})

	t.Run("AwardPoints", func(t *testing.T) {
		assert.Error(t, db.AwardPoints(ctx, "u", 10, "x", nil))
	})

	t.Run("IncrementVariantStock", func(t *testing.T) {
		err := db.IncrementVariantStock(ctx, 1)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrVariantNotFound)
	})
}

func TestNewDB_BadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	logger := zerolog.Nop()
	_, err := NewDB(filepath.Join(file, "sub", "db.sqlite"), &logger)
	assert.Error(t, err)
}
