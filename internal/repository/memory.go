package repository

import (
	"context"
	"sync"
	"time"

	"cancelsaga/internal/models"
)

type MemoryOutcomeRepository struct {
	outcomes   sync.Map
	rateLimits sync.Map
	mu         sync.Mutex
	ttl        time.Duration
}

func NewMemoryOutcomeRepository(ttl time.Duration) *MemoryOutcomeRepository {
	return &MemoryOutcomeRepository{
		ttl: ttl,
	}
}

type outcomeEntry struct {
	result    models.CancellationResult
	expiresAt time.Time
}

func (r *MemoryOutcomeRepository) GetOutcome(ctx context.Context, bookingID int64) (*models.CancellationResult, error) {
	val, ok := r.outcomes.Load(bookingID)
	if !ok {
		return nil, nil
	}
	entry := val.(*outcomeEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.outcomes.Delete(bookingID)
		return nil, nil
	}
	result := entry.result
	return &result, nil
}

func (r *MemoryOutcomeRepository) SaveOutcome(ctx context.Context, result *models.CancellationResult) error {
	entry := &outcomeEntry{result: *result}
	if r.ttl > 0 {
		entry.expiresAt = time.Now().Add(r.ttl)
	}
	r.outcomes.Store(result.BookingID, entry)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryOutcomeRepository) CheckRateLimit(ctx context.Context, requesterID string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	val, ok := r.rateLimits.Load(requesterID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(requesterID, entry)
	return entry.count <= limit, nil
}
