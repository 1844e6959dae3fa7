package repository

import (
	"context"
	"sync/atomic"
	"time"

	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverOutcomeRepository serves from primary (redis) and switches to the
// fallback (memory) on the first error, probing primary again once a minute.
type FailoverOutcomeRepository struct {
	primary   domain.OutcomeRepository
	fallback  domain.OutcomeRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverOutcomeRepository(primary, fallback domain.OutcomeRepository, logger *zerolog.Logger) *FailoverOutcomeRepository {
	return &FailoverOutcomeRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverOutcomeRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary outcome repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

// usePrimary reports whether primary should be tried for this call.
func (r *FailoverOutcomeRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	// Пробуем восстановиться раз в минуту
	last := time.Unix(0, r.lastCheck.Load())
	return time.Since(last) > recoveryInterval
}

func (r *FailoverOutcomeRepository) recovered() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("Primary outcome repository recovered")
	}
}

func (r *FailoverOutcomeRepository) GetOutcome(ctx context.Context, bookingID int64) (*models.CancellationResult, error) {
	if r.usePrimary() {
		result, err := r.primary.GetOutcome(ctx, bookingID)
		if err == nil {
			r.recovered()
			return result, nil
		}
		r.markDown(err)
	}

	return r.fallback.GetOutcome(ctx, bookingID)
}

func (r *FailoverOutcomeRepository) SaveOutcome(ctx context.Context, result *models.CancellationResult) error {
	if r.usePrimary() {
		err := r.primary.SaveOutcome(ctx, result)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SaveOutcome(ctx, result)
}

func (r *FailoverOutcomeRepository) CheckRateLimit(ctx context.Context, requesterID string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, requesterID, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, requesterID, limit, window)
}
