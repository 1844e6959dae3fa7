// Package reconcile hands failed or dropped cancellation effects off to the
// out-of-band reconciliation process. Nothing here retries.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cancelsaga/internal/domain"
	"cancelsaga/internal/events"
	"cancelsaga/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultQueueKey = "reconcile:queue"
	handlerTimeout  = 5 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Recorder persists every reported effect failure as a pending
// reconciliation entry and announces its id on a redis list.
type Recorder struct {
	store    domain.ReconciliationStore
	redis    *redis.Client
	queueKey string
	logger   *zerolog.Logger
}

// NewRecorder builds a recorder. redisClient may be nil.
func NewRecorder(store domain.ReconciliationStore, redisClient *redis.Client, queueKey string, logger *zerolog.Logger) *Recorder {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Recorder{
		store:    store,
		redis:    redisClient,
		queueKey: queueKey,
		logger:   logger,
	}
}

// Record stores the failure. The sqlite row is the source of truth; the redis
// push only wakes consumers and its failure is logged, not returned.
func (r *Recorder) Record(ctx context.Context, p events.EffectFailedPayload) (*models.ReconciliationEntry, error) {
	if p.BookingID == 0 || p.Effect == "" {
		return nil, errors.New("booking id and effect are required")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	entry := &models.ReconciliationEntry{
		BookingID: p.BookingID,
		Effect:    p.Effect,
		Payload:   string(payload),
		Status:    models.ReconcilePending,
	}
	if p.Error != "" {
		msg := p.Error
		entry.LastError = &msg
	}

	if err := r.store.CreateReconciliationEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist reconciliation entry: %w", err)
	}

	if r.redis != nil {
		if err := r.redis.LPush(ctx, r.queueKey, entry.ID).Err(); err != nil {
			r.logger.Warn().Err(err).
				Int64("entry_id", entry.ID).
				Msg("reconcile: redis push failed, entry stays in the table")
		}
	}

	r.logger.Info().
		Int64("entry_id", entry.ID).
		Int64("booking_id", entry.BookingID).
		Str("effect", entry.Effect).
		Msg("effect handed off for reconciliation")
	return entry, nil
}

// Handle is an events.EventHandler for cancellation_effect_failed.
func (r *Recorder) Handle(event *events.Event) error {
	var p events.EffectFailedPayload
	if err := event.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	_, err := r.Record(ctx, p)
	return err
}

// Pending lists unresolved entries, oldest first.
func (r *Recorder) Pending(ctx context.Context, limit int) ([]models.ReconciliationEntry, error) {
	return r.store.GetPendingReconciliation(ctx, limit)
}

// Resolve marks an entry handled and removes its id from the redis list.
func (r *Recorder) Resolve(ctx context.Context, id int64) error {
	if err := r.store.ResolveReconciliationEntry(ctx, id); err != nil {
		return err
	}
	if r.redis != nil {
		if err := r.redis.LRem(ctx, r.queueKey, 0, id).Err(); err != nil {
			r.logger.Warn().Err(err).Int64("entry_id", id).Msg("reconcile: redis cleanup failed")
		}
	}
	return nil
}
