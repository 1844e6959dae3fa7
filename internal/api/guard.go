package api

import (
	"context"
	"time"

	"cancelsaga/internal/config"
	"cancelsaga/internal/domain"

	"github.com/rs/zerolog"
)

// CancelGuard caps cancel requests per requester across all API instances.
type CancelGuard struct {
	repo   domain.OutcomeRepository
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

// NewCancelGuard returns a guard backed by repo. A nil repo disables it.
func NewCancelGuard(repo domain.OutcomeRepository, cfg config.CancelLimitConfig, logger *zerolog.Logger) *CancelGuard {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CancelGuard{
		repo:   repo,
		limit:  cfg.Limit,
		window: time.Duration(cfg.WindowSeconds) * time.Second,
		logger: logger,
	}
}

// Allow reports whether requesterID may cancel now. Store errors let the
// request through.
func (g *CancelGuard) Allow(ctx context.Context, requesterID string) bool {
	if g == nil || g.repo == nil || g.limit <= 0 || requesterID == "" {
		return true
	}
	ok, err := g.repo.CheckRateLimit(ctx, requesterID, g.limit, g.window)
	if err != nil {
		g.logger.Warn().Err(err).Str("requester_id", requesterID).Msg("cancel rate limit check failed")
		return true
	}
	return ok
}
