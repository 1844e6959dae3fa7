package service

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/events"
	"cancelsaga/internal/metrics"
	"cancelsaga/internal/models"
)

// skipError ends an effect without applying it. Dropped skips leave the
// outside world inconsistent and are handed to reconciliation; plain skips
// mean there was nothing to do.
type skipError struct {
	reason  string
	dropped bool
}

func (e *skipError) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...)}
}

func drop(format string, args ...any) error {
	return &skipError{reason: fmt.Sprintf(format, args...), dropped: true}
}

type effectFunc func(ctx context.Context) (detail string, err error)

// runEffect executes one side effect and records its outcome. It never
// returns an error: failures end up in the result and in the hand-off list.
func (s *CancellationService) runEffect(ctx context.Context, sg *saga, name string, fn effectFunc) models.EffectOutcome {
	outcome := models.EffectOutcome{Name: name}

	detail, err := callEffect(ctx, fn)
	var se *skipError
	switch {
	case err == nil:
		outcome.Status = models.EffectApplied
		outcome.Detail = detail
		sg.logger.Info().Str("effect", name).Str("detail", detail).Msg("effect applied")
	case errors.As(err, &se):
		outcome.Status = models.EffectSkipped
		outcome.Detail = se.reason
		sg.logger.Warn().Str("effect", name).Str("reason", se.reason).Msg("effect skipped")
		if se.dropped {
			sg.handoff(name, models.EffectSkipped, se.reason, nil)
		}
	default:
		outcome.Status = models.EffectFailed
		outcome.Error = err.Error()
		sg.logger.Error().Err(err).Str("effect", name).Msg("effect failed")
		sg.handoff(name, models.EffectFailed, err.Error(), nil)
	}

	metrics.IncEffect(name, outcome.Status)
	sg.result.Effects = append(sg.result.Effects, outcome)
	return outcome
}

// callEffect reports a panic in fn as an ordinary failure.
func callEffect(ctx context.Context, fn effectFunc) (detail string, err error) {
	defer func() {
		if r := recover(); r != nil {
			detail, err = "", fmt.Errorf("effect panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (sg *saga) handoff(effect, status, msg string, data map[string]any) {
	sg.handoffs = append(sg.handoffs, events.EffectFailedPayload{
		BookingID: sg.view.ID,
		Effect:    effect,
		Status:    status,
		Error:     msg,
		Data:      data,
		At:        sg.now,
	})
}

// publishHandoffs announces every failed or dropped effect; subscribers
// record them for reconciliation.
func (s *CancellationService) publishHandoffs(sg *saga) {
	if s.events == nil {
		return
	}
	for _, h := range sg.handoffs {
		if err := s.events.PublishJSON(events.EventEffectFailed, h); err != nil {
			sg.logger.Error().Err(err).Str("effect", h.Effect).Msg("publish effect failure error")
		}
	}
}
