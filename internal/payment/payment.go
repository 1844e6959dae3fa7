// Package payment reverses charges at the configured payment processor.
package payment

import (
	"errors"
	"fmt"
	"strings"

	"cancelsaga/internal/config"
	"cancelsaga/internal/domain"

	"github.com/rs/zerolog"
)

var (
	ErrNotGenuineCharge = errors.New("payment reference is not a processor charge")
	ErrNonPositive      = errors.New("refund amount must be positive")
)

// NewFromConfig builds the reversal adapter for cfg.Provider.
func NewFromConfig(cfg config.PaymentConfig, logger *zerolog.Logger) (domain.PaymentReversal, error) {
	switch cfg.Provider {
	case config.PaymentProviderOmise:
		return NewOmiseReversal(cfg.PublicKey, cfg.SecretKey, cfg.PlaceholderPrefixes, logger)
	case config.PaymentProviderMidtrans:
		return NewMidtransReversal(cfg.ServerKey, cfg.Environment, cfg.PlaceholderPrefixes, logger), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// isPlaceholder отсекает ссылки, которые не доходили до процессора
func isPlaceholder(ref string, prefixes []string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return true
	}
	lower := strings.ToLower(ref)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// refundKey одинаков для всех попыток отмены одной брони,
// процессор отклоняет повторный возврат с тем же ключом
func refundKey(bookingID int64) string {
	return fmt.Sprintf("cancel-%d", bookingID)
}

func nopIfNil(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return logger
}
