package notification

import (
	"context"
	"errors"
	"fmt"

	"cancelsaga/internal/config"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("email recipient is empty")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers HTML email over SMTP.
type SMTPSender struct {
	dialer dialer
	from   string
	logger *zerolog.Logger
}

func NewSMTPSender(cfg config.EmailConfig, logger *zerolog.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPSender(d, cfg.From, logger)
}

func newSMTPSender(d dialer, from string, logger *zerolog.Logger) *SMTPSender {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SMTPSender{dialer: d, from: from, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}
