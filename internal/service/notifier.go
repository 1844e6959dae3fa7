package service

import (
	"context"

	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"
	"cancelsaga/internal/notification"
)

// Notifier renders and sends the two post-cancellation emails.
type Notifier struct {
	composer *notification.Composer
	sender   domain.EmailSender
}

func NewNotifier(composer *notification.Composer, sender domain.EmailSender) *Notifier {
	return &Notifier{composer: composer, sender: sender}
}

func (n *Notifier) NotifyCustomer(ctx context.Context, view *models.BookingView, decision models.RefundDecision, refundID string) (string, error) {
	email, err := n.composer.CustomerEmail(view, decision, refundID)
	if err != nil {
		return "", err
	}
	if err := n.sender.Send(ctx, email.To, email.Subject, email.HTML); err != nil {
		return "", err
	}
	return notification.Variant(decision) + " sent to " + email.To, nil
}

func (n *Notifier) NotifyPartner(ctx context.Context, view *models.BookingView, decision models.RefundDecision, refundID string) (string, error) {
	email, err := n.composer.PartnerEmail(view, decision, refundID)
	if err != nil {
		return "", err
	}
	if err := n.sender.Send(ctx, email.To, email.Subject, email.HTML); err != nil {
		return "", err
	}
	return "sent to " + email.To, nil
}
