// Package notification composes and sends the customer and partner emails
// that follow a cancellation.
package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
	_ "time/tzdata" // образы без системной базы часовых поясов

	"cancelsaga/internal/config"
	"cancelsaga/internal/models"
)

// Explanation variants shown to the customer.
const (
	VariantRefund        = "refund"
	VariantLateFlexible  = "late_flexible"
	VariantLateWindowed  = "late_windowed"
	VariantNonRefundable = "non_refundable"
)

type Email struct {
	To      string
	Subject string
	HTML    string
}

type Composer struct {
	loc        *time.Location
	dateFormat string
	brand      string
	support    string
	tpl        *template.Template
}

func NewComposer(cfg config.NotificationsConfig, supportEmail string) (*Composer, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load notification timezone: %w", err)
		}
		loc = l
	}
	dateFormat := cfg.DateFormat
	if dateFormat == "" {
		dateFormat = "Monday, 2 January 2006 at 15:04 MST"
	}
	brand := cfg.BrandName
	if brand == "" {
		brand = "Bookings"
	}

	tpl, err := template.New("notification").Parse(templates)
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}

	return &Composer{
		loc:        loc,
		dateFormat: dateFormat,
		brand:      brand,
		support:    supportEmail,
		tpl:        tpl,
	}, nil
}

// Variant picks the customer explanation for a decision.
func Variant(decision models.RefundDecision) string {
	switch {
	case decision.Eligible:
		return VariantRefund
	case decision.PolicyApplied == models.PolicyFlexible:
		return VariantLateFlexible
	case decision.PolicyApplied == models.PolicyModerate, decision.PolicyApplied == models.PolicyStrict:
		return VariantLateWindowed
	default:
		return VariantNonRefundable
	}
}

// DisplayDate is the date the customer recognises the booking by: the
// appointment, else the event start. It is not the policy reference date and
// is nil when the booking has neither.
func DisplayDate(view *models.BookingView) *time.Time {
	if view.ScheduledAt != nil && !view.ScheduledAt.IsZero() {
		return view.ScheduledAt
	}
	if view.Offer.EventStartAt != nil && !view.Offer.EventStartAt.IsZero() {
		return view.Offer.EventStartAt
	}
	return nil
}

type templateData struct {
	Brand        string
	CustomerName string
	PartnerName  string
	OfferTitle   string
	BookingID    int64
	When         string
	Amount       string
	RefundID     string
	Reason       string
	Policy       string
	NoticeWindow string
	Support      string
	Purchase     bool
}

func (c *Composer) data(view *models.BookingView, decision models.RefundDecision, refundID string) templateData {
	when := ""
	if d := DisplayDate(view); d != nil {
		when = d.In(c.loc).Format(c.dateFormat)
	}
	reason := ""
	if view.CancellationReason != nil {
		reason = *view.CancellationReason
	}
	name := view.Customer.Name
	if name == "" {
		name = "there"
	}
	return templateData{
		Brand:        c.brand,
		CustomerName: name,
		PartnerName:  view.Partner.Name,
		OfferTitle:   view.Offer.Title,
		BookingID:    view.ID,
		When:         when,
		Amount:       formatAmount(view),
		RefundID:     refundID,
		Reason:       reason,
		Policy:       decision.PolicyApplied,
		NoticeWindow: noticeWindow(decision.Threshold),
		Support:      c.support,
		Purchase:     decision.Overridden || view.Offer.BookingType == models.BookingTypePurchase,
	}
}

// CustomerEmail renders the reassurance email for the booking owner.
func (c *Composer) CustomerEmail(view *models.BookingView, decision models.RefundDecision, refundID string) (Email, error) {
	variant := Variant(decision)
	body, err := c.render("customer_"+variant, c.data(view, decision, refundID))
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      view.Customer.Email,
		Subject: fmt.Sprintf("%s: your booking for %s is cancelled", c.brand, view.Offer.Title),
		HTML:    body,
	}, nil
}

// PartnerEmail renders the operational notice that capacity was freed.
func (c *Composer) PartnerEmail(view *models.BookingView, decision models.RefundDecision, refundID string) (Email, error) {
	body, err := c.render("partner", c.data(view, decision, refundID))
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:      view.Partner.ContactEmail,
		Subject: fmt.Sprintf("Booking #%d for %s was cancelled", view.ID, view.Offer.Title),
		HTML:    body,
	}, nil
}

func (c *Composer) render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := c.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatAmount(view *models.BookingView) string {
	if view.Amount.IsZero() {
		return ""
	}
	s := view.Amount.StringFixed(2)
	if view.Currency != "" {
		s += " " + view.Currency
	}
	return s
}

func noticeWindow(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	}
	return fmt.Sprintf("%d hours", int(d/time.Hour))
}
