package models

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

const (
	SourceDirect           = "direct"
	SourceExternalCalendar = "external_calendar"
)

const (
	PolicyFlexible      = "flexible"
	PolicyModerate      = "moderate"
	PolicyStrict        = "strict"
	PolicyNonRefundable = "non_refundable"
)

const (
	BookingTypeEvent    = "event"
	BookingTypePurchase = "purchase"
)

const (
	// ProviderGoogleCalendar ключ интеграции партнера с календарем
	ProviderGoogleCalendar = "google_calendar"

	// DefaultOutcomeTTL время хранения результата отмены в Redis
	DefaultOutcomeTTL = 7 * 24 * 60 * 60 // 7 дней в секундах

	// CancelRateLimit количество отмен от одного пользователя в окне
	CancelRateLimit = 10

	// CancelRateWindow окно ограничения отмен
	CancelRateWindow = 60 // 1 минута в секундах
)
