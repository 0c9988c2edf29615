package model

import "time"

type NotificationKind string

const (
	NotificationKindPaymentSuccess  NotificationKind = "payment_success"
	NotificationKindPaymentFailed   NotificationKind = "payment_failed"
	NotificationKindProvisioned     NotificationKind = "provisioned"
	NotificationKindExpiryReminder  NotificationKind = "expiry_reminder"
	NotificationKindRenewalCharged  NotificationKind = "renewal_charged"
	NotificationKindPlanChanged     NotificationKind = "plan_changed"
	NotificationKindTicketAnswered  NotificationKind = "ticket_answered"
	NotificationKindAccountExpired  NotificationKind = "account_expired"
	NotificationKindAccountSuspends NotificationKind = "account_suspended"
)

// NotificationLog records every message handed to the notifier, successful or
// not, so reminder workers can dedupe per user/kind/day.
type NotificationLog struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Body      string
	Delivered bool
	Error     string
	CreatedAt time.Time
}
