package domain

import "time"

// AlertStatus is the delivery state of a queued alert.
type AlertStatus string

const (
	AlertPending AlertStatus = "pending"
	AlertSent    AlertStatus = "sent"
)

// Alert is one pending or delivered notification about an opportunity,
// fanned out per subscribed user.
type Alert struct {
	ID            int64
	UserID        string // telegram chat id
	OpportunityID string
	Status        AlertStatus
	SentAt        *time.Time
	LastValue     *float64 // ev_usd at last delivery, for change gating
	CreatedAt     time.Time
}

// User is a subscriber eligible for opportunity alerts.
type User struct {
	TelegramID string
	Subscribed bool
	CreatedAt  time.Time
}
