package models

import "time"

// Notification kinds share the severity visual vocabulary.
const (
	NotificationKindSuccess = "success"
	NotificationKindWarning = "warning"
	NotificationKindDanger  = "danger"
	NotificationKindInfo    = "info"
)

// Notification is an ephemeral dashboard toast. It is created from a fixed
// catalog of canned events and removed either by its auto-dismiss timer or
// by explicit user action, whichever comes first.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
