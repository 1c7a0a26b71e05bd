package models

import (
	"strings"
	"time"
)

// Severity is the urgency tier of an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeveritySuccess  Severity = "success"
	SeverityInfo     Severity = "info"
)

// Alert is one event in a snapshot's alert feed.
type Alert struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Title       string    `json:"title,omitempty"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Device      string    `json:"device,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Action      string    `json:"action,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Kind maps a severity to the shared visual vocabulary used by the
// notification center. Derived on demand, never stored.
func (s Severity) Kind() string {
	switch s {
	case SeverityCritical:
		return NotificationKindDanger
	case SeverityWarning:
		return NotificationKindWarning
	case SeveritySuccess:
		return NotificationKindSuccess
	default:
		return NotificationKindInfo
	}
}

// Mentions reports whether the alert references the given term in its
// device, unit, title, or message fields (case-insensitive substring).
func (a Alert) Mentions(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, field := range []string{a.Device, a.Unit, a.Title, a.Message} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
