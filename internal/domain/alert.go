package domain

import "time"

// AlertType classifies monitoring signals.
type AlertType string

const (
	AlertTypeCritical AlertType = "critical"
	AlertTypeWarning  AlertType = "warning"
	AlertTypeInfo     AlertType = "info"
)

// SystemAlert is a read-only monitoring signal.
type SystemAlert struct {
	ID        string
	Type      AlertType
	Message   string
	Service   string
	Timestamp time.Time
}
