// Package notify is the real-time notification channel. A Hub fans server
// events out to every connected dashboard over websocket connections.
//
// Every frame is a JSON text message carrying a "type" field:
//
//	connection    sent once after the upgrade, payload {clientId, message}
//	notification  payload Notification
//	update        updateKind names the entity kind, payload the changed record
//	pong          reply to a client ping, carries a timestamp
//
// Clients may send {"type":"subscribe","categories":[...]} to restrict the
// notifications they receive and {"type":"ping"}. Updates are delivered to
// every client regardless of subscription.
package notify

import (
	"time"
)

const (
	TypeConnection   = "connection"
	TypeNotification = "notification"
	TypeUpdate       = "update"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSubscribe    = "subscribe"
)

type Category string

const (
	CategoryAlert    Category = "alert"
	CategorySystem   Category = "system"
	CategoryEmployee Category = "employee"
	CategoryCamera   Category = "camera"

	// CategoryAll subscribes to every category.
	CategoryAll Category = "all"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAlert, CategorySystem, CategoryEmployee, CategoryCamera:
		return true
	}
	return false
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Urgent reports whether a notification of priority p deserves a toast.
func (p Priority) Urgent() bool {
	return p == PriorityCritical || p == PriorityHigh
}

type Notification struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Priority  Priority  `json:"priority"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Update kinds name the entity collection a dashboard should refresh.
const (
	UpdateAlerts    = "alerts"
	UpdateCameras   = "cameras"
	UpdateEmployees = "employees"
	UpdateSettings  = "settings"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type       string     `json:"type"`
	UpdateKind string     `json:"updateKind,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Payload    any        `json:"payload,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

type ConnectionAck struct {
	ClientID string `json:"clientId"`
	Message  string `json:"message"`
}

//go:generate mockgen -source=message.go -destination=mocks/mock_publisher.go -package=mocks

// Publisher is what the API layer needs from the channel.
type Publisher interface {
	// Notify stamps n with an id and time when missing and broadcasts it.
	Notify(n Notification) Notification
	Update(kind string, payload any)
}
