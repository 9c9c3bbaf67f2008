package models

import (
	"errors"
	"fmt"
	"time"
)

type AlertType string

const (
	AlertTypeIntrusion AlertType = "intrusion"
	AlertTypeMotion    AlertType = "motion"
	AlertTypeLoitering AlertType = "loitering"
	AlertTypeVehicle   AlertType = "vehicle"
)

type AlertPriority string

const (
	AlertPriorityHigh   AlertPriority = "high"
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityLow    AlertPriority = "low"
)

type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusResolved  AlertStatus = "resolved"
	AlertStatusDismissed AlertStatus = "dismissed"
)

var ErrInvalidTransition = errors.New("invalid alert status transition")

// CanTransition reports whether an alert may move from s to next.
// Pending alerts may be resolved or dismissed; setting the current status
// again is a no-op.
func (s AlertStatus) CanTransition(next AlertStatus) bool {
	if s == next {
		return true
	}
	return s == AlertStatusPending && (next == AlertStatusResolved || next == AlertStatusDismissed)
}

type Alert struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Type        AlertType     `json:"type" gorm:"type:varchar(20);not null"`
	Description string        `json:"description" gorm:"not null"`
	CameraID    uint          `json:"cameraId" gorm:"index"` // soft reference
	Priority    AlertPriority `json:"priority" gorm:"type:varchar(10);not null"`
	Status      AlertStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	Timestamp   time.Time     `json:"timestamp" gorm:"not null;index"`
}

type AlertInsert struct {
	Type        string  `json:"type" zog:"type"`
	Description string  `json:"description" zog:"description"`
	CameraID    int     `json:"cameraId" zog:"cameraId"`
	Priority    *string `json:"priority" zog:"priority"`
	Status      *string `json:"status" zog:"status"`
}

func (in AlertInsert) ToModel(now time.Time) Alert {
	return Alert{
		Type:        AlertType(in.Type),
		Description: in.Description,
		CameraID:    uint(in.CameraID),
		Priority:    AlertPriority(stringOr(in.Priority, string(AlertPriorityMedium))),
		Status:      AlertStatus(stringOr(in.Status, string(AlertStatusPending))),
		Timestamp:   now,
	}
}

type AlertPatch struct {
	Type        *AlertType     `json:"type" binding:"omitnil,oneof=intrusion motion loitering vehicle"`
	Description *string        `json:"description" binding:"omitnil,min=1"`
	CameraID    *uint          `json:"cameraId"`
	Priority    *AlertPriority `json:"priority" binding:"omitnil,oneof=high medium low"`
	Status      *AlertStatus   `json:"status" binding:"omitnil,oneof=pending resolved dismissed"`
}

// Apply merges p into a. The timestamp is immutable and status changes must
// follow CanTransition.
func (p AlertPatch) Apply(a *Alert) error {
	if p.Status != nil && !a.Status.CanTransition(*p.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, *p.Status)
	}
	setIf(&a.Type, p.Type)
	setIf(&a.Description, p.Description)
	setIf(&a.CameraID, p.CameraID)
	setIf(&a.Priority, p.Priority)
	setIf(&a.Status, p.Status)
	return nil
}

type AlertFilter struct {
	From     *time.Time
	To       *time.Time
	Status   AlertStatus
	Priority AlertPriority
}

func (f AlertFilter) Match(a Alert) bool {
	if f.From != nil && a.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && a.Timestamp.After(*f.To) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	return true
}
