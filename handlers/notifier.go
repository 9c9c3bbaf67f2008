package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/store"
)

// notifier turns successful mutations into notification channel traffic.
// It runs synchronously after the store call. Notifications respect the
// pushNotifications setting; refresh updates are always sent.
type notifier struct {
	pub   notify.Publisher
	store store.Store
	log   *zap.Logger
}

func (n *notifier) settings(ctx context.Context) models.SystemSettings {
	s, err := n.store.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			n.log.Warn("failed to read settings, using defaults", zap.Error(err))
		}
		return models.DefaultSettings(time.Now())
	}
	return *s
}

func (n *notifier) notify(ctx context.Context, note notify.Notification) {
	if n.pub == nil {
		return
	}
	if !n.settings(ctx).PushNotifications {
		n.log.Debug("push notifications disabled", zap.String("title", note.Title))
		return
	}
	n.pub.Notify(note)
}

func (n *notifier) update(kind string, payload any) {
	if n.pub == nil {
		return
	}
	n.pub.Update(kind, payload)
}

// alertPriority maps an alert onto a notification priority. High priority
// intrusions are critical.
func alertPriority(a *models.Alert) notify.Priority {
	switch a.Priority {
	case models.AlertPriorityHigh:
		if a.Type == models.AlertTypeIntrusion {
			return notify.PriorityCritical
		}
		return notify.PriorityHigh
	case models.AlertPriorityLow:
		return notify.PriorityLow
	}
	return notify.PriorityMedium
}

func (n *notifier) alertCreated(ctx context.Context, a *models.Alert) {
	n.update(notify.UpdateAlerts, a)
	if n.pub == nil {
		return
	}
	s := n.settings(ctx)
	if !s.DetectionEnabled(a.Type) {
		n.log.Debug("detection disabled, alert not announced", zap.String("type", string(a.Type)))
		return
	}
	if !s.PushNotifications {
		return
	}
	n.pub.Notify(notify.Notification{
		Category: notify.CategoryAlert,
		Priority: alertPriority(a),
		Title:    fmt.Sprintf("New %s alert", a.Type),
		Message:  fmt.Sprintf("%s (camera %d)", a.Description, a.CameraID),
	})
}

func cameraPriority(s models.CameraStatus) notify.Priority {
	switch s {
	case models.CameraStatusOffline:
		return notify.PriorityHigh
	case models.CameraStatusMaintenance:
		return notify.PriorityMedium
	}
	return notify.PriorityLow
}

func (n *notifier) cameraStatusChanged(ctx context.Context, c *models.Camera) {
	n.notify(ctx, notify.Notification{
		Category: notify.CategoryCamera,
		Priority: cameraPriority(c.Status),
		Title:    fmt.Sprintf("Camera %s is %s", c.Name, c.Status),
		Message:  fmt.Sprintf("%s at %s changed status to %s", c.Name, c.Location, c.Status),
	})
}

func (n *notifier) employeeCreated(ctx context.Context, e *models.Employee) {
	n.notify(ctx, notify.Notification{
		Category: notify.CategoryEmployee,
		Priority: notify.PriorityLow,
		Title:    "New employee registered",
		Message:  fmt.Sprintf("%s (%s) joined %s", e.Name, e.EmployeeID, e.Department),
	})
}
