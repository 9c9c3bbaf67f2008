package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
)

var ErrEmptyMessage = errors.New("message is empty")

type ChatReply struct {
	Response string `json:"response"`
	QueryID  uint   `json:"queryId"`
}

type intent struct {
	name     string
	keywords []string
	answer   func(ctx context.Context, a *Assistant) (string, error)
}

// Assistant answers dashboard questions from live store data by keyword
// matching. Every exchange is saved as a search query.
type Assistant struct {
	store   store.Store
	stats   *StatsService
	intents []intent
	log     *zap.Logger
}

func NewAssistant(s store.Store, stats *StatsService) *Assistant {
	a := &Assistant{
		store: s,
		stats: stats,
		log:   logger.GetLoggerWith("assistant"),
	}
	a.intents = []intent{
		{name: "alerts", keywords: []string{"alert", "intrusion", "incident"}, answer: answerAlerts},
		{name: "cameras", keywords: []string{"camera", "cctv", "offline", "feed"}, answer: answerCameras},
		{name: "employees", keywords: []string{"employee", "attendance", "late", "staff", "present", "absent"}, answer: answerEmployees},
		{name: "zones", keywords: []string{"zone", "coverage", "area"}, answer: answerZones},
		{name: "plans", keywords: []string{"plan", "price", "pricing", "subscription"}, answer: answerPlans},
	}
	return a
}

// Ask answers message and logs the exchange. userID may be nil.
func (a *Assistant) Ask(ctx context.Context, message string, userID *uint) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	response, matched, err := a.answer(ctx, message)
	if err != nil {
		return nil, err
	}

	in := models.SearchQueryInsert{Query: message, Response: &response}
	if userID != nil {
		id := int(*userID)
		in.UserID = &id
	}
	q, err := a.store.CreateSearchQuery(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to log search query: %w", err)
	}

	a.log.Debug("assistant answered", zap.Uint("query_id", q.ID), zap.String("intent", matched))
	return &ChatReply{Response: response, QueryID: q.ID}, nil
}

func (a *Assistant) answer(ctx context.Context, message string) (string, string, error) {
	lower := strings.ToLower(message)
	var parts []string
	var matched []string
	for _, in := range a.intents {
		if !containsAny(lower, in.keywords) {
			continue
		}
		text, err := in.answer(ctx, a)
		if err != nil {
			return "", "", err
		}
		parts = append(parts, text)
		matched = append(matched, in.name)
	}
	if len(parts) == 0 {
		return helpText, "help", nil
	}
	return strings.Join(parts, " "), strings.Join(matched, ","), nil
}

const helpText = "I can answer questions about cameras, alerts, employee attendance, " +
	"zones and subscription plans. Try \"how many alerts are pending?\"."

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func answerAlerts(ctx context.Context, a *Assistant) (string, error) {
	st, err := a.stats.Compute(ctx)
	if err != nil {
		return "", err
	}
	pending, err := a.store.ListAlerts(ctx, models.AlertFilter{
		Status:   models.AlertStatusPending,
		Priority: models.AlertPriorityHigh,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("There are %d pending alerts (%d high priority) and %d alerts were raised today.",
		st.PendingAlerts, len(pending), st.TodayAlerts), nil
}

func answerCameras(ctx context.Context, a *Assistant) (string, error) {
	cameras, err := a.store.ListCameras(ctx)
	if err != nil {
		return "", err
	}
	var active int
	var offline []string
	for _, c := range cameras {
		switch c.Status {
		case models.CameraStatusActive:
			active++
		case models.CameraStatusOffline:
			offline = append(offline, c.Name)
		}
	}
	text := fmt.Sprintf("%d of %d cameras are active.", active, len(cameras))
	if len(offline) > 0 {
		text += " Offline: " + strings.Join(offline, ", ") + "."
	}
	return text, nil
}

func answerEmployees(ctx context.Context, a *Assistant) (string, error) {
	st, err := a.stats.Compute(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d employees are present, %d absent and %d checked in late.",
		st.PresentEmployees, st.AbsentEmployees, st.LateEmployees), nil
}

func answerZones(ctx context.Context, a *Assistant) (string, error) {
	st, err := a.stats.Compute(ctx)
	if err != nil {
		return "", err
	}
	reply := fmt.Sprintf("%d zones are monitored with %d%% camera coverage.", st.TotalZones, st.ZoneCoverage)

	zones, err := a.store.ListZones(ctx)
	if err != nil {
		return "", err
	}
	cameras, err := a.store.ListCameras(ctx)
	if err != nil {
		return "", err
	}
	assigned := make(map[string]bool, len(cameras))
	for _, c := range cameras {
		if c.AssignedZone != "" {
			assigned[models.Slugify(c.AssignedZone)] = true
		}
	}
	var uncovered []string
	for _, zone := range zones {
		if !assigned[zone.Slug()] {
			uncovered = append(uncovered, zone.Name)
		}
	}
	if len(uncovered) > 0 {
		reply += fmt.Sprintf(" No camera is assigned to: %s.", strings.Join(uncovered, ", "))
	}
	return reply, nil
}

func answerPlans(ctx context.Context, a *Assistant) (string, error) {
	plans, err := a.store.ListSubscriptionPlans(ctx)
	if err != nil {
		return "", err
	}
	var offers []string
	for _, p := range plans {
		if !p.IsActive {
			continue
		}
		offers = append(offers, fmt.Sprintf("%s at %d/month for up to %d cameras", p.Name, p.MonthlyPrice, p.MaxCameras))
	}
	if len(offers) == 0 {
		return "No subscription plans are available right now.", nil
	}
	return "Available plans: " + strings.Join(offers, "; ") + ".", nil
}
