package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
)

// LateAfter is the check-in time of day after which an employee counts as late.
const LateAfter = 9 * time.Hour

var checkInLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"03:04 PM",
}

type DashboardStats struct {
	TotalCameras     int `json:"totalCameras"`
	ActiveCameras    int `json:"activeCameras"`
	TodayAlerts      int `json:"todayAlerts"`
	PendingAlerts    int `json:"pendingAlerts"`
	TotalZones       int `json:"totalZones"`
	ZoneCoverage     int `json:"zoneCoverage"` // percent, 0..100
	TotalEmployees   int `json:"totalEmployees"`
	PresentEmployees int `json:"presentEmployees"`
	AbsentEmployees  int `json:"absentEmployees"`
	LateEmployees    int `json:"lateEmployees"`
}

// StatsService aggregates dashboard counters straight from the store on
// every call.
type StatsService struct {
	store store.Store
	now   func() time.Time
}

func NewStatsService(s store.Store, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{store: s, now: now}
}

func (s *StatsService) Compute(ctx context.Context) (*DashboardStats, error) {
	cameras, err := s.store.ListCameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cameras: %w", err)
	}
	alerts, err := s.store.ListAlerts(ctx, models.AlertFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	zones, err := s.store.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	employees, err := s.store.ListEmployees(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	now := s.now()
	today := models.Today(now)
	stats := &DashboardStats{
		TotalCameras:   len(cameras),
		TotalZones:     len(zones),
		ZoneCoverage:   ZoneCoverage(len(cameras), len(zones)),
		TotalEmployees: len(employees),
	}

	for _, c := range cameras {
		if c.Status == models.CameraStatusActive {
			stats.ActiveCameras++
		}
	}
	for _, a := range alerts {
		if models.Today(a.Timestamp.In(now.Location())) == today {
			stats.TodayAlerts++
		}
		if a.Status == models.AlertStatusPending {
			stats.PendingAlerts++
		}
	}
	for _, e := range employees {
		if strings.TrimSpace(e.CheckIn) == "" {
			continue
		}
		stats.PresentEmployees++
		if IsLate(e.CheckIn) {
			stats.LateEmployees++
		}
	}
	stats.AbsentEmployees = stats.TotalEmployees - stats.PresentEmployees

	return stats, nil
}

// ZoneCoverage is cameras per zone as a rounded percentage capped at 100.
// Without zones there is nothing to cover and the result is 0.
func ZoneCoverage(cameras, zones int) int {
	if zones <= 0 {
		return 0
	}
	pct := int(math.Round(float64(cameras) / float64(zones) * 100))
	return min(pct, 100)
}

// IsLate reports whether checkIn is a time of day strictly after LateAfter.
// Unparseable values are never late.
func IsLate(checkIn string) bool {
	tod, ok := parseTimeOfDay(checkIn)
	return ok && tod > LateAfter
}

func parseTimeOfDay(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range checkInLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second, true
	}
	return 0, false
}
