// Package store is the persistence layer of the dashboard. Store has two
// interchangeable implementations: MemStore keeps every entity kind in
// process memory and GormStore keeps one relational table per kind.
//
// Both implementations fill create-time defaults through the models' Insert
// types, report absent ids as ErrNotFound and unique-field collisions as
// ErrConflict. Neither cascades deletes across entity kinds.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentinel-cctv/be/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflicts with an existing one")
	ErrInvalid  = errors.New("invalid data")
)

type Store interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, in models.UserInsert) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, p models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id uint) error

	GetCamera(ctx context.Context, id uint) (*models.Camera, error)
	ListCameras(ctx context.Context) ([]models.Camera, error)
	CreateCamera(ctx context.Context, in models.CameraInsert) (*models.Camera, error)
	UpdateCamera(ctx context.Context, id uint, p models.CameraPatch) (*models.Camera, error)
	DeleteCamera(ctx context.Context, id uint) error

	GetZone(ctx context.Context, id uint) (*models.Zone, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
	CreateZone(ctx context.Context, in models.ZoneInsert) (*models.Zone, error)
	UpdateZone(ctx context.Context, id uint, p models.ZonePatch) (*models.Zone, error)
	DeleteZone(ctx context.Context, id uint) error

	GetAlert(ctx context.Context, id uint) (*models.Alert, error)
	ListAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error)
	CreateAlert(ctx context.Context, in models.AlertInsert) (*models.Alert, error)
	UpdateAlert(ctx context.Context, id uint, p models.AlertPatch) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id uint) error

	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	// ListEmployees returns every employee record, or only those of date
	// (YYYY-MM-DD) when date is not empty.
	ListEmployees(ctx context.Context, date string) ([]models.Employee, error)
	CreateEmployee(ctx context.Context, in models.EmployeeInsert) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id uint, p models.EmployeePatch) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id uint) error

	// GetSettings returns ErrNotFound until the settings row has been
	// written once.
	GetSettings(ctx context.Context) (*models.SystemSettings, error)
	// UpdateSettings creates the settings row from defaults when absent and
	// then applies p.
	UpdateSettings(ctx context.Context, p models.SettingsPatch) (*models.SystemSettings, error)

	GetSubscriptionPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error)
	ListSubscriptionPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	CreateSubscriptionPlan(ctx context.Context, in models.SubscriptionPlanInsert) (*models.SubscriptionPlan, error)
	UpdateSubscriptionPlan(ctx context.Context, id uint, p models.SubscriptionPlanPatch) (*models.SubscriptionPlan, error)
	DeleteSubscriptionPlan(ctx context.Context, id uint) error

	GetDemoRequest(ctx context.Context, id uint) (*models.DemoRequest, error)
	ListDemoRequests(ctx context.Context) ([]models.DemoRequest, error)
	CreateDemoRequest(ctx context.Context, in models.DemoRequestInsert) (*models.DemoRequest, error)
	UpdateDemoRequest(ctx context.Context, id uint, p models.DemoRequestPatch) (*models.DemoRequest, error)
	DeleteDemoRequest(ctx context.Context, id uint) error

	GetSearchQuery(ctx context.Context, id uint) (*models.SearchQuery, error)
	ListSearchQueries(ctx context.Context) ([]models.SearchQuery, error)
	CreateSearchQuery(ctx context.Context, in models.SearchQueryInsert) (*models.SearchQuery, error)
	UpdateSearchQuery(ctx context.Context, id uint, p models.SearchQueryPatch) (*models.SearchQuery, error)
	DeleteSearchQuery(ctx context.Context, id uint) error

	GetRecording(ctx context.Context, id uint) (*models.Recording, error)
	ListRecordings(ctx context.Context, f models.RecordingFilter) ([]models.Recording, error)
	CreateRecording(ctx context.Context, in models.RecordingInsert) (*models.Recording, error)
	UpdateRecording(ctx context.Context, id uint, p models.RecordingPatch) (*models.Recording, error)
	DeleteRecording(ctx context.Context, id uint) error

	Close() error
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for create timestamps and date defaults.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

func conflict(kind, field, value string) error {
	return fmt.Errorf("%s with %s %q already exists: %w", kind, field, value, ErrConflict)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}
