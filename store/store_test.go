package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var baseTime = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newGormStore(t *testing.T, opts ...store.Option) *store.GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	s := store.NewGormStore(db, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// forEachStore runs fn once per backend with a fresh, empty store.
func forEachStore(t *testing.T, fn func(t *testing.T, s store.Store, clk *clock)) {
	t.Run("memory", func(t *testing.T) {
		clk := &clock{now: baseTime}
		fn(t, store.NewMemStore(store.WithClock(clk.Now)), clk)
	})
	t.Run("gorm", func(t *testing.T) {
		clk := &clock{now: baseTime}
		fn(t, newGormStore(t, store.WithClock(clk.Now)), clk)
	})
}

func ptr[T any](v T) *T { return &v }

func cameraInsert(name string) models.CameraInsert {
	return models.CameraInsert{Name: name, Location: "Gate", IP: "10.0.0.5"}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			c, err := s.CreateCamera(ctx, cameraInsert(fmt.Sprintf("cam-%d", i)))
			require.NoError(t, err)
			assert.Equal(t, uint(i), c.ID)
		}
		require.NoError(t, s.DeleteCamera(ctx, 3))

		c, err := s.CreateCamera(ctx, cameraInsert("cam-4"))
		require.NoError(t, err)
		assert.Equal(t, uint(4), c.ID)

		list, err := s.ListCameras(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"cam-1", "cam-2", "cam-4"}, []string{list[0].Name, list[1].Name, list[2].Name})
	})
}

func TestCreateFillsDefaults(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()

		c, err := s.CreateCamera(ctx, cameraInsert("Lobby"))
		require.NoError(t, err)
		assert.Equal(t, models.CameraStatusActive, c.Status)
		assert.Equal(t, models.DefaultCameraSensitivity, c.Sensitivity)
		assert.True(t, c.CreatedAt.Equal(baseTime))

		a, err := s.CreateAlert(ctx, models.AlertInsert{Type: "motion", Description: "door", CameraID: 1})
		require.NoError(t, err)
		assert.Equal(t, models.AlertPriorityMedium, a.Priority)
		assert.Equal(t, models.AlertStatusPending, a.Status)
		assert.True(t, a.Timestamp.Equal(baseTime))

		u, err := s.CreateUser(ctx, models.UserInsert{Username: "guard", Email: "guard@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSecurity, u.Role)

		e, err := s.CreateEmployee(ctx, models.EmployeeInsert{Name: "Ana", EmployeeID: "E-1", Department: "Ops"})
		require.NoError(t, err)
		assert.Equal(t, "2025-03-14", e.Date)
		assert.Equal(t, models.EmployeeStatusActive, e.Status)

		p, err := s.CreateSubscriptionPlan(ctx, models.SubscriptionPlanInsert{Name: "Basic", MonthlyPrice: 10, YearlyPrice: 100, MaxCameras: 4})
		require.NoError(t, err)
		assert.Empty(t, p.Features)
		assert.False(t, p.IsPopular)
		assert.True(t, p.IsActive)

		r, err := s.CreateRecording(ctx, models.RecordingInsert{CameraID: 1, Duration: 60, FilePath: "/rec/1.mp4"})
		require.NoError(t, err)
		assert.Equal(t, models.RecordingQualityMedium, r.Quality)
		assert.False(t, r.HasMotion)
		assert.True(t, r.StartTime.Equal(baseTime))
	})
}

func TestCreateThenGetRoundTrips(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		created, err := s.CreateZone(ctx, models.ZoneInsert{Name: "Loading Dock", Type: "restricted", Description: ptr("rear")})
		require.NoError(t, err)

		got, err := s.GetZone(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, created.Type, got.Type)
		assert.Equal(t, created.Description, got.Description)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})
}

func TestMissingIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()

		_, err := s.GetCamera(ctx, 42)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.UpdateCamera(ctx, 42, models.CameraPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.ErrorIs(t, s.DeleteCamera(ctx, 42), store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteAlert(ctx, 42), store.ErrNotFound)

		_, err = s.GetSettings(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUserUniqueFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		_, err := s.CreateUser(ctx, models.UserInsert{Username: "a", Email: "a@example.com", Password: "x"})
		require.NoError(t, err)
		b, err := s.CreateUser(ctx, models.UserInsert{Username: "b", Email: "b@example.com", Password: "x"})
		require.NoError(t, err)

		_, err = s.CreateUser(ctx, models.UserInsert{Username: "a", Email: "other@example.com", Password: "x"})
		assert.ErrorIs(t, err, store.ErrConflict)

		_, err = s.CreateUser(ctx, models.UserInsert{Username: "c", Email: "a@example.com", Password: "x"})
		assert.ErrorIs(t, err, store.ErrConflict)

		_, err = s.UpdateUser(ctx, b.ID, models.UserPatch{Email: ptr("a@example.com")})
		assert.ErrorIs(t, err, store.ErrConflict)

		// rewriting a record's own unique value is not a conflict
		_, err = s.UpdateUser(ctx, b.ID, models.UserPatch{Email: ptr("b@example.com")})
		assert.NoError(t, err)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestEmployeeIDIsUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		_, err := s.CreateEmployee(ctx, models.EmployeeInsert{Name: "Ana", EmployeeID: "E-1", Department: "Ops"})
		require.NoError(t, err)
		_, err = s.CreateEmployee(ctx, models.EmployeeInsert{Name: "Bo", EmployeeID: "E-1", Department: "HR"})
		assert.ErrorIs(t, err, store.ErrConflict)
	})
}

func TestEmptyPatchIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		c, err := s.CreateCamera(ctx, cameraInsert("Garage"))
		require.NoError(t, err)

		first, err := s.UpdateCamera(ctx, c.ID, models.CameraPatch{})
		require.NoError(t, err)
		second, err := s.UpdateCamera(ctx, c.ID, models.CameraPatch{})
		require.NoError(t, err)

		for _, got := range []*models.Camera{first, second} {
			assert.Equal(t, c.Name, got.Name)
			assert.Equal(t, c.Status, got.Status)
			assert.Equal(t, c.Sensitivity, got.Sensitivity)
			assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
		}
	})
}

func TestPatchOnlyTouchesGivenFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		c, err := s.CreateCamera(ctx, cameraInsert("Garage"))
		require.NoError(t, err)

		offline := models.CameraStatusOffline
		got, err := s.UpdateCamera(ctx, c.ID, models.CameraPatch{Status: &offline})
		require.NoError(t, err)
		assert.Equal(t, models.CameraStatusOffline, got.Status)
		assert.Equal(t, "Garage", got.Name)
		assert.Equal(t, "10.0.0.5", got.IP)
	})
}

func TestAlertStatusTransitions(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		a, err := s.CreateAlert(ctx, models.AlertInsert{Type: "intrusion", Description: "fence", CameraID: 2})
		require.NoError(t, err)

		resolved := models.AlertStatusResolved
		got, err := s.UpdateAlert(ctx, a.ID, models.AlertPatch{Status: &resolved})
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusResolved, got.Status)
		assert.True(t, got.Timestamp.Equal(a.Timestamp))

		pending := models.AlertStatusPending
		_, err = s.UpdateAlert(ctx, a.ID, models.AlertPatch{Status: &pending})
		assert.ErrorIs(t, err, store.ErrInvalid)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		got, err = s.GetAlert(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusResolved, got.Status)
	})
}

func TestListAlertsFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, clk *clock) {
		ctx := context.Background()
		for i, prio := range []string{"high", "low", "high"} {
			clk.Set(baseTime.Add(time.Duration(i) * time.Hour))
			_, err := s.CreateAlert(ctx, models.AlertInsert{Type: "motion", Description: "d", CameraID: 1, Priority: ptr(prio)})
			require.NoError(t, err)
		}
		dismissed := models.AlertStatusDismissed
		_, err := s.UpdateAlert(ctx, 3, models.AlertPatch{Status: &dismissed})
		require.NoError(t, err)

		all, err := s.ListAlerts(ctx, models.AlertFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		high, err := s.ListAlerts(ctx, models.AlertFilter{Priority: models.AlertPriorityHigh})
		require.NoError(t, err)
		assert.Len(t, high, 2)

		pending, err := s.ListAlerts(ctx, models.AlertFilter{Status: models.AlertStatusPending})
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		from := baseTime.Add(30 * time.Minute)
		late, err := s.ListAlerts(ctx, models.AlertFilter{From: &from})
		require.NoError(t, err)
		require.Len(t, late, 2)
		assert.Equal(t, uint(2), late[0].ID)
	})
}

func TestListEmployeesByDate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		_, err := s.CreateEmployee(ctx, models.EmployeeInsert{Name: "Ana", EmployeeID: "E-1", Department: "Ops"})
		require.NoError(t, err)
		_, err = s.CreateEmployee(ctx, models.EmployeeInsert{Name: "Bo", EmployeeID: "E-2", Department: "Ops", Date: ptr("2025-03-13")})
		require.NoError(t, err)

		today, err := s.ListEmployees(ctx, "2025-03-14")
		require.NoError(t, err)
		require.Len(t, today, 1)
		assert.Equal(t, "Ana", today[0].Name)

		all, err := s.ListEmployees(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestListRecordingsFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		_, err := s.CreateRecording(ctx, models.RecordingInsert{CameraID: 1, FilePath: "a", HasMotion: ptr(true)})
		require.NoError(t, err)
		_, err = s.CreateRecording(ctx, models.RecordingInsert{CameraID: 2, FilePath: "b", Quality: ptr("high")})
		require.NoError(t, err)

		cam := uint(2)
		got, err := s.ListRecordings(ctx, models.RecordingFilter{CameraID: &cam})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].FilePath)

		got, err = s.ListRecordings(ctx, models.RecordingFilter{HasMotion: ptr(true)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].FilePath)

		got, err = s.ListRecordings(ctx, models.RecordingFilter{Quality: models.RecordingQualityHigh})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestSettingsCreatedOnFirstUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		got, err := s.UpdateSettings(ctx, models.SettingsPatch{GlobalSensitivity: ptr(9)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.GlobalSensitivity)
		assert.True(t, got.PushNotifications)
		assert.False(t, got.SMSNotifications)
		assert.Equal(t, 30, got.DataRetention)

		got, err = s.UpdateSettings(ctx, models.SettingsPatch{PushNotifications: ptr(false)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.GlobalSensitivity)
		assert.False(t, got.PushNotifications)

		read, err := s.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint(models.SettingsID), read.ID)
		assert.False(t, read.PushNotifications)
	})
}

func TestPlanFeaturesRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		features := []string{"24/7 monitoring", "cloud storage"}
		p, err := s.CreateSubscriptionPlan(ctx, models.SubscriptionPlanInsert{
			Name: "Pro", MonthlyPrice: 50, YearlyPrice: 500, MaxCameras: 16, Features: features,
		})
		require.NoError(t, err)

		features[0] = "mutated"
		p.Features[1] = "mutated"

		got, err := s.GetSubscriptionPlan(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"24/7 monitoring", "cloud storage"}, []string(got.Features))
	})
}

func TestNoCascadeOnDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store, _ *clock) {
		ctx := context.Background()
		c, err := s.CreateCamera(ctx, cameraInsert("Yard"))
		require.NoError(t, err)
		a, err := s.CreateAlert(ctx, models.AlertInsert{Type: "vehicle", Description: "truck", CameraID: int(c.ID)})
		require.NoError(t, err)

		require.NoError(t, s.DeleteCamera(ctx, c.ID))

		got, err := s.GetAlert(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.CameraID)
	})
}

func TestMemStoreConcurrentCreates(t *testing.T) {
	s := store.NewMemStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateCamera(ctx, cameraInsert(fmt.Sprintf("cam-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := s.ListCameras(ctx)
	require.NoError(t, err)
	require.Len(t, list, 50)
	seen := make(map[uint]bool)
	for _, c := range list {
		assert.False(t, seen[c.ID], "duplicate id %d", c.ID)
		seen[c.ID] = true
		assert.LessOrEqual(t, c.ID, uint(50))
	}
}
