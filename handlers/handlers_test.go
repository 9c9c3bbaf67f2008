package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/notify"
	"sentinel-cctv/be/notify/mocks"
	"sentinel-cctv/be/store"
)

var testNow = time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetTestLoggerNop()
	os.Exit(m.Run())
}

type testEnv struct {
	router *gin.Engine
	store  store.Store
	pub    *mocks.MockPublisher
	cfg    *config.Config
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)

	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	cfg.Security.CORSOrigins = nil
	for _, fn := range mutate {
		fn(cfg)
	}

	now := func() time.Time { return testNow }
	s := store.NewMemStore(store.WithClock(now))
	r := NewRouter(Deps{Config: cfg, Store: s, Publisher: pub, Now: now})
	return &testEnv{router: r, store: s, pub: pub, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (e *testEnv) allowUpdates() {
	e.pub.EXPECT().Update(gomock.Any(), gomock.Any()).AnyTimes()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateCameraDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.pub.EXPECT().Update(notify.UpdateCameras, gomock.Any()).Times(1)

	w, body := env.do(t, http.MethodPost, "/api/cameras", map[string]any{
		"name":     "Lobby",
		"location": "Main entrance",
		"ip":       "10.0.0.5",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, float64(models.DefaultCameraSensitivity), body["sensitivity"])
	assert.Equal(t, "", body["assignedZone"])
}

func TestCreateCameraValidation(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/cameras", map[string]any{
		"name":        "Lobby",
		"sensitivity": 11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", body["message"])
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, errs)
	assert.NotContains(t, errs, "$first")
}

func TestCreateRejectsWrongJSONTypes(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{"name": "Lobby", "location": "Main entrance", "ip": "10.0.0.5"}
	}
	tests := []struct {
		name  string
		field string
		value any
	}{
		{"number for string", "name", 123},
		{"bool for string", "location", true},
		{"fraction for int", "sensitivity", 7.5},
		{"bool for int", "sensitivity", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			in := valid()
			in[tt.field] = tt.value

			w, body := env.do(t, http.MethodPost, "/api/cameras", in)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "Validation failed", body["message"])

			cams, err := env.store.ListCameras(context.Background())
			require.NoError(t, err)
			assert.Empty(t, cams)
		})
	}

	t.Run("whole number for int", func(t *testing.T) {
		env := newTestEnv(t)
		env.pub.EXPECT().Update(notify.UpdateCameras, gomock.Any()).Times(1)
		in := valid()
		in["sensitivity"] = 7.0

		w, body := env.do(t, http.MethodPost, "/api/cameras", in)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(7), body["sensitivity"])
	})
}

func TestGetMissingAndBadID(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/zones/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Zone not found", body["message"])

	w, _ = env.do(t, http.MethodGet, "/api/zones/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/recordings/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodGet, "/api/demo-requests", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestPatchRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.store.CreateZone(ctx, models.ZoneInsert{Name: "Lobby", Type: "entrance"})
	require.NoError(t, err)

	w, _ := env.do(t, http.MethodPut, "/api/zones/1", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.do(t, http.MethodPut, "/api/zones/1", map[string]any{"description": "ground floor"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ground floor", body["description"])
	assert.Equal(t, "Lobby", body["name"])
}

func TestAlertResolveFlow(t *testing.T) {
	env := newTestEnv(t)
	env.pub.EXPECT().Update(notify.UpdateAlerts, gomock.Any()).Times(2)
	env.pub.EXPECT().Notify(gomock.Any()).DoAndReturn(func(n notify.Notification) notify.Notification {
		assert.Equal(t, notify.CategoryAlert, n.Category)
		assert.Equal(t, notify.PriorityCritical, n.Priority)
		assert.Equal(t, "New intrusion alert", n.Title)
		return n
	}).Times(1)

	w, body := env.do(t, http.MethodPost, "/api/alerts", map[string]any{
		"type":        "intrusion",
		"description": "Door forced",
		"cameraId":    3,
		"priority":    "high",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pending", body["status"])

	w, body = env.do(t, http.MethodPut, "/api/alerts/1", map[string]any{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "resolved", body["status"])

	w, body = env.do(t, http.MethodPut, "/api/alerts/1", map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid data", body["message"])
}

func TestAlertSuppressedWhenDetectionDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.allowUpdates()
	env.pub.EXPECT().Notify(gomock.Any()).Times(0)

	w, _ := env.do(t, http.MethodPut, "/api/settings", map[string]any{"motionDetection": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, http.MethodPost, "/api/alerts", map[string]any{
		"type":        "motion",
		"description": "Movement in corridor",
		"cameraId":    1,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAlertListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	high := "high"
	for _, p := range []*string{&high, nil} {
		_, err := env.store.CreateAlert(ctx, models.AlertInsert{Type: "motion", Description: "x", CameraID: 1, Priority: p})
		require.NoError(t, err)
	}

	w, _ := env.do(t, http.MethodGet, "/api/alerts?priority=high", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertPriorityHigh, alerts[0].Priority)

	w, _ = env.do(t, http.MethodGet, "/api/alerts?from=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCameraStatusChangeNotifies(t *testing.T) {
	env := newTestEnv(t)
	env.allowUpdates()
	_, err := env.store.CreateCamera(context.Background(), models.CameraInsert{Name: "Dock", Location: "Rear", IP: "10.0.0.9"})
	require.NoError(t, err)

	env.pub.EXPECT().Notify(gomock.Any()).DoAndReturn(func(n notify.Notification) notify.Notification {
		assert.Equal(t, notify.CategoryCamera, n.Category)
		assert.Equal(t, notify.PriorityHigh, n.Priority)
		return n
	}).Times(1)

	w, _ := env.do(t, http.MethodPut, "/api/cameras/1", map[string]any{"status": "offline"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// same status again does not notify
	w, _ = env.do(t, http.MethodPut, "/api/cameras/1", map[string]any{"status": "offline"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStreamDisabled(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodGet, "/api/cameras/1/stream", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/cameras/1/probe", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEmployeeConflict(t *testing.T) {
	env := newTestEnv(t)
	env.allowUpdates()
	env.pub.EXPECT().Notify(gomock.Any()).DoAndReturn(func(n notify.Notification) notify.Notification {
		assert.Equal(t, notify.CategoryEmployee, n.Category)
		return n
	}).Times(1)

	emp := map[string]any{"name": "Ana", "employeeId": "EMP-1", "department": "Security"}
	w, body := env.do(t, http.MethodPost, "/api/employees", emp)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2025-03-14", body["date"])

	w, body = env.do(t, http.MethodPost, "/api/employees", emp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid data", body["message"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.CreateUser(context.Background(), models.UserInsert{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "secret",
	})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "admin@example.com", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, body, "user")
		assert.NotContains(t, body, "token")
	})

	t.Run("unknown email", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "ghost@example.com", "password": "secret"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		w, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "admin@example.com", "password": "secret"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		token, _ := body["token"].(string)
		assert.NotEmpty(t, token)
		user := body["user"].(map[string]any)
		assert.Equal(t, "security", user["role"])
		assert.NotContains(t, user, "password")

		w, body = env.do(t, http.MethodGet, "/api/auth/me", nil, "Authorization", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "admin", body["username"])
	})
}

func TestMeWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	w, _ := env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnforcedAuth(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.JWT.Enforce = true })

	w, _ := env.do(t, http.MethodGet, "/api/cameras", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// login stays public
	w, body := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "a@b.co", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestUsersHidePasswordAndAccountsAlias(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Security.PasswordMode = config.PasswordModeBcrypt })

	w, body := env.do(t, http.MethodPost, "/api/users", map[string]any{
		"username": "hr1",
		"email":    "hr1@example.com",
		"password": "pw",
		"role":     "hr",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, body, "password")

	stored, err := env.store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.Password)

	w, body = env.do(t, http.MethodGet, "/api/accounts/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hr1", body["username"])

	w, _ = env.do(t, http.MethodPost, "/api/accounts", map[string]any{
		"username": "hr2",
		"email":    "hr1@example.com",
		"password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodPost, "/api/users", map[string]any{
		"username": "owner1",
		"email":    "owner1@example.com",
		"password": "pw",
		"role":     "owner",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["errors"], "role")
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["pushNotifications"])
	assert.Equal(t, float64(30), body["dataRetention"])
	assert.Equal(t, float64(5), body["maxLoginAttempts"])

	env.pub.EXPECT().Update(notify.UpdateSettings, gomock.Any()).Times(1)
	w, body = env.do(t, http.MethodPut, "/api/settings", map[string]any{"globalSensitivity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(3), body["globalSensitivity"])
	assert.Equal(t, true, body["intrusionDetection"])

	w, _ = env.do(t, http.MethodPut, "/api/settings", map[string]any{"globalSensitivity": 42})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		_, err := env.store.CreateCamera(ctx, models.CameraInsert{Name: "cam", Location: "x", IP: ip})
		require.NoError(t, err)
	}
	_, err := env.store.CreateZone(ctx, models.ZoneInsert{Name: "Lobby", Type: "entrance"})
	require.NoError(t, err)

	w, body := env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["totalCameras"])
	assert.Equal(t, float64(2), body["activeCameras"])
	assert.Equal(t, float64(1), body["totalZones"])
}

func TestChat(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "Are any cameras offline?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["response"])
	assert.Equal(t, float64(1), body["queryId"])

	q, err := env.store.GetSearchQuery(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Are any cameras offline?", q.Query)

	w, _ = env.do(t, http.MethodPost, "/api/chat", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBroadcast(t *testing.T) {
	env := newTestEnv(t)
	env.pub.EXPECT().Notify(gomock.Any()).DoAndReturn(func(n notify.Notification) notify.Notification {
		assert.Equal(t, notify.CategorySystem, n.Category)
		assert.Equal(t, notify.PriorityMedium, n.Priority)
		n.ID = "n-1"
		return n
	}).Times(1)

	w, body := env.do(t, http.MethodPost, "/api/notifications/broadcast", map[string]any{
		"title":   "Maintenance",
		"message": "Recorder restarts at 22:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "n-1", body["id"])

	w, _ = env.do(t, http.MethodPost, "/api/notifications/broadcast", map[string]any{
		"title":    "x",
		"message":  "y",
		"priority": "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.pub.EXPECT().Notify(gomock.Any()).DoAndReturn(func(n notify.Notification) notify.Notification {
		assert.Equal(t, notify.PriorityCritical, n.Priority)
		return n
	}).Times(1)
	w, _ = env.do(t, http.MethodPost, "/api/notifications/broadcast", map[string]any{
		"title":    "Evacuate",
		"message":  "Fire alarm in building B",
		"priority": "critical",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRecordingFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	motion := true
	_, err := env.store.CreateRecording(ctx, models.RecordingInsert{CameraID: 1, FilePath: "/r/1.mp4", HasMotion: &motion})
	require.NoError(t, err)
	_, err = env.store.CreateRecording(ctx, models.RecordingInsert{CameraID: 2, FilePath: "/r/2.mp4"})
	require.NoError(t, err)

	w, _ := env.do(t, http.MethodGet, "/api/recordings?cameraId=1&hasMotion=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recs []models.Recording
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "/r/1.mp4", recs[0].FilePath)

	w, _ = env.do(t, http.MethodGet, "/api/recordings?hasMotion=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
