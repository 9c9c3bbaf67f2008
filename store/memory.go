package store

import (
	"context"
	"slices"
	"sync"

	"gorm.io/datatypes"

	"sentinel-cctv/be/models"
)

// table holds the rows of one entity kind in insertion order. Ids come from
// a per-table counter and are never reused, even after deletes.
type table[T any] struct {
	rows  map[uint]T
	order []uint
	next  uint
	id    func(*T) *uint
	clone func(T) T
}

func newTable[T any](id func(*T) *uint) *table[T] {
	return &table[T]{
		rows:  make(map[uint]T),
		next:  1,
		id:    id,
		clone: func(v T) T { return v },
	}
}

func (t *table[T]) get(id uint) (T, bool) {
	row, ok := t.rows[id]
	if !ok {
		return row, false
	}
	return t.clone(row), true
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	for _, id := range t.order {
		if row := t.rows[id]; match(row) {
			return t.clone(row), true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) list(match func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if match == nil || match(row) {
			out = append(out, t.clone(row))
		}
	}
	return out
}

func (t *table[T]) insert(row T) T {
	id := t.next
	t.next++
	*t.id(&row) = id
	t.rows[id] = t.clone(row)
	t.order = append(t.order, id)
	return row
}

func (t *table[T]) put(row T) {
	t.rows[*t.id(&row)] = t.clone(row)
}

func (t *table[T]) remove(id uint) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v uint) bool { return v == id })
	return true
}

// MemStore keeps every entity in process memory. A single lock serializes
// writers so that unique-field checks and id assignment are atomic.
type MemStore struct {
	mu   sync.RWMutex
	opts options

	users     *table[models.User]
	cameras   *table[models.Camera]
	zones     *table[models.Zone]
	alerts    *table[models.Alert]
	employees *table[models.Employee]
	plans     *table[models.SubscriptionPlan]
	demos     *table[models.DemoRequest]
	queries   *table[models.SearchQuery]
	records   *table[models.Recording]
	settings  *models.SystemSettings
}

func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		opts:      buildOptions(opts),
		users:     newTable(func(v *models.User) *uint { return &v.ID }),
		cameras:   newTable(func(v *models.Camera) *uint { return &v.ID }),
		zones:     newTable(func(v *models.Zone) *uint { return &v.ID }),
		alerts:    newTable(func(v *models.Alert) *uint { return &v.ID }),
		employees: newTable(func(v *models.Employee) *uint { return &v.ID }),
		plans:     newTable(func(v *models.SubscriptionPlan) *uint { return &v.ID }),
		demos:     newTable(func(v *models.DemoRequest) *uint { return &v.ID }),
		queries:   newTable(func(v *models.SearchQuery) *uint { return &v.ID }),
		records:   newTable(func(v *models.Recording) *uint { return &v.ID }),
	}
	s.plans.clone = clonePlan
	s.queries.clone = cloneSearchQuery
	return s
}

func clonePlan(p models.SubscriptionPlan) models.SubscriptionPlan {
	p.Features = datatypes.NewJSONSlice(slices.Clone([]string(p.Features)))
	return p
}

func cloneSearchQuery(q models.SearchQuery) models.SearchQuery {
	if q.UserID != nil {
		id := *q.UserID
		q.UserID = &id
	}
	return q
}

func (s *MemStore) Close() error { return nil }

func getRow[T any](s *MemStore, t *table[T], kind string, id uint) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := t.get(id)
	if !ok {
		return nil, notFound(kind, id)
	}
	return &row, nil
}

func listRows[T any](s *MemStore, t *table[T], match func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.list(match)
}

func deleteRow[T any](s *MemStore, t *table[T], kind string, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !t.remove(id) {
		return notFound(kind, id)
	}
	return nil
}

// users

func (s *MemStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	return getRow(s, s.users, "user", id)
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.find(func(u models.User) bool { return u.Email == email })
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users.find(func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) ListUsers(_ context.Context) ([]models.User, error) {
	return listRows(s, s.users, nil), nil
}

// userConflict checks u against every other user; self is skipped.
func (s *MemStore) userConflict(u models.User) error {
	for _, other := range s.users.rows {
		if other.ID == u.ID {
			continue
		}
		if other.Username == u.Username {
			return conflict("user", "username", u.Username)
		}
		if other.Email == u.Email {
			return conflict("user", "email", u.Email)
		}
	}
	return nil
}

func (s *MemStore) CreateUser(_ context.Context, in models.UserInsert) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := in.ToModel(s.opts.now())
	if err := s.userConflict(u); err != nil {
		return nil, err
	}
	u = s.users.insert(u)
	return &u, nil
}

func (s *MemStore) UpdateUser(_ context.Context, id uint, p models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users.get(id)
	if !ok {
		return nil, notFound("user", id)
	}
	p.Apply(&u)
	if err := s.userConflict(u); err != nil {
		return nil, err
	}
	s.users.put(u)
	return &u, nil
}

func (s *MemStore) DeleteUser(_ context.Context, id uint) error {
	return deleteRow(s, s.users, "user", id)
}

// cameras

func (s *MemStore) GetCamera(_ context.Context, id uint) (*models.Camera, error) {
	return getRow(s, s.cameras, "camera", id)
}

func (s *MemStore) ListCameras(_ context.Context) ([]models.Camera, error) {
	return listRows(s, s.cameras, nil), nil
}

func (s *MemStore) CreateCamera(_ context.Context, in models.CameraInsert) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cameras.insert(in.ToModel(s.opts.now()))
	return &c, nil
}

func (s *MemStore) UpdateCamera(_ context.Context, id uint, p models.CameraPatch) (*models.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cameras.get(id)
	if !ok {
		return nil, notFound("camera", id)
	}
	p.Apply(&c)
	s.cameras.put(c)
	return &c, nil
}

func (s *MemStore) DeleteCamera(_ context.Context, id uint) error {
	return deleteRow(s, s.cameras, "camera", id)
}

// zones

func (s *MemStore) GetZone(_ context.Context, id uint) (*models.Zone, error) {
	return getRow(s, s.zones, "zone", id)
}

func (s *MemStore) ListZones(_ context.Context) ([]models.Zone, error) {
	return listRows(s, s.zones, nil), nil
}

func (s *MemStore) CreateZone(_ context.Context, in models.ZoneInsert) (*models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := s.zones.insert(in.ToModel(s.opts.now()))
	return &z, nil
}

func (s *MemStore) UpdateZone(_ context.Context, id uint, p models.ZonePatch) (*models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones.get(id)
	if !ok {
		return nil, notFound("zone", id)
	}
	p.Apply(&z)
	s.zones.put(z)
	return &z, nil
}

func (s *MemStore) DeleteZone(_ context.Context, id uint) error {
	return deleteRow(s, s.zones, "zone", id)
}

// alerts

func (s *MemStore) GetAlert(_ context.Context, id uint) (*models.Alert, error) {
	return getRow(s, s.alerts, "alert", id)
}

func (s *MemStore) ListAlerts(_ context.Context, f models.AlertFilter) ([]models.Alert, error) {
	return listRows(s, s.alerts, f.Match), nil
}

func (s *MemStore) CreateAlert(_ context.Context, in models.AlertInsert) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.alerts.insert(in.ToModel(s.opts.now()))
	return &a, nil
}

func (s *MemStore) UpdateAlert(_ context.Context, id uint, p models.AlertPatch) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts.get(id)
	if !ok {
		return nil, notFound("alert", id)
	}
	if err := p.Apply(&a); err != nil {
		return nil, invalid(err)
	}
	s.alerts.put(a)
	return &a, nil
}

func (s *MemStore) DeleteAlert(_ context.Context, id uint) error {
	return deleteRow(s, s.alerts, "alert", id)
}

// employees

func (s *MemStore) GetEmployee(_ context.Context, id uint) (*models.Employee, error) {
	return getRow(s, s.employees, "employee", id)
}

func (s *MemStore) ListEmployees(_ context.Context, date string) ([]models.Employee, error) {
	var match func(models.Employee) bool
	if date != "" {
		match = func(e models.Employee) bool { return e.Date == date }
	}
	return listRows(s, s.employees, match), nil
}

func (s *MemStore) employeeConflict(e models.Employee) error {
	for _, other := range s.employees.rows {
		if other.ID != e.ID && other.EmployeeID == e.EmployeeID {
			return conflict("employee", "employeeId", e.EmployeeID)
		}
	}
	return nil
}

func (s *MemStore) CreateEmployee(_ context.Context, in models.EmployeeInsert) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := in.ToModel(s.opts.now())
	if err := s.employeeConflict(e); err != nil {
		return nil, err
	}
	e = s.employees.insert(e)
	return &e, nil
}

func (s *MemStore) UpdateEmployee(_ context.Context, id uint, p models.EmployeePatch) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees.get(id)
	if !ok {
		return nil, notFound("employee", id)
	}
	p.Apply(&e)
	if err := s.employeeConflict(e); err != nil {
		return nil, err
	}
	s.employees.put(e)
	return &e, nil
}

func (s *MemStore) DeleteEmployee(_ context.Context, id uint) error {
	return deleteRow(s, s.employees, "employee", id)
}

// settings

func (s *MemStore) GetSettings(_ context.Context) (*models.SystemSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, notFound("settings", models.SettingsID)
	}
	out := *s.settings
	return &out, nil
}

func (s *MemStore) UpdateSettings(_ context.Context, p models.SettingsPatch) (*models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.now()
	next := models.DefaultSettings(now)
	if s.settings != nil {
		next = *s.settings
	}
	p.Apply(&next)
	next.UpdatedAt = now
	s.settings = &next
	out := next
	return &out, nil
}

// subscription plans

func (s *MemStore) GetSubscriptionPlan(_ context.Context, id uint) (*models.SubscriptionPlan, error) {
	return getRow(s, s.plans, "subscription plan", id)
}

func (s *MemStore) ListSubscriptionPlans(_ context.Context) ([]models.SubscriptionPlan, error) {
	return listRows(s, s.plans, nil), nil
}

func (s *MemStore) CreateSubscriptionPlan(_ context.Context, in models.SubscriptionPlanInsert) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.plans.insert(in.ToModel(s.opts.now()))
	return &p, nil
}

func (s *MemStore) UpdateSubscriptionPlan(_ context.Context, id uint, p models.SubscriptionPlanPatch) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans.get(id)
	if !ok {
		return nil, notFound("subscription plan", id)
	}
	p.Apply(&plan)
	s.plans.put(plan)
	return &plan, nil
}

func (s *MemStore) DeleteSubscriptionPlan(_ context.Context, id uint) error {
	return deleteRow(s, s.plans, "subscription plan", id)
}

// demo requests

func (s *MemStore) GetDemoRequest(_ context.Context, id uint) (*models.DemoRequest, error) {
	return getRow(s, s.demos, "demo request", id)
}

func (s *MemStore) ListDemoRequests(_ context.Context) ([]models.DemoRequest, error) {
	return listRows(s, s.demos, nil), nil
}

func (s *MemStore) CreateDemoRequest(_ context.Context, in models.DemoRequestInsert) (*models.DemoRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.demos.insert(in.ToModel(s.opts.now()))
	return &d, nil
}

func (s *MemStore) UpdateDemoRequest(_ context.Context, id uint, p models.DemoRequestPatch) (*models.DemoRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.demos.get(id)
	if !ok {
		return nil, notFound("demo request", id)
	}
	p.Apply(&d)
	s.demos.put(d)
	return &d, nil
}

func (s *MemStore) DeleteDemoRequest(_ context.Context, id uint) error {
	return deleteRow(s, s.demos, "demo request", id)
}

// search queries

func (s *MemStore) GetSearchQuery(_ context.Context, id uint) (*models.SearchQuery, error) {
	return getRow(s, s.queries, "search query", id)
}

func (s *MemStore) ListSearchQueries(_ context.Context) ([]models.SearchQuery, error) {
	return listRows(s, s.queries, nil), nil
}

func (s *MemStore) CreateSearchQuery(_ context.Context, in models.SearchQueryInsert) (*models.SearchQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queries.insert(in.ToModel(s.opts.now()))
	return &q, nil
}

func (s *MemStore) UpdateSearchQuery(_ context.Context, id uint, p models.SearchQueryPatch) (*models.SearchQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries.get(id)
	if !ok {
		return nil, notFound("search query", id)
	}
	p.Apply(&q)
	s.queries.put(q)
	return &q, nil
}

func (s *MemStore) DeleteSearchQuery(_ context.Context, id uint) error {
	return deleteRow(s, s.queries, "search query", id)
}

// recordings

func (s *MemStore) GetRecording(_ context.Context, id uint) (*models.Recording, error) {
	return getRow(s, s.records, "recording", id)
}

func (s *MemStore) ListRecordings(_ context.Context, f models.RecordingFilter) ([]models.Recording, error) {
	return listRows(s, s.records, f.Match), nil
}

func (s *MemStore) CreateRecording(_ context.Context, in models.RecordingInsert) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.records.insert(in.ToModel(s.opts.now()))
	return &r, nil
}

func (s *MemStore) UpdateRecording(_ context.Context, id uint, p models.RecordingPatch) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records.get(id)
	if !ok {
		return nil, notFound("recording", id)
	}
	p.Apply(&r)
	s.records.put(r)
	return &r, nil
}

func (s *MemStore) DeleteRecording(_ context.Context, id uint) error {
	return deleteRow(s, s.records, "recording", id)
}

var _ Store = (*MemStore)(nil)
