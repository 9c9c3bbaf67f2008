package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sentinel-cctv/be/models"
)

// Models lists every table GormStore reads and writes, in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Camera{},
		&models.Zone{},
		&models.Alert{},
		&models.Employee{},
		&models.SystemSettings{},
		&models.SubscriptionPlan{},
		&models.DemoRequest{},
		&models.SearchQuery{},
		&models.Recording{},
	}
}

// Migrate creates or alters the tables of every entity kind.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// GormStore keeps one table per entity kind. Uniqueness is enforced by the
// database indexes; violations come back as ErrConflict.
type GormStore struct {
	db   *gorm.DB
	opts options
}

func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	return &GormStore{db: db, opts: buildOptions(opts)}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver errors onto the store's sentinels. The dialect
// translators cover most drivers; the message checks catch the rest.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(ErrConflict, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate") {
		return errors.Join(ErrConflict, err)
	}
	return err
}

func gormFirst[T any](ctx context.Context, db *gorm.DB, kind string, id uint) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(kind, id)
		}
		return nil, err
	}
	return &row, nil
}

func gormFind[T any](ctx context.Context, db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	rows := []T{}
	if err := db.WithContext(ctx).Scopes(scopes...).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func gormCreate[T any](ctx context.Context, db *gorm.DB, row T) (*T, error) {
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateError(err)
	}
	return &row, nil
}

func gormUpdate[T any](ctx context.Context, db *gorm.DB, kind string, id uint, apply func(*T) error) (*T, error) {
	var out *T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := gormFirst[T](ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if err := apply(row); err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return translateError(err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func gormDelete[T any](ctx context.Context, db *gorm.DB, kind string, id uint) error {
	res := db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(kind, id)
	}
	return nil
}

func plain[T any, P interface{ Apply(*T) }](p P) func(*T) error {
	return func(row *T) error {
		p.Apply(row)
		return nil
	}
}

// users

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return gormFirst[models.User](ctx, s.db, "user", id)
}

func (s *GormStore) userBy(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(column+" = ?", value).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "email", email)
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userBy(ctx, "username", username)
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return gormFind[models.User](ctx, s.db)
}

func (s *GormStore) CreateUser(ctx context.Context, in models.UserInsert) (*models.User, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateUser(ctx context.Context, id uint, p models.UserPatch) (*models.User, error) {
	return gormUpdate(ctx, s.db, "user", id, plain[models.User](p))
}

func (s *GormStore) DeleteUser(ctx context.Context, id uint) error {
	return gormDelete[models.User](ctx, s.db, "user", id)
}

// cameras

func (s *GormStore) GetCamera(ctx context.Context, id uint) (*models.Camera, error) {
	return gormFirst[models.Camera](ctx, s.db, "camera", id)
}

func (s *GormStore) ListCameras(ctx context.Context) ([]models.Camera, error) {
	return gormFind[models.Camera](ctx, s.db)
}

func (s *GormStore) CreateCamera(ctx context.Context, in models.CameraInsert) (*models.Camera, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateCamera(ctx context.Context, id uint, p models.CameraPatch) (*models.Camera, error) {
	return gormUpdate(ctx, s.db, "camera", id, plain[models.Camera](p))
}

func (s *GormStore) DeleteCamera(ctx context.Context, id uint) error {
	return gormDelete[models.Camera](ctx, s.db, "camera", id)
}

// zones

func (s *GormStore) GetZone(ctx context.Context, id uint) (*models.Zone, error) {
	return gormFirst[models.Zone](ctx, s.db, "zone", id)
}

func (s *GormStore) ListZones(ctx context.Context) ([]models.Zone, error) {
	return gormFind[models.Zone](ctx, s.db)
}

func (s *GormStore) CreateZone(ctx context.Context, in models.ZoneInsert) (*models.Zone, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateZone(ctx context.Context, id uint, p models.ZonePatch) (*models.Zone, error) {
	return gormUpdate(ctx, s.db, "zone", id, plain[models.Zone](p))
}

func (s *GormStore) DeleteZone(ctx context.Context, id uint) error {
	return gormDelete[models.Zone](ctx, s.db, "zone", id)
}

// alerts

func alertScope(f models.AlertFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.From != nil {
			db = db.Where(clause.Gte{Column: clause.Column{Name: "timestamp"}, Value: *f.From})
		}
		if f.To != nil {
			db = db.Where(clause.Lte{Column: clause.Column{Name: "timestamp"}, Value: *f.To})
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Priority != "" {
			db = db.Where("priority = ?", f.Priority)
		}
		return db
	}
}

func (s *GormStore) GetAlert(ctx context.Context, id uint) (*models.Alert, error) {
	return gormFirst[models.Alert](ctx, s.db, "alert", id)
}

func (s *GormStore) ListAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error) {
	return gormFind[models.Alert](ctx, s.db, alertScope(f))
}

func (s *GormStore) CreateAlert(ctx context.Context, in models.AlertInsert) (*models.Alert, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateAlert(ctx context.Context, id uint, p models.AlertPatch) (*models.Alert, error) {
	return gormUpdate(ctx, s.db, "alert", id, func(a *models.Alert) error {
		if err := p.Apply(a); err != nil {
			return invalid(err)
		}
		return nil
	})
}

func (s *GormStore) DeleteAlert(ctx context.Context, id uint) error {
	return gormDelete[models.Alert](ctx, s.db, "alert", id)
}

// employees

func (s *GormStore) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	return gormFirst[models.Employee](ctx, s.db, "employee", id)
}

func (s *GormStore) ListEmployees(ctx context.Context, date string) ([]models.Employee, error) {
	return gormFind[models.Employee](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		if date != "" {
			db = db.Where(clause.Eq{Column: clause.Column{Name: "date"}, Value: date})
		}
		return db
	})
}

func (s *GormStore) CreateEmployee(ctx context.Context, in models.EmployeeInsert) (*models.Employee, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateEmployee(ctx context.Context, id uint, p models.EmployeePatch) (*models.Employee, error) {
	return gormUpdate(ctx, s.db, "employee", id, plain[models.Employee](p))
}

func (s *GormStore) DeleteEmployee(ctx context.Context, id uint) error {
	return gormDelete[models.Employee](ctx, s.db, "employee", id)
}

// settings

func (s *GormStore) GetSettings(ctx context.Context) (*models.SystemSettings, error) {
	return gormFirst[models.SystemSettings](ctx, s.db, "settings", models.SettingsID)
}

func (s *GormStore) UpdateSettings(ctx context.Context, p models.SettingsPatch) (*models.SystemSettings, error) {
	var out models.SystemSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.opts.now()
		err := tx.First(&out, models.SettingsID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.DefaultSettings(now)
			p.Apply(&out)
			out.UpdatedAt = now
			return tx.Create(&out).Error
		case err != nil:
			return err
		}
		p.Apply(&out)
		out.UpdatedAt = now
		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// subscription plans

func (s *GormStore) GetSubscriptionPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	return gormFirst[models.SubscriptionPlan](ctx, s.db, "subscription plan", id)
}

func (s *GormStore) ListSubscriptionPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return gormFind[models.SubscriptionPlan](ctx, s.db)
}

func (s *GormStore) CreateSubscriptionPlan(ctx context.Context, in models.SubscriptionPlanInsert) (*models.SubscriptionPlan, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateSubscriptionPlan(ctx context.Context, id uint, p models.SubscriptionPlanPatch) (*models.SubscriptionPlan, error) {
	return gormUpdate(ctx, s.db, "subscription plan", id, plain[models.SubscriptionPlan](p))
}

func (s *GormStore) DeleteSubscriptionPlan(ctx context.Context, id uint) error {
	return gormDelete[models.SubscriptionPlan](ctx, s.db, "subscription plan", id)
}

// demo requests

func (s *GormStore) GetDemoRequest(ctx context.Context, id uint) (*models.DemoRequest, error) {
	return gormFirst[models.DemoRequest](ctx, s.db, "demo request", id)
}

func (s *GormStore) ListDemoRequests(ctx context.Context) ([]models.DemoRequest, error) {
	return gormFind[models.DemoRequest](ctx, s.db)
}

func (s *GormStore) CreateDemoRequest(ctx context.Context, in models.DemoRequestInsert) (*models.DemoRequest, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateDemoRequest(ctx context.Context, id uint, p models.DemoRequestPatch) (*models.DemoRequest, error) {
	return gormUpdate(ctx, s.db, "demo request", id, plain[models.DemoRequest](p))
}

func (s *GormStore) DeleteDemoRequest(ctx context.Context, id uint) error {
	return gormDelete[models.DemoRequest](ctx, s.db, "demo request", id)
}

// search queries

func (s *GormStore) GetSearchQuery(ctx context.Context, id uint) (*models.SearchQuery, error) {
	return gormFirst[models.SearchQuery](ctx, s.db, "search query", id)
}

func (s *GormStore) ListSearchQueries(ctx context.Context) ([]models.SearchQuery, error) {
	return gormFind[models.SearchQuery](ctx, s.db)
}

func (s *GormStore) CreateSearchQuery(ctx context.Context, in models.SearchQueryInsert) (*models.SearchQuery, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateSearchQuery(ctx context.Context, id uint, p models.SearchQueryPatch) (*models.SearchQuery, error) {
	return gormUpdate(ctx, s.db, "search query", id, plain[models.SearchQuery](p))
}

func (s *GormStore) DeleteSearchQuery(ctx context.Context, id uint) error {
	return gormDelete[models.SearchQuery](ctx, s.db, "search query", id)
}

// recordings

func recordingScope(f models.RecordingFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.CameraID != nil {
			db = db.Where("camera_id = ?", *f.CameraID)
		}
		if f.From != nil {
			db = db.Where("start_time >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("start_time <= ?", *f.To)
		}
		if f.Quality != "" {
			db = db.Where("quality = ?", f.Quality)
		}
		if f.HasMotion != nil {
			db = db.Where("has_motion = ?", *f.HasMotion)
		}
		return db
	}
}

func (s *GormStore) GetRecording(ctx context.Context, id uint) (*models.Recording, error) {
	return gormFirst[models.Recording](ctx, s.db, "recording", id)
}

func (s *GormStore) ListRecordings(ctx context.Context, f models.RecordingFilter) ([]models.Recording, error) {
	return gormFind[models.Recording](ctx, s.db, recordingScope(f))
}

func (s *GormStore) CreateRecording(ctx context.Context, in models.RecordingInsert) (*models.Recording, error) {
	return gormCreate(ctx, s.db, in.ToModel(s.opts.now()))
}

func (s *GormStore) UpdateRecording(ctx context.Context, id uint, p models.RecordingPatch) (*models.Recording, error) {
	return gormUpdate(ctx, s.db, "recording", id, plain[models.Recording](p))
}

func (s *GormStore) DeleteRecording(ctx context.Context, id uint) error {
	return gormDelete[models.Recording](ctx, s.db, "recording", id)
}

var _ Store = (*GormStore)(nil)
