package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
	"sentinel-cctv/be/utils"
)

const (
	DefaultAdminEmail    = "admin@vms.demo"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "demo123"
)

// Open connects to the relational database named by cfg.Type.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("no relational driver for database type %q", cfg.Type)
	}

	log := logger.GetLoggerWith("gorm")
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(log), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	return db, nil
}

// NewStore builds the backend selected by cfg.Database.Type, migrates it and
// seeds it when configured to.
func NewStore(ctx context.Context, cfg *config.Config, opts ...store.Option) (store.Store, error) {
	log := logger.GetLoggerWith("database", zap.String("type", cfg.Database.Type))

	var s store.Store
	if cfg.Database.Type == "memory" {
		s = store.NewMemStore(opts...)
	} else {
		db, err := Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		s = store.NewGormStore(db, opts...)
	}

	if cfg.Database.Seed {
		if err := Seed(ctx, s, cfg.Security.PasswordMode); err != nil {
			log.Warn("failed to seed database", zap.Error(err))
		}
	}

	log.Info("database initialized")
	return s, nil
}

// Seed writes the default admin, the settings row and the stock plans when
// they are absent. It is safe to run on every start.
func Seed(ctx context.Context, s store.Store, passwordMode string) error {
	log := logger.GetLoggerWith("database")

	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		password, err := utils.HashPassword(passwordMode, DefaultAdminPassword)
		if err != nil {
			return err
		}
		role := string(models.RoleAdmin)
		if _, err := s.CreateUser(ctx, models.UserInsert{
			Username: DefaultAdminUsername,
			Email:    DefaultAdminEmail,
			Password: password,
			Role:     &role,
		}); err != nil {
			return fmt.Errorf("failed to create default admin: %w", err)
		}
		log.Info("default admin user created", zap.String("email", DefaultAdminEmail))
	}

	if _, err := s.GetSettings(ctx); errors.Is(err, store.ErrNotFound) {
		if _, err := s.UpdateSettings(ctx, models.SettingsPatch{}); err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	} else if err != nil {
		return err
	}

	plans, err := s.ListSubscriptionPlans(ctx)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		for _, p := range defaultPlans() {
			if _, err := s.CreateSubscriptionPlan(ctx, p); err != nil {
				return fmt.Errorf("failed to create plan %s: %w", p.Name, err)
			}
		}
	}
	return nil
}

func defaultPlans() []models.SubscriptionPlanInsert {
	popular := true
	return []models.SubscriptionPlanInsert{
		{
			Name:         "Basic",
			MonthlyPrice: 29,
			YearlyPrice:  290,
			MaxCameras:   4,
			Features:     []string{"Live monitoring", "7-day recording retention", "Email alerts"},
		},
		{
			Name:         "Professional",
			MonthlyPrice: 79,
			YearlyPrice:  790,
			MaxCameras:   16,
			Features:     []string{"Live monitoring", "30-day recording retention", "AI intrusion detection", "Employee attendance", "Push notifications"},
			IsPopular:    &popular,
		},
		{
			Name:         "Enterprise",
			MonthlyPrice: 199,
			YearlyPrice:  1990,
			MaxCameras:   64,
			Features:     []string{"Unlimited zones", "90-day recording retention", "AI assistant", "Priority support", "SMS alerts"},
		},
	}
}
