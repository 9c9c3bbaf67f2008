package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/database"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
	"sentinel-cctv/be/utils"
)

// create_admin makes sure the default admin account exists and resets its
// password to the default when it does.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	cfg, err := config.Load(flags.ConfigFile, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Type == "memory" {
		log.Fatal("The memory backend is not persistent, set db.type to sqlite, postgres or mysql")
	}
	cfg.Database.Seed = false

	ctx := context.Background()
	s, err := database.NewStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer s.Close()

	hashed, err := utils.HashPassword(cfg.Security.PasswordMode, database.DefaultAdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := s.GetUserByEmail(ctx, database.DefaultAdminEmail)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Println("Admin user not found, creating...")
		role := string(models.RoleAdmin)
		if _, err := s.CreateUser(ctx, models.UserInsert{
			Username: database.DefaultAdminUsername,
			Email:    database.DefaultAdminEmail,
			Password: hashed,
			Role:     &role,
		}); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		fmt.Println("Admin user created successfully")
	case err != nil:
		log.Fatalf("Failed to look up admin user: %v", err)
	default:
		fmt.Println("Admin user found, resetting password...")
		if _, err := s.UpdateUser(ctx, user.ID, models.UserPatch{Password: &hashed}); err != nil {
			log.Fatalf("Failed to update password: %v", err)
		}
		fmt.Println("Admin password reset successfully")
	}

	fmt.Printf("   Email: %s\n", database.DefaultAdminEmail)
	fmt.Printf("   Password: %s\n", database.DefaultAdminPassword)
}
