package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/database"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/utils"
)

// reset_password sets the password of one account:
//
//	go run ./scripts/reset_password [flags] -- <email> <new-password>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}
	args := flags.Args()
	if len(args) != 2 {
		log.Fatalf("Usage: %s [flags] -- <email> <new-password>", os.Args[0])
	}
	email, password := args[0], args[1]

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

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		log.Fatalf("User not found: %v", err)
	}

	hashed, err := utils.HashPassword(cfg.Security.PasswordMode, password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if _, err := s.UpdateUser(ctx, user.ID, models.UserPatch{Password: &hashed}); err != nil {
		log.Fatalf("Failed to update password: %v", err)
	}

	fmt.Printf("Password updated successfully for %s (%s mode)\n", user.Email, cfg.Security.PasswordMode)
}
