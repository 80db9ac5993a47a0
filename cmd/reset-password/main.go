package main

import (
	"flag"
	"log"

	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/internal/service"
	"go-pos-terminal/pkg/database"
	"go-pos-terminal/pkg/logger"
)

func main() {
	username := flag.String("user", service.DefaultAdminUsername, "username whose password is reset")
	password := flag.String("password", service.DefaultAdminPassword, "new password")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer zl.Sync()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DSN(), zl)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 3. Reset; this also signs the user out of any open terminal
	users := service.NewUserService(repository.NewUserRepo(db))
	if err := users.ResetPassword(*username, *password); err != nil {
		log.Fatalf("❌ Failed to reset password for %s: %v", *username, err)
	}

	log.Printf("✅ Success! Password for %s has been reset", *username)
}
