package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		source = flag.String("source", "file://migrations", "migration source URL")
		down   = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	databaseURL := os.Getenv("CLINIC_DATABASE__URL")
	if databaseURL == "" {
		slog.Error("CLINIC_DATABASE__URL is required")
		os.Exit(1)
	}

	m, err := migrate.New(*source, databaseURL)
	if err != nil {
		slog.Error("failed to initialize migrations", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("no migrations to apply")
			return
		}
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations applied")
}
