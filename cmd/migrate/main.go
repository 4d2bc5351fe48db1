// cmd/migrate applies (or inspects) the goose schema migrations against
// the Aurora Postgres cluster over a direct connection — the only
// program in this module that does not talk to Postgres through the
// RDS Data API, since it runs from a network location with direct
// database access rather than from inside the application workloads'
// VPC boundary.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/database"
	"github.com/claro-ops/media-intel/internal/store/postgres/migrations"
)

func main() {
	command := flag.String("command", "up", "migration command: up, down, or status")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := database.DefaultConfig()
	cfg.LoadFromEnv()

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("connect to migration database", zap.Error(err))
	}
	defer db.Close()

	switch *command {
	case "up":
		if err := migrations.Up(db); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	case "down":
		if err := migrations.Down(db); err != nil {
			logger.Fatal("roll back migration", zap.Error(err))
		}
		logger.Info("migration rolled back")
	case "status":
		statuses, err := migrations.Status(db)
		if err != nil {
			logger.Fatal("read migration status", zap.Error(err))
		}
		for _, s := range statuses {
			logger.Info("migration status", zap.String("source", s.Source.Path), zap.Any("status", s))
		}
	default:
		logger.Fatal("unknown -command", zap.String("command", *command))
	}
}
