// Command migrate applies the SQL migrations with goose.
//
//	migrate up|down|status
package main

import (
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"trustbridge/internal/platform/config"
	"trustbridge/internal/platform/logger"
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Error("TB_DATABASE_URL is required")
		os.Exit(1)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("set dialect", "error", err)
		os.Exit(1)
	}
	if err := goose.Run(command, db, "migrations", os.Args[min(2, len(os.Args)):]...); err != nil {
		log.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	log.Info("migration complete", "command", command)
}
