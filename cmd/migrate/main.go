package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"condo-automation/config"
	"condo-automation/pkg/logger"
	"condo-automation/pkg/migrate"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|up-by-one|down|redo|reset|status|version")
	configFile := flag.String("config", os.Getenv("CONDO_CONFIG_FILE"), "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty).With().Str("cmd", *cmd).Logger()

	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}

	if err := migrate.Run(ctx, db, *cmd, flag.Args()...); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
	log.Info().Msg("Migration complete")
}
