package main

import (
	"flag"

	"spelling-hive/internal/config"
	"spelling-hive/internal/db"
	"spelling-hive/internal/logger"

	"github.com/rs/zerolog/log"
)

// load-words imports a difficulty,word CSV into the word bank table.
func main() {
	filePath := flag.String("file", "words.csv", "path to words csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	conn, err := db.Open(cfg.DatabaseURL, db.PoolFromConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	inserted, err := db.ImportWords(conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to import words")
	}
	log.Info().Int("inserted", inserted).Str("file", *filePath).Msg("loaded words")
}
