package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string
	DatabaseURL              string
	IntermissionSeconds      int
	LeaveGraceMillis         int
	PublicRoomScanLimit      int
	DefaultMaxPlayers        int
	PickWordAttempts         int
	MinWordSeconds           int
	StreakDecaySeconds       float64
	RampageStreak            int
	ChatHistory              int
	DictionaryAPIURL         string
	DictionaryRPS            float64
	CreateRoomRPS            float64
	JoinRoomRPS              float64
	LogLevel                 string
	LogFormat                string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		IntermissionSeconds:      15,
		LeaveGraceMillis:         3000,
		PublicRoomScanLimit:      50,
		DefaultMaxPlayers:        10,
		PickWordAttempts:         5,
		MinWordSeconds:           3,
		StreakDecaySeconds:       0.5,
		RampageStreak:            25,
		ChatHistory:              50,
		DictionaryAPIURL:         "https://api.dictionaryapi.dev/api/v2/entries/en/",
		DictionaryRPS:            2,
		CreateRoomRPS:            1,
		JoinRoomRPS:              5,
		LogLevel:                 "info",
		LogFormat:                "console",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	positiveInt("INTERMISSION_SECONDS", &cfg.IntermissionSeconds)
	positiveInt("LEAVE_GRACE_MS", &cfg.LeaveGraceMillis)
	positiveInt("PUBLIC_ROOM_SCAN_LIMIT", &cfg.PublicRoomScanLimit)
	positiveInt("DEFAULT_MAX_PLAYERS", &cfg.DefaultMaxPlayers)
	positiveInt("PICK_WORD_ATTEMPTS", &cfg.PickWordAttempts)
	positiveInt("MIN_WORD_SECONDS", &cfg.MinWordSeconds)
	positiveInt("RAMPAGE_STREAK", &cfg.RampageStreak)
	positiveInt("CHAT_HISTORY", &cfg.ChatHistory)
	positiveFloat("STREAK_DECAY_SECONDS", &cfg.StreakDecaySeconds)
	positiveFloat("DICTIONARY_RPS", &cfg.DictionaryRPS)
	positiveFloat("CREATE_ROOM_RPS", &cfg.CreateRoomRPS)
	positiveFloat("JOIN_ROOM_RPS", &cfg.JoinRoomRPS)
	if raw := os.Getenv("DICTIONARY_API_URL"); raw != "" {
		cfg.DictionaryAPIURL = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	return cfg
}

func (c Config) Intermission() time.Duration {
	return time.Duration(c.IntermissionSeconds) * time.Second
}

func (c Config) LeaveGrace() time.Duration {
	return time.Duration(c.LeaveGraceMillis) * time.Millisecond
}

func positiveInt(key string, dest *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dest = value
	}
}

func positiveFloat(key string, dest *float64) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
		*dest = value
	}
}
