package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken string
	BotLink  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	JWTSecret  string
	ServerPort string

	Timezone      string
	RoomStartTime string // "HH:MM", 24h, in Timezone
	GameStartTime string

	QuestionGap     time.Duration
	GracePeriod     time.Duration
	TransferTimeout time.Duration

	EliminationMode string // "minority" or "correct"

	BridgeURL        string
	TonAPIURL        string
	TonAPIKey        string
	TonWalletAddress string
}

func Load() (*Config, error) {
	cfg := &Config{
		BotToken: getEnv("BOT_TOKEN", ""),
		BotLink:  getEnv("BOT_LINK", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "telebot"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:  getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort: getEnv("SERVER_PORT", "3000"),

		Timezone:      getEnv("TIMEZONE", "UTC"),
		RoomStartTime: getEnv("ROOM_START_TIME", "19:00"),
		GameStartTime: getEnv("GAME_START_TIME", "19:10"),

		QuestionGap:     getDurationEnv("QUESTION_TIME_GAP", 30*time.Second),
		GracePeriod:     getDurationEnv("GRACE_PERIOD", 5*time.Second),
		TransferTimeout: getDurationEnv("SEND_TX_TIMEOUT", 3*time.Minute),

		EliminationMode: getEnv("ELIMINATION_MODE", "minority"),

		BridgeURL:        getEnv("BRIDGE_URL", "https://bridge.tonapi.io/bridge"),
		TonAPIURL:        getEnv("TON_API_URL", "https://testnet.toncenter.com/api/v2"),
		TonAPIKey:        getEnv("TON_API_KEY", ""),
		TonWalletAddress: getEnv("TON_WALLET_ADDRESS", ""),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	for _, clock := range []string{cfg.RoomStartTime, cfg.GameStartTime} {
		if _, _, err := ParseClock(clock); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ParseClock splits an "HH:MM" string into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// CronSpec renders an "HH:MM" clock as a daily five-field cron expression.
func CronSpec(clock string) string {
	hour, minute, _ := ParseClock(clock)
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	// bare numbers are taken as seconds
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
