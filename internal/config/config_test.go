package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, "19:00", cfg.RoomStartTime)
	assert.Equal(t, "19:10", cfg.GameStartTime)
	assert.Equal(t, 30*time.Second, cfg.QuestionGap)
	assert.Equal(t, "minority", cfg.EliminationMode)
}

func TestLoad_RejectsBadClock(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ROOM_START_TIME", "25:99")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("19:05")
	require.NoError(t, err)
	assert.Equal(t, 19, hour)
	assert.Equal(t, 5, minute)

	_, _, err = ParseClock("7pm")
	assert.Error(t, err)
}

func TestCronSpec(t *testing.T) {
	assert.Equal(t, "5 19 * * *", CronSpec("19:05"))
	assert.Equal(t, "0 0 * * *", CronSpec("00:00"))
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "45s")
	assert.Equal(t, 45*time.Second, getDurationEnv("TEST_DURATION", time.Minute))

	// bare numbers are seconds
	t.Setenv("TEST_DURATION", "30")
	assert.Equal(t, 30*time.Second, getDurationEnv("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "bogus")
	assert.Equal(t, time.Minute, getDurationEnv("TEST_DURATION", time.Minute))
}
