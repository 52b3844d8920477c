package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("POLL_NOTIFICATIONS", "")

	cfg := LoadConfig()

	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:8080/api/ws", cfg.PushURL)
	assert.Equal(t, DefaultIntervals(), cfg.Intervals)
	assert.Equal(t, time.Minute, cfg.MaxBackoff)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://teachmate.example/api")
	t.Setenv("POLL_NOTIFICATIONS", "7s")
	t.Setenv("POLL_THREADS", "9")
	t.Setenv("POLL_GROUPS", "soon")

	cfg := LoadConfig()

	assert.Equal(t, "https://teachmate.example/api", cfg.APIBaseURL)
	assert.Equal(t, "https://teachmate.example/api/ws", cfg.PushURL)
	assert.Equal(t, 7*time.Second, cfg.Intervals.Notifications)
	assert.Equal(t, 9*time.Second, cfg.Intervals.Threads)
	assert.Equal(t, 10*time.Second, cfg.Intervals.Groups, "invalid values fall back")
}

func TestLoadConfigRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("POLL_NOTIFICATIONS", "0")
	t.Setenv("POLL_THREADS", "-5s")
	t.Setenv("POLL_FRIENDS", "-3")
	t.Setenv("POLL_MAX_BACKOFF", "0s")

	cfg := LoadConfig()

	defaults := DefaultIntervals()
	assert.Equal(t, defaults.Notifications, cfg.Intervals.Notifications)
	assert.Equal(t, defaults.Threads, cfg.Intervals.Threads)
	assert.Equal(t, defaults.Friends, cfg.Intervals.Friends)
	assert.Equal(t, time.Minute, cfg.MaxBackoff)
}
