package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Intervals holds the polling cadence of every synced resource.
type Intervals struct {
	Notifications  time.Duration
	Attachments    time.Duration
	Threads        time.Duration
	Friends        time.Duration
	FriendRequests time.Duration
	Schedules      time.Duration
	Groups         time.Duration
	ActiveThread   time.Duration
	ThreadExtras   time.Duration
}

// DefaultIntervals mirrors the cadence the web client used.
func DefaultIntervals() Intervals {
	return Intervals{
		Notifications:  4 * time.Second,
		Attachments:    2 * time.Second,
		Threads:        5 * time.Second,
		Friends:        10 * time.Second,
		FriendRequests: 12 * time.Second,
		Schedules:      10 * time.Second,
		Groups:         10 * time.Second,
		ActiveThread:   3 * time.Second,
		ThreadExtras:   10 * time.Second,
	}
}

// Config holds client and devserver settings.
type Config struct {
	// Client
	APIBaseURL     string
	PushURL        string
	SessionFile    string
	MongoURI       string
	MongoDatabase  string
	Language       string
	RequestTimeout time.Duration
	Intervals      Intervals
	MaxBackoff     time.Duration
	ReminderWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Devserver
	Port        string
	JWTSecret   string
	TokenExpiry time.Duration

	// Report forwarding; disabled while SMTPHost is empty.
	SMTPHost       string
	SMTPPort       string
	SMTPSender     string
	SMTPPassword   string
	ModeratorEmail string
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	defaults := DefaultIntervals()
	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
		PushURL:        getEnv("PUSH_URL", ""),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile()),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDatabase:  getEnv("MONGO_DATABASE", "teachmate"),
		Language:       getEnv("LANGUAGE", "en"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 15*time.Second),
		Intervals: Intervals{
			Notifications:  getDuration("POLL_NOTIFICATIONS", defaults.Notifications),
			Attachments:    getDuration("POLL_ATTACHMENTS", defaults.Attachments),
			Threads:        getDuration("POLL_THREADS", defaults.Threads),
			Friends:        getDuration("POLL_FRIENDS", defaults.Friends),
			FriendRequests: getDuration("POLL_FRIEND_REQUESTS", defaults.FriendRequests),
			Schedules:      getDuration("POLL_SCHEDULES", defaults.Schedules),
			Groups:         getDuration("POLL_GROUPS", defaults.Groups),
			ActiveThread:   getDuration("POLL_ACTIVE_THREAD", defaults.ActiveThread),
			ThreadExtras:   getDuration("POLL_THREAD_EXTRAS", defaults.ThreadExtras),
		},
		MaxBackoff:     getDuration("POLL_MAX_BACKOFF", time.Minute),
		ReminderWindow: getDuration("REMINDER_WINDOW", 15*time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "teachmate-dev-secret"),
		TokenExpiry:    getDuration("TOKEN_EXPIRY", 72*time.Hour),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPSender:     getEnv("SMTP_SENDER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		ModeratorEmail: getEnv("MODERATOR_EMAIL", ""),
	}

	if cfg.PushURL == "" {
		cfg.PushURL = cfg.APIBaseURL + "/ws"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getDuration accepts positive Go durations ("4s") or plain seconds ("4").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, aerr := strconv.Atoi(raw)
		if aerr != nil {
			d = 0
		} else {
			d = time.Duration(secs) * time.Second
		}
	}
	if d <= 0 {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".teachmate-session.json"
	}
	return dir + "/teachmate/session.json"
}
