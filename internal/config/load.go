package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to read env file")
	}

	r := &reader{}
	cfg := &Config{
		AppEnv: AppEnv(r.str("APP_ENV", string(LocalEnv))),
		HTTP: HTTP{
			Port: r.int("HTTP_PORT", 8080),
		},
		Database: Database{
			Postgres: Postgres{
				Host:     r.str("POSTGRES_HOST", "localhost"),
				Port:     r.int("POSTGRES_PORT", 5432),
				Username: r.str("POSTGRES_USER", "postgres"),
				Password: r.str("POSTGRES_PASSWORD", "postgres"),
				Database: r.str("POSTGRES_DB", "lineup"),
			},
			Redis: Redis{
				Host:     r.str("REDIS_HOST", "localhost"),
				Port:     r.int("REDIS_PORT", 6379),
				Password: r.str("REDIS_PASSWORD", ""),
				Database: r.int("REDIS_DB", 0),
			},
		},
		Kafka: Kafka{
			Host:    r.str("KAFKA_HOST", "localhost"),
			Port:    r.int("KAFKA_PORT", 9092),
			Enabled: r.bool("KAFKA_ENABLED", false),
			GroupID: r.str("KAFKA_GROUP_ID", "lineup-status"),
		},
		Queue: Queue{
			NotifyThreshold:  r.int("QUEUE_NOTIFY_THRESHOLD", 1),
			MaxActive:        r.int("QUEUE_MAX_ACTIVE", 0),
			SendConfirmation: r.bool("QUEUE_SEND_CONFIRMATION", false),
			IdleEviction:     r.duration("QUEUE_IDLE_EVICTION", 30*time.Minute),
			NoShowGrace:      r.duration("QUEUE_NO_SHOW_GRACE", 5*time.Minute),
			Retention:        r.duration("QUEUE_RETENTION", 24*time.Hour),
		},
		Notification: Notification{
			Attempts:       r.int("NOTIFY_RETRIES", 3),
			BackoffInitial: r.duration("NOTIFY_BACKOFF_INITIAL", 500*time.Millisecond),
			BackoffMax:     r.duration("NOTIFY_BACKOFF_MAX", 10*time.Second),
			QueueCapacity:  r.int("NOTIFY_QUEUE_CAPACITY", 1024),
			RateLimit:      r.float("NOTIFY_RATE_LIMIT", 0),
			RateBurst:      r.int("NOTIFY_RATE_BURST", 1),
		},
		Scheduler: Scheduler{
			EvictionSpec: r.str("SCHEDULE_EVICTION", "@every 1m"),
			NoShowSpec:   r.str("SCHEDULE_NO_SHOW", "*/30 * * * * *"),
			PruneSpec:    r.str("SCHEDULE_PRUNE", "@hourly"),
		},
		WorkerCount: r.int("WORKER_COUNT", 4),
	}

	level, err := logrus.ParseLevel(r.str("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid LOG_LEVEL")
	}
	cfg.LogLevel = level

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Queue.NotifyThreshold < 0:
		return errors.New("QUEUE_NOTIFY_THRESHOLD must not be negative")
	case c.Queue.MaxActive < 0:
		return errors.New("QUEUE_MAX_ACTIVE must not be negative")
	case c.Notification.Attempts < 1:
		return errors.New("NOTIFY_RETRIES must be at least 1")
	case c.Notification.QueueCapacity < 1:
		return errors.New("NOTIFY_QUEUE_CAPACITY must be at least 1")
	case c.WorkerCount < 1:
		return errors.New("WORKER_COUNT must be at least 1")
	}
	return nil
}

// reader keeps the first parse error so Load can report it once.
type reader struct {
	err error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = errors.Wrapf(err, "invalid %s", key)
	}
}
