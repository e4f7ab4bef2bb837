package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type AppEnv string

const (
	ProductionEnv AppEnv = "production"
	StageEnv      AppEnv = "stage"
	DevelopEnv    AppEnv = "develop"
	LocalEnv      AppEnv = "local"
	TestEnv       AppEnv = "test"
)

type (
	Config struct {
		AppEnv       AppEnv
		LogLevel     logrus.Level
		HTTP         HTTP
		Database     Database
		Kafka        Kafka
		Queue        Queue
		Notification Notification
		Scheduler    Scheduler
		WorkerCount  int
	}

	HTTP struct {
		Port int
	}

	Database struct {
		Postgres Postgres
		Redis    Redis
	}

	Postgres struct {
		Host     string
		Port     int
		Username string
		Password string
		Database string
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		Database int
	}

	Kafka struct {
		Host string
		Port int
		// Enabled switches the sms provider and outcome publishing to Kafka.
		Enabled bool
		GroupID string
	}

	Queue struct {
		NotifyThreshold  int
		MaxActive        int
		SendConfirmation bool
		IdleEviction     time.Duration
		NoShowGrace      time.Duration
		Retention        time.Duration
	}

	Notification struct {
		Attempts       int
		BackoffInitial time.Duration
		BackoffMax     time.Duration
		QueueCapacity  int
		RateLimit      float64
		RateBurst      int
	}

	Scheduler struct {
		EvictionSpec string
		NoShowSpec   string
		PruneSpec    string
	}
)
