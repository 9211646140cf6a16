package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	// TransitionsFile optionally points at a YAML status-transition table.
	// Unset means the historical permissive behavior.
	TransitionsFile string `envconfig:"TRANSITIONS_FILE"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".fieldsync/data"`
	// SQLite settings (used when Type == "sqlite")
	SQLitePath string `envconfig:"SQLITE_PATH" default:".fieldsync/fieldsync.db"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"fieldsync/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type SyncEnv struct {
	Interval       time.Duration `envconfig:"SYNC_INTERVAL" default:"30s"`
	AttemptTimeout time.Duration `envconfig:"SYNC_ATTEMPT_TIMEOUT" default:"10s"`
	// SimulatedLatency delays each simulated delivery, for manual testing.
	SimulatedLatency time.Duration `envconfig:"SYNC_SIMULATED_LATENCY" default:"0"`
}

type Env struct {
	BaseEnv
	StorageEnv
	SyncEnv
}

const namespace = "FIELDSYNC"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}
