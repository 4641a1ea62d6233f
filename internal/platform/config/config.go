package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort            = "PORT"
	envProjectID       = "GOOGLE_CLOUD_PROJECT"
	envFirestoreHost   = "FIRESTORE_EMULATOR_HOST"
	envMailTopic       = "MAIL_TOPIC"
	envEnvironment     = "ENVIRONMENT"
	envShutdownTimeout = "SHUTDOWN_TIMEOUT"

	defaultPort            = 8080
	defaultMailTopic       = "mail-dispatch"
	defaultEnvironment     = "development"
	defaultShutdownTimeout = 15 * time.Second
)

// HTTPConfig controls the HTTP server behaviour.
type HTTPConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// FirestoreConfig identifies the Firestore project and optional emulator.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig identifies the mail dispatch topic.
type PubSubConfig struct {
	ProjectID string
	MailTopic string
}

// Config aggregates runtime configuration loaded from the environment.
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Firestore   FirestoreConfig
	PubSub      PubSubConfig
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment: defaultEnvironment,
		HTTP: HTTPConfig{
			Port:            defaultPort,
			ShutdownTimeout: defaultShutdownTimeout,
		},
	}

	if env := strings.TrimSpace(os.Getenv(envEnvironment)); env != "" {
		cfg.Environment = env
	}

	if raw := strings.TrimSpace(os.Getenv(envPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("config: %s must be a valid port, got %q", envPort, raw)
		}
		cfg.HTTP.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv(envShutdownTimeout)); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return Config{}, fmt.Errorf("config: %s must be a positive duration, got %q", envShutdownTimeout, raw)
		}
		cfg.HTTP.ShutdownTimeout = timeout
	}

	projectID := strings.TrimSpace(os.Getenv(envProjectID))
	cfg.Firestore = FirestoreConfig{
		ProjectID:    projectID,
		EmulatorHost: strings.TrimSpace(os.Getenv(envFirestoreHost)),
	}

	cfg.PubSub = PubSubConfig{
		ProjectID: projectID,
		MailTopic: defaultMailTopic,
	}
	if topic := strings.TrimSpace(os.Getenv(envMailTopic)); topic != "" {
		cfg.PubSub.MailTopic = topic
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
