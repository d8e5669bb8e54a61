package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognised by ApplyEnv
const (
	EnvAPIKey       = "API_KEY"
	EnvAdvisorModel = "SHASTRA_ADVISOR_MODEL"
	EnvPort         = "SHASTRA_PORT"
	EnvMQTTBroker   = "SHASTRA_MQTT_BROKER"
	EnvMQTTTopic    = "SHASTRA_MQTT_TOPIC"
	EnvMQTTClientID = "SHASTRA_MQTT_CLIENT_ID"
)

// Config holds the dashboard configuration
type Config struct {
	Port               string        `json:"port"`                 // Port for the HTTP dashboard
	Verbose            bool          `json:"verbose"`              // Enable verbose output
	EnableCORS         bool          `json:"enable_cors"`          // Allow cross-origin dashboard clients
	SessionIdleTimeout time.Duration `json:"session_idle_timeout"` // Idle sessions are dropped after this; zero keeps them
	APIKey             string        `json:"-"`                    // Text-advisory provider key; empty disables the provider
	AdvisorModel       string        `json:"advisor_model"`        // Generative model name
	AdvisorTimeout     time.Duration `json:"advisor_timeout"`      // Upper bound on one advisory call
	MQTTBroker         string        `json:"mqtt_broker"`          // Alert broker URL; empty disables alert publishing
	MQTTClientID       string        `json:"mqtt_client_id"`       // MQTT client identifier
	MQTTTopic          string        `json:"mqtt_topic"`           // Topic for threat events
	Simulation         Simulation    `json:"simulation"`           // Simulated values shown by the views
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Port:               "8501",
		SessionIdleTimeout: 30 * time.Minute,
		AdvisorModel:       "gemini-2.0-flash-exp",
		AdvisorTimeout:     10 * time.Second,
		MQTTClientID:       "shastra-shield",
		MQTTTopic:          "shastra/threats",
		Simulation:         DefaultSimulation(),
	}
}

// LoadConfigFromFile loads configuration from a JSON file on top of the defaults
func LoadConfigFromFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// UnmarshalJSON accepts durations as Go duration strings ("10s") or as seconds
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		SessionIdleTimeout any `json:"session_idle_timeout"`
		AdvisorTimeout     any `json:"advisor_timeout"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if err := setDuration(&c.SessionIdleTimeout, "session_idle_timeout", aux.SessionIdleTimeout); err != nil {
		return err
	}
	return setDuration(&c.AdvisorTimeout, "advisor_timeout", aux.AdvisorTimeout)
}

// setDuration leaves dst untouched when the field was absent
func setDuration(dst *time.Duration, field string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		*dst = time.Duration(val * float64(time.Second))
		return nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		*dst = d
		return nil
	default:
		return fmt.Errorf("%s: unsupported duration value %v", field, v)
	}
}

// ApplyEnv loads an optional .env file and overlays recognised environment variables
func (c *Config) ApplyEnv() {
	// .env is optional
	_ = godotenv.Load()

	c.APIKey = getEnv(EnvAPIKey, c.APIKey)
	c.AdvisorModel = getEnv(EnvAdvisorModel, c.AdvisorModel)
	c.Port = getEnv(EnvPort, c.Port)
	c.MQTTBroker = getEnv(EnvMQTTBroker, c.MQTTBroker)
	c.MQTTTopic = getEnv(EnvMQTTTopic, c.MQTTTopic)
	c.MQTTClientID = getEnv(EnvMQTTClientID, c.MQTTClientID)
}

// AdvisorEnabled reports whether an external text-advisory provider is configured
func (c Config) AdvisorEnabled() bool {
	return c.APIKey != ""
}

// AlertsEnabled reports whether threat events are published to a broker
func (c Config) AlertsEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
