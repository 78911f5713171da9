package sessionserver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/clickfrenzy/sessioncore/entities"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration options for the session server.
type Config struct {
	// Context controls server shutdown: cancelling it stops the tick
	// runner and kicks every connected client.
	Context context.Context `yaml:"-"`

	// Addr is the listen address handed to the HTTP server.
	Addr string `yaml:"addr"`

	// PublicEndpoint is the websocket endpoint advertised inside
	// connect-info bundles, e.g. "ws://game.example.com".
	PublicEndpoint string `yaml:"publicEndpoint"`

	// OperatorToken guards session creation.
	OperatorToken string `yaml:"operatorToken"`

	// TickRate is the number of clock signals per second driving every
	// session's state machine.
	TickRate int `yaml:"tickRate"`

	// DispatchBufferSize controls how many messages can be queued for
	// dispatch before the tick loop blocks.
	DispatchBufferSize int `yaml:"dispatchBufferSize"`

	// ClientSendBufferSize caps each client's outbound message queue.
	ClientSendBufferSize int `yaml:"clientSendBufferSize"`

	Publisher PublisherConfig `yaml:"publisher"`
	Router    RouterConfig    `yaml:"router"`

	// Handler is the pluggable game-logic hook applied to validated
	// gameplay actions.
	Handler entities.ActionHandler `yaml:"-"`
}

// PublisherConfig contains configuration for the report publisher.
type PublisherConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
}

// RouterConfig contains router configuration.
type RouterConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoadConfig reads and validates a YAML config file. The Context and
// Handler fields cannot be serialized and must be set by the caller.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("sessionserver: read %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("sessionserver: parse %s: %w", path, err)
	}

	if err := config.validate(); err != nil {
		return Config{}, fmt.Errorf("sessionserver: %w", err)
	}
	config.normalize()

	return config, nil
}

func (config *Config) validate() error {
	if config.OperatorToken == "" {
		return errors.New("operatorToken is required")
	}

	if config.TickRate < 0 {
		return errors.New("tickRate must not be negative")
	}

	if config.DispatchBufferSize < 0 {
		return errors.New("dispatchBufferSize must not be negative")
	}

	if config.ClientSendBufferSize < 0 {
		return errors.New("clientSendBufferSize must not be negative")
	}

	return nil
}

func (config *Config) normalize() {
	if config.Addr == "" {
		config.Addr = ":8080"
	}

	if config.PublicEndpoint == "" {
		config.PublicEndpoint = "ws://localhost:8080"
	}

	if config.TickRate == 0 {
		config.TickRate = 15
	}

	if config.DispatchBufferSize == 0 {
		config.DispatchBufferSize = 500
	}

	if config.ClientSendBufferSize == 0 {
		config.ClientSendBufferSize = 50
	}
}
