package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the qlstats configuration, loaded by Load.
type Config struct {
	ZMQ       ZMQConfig       `yaml:"zmq"`
	Display   DisplayConfig   `yaml:"display"`
	Logging   LoggingConfig   `yaml:"logging"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ZMQConfig contains the stats endpoint connection settings.
type ZMQConfig struct {
	// Endpoint is the libzmq address of the server's stats publisher,
	// e.g. "tcp://127.0.0.1:27960".
	Endpoint string `yaml:"endpoint"`

	// Password is the PLAIN password (zmq_stats_password). Empty means none.
	Password string `yaml:"password"`

	// Identity is the socket identity. Empty means one is generated.
	Identity string `yaml:"identity"`
}

// Display modes.
const (
	DisplayModePlain = "plain"
	DisplayModeTUI   = "tui"
)

// DisplayConfig contains output rendering settings.
type DisplayConfig struct {
	PrettyPrint bool   `yaml:"pretty_print"`
	Mode        string `yaml:"mode"`
	MaxLines    int    `yaml:"max_lines"`
	Buffer      int    `yaml:"buffer"`
}

// LoggingConfig selects log level, format and destination.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig is used when Output is "file".
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig contains settings for the optional MQTT relay.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig addresses the broker. TLS switches the scheme to ssl://.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig holds optional broker credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig bounds the reconnect backoff, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig configures the optional event counters in InfluxDB.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds

	// Tags are added to every point written.
	Tags map[string]string `yaml:"tags"`
}

// APIConfig contains HTTP status server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig holds HTTP server timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig restricts browser origins for the API and the WebSocket.
// No origins means any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket feed settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then QLSTATS_* environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		ZMQ: ZMQConfig{
			Endpoint: "tcp://127.0.0.1:27960",
		},
		Display: DisplayConfig{
			Mode:     DisplayModePlain,
			MaxLines: 1000,
			Buffer:   1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "qlstats",
			},
			QoS:         0,
			TopicPrefix: "qlstats",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
	}
}

// envOverrides maps QLSTATS_* variables onto fields. Empty values and
// unparsable booleans or numbers are ignored.
var envOverrides = map[string]func(*Config, string){
	"QLSTATS_ZMQ_ENDPOINT": func(c *Config, v string) { c.ZMQ.Endpoint = v },
	"QLSTATS_ZMQ_PASSWORD": func(c *Config, v string) { c.ZMQ.Password = v },
	"QLSTATS_ZMQ_IDENTITY": func(c *Config, v string) { c.ZMQ.Identity = v },

	"QLSTATS_DISPLAY_PRETTY_PRINT": func(c *Config, v string) { setBool(&c.Display.PrettyPrint, v) },
	"QLSTATS_DISPLAY_MODE":         func(c *Config, v string) { c.Display.Mode = v },

	"QLSTATS_LOGGING_LEVEL":  func(c *Config, v string) { c.Logging.Level = v },
	"QLSTATS_LOGGING_OUTPUT": func(c *Config, v string) { c.Logging.Output = v },

	"QLSTATS_MQTT_ENABLED":  func(c *Config, v string) { setBool(&c.MQTT.Enabled, v) },
	"QLSTATS_MQTT_HOST":     func(c *Config, v string) { c.MQTT.Broker.Host = v },
	"QLSTATS_MQTT_PORT":     func(c *Config, v string) { setInt(&c.MQTT.Broker.Port, v) },
	"QLSTATS_MQTT_USERNAME": func(c *Config, v string) { c.MQTT.Auth.Username = v },
	"QLSTATS_MQTT_PASSWORD": func(c *Config, v string) { c.MQTT.Auth.Password = v },

	"QLSTATS_INFLUXDB_ENABLED": func(c *Config, v string) { setBool(&c.InfluxDB.Enabled, v) },
	"QLSTATS_INFLUXDB_URL":     func(c *Config, v string) { c.InfluxDB.URL = v },
	"QLSTATS_INFLUXDB_TOKEN":   func(c *Config, v string) { c.InfluxDB.Token = v },

	"QLSTATS_API_ENABLED": func(c *Config, v string) { setBool(&c.API.Enabled, v) },
	"QLSTATS_API_PORT":    func(c *Config, v string) { setInt(&c.API.Port, v) },
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) {
	for key, apply := range envOverrides {
		if v, ok := lookup(key); ok && v != "" {
			apply(cfg, v)
		}
	}
}

func setBool(dst *bool, v string) {
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []string
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, msg)
		}
	}

	check(c.ZMQ.Endpoint == "", "zmq.endpoint is required")
	check(c.ZMQ.Endpoint != "" && !strings.Contains(c.ZMQ.Endpoint, "://"),
		"zmq.endpoint must include a transport (e.g. tcp://host:port)")

	check(c.Display.Mode != DisplayModePlain && c.Display.Mode != DisplayModeTUI,
		"display.mode must be plain or tui")
	check(c.Display.MaxLines < 1, "display.max_lines must be positive")
	check(c.Display.Buffer < 0, "display.buffer cannot be negative")

	check(c.Logging.Output == "file" && c.Logging.File.Path == "",
		"logging.file.path is required when logging.output is file")

	if c.MQTT.Enabled {
		check(c.MQTT.QoS < 0 || c.MQTT.QoS > 2, "mqtt.qos must be 0, 1, or 2")
		check(c.MQTT.TopicPrefix == "", "mqtt.topic_prefix is required")
	}

	if c.InfluxDB.Enabled {
		check(c.InfluxDB.URL == "", "influxdb.url is required when enabled")
		check(c.InfluxDB.Bucket == "", "influxdb.bucket is required when enabled")
	}

	if c.API.Enabled {
		check(c.API.Port < 1 || c.API.Port > 65535, "api.port must be between 1 and 65535")
		check(c.WebSocket.PingInterval < 1, "websocket.ping_interval must be positive")
		check(c.WebSocket.PongTimeout < 1, "websocket.pong_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ReadTimeout is the HTTP read and read-header timeout.
func (a APIConfig) ReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// WriteTimeout is the HTTP write timeout.
func (a APIConfig) WriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// IdleTimeout is the HTTP keep-alive idle timeout.
func (a APIConfig) IdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
