// Package config loads the bridge configuration from a config file and GOVEEMQTT_ environment variables using viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/nlowe/goveemqtt/log"
)

const (
	EnvPrefix = "GOVEEMQTT"
	FileName  = "goveemqtt"

	KeyAPIKey               = "api_key"
	KeyAPIURL               = "api_url"
	KeyEntryID              = "entry_id"
	KeyScanInterval         = "scan_interval"
	KeyMQTTBroker           = "mqtt.broker"
	KeyMQTTUsername         = "mqtt.username"
	KeyMQTTPassword         = "mqtt.password"
	KeyMQTTClientID         = "mqtt.client_id"
	KeyMQTTTopicPrefix      = "mqtt.topic_prefix"
	KeyMQTTDiscoveryPrefix  = "mqtt.discovery_prefix"
	KeyHTTPAddr             = "http.addr"
	KeyDBPath               = "db_path"
	KeyLogLevel             = "log_level"
	defaultScanIntervalSecs = 60
)

var (
	// ErrNoAPIKey is the error returned by Config.Validate when api_key is not configured.
	ErrNoAPIKey = errors.New("config: api_key is required")
	// ErrInvalidScanInterval is the error returned by Load when scan_interval is neither a number of seconds nor a
	// duration.
	ErrInvalidScanInterval = errors.New("config: invalid scan_interval")
)

type MQTT struct {
	Broker          string
	Username        string
	Password        string
	ClientID        string
	TopicPrefix     string
	DiscoveryPrefix string
}

type HTTP struct {
	// Addr is the listen address of the HTTP API. Empty disables it.
	Addr string
}

// Config is the complete bridge configuration.
type Config struct {
	APIKey       string
	APIURL       string
	EntryID      string
	ScanInterval time.Duration

	MQTT MQTT
	HTTP HTTP

	// DBPath is the SQLite database file. Empty disables persistence.
	DBPath   string
	LogLevel string
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_url", c.APIURL),
		slog.Bool("api_key", c.APIKey != ""),
		slog.String("entry_id", c.EntryID),
		slog.Duration("scan_interval", c.ScanInterval),
		slog.String("mqtt_broker", c.MQTT.Broker),
		slog.String("mqtt_client_id", c.MQTT.ClientID),
		slog.String("topic_prefix", c.MQTT.TopicPrefix),
		slog.String("discovery_prefix", c.MQTT.DiscoveryPrefix),
		slog.String("http_addr", c.HTTP.Addr),
		slog.String("db_path", c.DBPath),
		slog.String("log_level", c.LogLevel),
	)
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrNoAPIKey)
	}

	if _, err := c.BrokerURL(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// BrokerURL parses mqtt.broker.
func (c Config) BrokerURL() (*url.URL, error) {
	u, err := url.Parse(c.MQTT.Broker)
	if err != nil {
		return nil, fmt.Errorf("config: mqtt.broker: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: mqtt.broker: %q must look like mqtt://host:1883", c.MQTT.Broker)
	}

	return u, nil
}

// New creates a viper instance with defaults, environment binding and config search paths, and reads the config
// file if one exists. Extra paths are searched before the defaults.
func New(paths ...string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyAPIURL, "https://openapi.api.govee.com")
	v.SetDefault(KeyEntryID, "default")
	v.SetDefault(KeyScanInterval, defaultScanIntervalSecs)
	v.SetDefault(KeyMQTTBroker, "mqtt://localhost:1883")
	v.SetDefault(KeyMQTTUsername, "")
	v.SetDefault(KeyMQTTPassword, "")
	v.SetDefault(KeyMQTTClientID, "goveemqtt")
	v.SetDefault(KeyMQTTTopicPrefix, "goveemqtt")
	v.SetDefault(KeyMQTTDiscoveryPrefix, "homeassistant")
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeyDBPath, "goveemqtt.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAPIKey, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/goveemqtt")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}

		log.ForComponent("config").Debug("No config file found, using defaults and environment")
	}

	return v, nil
}

// Load reads the current settings from v.
func Load(v *viper.Viper) (Config, error) {
	interval, err := parseScanInterval(v.GetString(KeyScanInterval))
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIKey:       strings.TrimSpace(v.GetString(KeyAPIKey)),
		APIURL:       v.GetString(KeyAPIURL),
		EntryID:      v.GetString(KeyEntryID),
		ScanInterval: interval,
		MQTT: MQTT{
			Broker:          v.GetString(KeyMQTTBroker),
			Username:        v.GetString(KeyMQTTUsername),
			Password:        v.GetString(KeyMQTTPassword),
			ClientID:        v.GetString(KeyMQTTClientID),
			TopicPrefix:     v.GetString(KeyMQTTTopicPrefix),
			DiscoveryPrefix: v.GetString(KeyMQTTDiscoveryPrefix),
		},
		HTTP: HTTP{
			Addr: v.GetString(KeyHTTPAddr),
		},
		DBPath:   v.GetString(KeyDBPath),
		LogLevel: v.GetString(KeyLogLevel),
	}, nil
}

// parseScanInterval accepts whole or fractional seconds ("90", "1.5") or a Go duration ("2m").
func parseScanInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)

	var d time.Duration
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(raw); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScanInterval, raw)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidScanInterval, raw)
	}

	return d, nil
}

// Watch calls onChange with the reloaded Config whenever the config file changes. Invalid changes are logged and
// skipped.
func Watch(v *viper.Viper, onChange func(Config)) {
	v.OnConfigChange(reloader(v, log.ForComponent("config"), onChange))
	v.WatchConfig()
}

func reloader(v *viper.Viper, l *slog.Logger, onChange func(Config)) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		el := l.With(slog.String("file", e.Name), slog.String("op", e.Op.String()))
		el.Info("Config file changed")

		cfg, err := Load(v)
		if err != nil {
			el.With(log.Failure(err)...).Error("Ignoring invalid config change")
			return
		}

		onChange(cfg)
	}
}
