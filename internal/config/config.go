package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ARCHITECTURAL DISCOVERY: Configuration layer serves as system-wide
// settings coordinator, kept separate from every runtime component
type Config struct {
	Server        *ServerConfig       `json:"server"`
	Notifications *NotificationConfig `json:"notifications"`
	History       *HistoryConfig      `json:"history"`
	API           *APIConfig          `json:"api"`
}

// ServerConfig describes the notification server connection policy.
type ServerConfig struct {
	URL               string        `json:"url"`
	DialTimeout       time.Duration `json:"dial_timeout"`       // Transport-level handshake budget
	ConnectTimeout    time.Duration `json:"connect_timeout"`    // Overall manager-level budget
	ReconnectAttempts int           `json:"reconnect_attempts"`
	ReconnectDelay    time.Duration `json:"reconnect_delay"`
}

// NotificationConfig bounds the in-memory notification surfaces.
type NotificationConfig struct {
	StoreCapacity int           `json:"store_capacity"`
	ToastCapacity int           `json:"toast_capacity"`
	ToastTTL      time.Duration `json:"toast_ttl"`
	DemoInterval  time.Duration `json:"demo_interval"`
}

// HistoryConfig configures the local sqlite notification cache.
type HistoryConfig struct {
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
}

// APIConfig configures the REST request boundary.
type APIConfig struct {
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultConfig returns production defaults: 5s handshake inside an 8s
// overall connect budget, 5 reconnect attempts 2s apart, a 20-record
// store, 3 concurrent toasts living 10s each, demo activity every 5s.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			URL:               "ws://localhost:5000/socket",
			DialTimeout:       5 * time.Second,
			ConnectTimeout:    8 * time.Second,
			ReconnectAttempts: 5,
			ReconnectDelay:    2 * time.Second,
		},
		Notifications: &NotificationConfig{
			StoreCapacity: 20,
			ToastCapacity: 3,
			ToastTTL:      10 * time.Second,
			DemoInterval:  5 * time.Second,
		},
		History: &HistoryConfig{
			Path:    "./carelink.db",
			Timeout: 30 * time.Second,
		},
		API: &APIConfig{
			BaseURL:        "http://localhost:5000/api",
			RequestTimeout: 15 * time.Second,
		},
	}
}

// Validate prevents invalid configurations from reaching the runtime.
func (c *Config) Validate() error {
	if c.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if c.Server.URL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	if c.Server.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive")
	}
	if c.Server.ConnectTimeout < c.Server.DialTimeout {
		return fmt.Errorf("connect timeout must be at least the dial timeout")
	}
	if c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	if c.Notifications == nil {
		return fmt.Errorf("notifications configuration is required")
	}
	if c.Notifications.StoreCapacity <= 0 {
		return fmt.Errorf("store capacity must be positive")
	}
	if c.Notifications.ToastCapacity <= 0 {
		return fmt.Errorf("toast capacity must be positive")
	}
	if c.Notifications.ToastTTL <= 0 {
		return fmt.Errorf("toast TTL must be positive")
	}
	if c.Notifications.DemoInterval <= 0 {
		return fmt.Errorf("demo interval must be positive")
	}

	if c.History == nil {
		return fmt.Errorf("history configuration is required")
	}
	if c.History.Path == "" {
		return fmt.Errorf("history path cannot be empty")
	}
	if c.History.Timeout <= 0 {
		return fmt.Errorf("history timeout must be positive")
	}

	if c.API == nil {
		return fmt.Errorf("API configuration is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL cannot be empty")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("API request timeout must be positive")
	}

	return nil
}

// LoadFromEnv overlays CARELINK_* environment variables on the defaults.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if url := os.Getenv("CARELINK_SERVER_URL"); url != "" {
		config.Server.URL = url
	}
	if v := os.Getenv("CARELINK_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Server.DialTimeout = d
		}
	}
	if v := os.Getenv("CARELINK_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Server.ConnectTimeout = d
		}
	}
	if v := os.Getenv("CARELINK_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Server.ReconnectAttempts = n
		}
	}
	if v := os.Getenv("CARELINK_RECONNECT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Server.ReconnectDelay = d
		}
	}
	if v := os.Getenv("CARELINK_STORE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Notifications.StoreCapacity = n
		}
	}
	if v := os.Getenv("CARELINK_TOAST_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Notifications.ToastCapacity = n
		}
	}
	if v := os.Getenv("CARELINK_TOAST_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Notifications.ToastTTL = d
		}
	}
	if v := os.Getenv("CARELINK_DEMO_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Notifications.DemoInterval = d
		}
	}
	if path := os.Getenv("CARELINK_HISTORY_PATH"); path != "" {
		config.History.Path = path
	}
	if v := os.Getenv("CARELINK_HISTORY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.History.Timeout = d
		}
	}
	if url := os.Getenv("CARELINK_API_BASE_URL"); url != "" {
		config.API.BaseURL = url
	}
	if v := os.Getenv("CARELINK_API_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.API.RequestTimeout = d
		}
	}

	return config
}

// ConfigFile mirrors Config with string durations for JSON parsing.
type ConfigFile struct {
	Server        *ServerConfigFile       `json:"server"`
	Notifications *NotificationConfigFile `json:"notifications"`
	History       *HistoryConfigFile      `json:"history"`
	API           *APIConfigFile          `json:"api"`
}

type ServerConfigFile struct {
	URL               string `json:"url"`
	DialTimeout       string `json:"dial_timeout"`
	ConnectTimeout    string `json:"connect_timeout"`
	ReconnectAttempts int    `json:"reconnect_attempts"`
	ReconnectDelay    string `json:"reconnect_delay"`
}

type NotificationConfigFile struct {
	StoreCapacity int    `json:"store_capacity"`
	ToastCapacity int    `json:"toast_capacity"`
	ToastTTL      string `json:"toast_ttl"`
	DemoInterval  string `json:"demo_interval"`
}

type HistoryConfigFile struct {
	Path    string `json:"path"`
	Timeout string `json:"timeout"`
}

type APIConfigFile struct {
	BaseURL        string `json:"base_url"`
	RequestTimeout string `json:"request_timeout"`
}

// LoadFromFile reads JSON configuration, overlaying it on the defaults.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filepath, err)
	}

	config := DefaultConfig()

	if configFile.Server != nil {
		if configFile.Server.URL != "" {
			config.Server.URL = configFile.Server.URL
		}
		if configFile.Server.ReconnectAttempts > 0 {
			config.Server.ReconnectAttempts = configFile.Server.ReconnectAttempts
		}
		applyDuration(&config.Server.DialTimeout, configFile.Server.DialTimeout)
		applyDuration(&config.Server.ConnectTimeout, configFile.Server.ConnectTimeout)
		applyDuration(&config.Server.ReconnectDelay, configFile.Server.ReconnectDelay)
	}

	if configFile.Notifications != nil {
		if configFile.Notifications.StoreCapacity > 0 {
			config.Notifications.StoreCapacity = configFile.Notifications.StoreCapacity
		}
		if configFile.Notifications.ToastCapacity > 0 {
			config.Notifications.ToastCapacity = configFile.Notifications.ToastCapacity
		}
		applyDuration(&config.Notifications.ToastTTL, configFile.Notifications.ToastTTL)
		applyDuration(&config.Notifications.DemoInterval, configFile.Notifications.DemoInterval)
	}

	if configFile.History != nil {
		if configFile.History.Path != "" {
			config.History.Path = configFile.History.Path
		}
		applyDuration(&config.History.Timeout, configFile.History.Timeout)
	}

	if configFile.API != nil {
		if configFile.API.BaseURL != "" {
			config.API.BaseURL = configFile.API.BaseURL
		}
		applyDuration(&config.API.RequestTimeout, configFile.API.RequestTimeout)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath, err)
	}

	return config, nil
}

// LoadConfigWithPrecedence resolves configuration as file > env > defaults.
func LoadConfigWithPrecedence(filepath string) *Config {
	config := LoadFromEnv()

	if filepath != "" {
		if fileConfig, err := LoadFromFile(filepath); err == nil {
			config = fileConfig
		}
		// Silently ignore file errors - environment/defaults still work
	}

	return config
}

func applyDuration(dst *time.Duration, value string) {
	if value == "" {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*dst = d
	}
}
