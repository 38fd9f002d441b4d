// Package config provides persistent configuration for quranlake.
//
// Configuration is stored as JSON at ~/.config/quranlake/config.json
// (XDG-compliant). QURANLAKE_* environment variables, optionally loaded from
// a .env file, override the file. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	configDirName  = "quranlake"
	configFileName = "config.json"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"locate",
	"method", "school",
	"time_format",
	"prayers",
	"language",
	"cache_backend", "cache_dir", "redis_addr",
	"listen_addr",
	"adhan_command", "adhan_audio", "mute",
	"notify", "mqtt_broker", "mqtt_topic", "kafka_brokers", "kafka_topic",
	"api_url", "probe_url",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City      string  `json:"city,omitempty" envconfig:"QURANLAKE_CITY"`
	Country   string  `json:"country,omitempty" envconfig:"QURANLAKE_COUNTRY"`
	Latitude  float64 `json:"latitude,omitempty" envconfig:"QURANLAKE_LATITUDE"`
	Longitude float64 `json:"longitude,omitempty" envconfig:"QURANLAKE_LONGITUDE"`
	// Locate is "ip", "static" or "off".
	Locate string `json:"locate,omitempty" envconfig:"QURANLAKE_LOCATE"`

	Method *int `json:"method,omitempty" envconfig:"QURANLAKE_METHOD"` // pointer so we can distinguish "not set" from 0
	School *int `json:"school,omitempty" envconfig:"QURANLAKE_SCHOOL"` // pointer so we can distinguish "not set" from 0

	TimeFormat string `json:"time_format,omitempty" envconfig:"QURANLAKE_TIME_FORMAT"` // "12h" or "24h"
	Prayers    string `json:"prayers,omitempty" envconfig:"QURANLAKE_PRAYERS"`         // comma-separated list
	Language   string `json:"language,omitempty" envconfig:"QURANLAKE_LANGUAGE"`       // "en" or "ar"

	CacheBackend string `json:"cache_backend,omitempty" envconfig:"QURANLAKE_CACHE_BACKEND"` // file, redis or memory
	CacheDir     string `json:"cache_dir,omitempty" envconfig:"QURANLAKE_CACHE_DIR"`
	RedisAddr    string `json:"redis_addr,omitempty" envconfig:"QURANLAKE_REDIS_ADDR"`

	ListenAddr string `json:"listen_addr,omitempty" envconfig:"QURANLAKE_LISTEN_ADDR"`

	AdhanCommand string `json:"adhan_command,omitempty" envconfig:"QURANLAKE_ADHAN_COMMAND"`
	AdhanAudio   string `json:"adhan_audio,omitempty" envconfig:"QURANLAKE_ADHAN_AUDIO"`
	Mute         *bool  `json:"mute,omitempty" envconfig:"QURANLAKE_MUTE"`

	Notify       string `json:"notify,omitempty" envconfig:"QURANLAKE_NOTIFY"` // comma list of log, mqtt, kafka
	MQTTBroker   string `json:"mqtt_broker,omitempty" envconfig:"QURANLAKE_MQTT_BROKER"`
	MQTTTopic    string `json:"mqtt_topic,omitempty" envconfig:"QURANLAKE_MQTT_TOPIC"`
	KafkaBrokers string `json:"kafka_brokers,omitempty" envconfig:"QURANLAKE_KAFKA_BROKERS"`
	KafkaTopic   string `json:"kafka_topic,omitempty" envconfig:"QURANLAKE_KAFKA_TOPIC"`

	APIURL   string `json:"api_url,omitempty" envconfig:"QURANLAKE_API_URL"`
	ProbeURL string `json:"probe_url,omitempty" envconfig:"QURANLAKE_PROBE_URL"`
	LogLevel string `json:"log_level,omitempty" envconfig:"QURANLAKE_LOG_LEVEL"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := 4 // Umm Al-Qura
	school := 1 // Hanafi
	mute := false
	return Config{
		Locate:       "ip",
		Method:       &method,
		School:       &school,
		TimeFormat:   "24h",
		Language:     "en",
		CacheBackend: "file",
		RedisAddr:    "localhost:6379",
		ListenAddr:   ":8080",
		AdhanCommand: "mpv --no-video --really-quiet",
		AdhanAudio:   "adhan.mp3",
		Mute:         &mute,
		Notify:       "log",
		MQTTBroker:   "tcp://localhost:1883",
		MQTTTopic:    "quranlake/adhan",
		KafkaBrokers: "localhost:9092",
		KafkaTopic:   "quranlake.adhan",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// FromEnv reads QURANLAKE_* variables. Unset variables leave fields zero.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return &cfg, nil
}

// Resolve layers defaults, the config file and the environment.
func Resolve(file *Config) (Config, error) {
	cfg := Defaults()
	if file != nil {
		cfg.Merge(*file)
	}
	env, err := FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.Merge(*env)
	return cfg, nil
}

// Merge copies every set field of other onto c.
func (c *Config) Merge(other Config) {
	mergeString(&c.City, other.City)
	mergeString(&c.Country, other.Country)
	if other.Latitude != 0 {
		c.Latitude = other.Latitude
	}
	if other.Longitude != 0 {
		c.Longitude = other.Longitude
	}
	mergeString(&c.Locate, other.Locate)
	if other.Method != nil {
		c.Method = other.Method
	}
	if other.School != nil {
		c.School = other.School
	}
	mergeString(&c.TimeFormat, other.TimeFormat)
	mergeString(&c.Prayers, other.Prayers)
	mergeString(&c.Language, other.Language)
	mergeString(&c.CacheBackend, other.CacheBackend)
	mergeString(&c.CacheDir, other.CacheDir)
	mergeString(&c.RedisAddr, other.RedisAddr)
	mergeString(&c.ListenAddr, other.ListenAddr)
	mergeString(&c.AdhanCommand, other.AdhanCommand)
	mergeString(&c.AdhanAudio, other.AdhanAudio)
	if other.Mute != nil {
		c.Mute = other.Mute
	}
	mergeString(&c.Notify, other.Notify)
	mergeString(&c.MQTTBroker, other.MQTTBroker)
	mergeString(&c.MQTTTopic, other.MQTTTopic)
	mergeString(&c.KafkaBrokers, other.KafkaBrokers)
	mergeString(&c.KafkaTopic, other.KafkaTopic)
	mergeString(&c.APIURL, other.APIURL)
	mergeString(&c.ProbeURL, other.ProbeURL)
	mergeString(&c.LogLevel, other.LogLevel)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}
