package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "locate":
		if err := oneOf("locate", value, "ip", "static", "off"); err != nil {
			return err
		}
		c.Locate = value
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if v < 0 || v > 23 {
			return fmt.Errorf("invalid method %q: must be between 0 and 23", value)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid school %q: must be an integer", value)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("invalid school %q: must be 0 (Shafi) or 1 (Hanafi)", value)
		}
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		for _, n := range strings.Split(value, ",") {
			n = strings.TrimSpace(n)
			if !isValidPrayerName(n) {
				return fmt.Errorf("invalid prayer name %q in prayers list", n)
			}
		}
		c.Prayers = value
	case "language":
		if err := oneOf("language", value, "en", "ar"); err != nil {
			return err
		}
		c.Language = value
	case "cache_backend":
		if err := oneOf("cache_backend", value, "file", "redis", "memory"); err != nil {
			return err
		}
		c.CacheBackend = value
	case "cache_dir":
		c.CacheDir = value
	case "redis_addr":
		c.RedisAddr = value
	case "listen_addr":
		c.ListenAddr = value
	case "adhan_command":
		c.AdhanCommand = value
	case "adhan_audio":
		if _, err := ParseAudio(value); err != nil {
			return err
		}
		c.AdhanAudio = value
	case "mute":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid mute %q: must be true or false", value)
		}
		c.Mute = &v
	case "notify":
		for _, n := range splitList(value) {
			if err := oneOf("notify", n, "log", "mqtt", "kafka"); err != nil {
				return err
			}
		}
		c.Notify = value
	case "mqtt_broker":
		c.MQTTBroker = value
	case "mqtt_topic":
		c.MQTTTopic = value
	case "kafka_brokers":
		c.KafkaBrokers = value
	case "kafka_topic":
		c.KafkaTopic = value
	case "api_url":
		c.APIURL = value
	case "probe_url":
		c.ProbeURL = value
	case "log_level":
		if err := oneOf("log_level", value, "trace", "debug", "info", "warn", "error", "disabled"); err != nil {
			return err
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "locate":
		return c.Locate, nil
	case "method":
		if c.Method == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Method), nil
	case "school":
		if c.School == nil {
			return "", nil
		}
		return strconv.Itoa(*c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "language":
		return c.Language, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "adhan_command":
		return c.AdhanCommand, nil
	case "adhan_audio":
		return c.AdhanAudio, nil
	case "mute":
		if c.Mute == nil {
			return "", nil
		}
		return strconv.FormatBool(*c.Mute), nil
	case "notify":
		return c.Notify, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "mqtt_topic":
		return c.MQTTTopic, nil
	case "kafka_brokers":
		return c.KafkaBrokers, nil
	case "kafka_topic":
		return c.KafkaTopic, nil
	case "api_url":
		return c.APIURL, nil
	case "probe_url":
		return c.ProbeURL, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: must be one of %s", key, value, strings.Join(allowed, ", "))
}

// validPrayerNames are the prayer names the API supports.
var validPrayerNames = map[string]bool{
	"Fajr": true, "Sunrise": true, "Dhuhr": true, "Asr": true,
	"Sunset": true, "Maghrib": true, "Isha": true,
	"Imsak": true, "Midnight": true, "Firstthird": true, "Lastthird": true,
}

func isValidPrayerName(name string) bool {
	return validPrayerNames[name]
}

var adhanPrayers = map[string]bool{
	"Fajr": true, "Dhuhr": true, "Asr": true, "Maghrib": true, "Isha": true,
}

// ParseAudio parses adhan_audio. A bare path applies to every prayer;
// "Fajr=fajr.mp3,Dhuhr=dhuhr.mp3" overrides individual prayers and may be
// combined with a bare default.
func ParseAudio(value string) (map[string]string, error) {
	out := make(map[string]string)
	var fallback string
	for _, item := range splitList(value) {
		name, src, ok := strings.Cut(item, "=")
		if !ok {
			fallback = item
			continue
		}
		name = strings.TrimSpace(name)
		if !adhanPrayers[name] {
			return nil, fmt.Errorf("invalid adhan_audio prayer %q", name)
		}
		out[name] = strings.TrimSpace(src)
	}
	if fallback != "" {
		for name := range adhanPrayers {
			if _, ok := out[name]; !ok {
				out[name] = fallback
			}
		}
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, f := range strings.Split(value, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// PrayerFilter returns the configured prayer names, or nil for all.
func (c *Config) PrayerFilter() []string {
	return splitList(c.Prayers)
}

// Notifiers returns the configured notifier kinds.
func (c *Config) Notifiers() []string {
	return splitList(c.Notify)
}

// Brokers returns the Kafka broker addresses.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

// AudioSources returns the per-prayer adhan audio, ignoring a malformed value.
func (c *Config) AudioSources() map[string]string {
	m, err := ParseAudio(c.AdhanAudio)
	if err != nil {
		return nil
	}
	return m
}

// Muted reports the configured mute state.
func (c *Config) Muted() bool {
	return c.Mute != nil && *c.Mute
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}

// HasCoordinates reports whether both latitude and longitude are set.
func (c *Config) HasCoordinates() bool {
	return c.Latitude != 0 && c.Longitude != 0
}
