package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting of the client and its presentation server.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Server      ServerConfig      `mapstructure:"server"`
	Session     SessionConfig     `mapstructure:"session"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Voice       VoiceConfig       `mapstructure:"voice"`
	Log         LogConfig         `mapstructure:"log"`
}

// APIConfig points at the matching/routing backend.
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	MatchTimeout time.Duration `mapstructure:"match_timeout"`
}

// ServerConfig holds presentation server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SessionConfig carries a token to bind at startup, standing in for a completed login.
type SessionConfig struct {
	Token string `mapstructure:"token"`
}

// GeolocationConfig enables a fixed device position.
type GeolocationConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Lat     float64 `mapstructure:"lat"`
	Lon     float64 `mapstructure:"lon"`
}

// VoiceConfig selects the speech backend. An empty command logs utterances instead.
type VoiceConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Locale  string   `mapstructure:"locale"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoadConfig reads app.yaml from path, then environment variables prefixed PULSENET_.
// A .env file in path or the working directory is loaded first when present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load(filepath.Join(path, ".env"))
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PULSENET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, err
		}
	}

	err = v.Unmarshal(&config)
	return config, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.match_timeout", 30*time.Second)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("session.token", "")
	v.SetDefault("geolocation.enabled", false)
	v.SetDefault("geolocation.lat", 0.0)
	v.SetDefault("geolocation.lon", 0.0)
	v.SetDefault("voice.enabled", true)
	v.SetDefault("voice.command", "")
	v.SetDefault("voice.args", []string{})
	v.SetDefault("voice.locale", "en-IN")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
