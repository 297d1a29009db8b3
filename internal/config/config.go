// Package config reads the settings of the web front end and the API from
// the environment, after loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HORTUS"

// Log holds the logging settings shared by both binaries.
type Log struct {
	Level       string
	Development bool
}

// Web holds the settings of the web front end.
type Web struct {
	Addr   string // address the web server listens on
	APIURL string // base URL of the plant tracker API
	Log    Log
}

// API holds the settings of the API server.
type API struct {
	Addr     string
	DBDriver string // "postgres" or "sqlite"
	DBURL    string
	Log      Log
}

// LoadWeb reads the web front end configuration. HORTUS_API_URL is required.
func LoadWeb() (Web, error) {
	v, err := newViper()
	if err != nil {
		return Web{}, err
	}
	v.SetDefault("web_addr", ":8081")

	cfg := Web{
		Addr:   v.GetString("web_addr"),
		APIURL: strings.TrimRight(v.GetString("api_url"), "/"),
		Log:    logConfig(v),
	}
	if cfg.APIURL == "" {
		return Web{}, missing("api_url")
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Web{}, fmt.Errorf("config: %s_API_URL must be an absolute http(s) URL, got %q", envPrefix, cfg.APIURL)
	}
	return cfg, nil
}

// LoadAPI reads the API server configuration. HORTUS_DB_URL is required.
func LoadAPI() (API, error) {
	v, err := newViper()
	if err != nil {
		return API{}, err
	}
	v.SetDefault("api_addr", ":8080")
	v.SetDefault("db_driver", "postgres")

	cfg := API{
		Addr:     v.GetString("api_addr"),
		DBDriver: strings.ToLower(v.GetString("db_driver")),
		DBURL:    v.GetString("db_url"),
		Log:      logConfig(v),
	}
	if cfg.DBURL == "" {
		return API{}, missing("db_url")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return API{}, fmt.Errorf("config: unsupported %s_DB_DRIVER %q", envPrefix, cfg.DBDriver)
	}
	return cfg, nil
}

func newViper() (*viper.Viper, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	return v, nil
}

// loadDotEnv loads path into the environment if it exists. Variables already
// set are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

func logConfig(v *viper.Viper) Log {
	return Log{
		Level:       v.GetString("log_level"),
		Development: v.GetBool("log_development"),
	}
}

func missing(key string) error {
	return fmt.Errorf("config: %s_%s is not set", envPrefix, strings.ToUpper(key))
}
