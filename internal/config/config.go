// Package config handles loading and validating application configuration.
// The config file is located through (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by its environment variable.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aanand-mishra/accounts-api/internal/http/handlers/system"
)

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing. validate:"..." rules are checked after loading.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true" validate:"oneof=dev staging prod"`

	HTTPServer `yaml:"http_server"`

	Storage Storage `yaml:"storage"`
}

// HTTPServer holds settings for the listener and the accounts routes.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8000".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true" validate:"required"`

	// AccountsPrefix is where the accounts controller is mounted. It must
	// not collide with the health or metrics prefixes, and only the root
	// may end in "/".
	AccountsPrefix string `yaml:"accounts_prefix" env:"HTTP_SERVER_ACCOUNTS_PREFIX" env-default:"/" validate:"mountprefix"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s" validate:"gt=0"`
}

// Storage selects and tunes the account store.
type Storage struct {
	// Backend is "memory" (map) or "sqlite" (in-memory SQLite). Neither
	// keeps data across restarts.
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"memory" validate:"oneof=memory sqlite"`

	// IDPolicy is "sequential" (monotonic ids) or "size" (len+1, ids can
	// be reused after deletes).
	IDPolicy string `yaml:"id_policy" env:"STORAGE_ID_POLICY" env-default:"sequential" validate:"oneof=sequential size"`

	// SQLiteName names the in-memory SQLite database.
	SQLiteName string `yaml:"sqlite_name" env:"STORAGE_SQLITE_NAME" env-default:"accounts" validate:"required"`
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad locates, reads and validates the config, and exits the process
// on any failure. If it returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

// mountPrefix accepts "/" or an absolute path without a trailing slash
// that is not already taken by a system controller.
func mountPrefix(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	if p == "/" {
		return true
	}
	if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}
	return p != system.HealthPrefix && p != system.MetricsPrefix
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.RegisterValidation("mountprefix", mountPrefix); err != nil {
		return fmt.Errorf("register validation: %w", err)
	}

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			messages = append(messages, fmt.Sprintf("field %s is required", e.Namespace()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("field %s must be one of [%s]", e.Namespace(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("field %s is invalid", e.Namespace()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, ", "))
}
