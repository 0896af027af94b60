package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the fileserver command needs.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the listener and the served tree.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Threads is the number of OS threads running connection goroutines.
	Threads int `yaml:"threads"`
	// Root is the directory served at "/".
	Root      string `yaml:"root"`
	ChunkSize int    `yaml:"chunk_size"`
	// FileIO is "std" or "uring".
	FileIO       string `yaml:"file_io"`
	SniffUnknown bool   `yaml:"sniff_unknown"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Threads:      runtime.NumCPU(),
			Root:         ".",
			ChunkSize:    1024,
			FileIO:       "std",
			SniffUnknown: false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment, in that order. The result is not validated;
// callers apply their own overrides and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Server.Host = getEnvOrDefault("FILESERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	cfg.Server.Threads = getEnvAsIntOrDefault("FILESERVER_THREADS", cfg.Server.Threads)
	cfg.Server.Root = getEnvOrDefault("FILESERVER_ROOT", cfg.Server.Root)
	cfg.Server.ChunkSize = getEnvAsIntOrDefault("FILESERVER_CHUNK_SIZE", cfg.Server.ChunkSize)
	cfg.Server.FileIO = getEnvOrDefault("FILESERVER_FILE_IO", cfg.Server.FileIO)
	cfg.Server.SniffUnknown = getEnvAsBoolOrDefault("FILESERVER_SNIFF", cfg.Server.SniffUnknown)
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("LOG_FORMAT", cfg.Log.Format)

	return cfg, nil
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Server.Port))
	}
	if c.Server.Threads < 1 {
		errs = append(errs, fmt.Errorf("invalid thread count: %d", c.Server.Threads))
	}
	if c.Server.Root == "" {
		errs = append(errs, errors.New("root directory is empty"))
	}
	if c.Server.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("invalid chunk size: %d", c.Server.ChunkSize))
	}
	switch c.Server.FileIO {
	case "std", "uring":
	default:
		errs = append(errs, fmt.Errorf("unknown file_io: %q", c.Server.FileIO))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ServerAddress returns host:port for net.Listen.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level: %q", l.Level)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
