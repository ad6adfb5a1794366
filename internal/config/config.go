package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	DefaultAPIURL         = "http://localhost:8080/api"
	DefaultRequestTimeout = 30 * time.Second
	DefaultListen         = ":8080"
	configDirName         = ".lazyeip"
)

// Config holds the application configuration
type Config struct {
	APIURL          string
	Region          string
	RequestTimeout  time.Duration
	GuardStaleLoads bool
	Log             LogConfig
	Server          ServerConfig
}

// LogConfig controls the developer log file
type LogConfig struct {
	Level string
	File  string
}

// ServerConfig holds settings used only by `lazyeip serve`
type ServerConfig struct {
	Listen            string
	CredentialsDB     string
	IdentityFile      string
	VerifyCredentials bool
}

// Dir returns the directory holding config, logs and the credential file.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return configDirName
	}
	return filepath.Join(home, configDirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.ini")
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dir := Dir()
	return &Config{
		APIURL:          DefaultAPIURL,
		Region:          GetDefaultRegion(),
		RequestTimeout:  DefaultRequestTimeout,
		GuardStaleLoads: true,
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "lazyeip.log"),
		},
		Server: ServerConfig{
			Listen:        DefaultListen,
			CredentialsDB: filepath.Join(dir, "credentials.age"),
			IdentityFile:  filepath.Join(dir, "identity.txt"),
		},
	}
}

// LoadConfig loads the configuration from path. A missing file yields the
// defaults; environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			file, err := ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			if err := apply(cfg, file); err != nil {
				return nil, fmt.Errorf("invalid config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if v, ok := os.LookupEnv("LAZYEIP_API_URL"); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := os.LookupEnv("LAZYEIP_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	return cfg, nil
}

func apply(cfg *Config, file *ini.File) error {
	section := file.Section("default")
	if v := section.Key("api_url").String(); v != "" {
		cfg.APIURL = v
	}
	if v := section.Key("region").String(); v != "" {
		cfg.Region = v
	}
	if section.HasKey("request_timeout") {
		d, err := section.Key("request_timeout").Duration()
		if err != nil || d <= 0 {
			return fmt.Errorf("request_timeout: %q is not a positive duration", section.Key("request_timeout").String())
		}
		cfg.RequestTimeout = d
	}
	if section.HasKey("guard_stale_loads") {
		b, err := section.Key("guard_stale_loads").Bool()
		if err != nil {
			return fmt.Errorf("guard_stale_loads: %w", err)
		}
		cfg.GuardStaleLoads = b
	}

	section = file.Section("log")
	if v := section.Key("level").String(); v != "" {
		cfg.Log.Level = v
	}
	if v := section.Key("file").String(); v != "" {
		cfg.Log.File = v
	}

	section = file.Section("server")
	if v := section.Key("listen").String(); v != "" {
		cfg.Server.Listen = v
	}
	if v := section.Key("credentials_db").String(); v != "" {
		cfg.Server.CredentialsDB = v
	}
	if v := section.Key("identity_file").String(); v != "" {
		cfg.Server.IdentityFile = v
	}
	if section.HasKey("verify_credentials") {
		b, err := section.Key("verify_credentials").Bool()
		if err != nil {
			return fmt.Errorf("verify_credentials: %w", err)
		}
		cfg.Server.VerifyCredentials = b
	}
	return nil
}

// GetDefaultRegion returns the default AWS region
func GetDefaultRegion() string {
	if region, ok := os.LookupEnv("AWS_REGION"); ok {
		return region
	}
	if region, ok := os.LookupEnv("AWS_DEFAULT_REGION"); ok {
		return region
	}
	return "us-east-1"
}
