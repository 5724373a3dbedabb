package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/waste3d/cfproxyhub/internal/domain"
)

const (
	AppName   = "cfproxyhub"
	EnvPrefix = "CFPROXYHUB"

	DefaultAPIServer      = "http://localhost:8080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultNotifyDismiss  = 5 * time.Second
	DefaultListenAddr     = ":8080"
	DefaultSessionTTL     = 24 * time.Hour
)

type ClientConfig struct {
	APIServer        string
	APIToken         string
	AccountID        string
	TunnelID         string
	RequestTimeout   time.Duration
	StrictValidation bool
	NotifyDismiss    time.Duration
	LogLevel         string
}

func (c ClientConfig) Scope() domain.TunnelScope {
	return domain.TunnelScope{AccountID: c.AccountID, TunnelID: c.TunnelID}
}

type ServerConfig struct {
	ListenAddr         string
	AdminUsername      string
	AdminPassword      string
	SessionTTL         time.Duration
	DatabaseURL        string
	CORSOrigins        []string
	CloudflareAPIToken string
	Zones              []domain.Zone
	LogLevel           string
}

// LoadDotEnv loads .env style files into the process environment. Variables
// that are already set win. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not load %s: %w", f, err)
		}
	}
	return nil
}

// DefaultPath is ~/.config/cfproxyhub/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.yaml"), nil
}

// New builds a viper instance with defaults, CFPROXYHUB_ environment
// overrides and, when present, the YAML config file. An empty cfgFile means
// the default location.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return v, nil
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_server", DefaultAPIServer)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("strict_validation", false)
	v.SetDefault("notify_dismiss", DefaultNotifyDismiss)
	v.SetDefault("log_level", "info")

	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("admin_username", "admin")
	v.SetDefault("session_ttl", DefaultSessionTTL)
	v.SetDefault("cors_origins", []string{"http://localhost:8080"})
}

func Client(v *viper.Viper) ClientConfig {
	return ClientConfig{
		APIServer:        strings.TrimRight(v.GetString("api_server"), "/"),
		APIToken:         v.GetString("api_token"),
		AccountID:        v.GetString("account_id"),
		TunnelID:         v.GetString("tunnel_id"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		StrictValidation: v.GetBool("strict_validation"),
		NotifyDismiss:    v.GetDuration("notify_dismiss"),
		LogLevel:         v.GetString("log_level"),
	}
}

func Server(v *viper.Viper) (ServerConfig, error) {
	cfg := ServerConfig{
		ListenAddr:         v.GetString("listen_addr"),
		AdminUsername:      v.GetString("admin_username"),
		AdminPassword:      v.GetString("admin_password"),
		SessionTTL:         v.GetDuration("session_ttl"),
		DatabaseURL:        v.GetString("database_url"),
		CORSOrigins:        v.GetStringSlice("cors_origins"),
		CloudflareAPIToken: v.GetString("cloudflare_api_token"),
		LogLevel:           v.GetString("log_level"),
	}
	if err := v.UnmarshalKey("zones", &cfg.Zones); err != nil {
		return cfg, fmt.Errorf("could not parse zones: %w", err)
	}
	if cfg.AdminPassword == "" {
		return cfg, errors.New("admin_password must be set")
	}
	return cfg, nil
}

// SaveToken stores the API token in the config file in use, or in the default
// location when none was read. It returns the path written.
func SaveToken(v *viper.Viper, token string) (string, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	v.Set("api_token", token)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("could not save config file: %w", err)
	}
	return path, nil
}
