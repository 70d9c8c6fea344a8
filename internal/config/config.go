package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	defaultConfigPath       = "config/config.yaml"
	defaultAddress          = ":4001"
	defaultDriver           = "pgx"
	defaultAccessTTL        = 20 * time.Hour
	defaultRefreshTTL       = 30 * 24 * time.Hour
	defaultReminderInterval = 24 * time.Hour
	defaultReminderTimeout  = 5 * time.Minute
	defaultReminderLockTTL  = 10 * time.Minute
	defaultAvatarsBucket    = "avatars"
	defaultChatFilesBucket  = "chat-files"
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret         string        `yaml:"jwt_secret"`
		AccessTTL         time.Duration `yaml:"access_ttl"`
		RefreshTTL        time.Duration `yaml:"refresh_ttl"`
		OAuthClientID     string        `yaml:"oauth_client_id"`
		OAuthClientSecret string        `yaml:"oauth_client_secret"`
		OAuthRedirectURL  string        `yaml:"oauth_redirect_url"`
		OAuthSuccessURL   string        `yaml:"oauth_success_url"`
	} `yaml:"auth"`
	Storage struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		AccessKey       string `yaml:"access_key"`
		SecretKey       string `yaml:"secret_key"`
		PublicBaseURL   string `yaml:"public_base_url"`
		AvatarsBucket   string `yaml:"avatars_bucket"`
		ChatFilesBucket string `yaml:"chat_files_bucket"`
	} `yaml:"storage"`
	Notify struct {
		EmailFunctionURL string `yaml:"email_function_url"`
		EmailFunctionKey string `yaml:"email_function_key"`
		SMTPHost         string `yaml:"smtp_host"`
		SMTPPort         string `yaml:"smtp_port"`
		SMTPUser         string `yaml:"smtp_user"`
		SMTPPassword     string `yaml:"smtp_password"`
		SMTPFrom         string `yaml:"smtp_from"`
		FirebaseCreds    string `yaml:"firebase_credentials"`
	} `yaml:"notify"`
	Reminders struct {
		Enabled    bool          `yaml:"enabled"`
		Thresholds []int         `yaml:"thresholds"`
		Interval   time.Duration `yaml:"interval"`
		Timeout    time.Duration `yaml:"timeout"`
		LockTTL    time.Duration `yaml:"lock_ttl"`
	} `yaml:"reminders"`
	Functions struct {
		Secret string `yaml:"secret"`
	} `yaml:"functions"`
}

// LoadConfig reads the optional YAML file named by CONFIG_PATH, applies
// environment overrides and defaults, then validates the result.
func LoadConfig() (Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v, err := readIntEnv("REDIS_DB"); err != nil {
		return fmt.Errorf("parse REDIS_DB: %w", err)
	} else if v != nil {
		cfg.Redis.DB = *v
	}

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.OAuthClientID, "OAUTH_CLIENT_ID")
	setString(&cfg.Auth.OAuthClientSecret, "OAUTH_CLIENT_SECRET")
	setString(&cfg.Auth.OAuthRedirectURL, "OAUTH_REDIRECT_URL")
	setString(&cfg.Auth.OAuthSuccessURL, "OAUTH_SUCCESS_URL")
	if err := setDuration(&cfg.Auth.AccessTTL, "ACCESS_TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Auth.RefreshTTL, "REFRESH_TOKEN_TTL"); err != nil {
		return err
	}

	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.Region, "S3_REGION")
	setString(&cfg.Storage.AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Storage.PublicBaseURL, "S3_PUBLIC_BASE_URL")

	setString(&cfg.Notify.EmailFunctionURL, "EMAIL_FUNCTION_URL")
	setString(&cfg.Notify.EmailFunctionKey, "EMAIL_FUNCTION_KEY")
	setString(&cfg.Notify.SMTPHost, "SMTP_HOST")
	setString(&cfg.Notify.SMTPPort, "SMTP_PORT")
	setString(&cfg.Notify.SMTPUser, "SMTP_USER")
	setString(&cfg.Notify.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Notify.SMTPFrom, "SMTP_FROM")
	setString(&cfg.Notify.FirebaseCreds, "FIREBASE_CREDENTIALS")

	if v := os.Getenv("REMINDERS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse REMINDERS_ENABLED: %w", err)
		}
		cfg.Reminders.Enabled = enabled
	}
	if v := os.Getenv("REMINDER_THRESHOLDS"); v != "" {
		thresholds, err := parseThresholds(v)
		if err != nil {
			return fmt.Errorf("parse REMINDER_THRESHOLDS: %w", err)
		}
		cfg.Reminders.Thresholds = thresholds
	}
	if err := setDuration(&cfg.Reminders.Interval, "REMINDER_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Reminders.Timeout, "REMINDER_TIMEOUT"); err != nil {
		return err
	}

	setString(&cfg.Functions.Secret, "FUNCTIONS_SECRET")
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = defaultAccessTTL
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Storage.AvatarsBucket == "" {
		cfg.Storage.AvatarsBucket = defaultAvatarsBucket
	}
	if cfg.Storage.ChatFilesBucket == "" {
		cfg.Storage.ChatFilesBucket = defaultChatFilesBucket
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if len(cfg.Reminders.Thresholds) == 0 {
		cfg.Reminders.Thresholds = []int{7, 2, 1}
	}
	if cfg.Reminders.Interval == 0 {
		cfg.Reminders.Interval = defaultReminderInterval
	}
	if cfg.Reminders.Timeout == 0 {
		cfg.Reminders.Timeout = defaultReminderTimeout
	}
	if cfg.Reminders.LockTTL == 0 {
		cfg.Reminders.LockTTL = defaultReminderLockTTL
	}
}

// Validate reports configuration that would leave the server unusable.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "pgx", "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	for _, n := range c.Reminders.Thresholds {
		if n <= 0 {
			return fmt.Errorf("reminder threshold must be positive, got %d", n)
		}
	}
	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	*dst = d
	return nil
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseThresholds(raw string) ([]int, error) {
	var out []int
	for _, part := range splitList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
