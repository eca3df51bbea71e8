package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
		Env     string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string   `yaml:"addr"`
		ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
		WriteTimeoutSec int      `yaml:"write_timeout_sec"`
		ShutdownSec     int      `yaml:"shutdown_sec"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // sqlite | postgres
		Path     string `yaml:"path"`   // sqlite file, relative to the workspace dir
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Name     string `yaml:"name"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		PoolMin  int    `yaml:"pool_min"`
		PoolMax  int    `yaml:"pool_max"`
	} `yaml:"database"`

	Classifier struct {
		Provider       string  `yaml:"provider"` // rules | zeroshot
		APIURL         string  `yaml:"api_url"`
		APIKey         string  `yaml:"api_key"`
		Model          string  `yaml:"model"`
		TimeoutSec     int     `yaml:"timeout_sec"`
		MaxAttempts    int     `yaml:"max_attempts"`
		LoadingWaitSec int     `yaml:"loading_wait_sec"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		Burst          int     `yaml:"burst"`
	} `yaml:"classifier"`

	Cache struct {
		Backend   string `yaml:"backend"` // memory | redis | none
		TTLSec    int    `yaml:"ttl_sec"`
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		RedisPass string `yaml:"redis_password"`
	} `yaml:"cache"`

	Feed struct {
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"feed"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"logging"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = AppName
	cfg.App.Version = "dev"
	cfg.App.Env = "development"

	cfg.Server.Addr = ":5000"
	cfg.Server.ReadTimeoutSec = 15
	cfg.Server.WriteTimeoutSec = 30
	cfg.Server.ShutdownSec = 10
	cfg.Server.AllowedOrigins = []string{"*"}

	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = "spendsense.db"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "spendsense"
	cfg.Database.User = "postgres"
	cfg.Database.SSLMode = "disable"
	cfg.Database.PoolMin = 1
	cfg.Database.PoolMax = 10

	cfg.Classifier.Provider = "rules"
	cfg.Classifier.APIURL = "https://api-inference.huggingface.co/models"
	cfg.Classifier.Model = "facebook/bart-large-mnli"
	cfg.Classifier.TimeoutSec = 30
	cfg.Classifier.MaxAttempts = 5
	cfg.Classifier.LoadingWaitSec = 3
	cfg.Classifier.RatePerSecond = 5
	cfg.Classifier.Burst = 5

	cfg.Cache.Backend = "memory"
	cfg.Cache.TTLSec = 3600

	cfg.Feed.BufferSize = 256

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// A missing file is not an error: defaults plus environment are used.
func LoadConfig(path string) (*Config, error) {
	// .env is optional; real environment variables take precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		return nil, err
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("postgres host and name are required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid postgres port: %d", c.Database.Port)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Database.PoolMax <= 0 || c.Database.PoolMin < 0 || c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("invalid pool size: min=%d max=%d", c.Database.PoolMin, c.Database.PoolMax)
	}

	switch c.Classifier.Provider {
	case "rules":
	case "zeroshot":
		if !strings.HasPrefix(c.Classifier.APIURL, "http://") && !strings.HasPrefix(c.Classifier.APIURL, "https://") {
			return fmt.Errorf("invalid classifier API URL: %s", c.Classifier.APIURL)
		}
		if c.Classifier.Model == "" {
			return fmt.Errorf("classifier model is required")
		}
	default:
		return fmt.Errorf("unsupported classifier provider: %q", c.Classifier.Provider)
	}
	if c.Classifier.MaxAttempts <= 0 {
		return fmt.Errorf("classifier max attempts must be positive")
	}
	if c.Classifier.RatePerSecond <= 0 || c.Classifier.Burst <= 0 {
		return fmt.Errorf("classifier rate limit must be positive")
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required for redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %q", c.Cache.Backend)
	}

	if c.Feed.BufferSize <= 0 {
		return fmt.Errorf("feed buffer size must be positive")
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// PostgresDSN builds a pgx connection URL from the database section.
// Credentials and the database name are percent-encoded.
func (c *Config) PostgresDSN() string {
	db := c.Database
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   "/" + db.Name,
	}
	switch {
	case db.Password != "":
		u.User = url.UserPassword(db.User, db.Password)
	case db.User != "":
		u.User = url.User(db.User)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	return u.String()
}

// ShutdownTimeout returns the graceful shutdown budget for the HTTP server.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownSec) * time.Second
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
// Rule #5: 환경 변수는 설정 파일보다 우선합니다 (보안 강화).
func overrideWithEnv(cfg *Config) error {
	// Security Warning: secrets belong in the environment
	if cfg.Classifier.APIKey != "" || cfg.Database.Password != "" {
		fmt.Println("⚠️  SECURITY WARNING: secrets found in config file.")
		fmt.Println("   Recommendation: Use environment variables instead:")
		fmt.Println("   - HF_API_KEY, DB_PASSWORD")
	}

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("SPENDSENSE_ADDR", &cfg.Server.Addr)
	setString("SPENDSENSE_LOG_LEVEL", &cfg.Logging.Level)
	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_HOST", &cfg.Database.Host)
	setString("DB_NAME", &cfg.Database.Name)
	setString("DB_USER", &cfg.Database.User)
	setString("DB_PASSWORD", &cfg.Database.Password)
	setString("HF_API_URL", &cfg.Classifier.APIURL)
	setString("HF_MODEL", &cfg.Classifier.Model)
	setString("REDIS_ADDR", &cfg.Cache.RedisAddr)

	if key := os.Getenv("HF_API_KEY"); key != "" {
		cfg.Classifier.APIKey = key
		// A key without an explicit provider means the remote model is wanted.
		if os.Getenv("CLASSIFIER_PROVIDER") == "" {
			cfg.Classifier.Provider = "zeroshot"
		}
	}
	setString("CLASSIFIER_PROVIDER", &cfg.Classifier.Provider)

	for key, dst := range map[string]*int{
		"DB_PORT":     &cfg.Database.Port,
		"DB_POOL_MIN": &cfg.Database.PoolMin,
		"DB_POOL_MAX": &cfg.Database.PoolMax,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	return nil
}
