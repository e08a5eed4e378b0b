// internal/config/config.go
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// HTTPConfig groups HTTP/HTTPS port and protocol settings.
type HTTPConfig struct {
	HTTPPort  int    `mapstructure:"http_port"`
	HTTPSPort int    `mapstructure:"https_port"`
	UseHTTPS  bool   `mapstructure:"use_https"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`
}

// CORSConfig groups CORS behavior and lists.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// BackendConfig groups the stock image backend connection settings.
type BackendConfig struct {
	BaseURL    string `mapstructure:"backend_base_url"`
	SearchPath string `mapstructure:"backend_search_path"`
	APIKey     string `mapstructure:"backend_api_key"`

	// Timeout bounds each backend request; parsed flexibly ("10s", "10").
	Timeout time.Duration `mapstructure:"-"`
}

// CacheConfig groups search result caching settings. With an empty RedisAddr
// the service uses the in-process cache; with CacheTTL of 0 caching is off.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	CacheTTL time.Duration `mapstructure:"-"`
}

// Config holds the full image-picker service configuration.
type Config struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	HTTP    HTTPConfig    `mapstructure:",squash"`
	CORS    CORSConfig    `mapstructure:",squash"`
	Backend BackendConfig `mapstructure:",squash"`
	Cache   CacheConfig   `mapstructure:",squash"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
}

// Load merges defaults → config.* file(s) → env vars → explicit flags into
// one Config. Final precedence (highest wins): flags(explicit) > env >
// config file > defaults. Env vars use the IMAGEPICKER_ prefix, e.g.
// IMAGEPICKER_BACKEND_BASE_URL.
func Load(logger *zap.Logger) (*Config, error) {
	// Optionally load .env; real env still wins over .env.
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	pflag.String("env", "dev", `Runtime environment "dev"|"prod"`)
	pflag.String("log_level", "debug", "Log level")

	pflag.Int("http_port", 8080, "HTTP port")
	pflag.Int("https_port", 443, "HTTPS port")
	pflag.Bool("use_https", false, "Serve HTTPS")
	pflag.String("cert_file", "", "TLS cert file")
	pflag.String("key_file", "", "TLS key file")

	pflag.Bool("enable_cors", false, "Enable CORS")
	pflag.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://app.example"]'`)
	pflag.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET"]'`)
	pflag.String("cors_allowed_headers", "", `JSON array of headers`)
	pflag.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	pflag.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	pflag.String("backend_base_url", "", "Stock image backend base URL")
	pflag.String("backend_search_path", "/search", "Stock image backend search endpoint path")
	pflag.String("backend_api_key", "", "Stock image backend API key")
	pflag.String("backend_timeout", "10s", `Per-request backend timeout (e.g. "10s", "30s")`)

	pflag.String("cache_ttl", "0", `Search cache TTL (e.g. "5m"; "0" disables caching)`)
	pflag.String("redis_addr", "", "Redis address for the search cache (empty = in-memory)")
	pflag.String("redis_password", "", "Redis password")
	pflag.Int("redis_db", 0, "Redis database number")

	pflag.Int64("max_request_body_bytes", 1<<20, "Max HTTP request body size in bytes (0 = unlimited)")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("IMAGEPICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// Optional config.* files (yaml|yml|json|toml).
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		if _, err := os.Stat(file); err != nil {
			continue
		}
		b, err := os.ReadFile(file)
		if err != nil {
			if logger != nil {
				logger.Warn("cannot read config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	setDefaults(v)

	// Apply *explicit* flags (highest precedence).
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// Accept JSON strings for list keys.
	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
	); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	dur, err := parseDurationFlexible(v.Get("backend_timeout"), 10*time.Second)
	if err != nil && logger != nil {
		logger.Warn("invalid backend_timeout; using default 10s",
			zap.Any("value", v.Get("backend_timeout")), zap.Error(err))
	}
	cfg.Backend.Timeout = dur

	// cache_ttl of 0 is valid (caching off), so parse it permissively.
	cfg.Cache.CacheTTL = parseTTL(logger, v.Get("cache_ttl"))

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "https_port", "use_https", "cert_file", "key_file",
		"enable_cors",
		"cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_allow_credentials", "cors_max_age",
		"backend_base_url", "backend_search_path", "backend_api_key", "backend_timeout",
		"cache_ttl", "redis_addr", "redis_password", "redis_db",
		"max_request_body_bytes",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("https_port", 443)
	v.SetDefault("use_https", false)
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("backend_base_url", "")
	v.SetDefault("backend_search_path", "/search")
	v.SetDefault("backend_api_key", "")
	v.SetDefault("backend_timeout", "10s")

	v.SetDefault("cache_ttl", "0")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("max_request_body_bytes", int64(1<<20))
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		val := v.Get(key)
		switch t := val.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

func validate(cfg Config) error {
	var missing []string
	var invalid []string

	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		missing = append(missing, "IMAGEPICKER_BACKEND_BASE_URL (or --backend_base_url)")
	}

	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.HTTP.HTTPSPort <= 0 || cfg.HTTP.HTTPSPort > 65535 {
		invalid = append(invalid, "https_port must be in 1..65535")
	}
	if cfg.HTTP.UseHTTPS {
		if strings.TrimSpace(cfg.HTTP.CertFile) == "" || strings.TrimSpace(cfg.HTTP.KeyFile) == "" {
			missing = append(missing, "IMAGEPICKER_CERT_FILE and IMAGEPICKER_KEY_FILE (or --cert_file/--key_file)")
		}
		if cfg.HTTP.HTTPPort == cfg.HTTP.HTTPSPort {
			invalid = append(invalid, "http_port and https_port cannot be equal when use_https=true")
		}
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "cors_max_age must be >= 0")
		}
	}

	if cfg.Backend.Timeout <= 0 {
		invalid = append(invalid, "backend_timeout must be > 0")
	}
	if cfg.Cache.CacheTTL < 0 {
		invalid = append(invalid, "cache_ttl must be >= 0")
	}
	if cfg.Cache.RedisDB < 0 {
		invalid = append(invalid, "redis_db must be >= 0")
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
