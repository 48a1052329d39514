package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	defaultBcryptCost    = 10
	defaultBcryptWorkers = 10

	defaultSessionExpiresIn = 24 * time.Hour
	defaultCacheTTL         = 5 * time.Minute
)

// Refresh key derivation modes accepted in jwt.refreshKeyDerivation.
const (
	RefreshKeyDerivationHKDF   = "hkdf"
	RefreshKeyDerivationConcat = "concat"
)

// Token cache drivers accepted in cache.driver.
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int             `json:"port" yaml:"port"`
		MaxRequestBodySize string          `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		AllowOrigins       []string        `json:"allowOrigins" yaml:"allowOrigins"`
		RateLimit          RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	JWT JWTConfig `json:"jwt" yaml:"jwt"`

	Session SessionConfig `json:"session" yaml:"session"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// Cache configures the access-token validation cache
	Cache CacheConfig `json:"cache" yaml:"cache"`

	Redis RedisConfig `json:"redis" yaml:"redis"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// RateLimitConfig limits requests per client IP. Zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64       `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int           `json:"burst" yaml:"burst"`
	ExpiresIn         time.Duration `json:"expiresIn" yaml:"expiresIn"`
}

// ConnectionConfig addresses a single Postgres node.
type ConnectionConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	UserName string `json:"userName" yaml:"userName"`
	Password string `json:"password" yaml:"password"`
}

// PostgresConfig defines the primary connection, optional read replicas and pool settings.
type PostgresConfig struct {
	Master          ConnectionConfig   `json:"master" yaml:"master"`
	Replicas        []ConnectionConfig `json:"replicas" yaml:"replicas"`
	Database        string             `json:"database" yaml:"database"`
	SSLMode         string             `json:"sslMode" yaml:"sslMode"`
	TimeZone        string             `json:"timeZone" yaml:"timeZone"`
	MaxIdleConns    int                `json:"maxIdleConns" yaml:"maxIdleConns"`
	MaxOpenConns    int                `json:"maxOpenConns" yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration      `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	SlowThreshold   time.Duration      `json:"slowThreshold" yaml:"slowThreshold"`
	AutoMigrate     bool               `json:"autoMigrate" yaml:"autoMigrate"`
}

// DSN builds a libpq keyword/value connection string for the given node.
func (c *PostgresConfig) DSN(conn ConnectionConfig) string {
	parts := []string{
		"host=" + conn.Host,
		"port=" + conn.Port,
		"user=" + conn.UserName,
		"password=" + conn.Password,
		"dbname=" + c.Database,
	}
	if c.SSLMode != "" {
		parts = append(parts, "sslmode="+c.SSLMode)
	}
	if c.TimeZone != "" {
		parts = append(parts, "TimeZone="+c.TimeZone)
	}

	return strings.Join(parts, " ")
}

// JWTConfig holds the token signing material.
// A zero ExpiresIn issues access tokens without an exp claim.
type JWTConfig struct {
	Secret               string        `json:"secret" yaml:"secret"`
	ExpiresIn            time.Duration `json:"expiresIn" yaml:"expiresIn"`
	RefreshSecret        string        `json:"refreshSecret" yaml:"refreshSecret"`
	RefreshExpiresIn     time.Duration `json:"refreshExpiresIn" yaml:"refreshExpiresIn"`
	RefreshKeyDerivation string        `json:"refreshKeyDerivation" yaml:"refreshKeyDerivation"`
}

// SessionConfig controls stored session lifetime and expired-row reaping.
type SessionConfig struct {
	ExpiresIn       time.Duration `json:"expiresIn" yaml:"expiresIn"`
	CleanupInterval time.Duration `json:"cleanupInterval" yaml:"cleanupInterval"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost    int `json:"bcryptCost" yaml:"bcryptCost"`
	BcryptWorkers int `json:"bcryptWorkers" yaml:"bcryptWorkers"`
}

type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Driver  string        `json:"driver" yaml:"driver"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
}

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// legacyEnvKeys maps variable names used by earlier deployments onto config paths.
var legacyEnvKeys = map[string]string{
	"JWT_REFRESH_TOKEN_SECRET":     "jwt.refreshSecret",
	"JWT_REFRESH_TOKEN_EXPIRES_IN": "jwt.refreshExpiresIn",
	"ENABLE_TOKEN_CACHE":           "cache.enabled",
	"TOKEN_CACHE_TTL":              "cache.ttl",
	"REDIS_URL":                    "redis.addr",
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(currEnv, searchPaths)
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			if key, ok := legacyEnvKeys[k]; ok {
				return key, v
			}

			// JWT_REFRESH_EXPIRES_IN -> jwt.refreshExpiresIn
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func findConfigFile(currEnv string, searchPaths []string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func New() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env failed")
	}

	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		if replicas := buildReplicasFromEnv(); len(replicas) > 0 {
			cfg.Postgres.Replicas = replicas
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = defaultBcryptCost
	}
	if c.Auth.BcryptWorkers <= 0 {
		c.Auth.BcryptWorkers = defaultBcryptWorkers
	}
	if c.JWT.RefreshKeyDerivation == "" {
		c.JWT.RefreshKeyDerivation = RefreshKeyDerivationHKDF
	}
	if c.Session.ExpiresIn <= 0 {
		c.Session.ExpiresIn = defaultSessionExpiresIn
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverMemory
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
}

// Validate reports configuration that would make the service unusable.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt.secret and jwt.refreshSecret must be provided")
	}

	switch c.JWT.RefreshKeyDerivation {
	case RefreshKeyDerivationHKDF, RefreshKeyDerivationConcat:
	default:
		return errors.Errorf("unknown jwt.refreshKeyDerivation: %s", c.JWT.RefreshKeyDerivation)
	}

	if c.JWT.ExpiresIn < 0 || c.JWT.RefreshExpiresIn < 0 {
		return errors.New("jwt expiry must not be negative")
	}

	if c.Cache.Enabled {
		switch c.Cache.Driver {
		case CacheDriverMemory:
		case CacheDriverRedis:
			if c.Redis.Addr == "" {
				return errors.New("redis.addr must be provided when cache.driver is redis")
			}
		default:
			return errors.Errorf("unknown cache.driver: %s", c.Cache.Driver)
		}
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := make([]string, 0)
	for _, segment := range strings.Split(strings.ToLower(rawKey), "_") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	canonical := make([]string, 0, len(segments))
	current := existing

	for i := 0; i < len(segments); {
		matched, next, width := matchSegments(current, segments[i:])
		if width == 0 {
			canonical = append(canonical, segments[i])
			current = nil
			i++

			continue
		}

		canonical = append(canonical, matched)
		current = next
		i += width
	}

	return strings.Join(canonical, ".")
}

// matchSegments finds the longest run of leading segments that names an
// existing key, so EXPIRES_IN resolves to expiresIn.
func matchSegments(current map[string]any, segments []string) (matched string, next map[string]any, width int) {
	for w := len(segments); w > 0; w-- {
		if key, child, ok := findExistingSegment(current, strings.Join(segments[:w], "")); ok {
			return key, child, w
		}
	}

	return "", nil, 0
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST,PORT,USERNAME,PASSWORD}
// until the first index without a host and port.
func buildReplicasFromEnv() []ConnectionConfig {
	var replicas []ConnectionConfig

	for i := 0; ; i++ {
		prefix := fmt.Sprintf("POSTGRES_REPLICAS_%s_", strconv.Itoa(i))

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
