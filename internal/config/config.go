package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// insecureSecretKey is the documented fallback used when SECRET_KEY is unset.
// It must never survive into a real deployment; the serve command logs a
// warning whenever Config.Auth.SecretKeyDefault is true.
const insecureSecretKey = "dev-secret-key"

// defaultSQLitePath is the default local backend when DATABASE_URL is unset.
const defaultSQLitePath = "./data/finance.db"

// Backend identifies the persistence driver selected from DATABASE_URL.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendMySQL    Backend = "mysql"
	BackendPostgres Backend = "postgres"
)

// Config is the immutable runtime configuration. It is built once by Load at
// process start and passed explicitly to every component; nothing re-reads the
// environment after that.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig carries both the raw DATABASE_URL and the derived driver
// selection. Backend, Driver, and DSN are populated by Load from URL; when URL
// is empty the default local SQLite backend is selected.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Backend Backend `mapstructure:"-"`
	Driver  string  `mapstructure:"-"`
	DSN     string  `mapstructure:"-"`
}

type AuthConfig struct {
	SecretKey string `mapstructure:"secret_key"`

	// SecretKeyDefault is true when the insecure built-in fallback is in use.
	SecretKeyDefault bool `mapstructure:"-"`

	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	LoginMaxFailures int           `mapstructure:"login_max_failures"`
	LoginWindow      time.Duration `mapstructure:"login_window"`
}

// AdminConfig gates the admin panel. Both credentials must be set for the
// admin routes to exist at all; a partially set pair means "admin disabled",
// never an error.
type AdminConfig struct {
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// Enabled reports whether the admin panel is reachable.
func (a AdminConfig) Enabled() bool {
	return a.User != "" && a.Pass != ""
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	ServiceName  string `mapstructure:"service_name"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads config from the optional YAML file at path, then overlays
// environment variables. The well-known variables (DATABASE_URL, SECRET_KEY,
// ADMIN_USER, ADMIN_PASS, HOST, PORT, REDIS_URL, ...) are bound under their
// unprefixed names to stay compatible with the original deployment docs.
//
// Load performs no network or database I/O: the backend is only selected here,
// the first connection happens later in storage.Open.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Auth.SecretKeyDefault = cfg.Auth.SecretKey == insecureSecretKey

	backend, driver, dsn, err := selectBackend(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	cfg.Database.Backend = backend
	cfg.Database.Driver = driver
	cfg.Database.DSN = dsn

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "")

	v.SetDefault("auth.secret_key", insecureSecretKey)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.login_max_failures", 5)
	v.SetDefault("auth.login_window", 15*time.Minute)

	v.SetDefault("admin.user", "")
	v.SetDefault("admin.pass", "")

	v.SetDefault("redis.url", "")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", true)
	v.SetDefault("telemetry.service_name", "personal-finance")
	v.SetDefault("telemetry.log_level", "info")
}

// bindEnv wires the unprefixed environment variable names the deployment docs
// use. viper's usual prefix+replacer scheme would demand FINANCE_DATABASE_URL;
// the original contract is plain DATABASE_URL, so each key is bound explicitly.
func bindEnv(v *viper.Viper) {
	v.BindEnv("server.host", "HOST")                      //nolint:errcheck
	v.BindEnv("server.port", "PORT")                      //nolint:errcheck
	v.BindEnv("database.url", "DATABASE_URL")             //nolint:errcheck
	v.BindEnv("auth.secret_key", "SECRET_KEY")            //nolint:errcheck
	v.BindEnv("admin.user", "ADMIN_USER")                 //nolint:errcheck
	v.BindEnv("admin.pass", "ADMIN_PASS")                 //nolint:errcheck
	v.BindEnv("redis.url", "REDIS_URL")                   //nolint:errcheck
	v.BindEnv("telemetry.otlp_endpoint", "OTLP_ENDPOINT") //nolint:errcheck
	v.BindEnv("telemetry.log_level", "LOG_LEVEL")         //nolint:errcheck
}

// selectBackend maps a DATABASE_URL to a database/sql driver and DSN.
// An empty URL selects the bundled SQLite file. A URL that cannot be parsed,
// or whose scheme has no registered driver, is a startup error — the caller
// must fail before the server binds its port rather than on first query.
func selectBackend(rawURL string) (Backend, string, string, error) {
	if rawURL == "" {
		return BackendSQLite, "sqlite", defaultSQLitePath, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "", "", "", fmt.Errorf("DATABASE_URL: not a valid connection URL: %q", rawURL)
	}

	switch u.Scheme {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rawURL, u.Scheme+"://")
		if path == "" {
			return "", "", "", fmt.Errorf("DATABASE_URL: sqlite URL has no path: %q", rawURL)
		}
		return BackendSQLite, "sqlite", path, nil

	case "mysql":
		dsn, err := mysqlDSN(u)
		if err != nil {
			return "", "", "", fmt.Errorf("DATABASE_URL: %w", err)
		}
		return BackendMySQL, "mysql", dsn, nil

	case "postgres", "postgresql":
		return BackendPostgres, "pgx", rawURL, nil

	default:
		return "", "", "", fmt.Errorf("DATABASE_URL: unsupported scheme %q (want sqlite, mysql, or postgres)", u.Scheme)
	}
}

// mysqlDSN converts a mysql:// URL into the go-sql-driver DSN form
// user:pass@tcp(host:port)/dbname. parseTime is forced on so DATE columns
// scan into time.Time.
func mysqlDSN(u *url.URL) (string, error) {
	if u.Hostname() == "" {
		return "", fmt.Errorf("mysql URL is missing a host")
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql URL is missing a database name")
	}

	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "3306")
	}

	var creds string
	if u.User != nil {
		creds = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			creds += ":" + pw
		}
		creds += "@"
	}

	q := u.Query()
	q.Set("parseTime", "true")

	return fmt.Sprintf("%stcp(%s)/%s?%s", creds, host, dbName, q.Encode()), nil
}
