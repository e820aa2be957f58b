package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "shopcart"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPCART_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHOPCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPCART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"SHOPCART_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"SHOPCART_DB_DSN"`

	MaxOpenConns    int           `envconfig:"SHOPCART_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"SHOPCART_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN fills in the embedded-store default. Postgres callers must supply
// a DSN explicitly.
func (d *DBConfig) ensureDSN() error {
	switch strings.ToLower(strings.TrimSpace(d.Driver)) {
	case DriverSQLite, "":
		d.Driver = DriverSQLite
		if d.DSN == "" {
			d.DSN = "file:shopcart.db?_foreign_keys=on"
		}
	case DriverPostgres:
		d.Driver = DriverPostgres
		if d.DSN == "" {
			return fmt.Errorf("SHOPCART_DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported db driver %q", d.Driver)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPCART_AUTO_MIGRATE" default:"true"`
}
