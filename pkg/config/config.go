package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Inventory    InventoryConfig
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
	Env          string `envconfig:"ZAIKO_APP_ENV" required:"true"`
	Port         string `envconfig:"ZAIKO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZAIKO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZAIKO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZAIKO_DB_DSN"`
	Driver string `envconfig:"ZAIKO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZAIKO_DB_HOST"`
	LegacyPort     int    `envconfig:"ZAIKO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZAIKO_DB_USER"`
	LegacyPassword string `envconfig:"ZAIKO_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZAIKO_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZAIKO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZAIKO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZAIKO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZAIKO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZAIKO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZAIKO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZAIKO_REDIS_ADDR"`
	Password     string        `envconfig:"ZAIKO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZAIKO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZAIKO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZAIKO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZAIKO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZAIKO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZAIKO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ZAIKO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ZAIKO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ZAIKO_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ZAIKO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZAIKO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZAIKO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZAIKO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZAIKO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZAIKO_ARGON_KEY_LEN" default:"32"`
}

type InventoryConfig struct {
	// LowStockThreshold is the quantity at or below which a low-stock
	// notification is emitted after a decrementing mutation.
	LowStockThreshold int `envconfig:"ZAIKO_LOW_STOCK_THRESHOLD" default:"5"`
	// BulkAdjustMaxRowErrors caps how many row errors a bulk adjustment
	// response surfaces; the remainder is reported as a count.
	BulkAdjustMaxRowErrors int `envconfig:"ZAIKO_BULK_ADJUST_MAX_ROW_ERRORS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZAIKO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZAIKO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
