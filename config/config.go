package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	Onboarding        Onboarding
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
	DealsPerPage      int           `env:"DEALS_PER_PAGE"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug     bool          `env:"API_DEBUG"`
	Timeout   time.Duration `env:"API_TIMEOUT"`
	Dealmaker Dealmaker
}

type Dealmaker struct {
	Url string `env:"DEALMAKER_API_URL"`
	// LinkFormEncoded switches the profile-link PATCH to
	// application/x-www-form-urlencoded. The upstream contract is unclear on
	// which encoding that endpoint expects; default is JSON.
	LinkFormEncoded bool `env:"DEALMAKER_LINK_FORM_ENCODED" envDefault:"false"`
}

type Cache struct {
	DealsExpiration time.Duration `env:"CACHE_DEALS_EXPIRATION"`
}

type Jobs struct {
	RefreshDealsInterval time.Duration `env:"REFRESH_DEALS_JOB_INTERVAL"`
	DriveCleanupInterval time.Duration `env:"DRIVE_CLEANUP_JOB_INTERVAL"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL"`
}

type Onboarding struct {
	// RedirectToAccessLink decides what a finished onboarding shows the
	// operator: the deal's external checkout link, or an in-place summary.
	RedirectToAccessLink bool `env:"ONBOARDING_REDIRECT_TO_ACCESS_LINK" envDefault:"false"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
