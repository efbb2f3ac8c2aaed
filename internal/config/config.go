package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DB DBConfig

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	CORSOrigins []string

	StripeSecretKey string
	PaymentCurrency string

	Booking BookingConfig

	LogLevel  string
	LogFormat string

	AMQPURL string

	SeedFile      string // YAML restaurant catalog loaded by cmd/migrate
	AdminEmail    string // optional admin account created by cmd/migrate
	AdminPassword string
	AdminName     string

	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
}

// DBConfig configures the MySQL connection pool.
type DBConfig struct {
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// BookingConfig holds the reservation policy.
type BookingConfig struct {
	PricePerGuest int64
	MaxGuests     int
	// SlotCapacity is the maximum number of active bookings per
	// (restaurant, date, time); 0 disables the check.
	SlotCapacity  int
	Slots         []string
	InitialStatus string
	Timezone      string
}

// DefaultSlots are the evening seatings offered when BOOKING_SLOTS is unset.
var DefaultSlots = []string{"17:00", "17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00", "21:30"}

// Load reads a .env file when present, then the process environment.
// Every missing or malformed required variable is reported in one error.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is fine
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	var e envReader
	cfg := Config{
		Env:  envStr("APP_ENV", "dev"),
		Port: envStr("APP_PORT", "3000"),
		DB: DBConfig{
			User:            e.must("DB_USER"),
			Pass:            os.Getenv("DB_PASS"), // empty allowed
			Host:            e.must("DB_HOST"),
			Port:            envStr("DB_PORT", "3306"),
			Name:            e.must("DB_NAME"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			QueryTimeout:    envDur("DB_QUERY_TIMEOUT", 5*time.Second),
		},
		JWTSecret:       e.must("JWT_SECRET"),
		AccessTTLMin:    e.intOr("ACCESS_TOKEN_TTL_MIN", 1440),
		RefreshTTLDays:  e.intOr("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:      e.intOr("BCRYPT_COST", 10),
		CORSOrigins:     splitList(envStr("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		PaymentCurrency: strings.ToLower(envStr("PAYMENT_CURRENCY", "inr")),
		Booking: BookingConfig{
			PricePerGuest: int64(e.intOr("PRICE_PER_GUEST", 25)),
			MaxGuests:     e.intOr("MAX_GUESTS", 20),
			SlotCapacity:  e.intOr("SLOT_CAPACITY", 10),
			Slots:         DefaultSlots,
			InitialStatus: envStr("BOOKING_INITIAL_STATUS", "confirmed"),
			Timezone:      envStr("APP_TIMEZONE", "UTC"),
		},
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "json"),
		AMQPURL:       amqpURL(),
		SeedFile:      envStr("SEED_FILE", "configs/restaurants.yaml"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     envStr("ADMIN_NAME", "Administrator"),
		RateLimit:     LoadRateLimitConfig(),
		Cache:         LoadCacheConfig(),
		Redis:         LoadRedisConfig(),
	}
	if v := os.Getenv("BOOKING_SLOTS"); v != "" {
		cfg.Booking.Slots = e.slots(splitList(v))
	}

	if cfg.Booking.PricePerGuest < 0 {
		e.fail("PRICE_PER_GUEST must not be negative")
	}
	if cfg.Booking.MaxGuests < 1 {
		e.fail("MAX_GUESTS must be at least 1")
	}
	if cfg.Booking.SlotCapacity < 0 {
		e.fail("SLOT_CAPACITY must not be negative")
	}
	if s := cfg.Booking.InitialStatus; s != "pending" && s != "confirmed" {
		e.fail(fmt.Sprintf("BOOKING_INITIAL_STATUS must be pending or confirmed, got %q", s))
	}
	if _, err := time.LoadLocation(cfg.Booking.Timezone); err != nil {
		e.fail(fmt.Sprintf("APP_TIMEZONE: %v", err))
	}
	if len(cfg.PaymentCurrency) != 3 {
		e.fail("PAYMENT_CURRENCY must be a 3-letter code")
	}
	if e.err != nil {
		return Config{}, e.err
	}
	return cfg, nil
}

// DSN renders the go-sql-driver/mysql connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.User, c.Pass, c.Host, c.Port, c.Name)
}

// IsProduction reports whether the app runs with APP_ENV=prod or production.
func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// envReader collects required-variable failures instead of exiting, so
// Load can report all of them at once.
type envReader struct{ err error }

func (e *envReader) fail(msg string) { e.err = errors.Join(e.err, errors.New(msg)) }

// must retrieves the value of a required environment variable.
func (e *envReader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		e.fail("missing required env var: " + key)
	}
	return v
}

// intOr is like envInt but records a malformed value as an error rather
// than silently using the default.
func (e *envReader) intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		e.fail(fmt.Sprintf("invalid int for %s: %q", key, s))
		return def
	}
	return n
}

// WorkerConfig is the subset of settings cmd/worker needs; it has no
// required variables.
type WorkerConfig struct {
	AMQPURL   string
	LogPath   string
	LogLevel  string
	LogFormat string
}

// LoadWorker reads .env when present and returns the consumer settings.
func LoadWorker() WorkerConfig {
	_ = godotenv.Load()
	return WorkerConfig{
		AMQPURL:   amqpURL(),
		LogPath:   envStr("BOOKING_LOG_PATH", "logs/booking.log"),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),
	}
}

// slots normalises every entry to HH:MM so it matches the times stored on
// bookings. Unparseable and duplicate entries are reported.
func (e *envReader) slots(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for _, r := range raw {
		hhmm, ok := model.NormalizeTime(r)
		if !ok {
			e.fail(fmt.Sprintf("BOOKING_SLOTS: invalid time %q", r))
			continue
		}
		if seen[hhmm] {
			e.fail(fmt.Sprintf("BOOKING_SLOTS: duplicate time %q", hhmm))
			continue
		}
		seen[hhmm] = true
		out = append(out, hhmm)
	}
	return out
}

func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
