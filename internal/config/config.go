package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config конфигурация сервиса (config.toml)
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	StoreService  ServiceClientConfig `toml:"store_service"`
	MemberService ServiceClientConfig `toml:"member_service"`
	Redis         RedisConfig         `toml:"redis"`
	Kafka         KafkaConfig         `toml:"kafka"`
	Relay         RelayConfig         `toml:"relay"`
	Reservations  ReservationsConfig  `toml:"reservations"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
}

// ServerConfig HTTP сервер. Таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig подключение к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	TxMaxRetries    int    `toml:"tx_max_retries"`
	TxRetryBackoff  int    `toml:"tx_retry_backoff_ms"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig логирование
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// ServiceClientConfig внешний HTTP сервис. Timeout в секундах
type ServiceClientConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// RedisConfig кэш каталога окон
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// KafkaConfig топик аудита
type KafkaConfig struct {
	Brokers      []string `toml:"brokers"`
	AuditTopic   string   `toml:"audit_topic"`
	WriteTimeout int      `toml:"write_timeout"` // секунды
}

// RelayConfig ретранслятор журнала изменений
type RelayConfig struct {
	Enabled            bool   `toml:"enabled"`
	Consumer           string `toml:"consumer"`
	IntervalSeconds    int    `toml:"interval_seconds"`
	GapTimeoutSeconds  int    `toml:"gap_timeout_seconds"`
	BatchSize          uint64 `toml:"batch_size"`
}

// ReservationsConfig правила бронирования
type ReservationsConfig struct {
	MaxAdvanceDays     int    `toml:"max_advance_days"` // 0 = без ограничения
	ReferenceAttempts  int    `toml:"reference_attempts"`
	PhonePattern       string `toml:"phone_pattern"`
	GuestLookupDays    int    `toml:"guest_lookup_days"`
	LookupTokenMinutes int    `toml:"lookup_token_minutes"`
}

// RateLimitConfig ограничение проверки гостя по телефону
type RateLimitConfig struct {
	VerifyGuestPerMinute int `toml:"verify_guest_per_minute"`
	VerifyGuestBurst     int `toml:"verify_guest_burst"`
	TrustedProxies       int `toml:"trusted_proxies"`
}

// Load читает конфигурацию, подставляет ${ENV} и заполняет значения по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := defaults()
	if _, err := toml.Decode(os.ExpandEnv(string(data)), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			TxMaxRetries:    3,
			TxRetryBackoff:  20,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "reservation-service",
		},
		StoreService:  ServiceClientConfig{Timeout: 5},
		MemberService: ServiceClientConfig{Timeout: 3},
		Redis: RedisConfig{
			TTLSeconds: 300,
		},
		Kafka: KafkaConfig{
			AuditTopic:   "reservation-audit",
			WriteTimeout: 10,
		},
		Relay: RelayConfig{
			Consumer:           "audit-sink",
			IntervalSeconds:    5,
			GapTimeoutSeconds:  30,
			BatchSize:          100,
		},
		Reservations: ReservationsConfig{
			ReferenceAttempts:  5,
			PhonePattern:       `^09\d{8}$`,
			GuestLookupDays:    30,
			LookupTokenMinutes: 15,
		},
		RateLimit: RateLimitConfig{
			VerifyGuestPerMinute: 10,
			VerifyGuestBurst:     5,
			TrustedProxies:       1,
		},
	}
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("database.dbname is required"))
	}
	if c.Database.TxMaxRetries < 1 {
		errs = append(errs, errors.New("database.tx_max_retries must be at least 1"))
	}
	if c.StoreService.URL == "" {
		errs = append(errs, errors.New("store_service.url is required"))
	}
	if c.MemberService.URL == "" {
		errs = append(errs, errors.New("member_service.url is required"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.Relay.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when relay is enabled"))
		}
		if c.Kafka.AuditTopic == "" {
			errs = append(errs, errors.New("kafka.audit_topic is required when relay is enabled"))
		}
		if c.Relay.BatchSize == 0 {
			errs = append(errs, errors.New("relay.batch_size must be positive"))
		}
	}
	if c.Reservations.MaxAdvanceDays < 0 {
		errs = append(errs, errors.New("reservations.max_advance_days must not be negative"))
	}
	if c.RateLimit.VerifyGuestPerMinute <= 0 || c.RateLimit.VerifyGuestBurst <= 0 {
		errs = append(errs, errors.New("rate_limit values must be positive"))
	}
	if c.RateLimit.TrustedProxies < 0 {
		errs = append(errs, errors.New("rate_limit.trusted_proxies must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// Seconds переводит секунды из конфигурации в time.Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
