package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xaenox/club-assistant/internal/hours"
)

type Config struct {
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Store        StoreConfig        `mapstructure:"store"`
	Org          OrgConfig          `mapstructure:"org"`
	Operator     OperatorConfig     `mapstructure:"operator"`
	Escalation   EscalationConfig   `mapstructure:"escalation"`
	Hours        HoursConfig        `mapstructure:"hours"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Competitions CompetitionsConfig `mapstructure:"competitions"`
	Content      ContentConfig      `mapstructure:"content"`
	HTTP         HTTPConfig         `mapstructure:"http"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type StoreConfig struct {
	// Type is one of memory, redis or postgres.
	Type string `mapstructure:"type"`
}

type OrgConfig struct {
	Name string `mapstructure:"name"`
}

type OperatorConfig struct {
	// ChatID is the Telegram chat that receives escalation notices; 0 disables them.
	ChatID int64 `mapstructure:"chat_id"`
}

type EscalationConfig struct {
	Triggers             []string      `mapstructure:"triggers"`
	Threshold            int           `mapstructure:"threshold"`
	NotUnderstoodMessage string        `mapstructure:"not_understood_message"`
	CounterTTL           time.Duration `mapstructure:"counter_ttl"`
}

type HoursConfig struct {
	Timezone          string                     `mapstructure:"timezone"`
	OutOfHoursMessage string                     `mapstructure:"out_of_hours_message"`
	Days              map[string]hours.DayConfig `mapstructure:"days"`
}

type PaymentConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	PixKey             string        `mapstructure:"pix_key"`
	APIURL             string        `mapstructure:"api_url"`
	Handle             string        `mapstructure:"handle"`
	OrderPrefix        string        `mapstructure:"order_prefix"`
	Timeout            time.Duration `mapstructure:"timeout"`
	PreRegistrationURL string        `mapstructure:"pre_registration_url"`
}

type CompetitionsConfig struct {
	Internal        string `mapstructure:"internal"`
	Calibre         string `mapstructure:"calibre"`
	CBTT            string `mapstructure:"cbtt"`
	W2C             string `mapstructure:"w2c"`
	Linade          string `mapstructure:"linade"`
	StateFederation string `mapstructure:"state_federation"`
}

type ContentConfig struct {
	// File is an optional YAML file overriding the built-in replies.
	File string `mapstructure:"file"`
}

type HTTPConfig struct {
	// Addr enables the HTTP API when set, e.g. ":8080".
	Addr string `mapstructure:"addr"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DatabaseConfig{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "club_assistant")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("store.type", "memory")
	v.SetDefault("org.name", "Clube de Tiro")
	v.SetDefault("escalation.threshold", 2)
	v.SetDefault("escalation.counter_ttl", 24*time.Hour)
	v.SetDefault("hours.timezone", hours.DefaultTimezone)
	v.SetDefault("payment.enabled", false)
	v.SetDefault("payment.timeout", 10*time.Second)
	v.SetDefault("payment.order_prefix", "ctc")
	v.SetDefault("competitions.internal", "Provas internas do clube")
	v.SetDefault("competitions.calibre", "Copa Calibre")
	v.SetDefault("competitions.cbtt", "CBTT")
	v.SetDefault("competitions.w2c", "W2C")
	v.SetDefault("competitions.linade", "LINADE")
	v.SetDefault("competitions.state_federation", "Federação Estadual")
}

// LoadConfig reads the YAML file at path, falling back to defaults and the
// environment when the file does not exist. Keys that have a default or
// appear in the file can be overridden by their upper-cased env name, e.g.
// PAYMENT_ENABLED for payment.enabled.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if redisURL := v.GetString("REDIS_URL"); redisURL != "" {
		config.Redis.URL = redisURL
	}

	return &config, nil
}
