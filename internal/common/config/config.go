package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/busboard/internal/departures"
)

type Config struct {
	Board    BoardConfig
	SLAPI    SLAPIConfig
	Query    QueryConfig
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

// BoardConfig describes which stops feed the board and how often it refreshes
type BoardConfig struct {
	Name               string                 `yaml:"board" validate:"required"`
	Stops              []departures.StopQuery `yaml:"stops" validate:"required,min=1,dive"`
	PollInterval       time.Duration          `yaml:"-" validate:"gt=0"`
	AlertAfterFailures int                    `yaml:"-" validate:"gte=0"`
}

// SLAPIConfig for the realtime departures API
type SLAPIConfig struct {
	BaseURL         string        `validate:"required,url"`
	APIKey          string        `validate:"required"`
	TimeWindow      int           `validate:"gt=0"`
	RateLimitPerMin int           `validate:"gt=0"`
	ConnectTimeout  time.Duration `validate:"gt=0"`
}

// QueryConfig bounds every stop query
type QueryConfig struct {
	Retries           int           `validate:"gte=1"`
	BodyCapacity      int           `validate:"gt=0"`
	IdleTimeout       time.Duration `validate:"gt=0"`
	MaxRecordsPerStop int           `validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver     string `validate:"oneof=sqlite postgres none"`
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
}

type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level      string
	FilePath   string
	DiscordURL string
}

const defaultStops = "4028:0,4031:3,4030:5"

func Load() (*Config, error) {
	cfg := &Config{
		Board: BoardConfig{
			Name:               getEnv("BOARD_NAME", "home"),
			PollInterval:       getDurationEnv("POLL_INTERVAL", time.Minute),
			AlertAfterFailures: getIntEnv("ALERT_AFTER_FAILURES", 3),
		},
		SLAPI: SLAPIConfig{
			BaseURL:         getEnv("SL_API_URL", "https://api.sl.se"),
			APIKey:          getEnv("SL_API_KEY", ""),
			TimeWindow:      getIntEnv("SL_TIME_WINDOW", 20),
			RateLimitPerMin: getIntEnv("SL_RATE_LIMIT_PER_MIN", 30),
			ConnectTimeout:  getDurationEnv("SL_CONNECT_TIMEOUT", 30*time.Second),
		},
		Query: QueryConfig{
			Retries:           getIntEnv("QUERY_RETRIES", 3),
			BodyCapacity:      getIntEnv("BODY_CAPACITY", 5000),
			IdleTimeout:       getDurationEnv("IDLE_TIMEOUT", 30*time.Second),
			MaxRecordsPerStop: getIntEnv("MAX_RECORDS_PER_STOP", 64),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("SNAPSHOT_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_DATABASE", "busboard.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "busboard"),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE", "busboard.log"),
			DiscordURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		},
	}

	if path := os.Getenv("STOPS_FILE"); path != "" {
		name, stops, err := LoadStopsFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Board.Stops = stops
		if name != "" {
			cfg.Board.Name = name
		}
	} else {
		stops, err := ParseStops(getEnv("STOPS", defaultStops))
		if err != nil {
			return nil, fmt.Errorf("parsing STOPS: %w", err)
		}
		cfg.Board.Stops = stops
	}

	return cfg, nil
}

// Validate checks every section with struct tags
func (c *Config) Validate() error {
	v := validator.New()
	for _, section := range []interface{}{c.Board, c.SLAPI, c.Query, c.Database} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

// QuerierConfig converts the query limits for the departures package
func (c *QueryConfig) QuerierConfig() departures.QuerierConfig {
	return departures.QuerierConfig{
		BodyCapacity:      c.BodyCapacity,
		IdleTimeout:       c.IdleTimeout,
		MaxRecordsPerStop: c.MaxRecordsPerStop,
		Retries:           c.Retries,
	}
}

func (c *DatabaseConfig) ConnectionString() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

// ParseStops reads "stop_id:min_lead" pairs separated by commas, keeping order.
// The lead time may be omitted and defaults to zero.
func ParseStops(s string) ([]departures.StopQuery, error) {
	var stops []departures.StopQuery
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idStr, leadStr, hasLead := strings.Cut(part, ":")
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("stop %q: invalid id: %w", part, err)
		}
		lead := 0
		if hasLead {
			lead, err = strconv.Atoi(strings.TrimSpace(leadStr))
			if err != nil {
				return nil, fmt.Errorf("stop %q: invalid lead minutes: %w", part, err)
			}
		}
		stops = append(stops, departures.StopQuery{StopID: id, MinimumLeadMinutes: lead})
	}

	if err := validateStops(stops); err != nil {
		return nil, err
	}
	return stops, nil
}

type stopsFile struct {
	Board string                 `yaml:"board"`
	Stops []departures.StopQuery `yaml:"stops" validate:"required,min=1,dive"`
}

// LoadStopsFile reads a YAML file listing the board name and its stops
func LoadStopsFile(path string) (string, []departures.StopQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading stops file: %w", err)
	}

	var f stopsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("parsing stops file: %w", err)
	}

	if err := validateStops(f.Stops); err != nil {
		return "", nil, fmt.Errorf("stops file %s: %w", path, err)
	}
	return f.Board, f.Stops, nil
}

func validateStops(stops []departures.StopQuery) error {
	if len(stops) == 0 {
		return fmt.Errorf("at least one stop must be configured")
	}
	v := validator.New()
	for _, stop := range stops {
		if err := v.Struct(stop); err != nil {
			return fmt.Errorf("stop %d: %w", stop.StopID, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
