package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ericogr/pokeduel/internal/constants"
)

// Config is the process configuration, read from the environment.
type Config struct {
	ServerAddress string `env:"POKEDUEL_ADDR" envDefault:":8080"`
	DBDriver      string `env:"POKEDUEL_DB_DRIVER" envDefault:"sqlite"`
	DatabaseDSN   string `env:"POKEDUEL_DB" envDefault:"./data/pokeduel.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"`
	SessionSecret string `env:"SESSION_SECRET,required,notEmpty"`

	PokeAPIBaseURL       string        `env:"POKEAPI_BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	UpstreamTimeout      time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`
	UpstreamMaxTries     uint          `env:"UPSTREAM_MAX_TRIES" envDefault:"3"`
	UpstreamRetryInitial time.Duration `env:"UPSTREAM_RETRY_INTERVAL" envDefault:"200ms"`

	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	CreatureCacheTTL time.Duration `env:"CREATURE_CACHE_TTL" envDefault:"24h"`
	EventsChannel    string        `env:"EVENTS_CHANNEL" envDefault:"pokeduel:events"`
	// WSAllowedOrigins lists browser origins, besides the server's own host,
	// allowed to open event streams.
	WSAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`

	// DeckSourceURL points at a remote users service; empty means decks are
	// read from the local database.
	DeckSourceURL   string        `env:"DECK_SOURCE_URL"`
	TypeChartSource string        `env:"TYPE_CHART_SOURCE" envDefault:"builtin"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// Load reads envFile (when it exists) into the process environment and
// parses the configuration from it.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
	}
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case constants.DriverSQLite, constants.DriverPostgres:
	default:
		return fmt.Errorf("POKEDUEL_DB_DRIVER must be %q or %q, got %q", constants.DriverSQLite, constants.DriverPostgres, c.DBDriver)
	}
	c.TypeChartSource = strings.ToLower(strings.TrimSpace(c.TypeChartSource))
	switch c.TypeChartSource {
	case constants.TypeChartBuiltin, constants.TypeChartPokeAPI:
	default:
		return fmt.Errorf("TYPE_CHART_SOURCE must be %q or %q, got %q", constants.TypeChartBuiltin, constants.TypeChartPokeAPI, c.TypeChartSource)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	if c.UpstreamMaxTries == 0 {
		return fmt.Errorf("UPSTREAM_MAX_TRIES must be at least 1")
	}
	if c.StatsInterval < time.Second {
		return fmt.Errorf("STATS_INTERVAL must be at least 1s")
	}
	c.PokeAPIBaseURL = strings.TrimRight(c.PokeAPIBaseURL, "/")
	c.DeckSourceURL = strings.TrimRight(c.DeckSourceURL, "/")
	return nil
}
