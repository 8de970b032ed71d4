package config

import (
	"fmt"
	"os"
	"time"

	"github.com/lucid-arena/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Sync     SyncConfig     `yaml:"sync"`
	Auth     AuthConfig     `yaml:"auth"`
	Game     GameConfig     `yaml:"game"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration. Game events are
// produced to EventsTopic; mini-game servers report results on ResultsTopic.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	EventsTopic   string        `yaml:"events_topic"`
	ResultsTopic  string        `yaml:"results_topic"`
	GroupID       string        `yaml:"group_id"`
	Enabled       bool          `yaml:"enabled"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// SyncConfig holds profile cache warmer configuration
type SyncConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
	Enabled   bool          `yaml:"enabled"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// GameConfig holds the board game rules
type GameConfig struct {
	TileCount        int           `yaml:"tile_count"`
	WinningScore     int           `yaml:"winning_score"`
	ClickerPassScore int           `yaml:"clicker_pass_score"`
	RainingPassScore int           `yaml:"raining_pass_score"`
	InstructionDelay time.Duration `yaml:"instruction_delay"`
}

// PassScores returns the solo mini-game thresholds keyed by mini-game name.
func (c *GameConfig) PassScores() map[domain.MiniGame]int {
	return map[domain.MiniGame]int{
		domain.MiniGameClicker: c.ClickerPassScore,
		domain.MiniGameRaining: c.RainingPassScore,
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	// Game rules are pre-filled so an explicit zero in the file is kept
	cfg := Config{Game: defaultGameConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultGameConfig() GameConfig {
	return GameConfig{
		TileCount:        44,
		WinningScore:     5,
		ClickerPassScore: domain.DefaultClickerPassScore,
		RainingPassScore: domain.DefaultRainingPassScore,
	}
}

// Validate rejects rules no game can be played with.
func (c *GameConfig) Validate() error {
	switch {
	case c.TileCount <= 0:
		return fmt.Errorf("game.tile_count must be positive, got %d", c.TileCount)
	case c.WinningScore <= 0:
		return fmt.Errorf("game.winning_score must be positive, got %d", c.WinningScore)
	case c.ClickerPassScore < 0:
		return fmt.Errorf("game.clicker_pass_score must not be negative, got %d", c.ClickerPassScore)
	case c.RainingPassScore < 0:
		return fmt.Errorf("game.raining_pass_score must not be negative, got %d", c.RainingPassScore)
	case c.InstructionDelay < 0:
		return fmt.Errorf("game.instruction_delay must not be negative, got %s", c.InstructionDelay)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "arena"
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 50
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 5
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "arena-game-events"
	}
	if c.Kafka.ResultsTopic == "" {
		c.Kafka.ResultsTopic = "arena-minigame-results"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "arena-engine"
	}
	if c.Kafka.RetryAttempts == 0 {
		c.Kafka.RetryAttempts = 3
	}
	if c.Kafka.RetryDelay == 0 {
		c.Kafka.RetryDelay = 1 * time.Second
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 30 * time.Minute
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 1000
	}
	if c.Sync.CacheTTL == 0 {
		c.Sync.CacheTTL = 24 * time.Hour
	}

	// Auth defaults
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "lucid-arena"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 7 * 24 * time.Hour
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{Game: defaultGameConfig()}
	cfg.applyDefaults()
	cfg.Sync.Enabled = true
	return cfg
}

