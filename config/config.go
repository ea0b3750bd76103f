package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Configs struct {
	Env string `toml:"env" env:"ENV"`

	// NodeID is the snowflake node of this process, it must be unique among
	// the running processes.
	NodeID int64 `toml:"node_id" env:"NODE_ID"`

	Database  DatabaseConfigs  `toml:"database"`
	ApiServer APIServerConfigs `toml:"api_server"`
	Auth      AuthConfigs      `toml:"auth"`
	Redis     RedisConfigs     `toml:"redis"`
	Kafka     KafkaConfigs     `toml:"kafka"`
	Reward    RewardConfigs    `toml:"reward"`
	Tier      TierConfigs      `toml:"tier"`
	Engine    EngineConfigs    `toml:"engine"`
	Cron      CronConfigs      `toml:"cron"`
	Log       LogConfigs       `toml:"log"`
}

type DatabaseConfigs struct {
	Type     string `toml:"type" env:"DATABASE_TYPE"`
	Host     string `toml:"host" env:"DATABASE_HOST"`
	Port     string `toml:"port" env:"DATABASE_PORT"`
	Database string `toml:"database" env:"DATABASE_NAME"`
	User     string `toml:"user" env:"DATABASE_USER"`
	Password string `toml:"password" env:"DATABASE_PASSWORD"`

	// File is the sqlite database file, only used when Type is sqlite.
	File string `toml:"file" env:"DATABASE_FILE"`

	MaxOpenConns int `toml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
}

func (d DatabaseConfigs) ConnectionString() string {
	switch d.Type {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			d.Host, d.Port, d.User, d.Password, d.Database)
	case "sqlite":
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", d.File)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&multiStatements=true",
			d.User,
			d.Password,
			d.Host,
			d.Port,
			d.Database,
		)
	}
}

type APIServerConfigs struct {
	Host         string   `toml:"host" env:"API_HOST"`
	Port         string   `toml:"port" env:"API_PORT"`
	AllowOrigins []string `toml:"allow_origins" env:"API_ALLOW_ORIGINS" envSeparator:","`
	MaxLimit     int      `toml:"max_limit"`
	DefaultLimit int      `toml:"default_limit"`
}

type AuthConfigs struct {
	TokenSecret string `toml:"token_secret" env:"TOKEN_SECRET"`

	// TokenExpiration is only used by the token command, access tokens are
	// issued by the identity service.
	TokenExpiration time.Duration `toml:"token_expiration" env:"TOKEN_EXPIRATION"`
}

type RedisConfigs struct {
	Enable   bool          `toml:"enable" env:"REDIS_ENABLE"`
	Addr     string        `toml:"addr" env:"REDIS_ADDRESS"`
	TotalTTL time.Duration `toml:"total_ttl" env:"REDIS_TOTAL_TTL"`
}

type KafkaConfigs struct {
	Enable   bool     `toml:"enable" env:"KAFKA_ENABLE"`
	Addrs    []string `toml:"addrs" env:"KAFKA_ADDRESSES" envSeparator:","`
	ClientID string   `toml:"client_id" env:"KAFKA_CLIENT_ID"`
	Topic    string   `toml:"topic" env:"KAFKA_TOPIC"`
}

// RewardConfigs is the system-fixed table of XP/EP per trigger type. These
// values are copied into every reward definition when it is created and can't
// be changed through the admin API.
type RewardConfigs struct {
	TaskCompletionXP       int `toml:"task_completion_xp"`
	TaskSetCompletionXP    int `toml:"task_set_completion_xp"`
	AttractionCompletionXP int `toml:"attraction_completion_xp"`
	AttractionCompletionEP int `toml:"attraction_completion_ep"`
	BronzeEP               int `toml:"bronze_ep"`
	SilverEP               int `toml:"silver_ep"`
	GoldEP                 int `toml:"gold_ep"`
	ManualXP               int `toml:"manual_xp"`
	ManualEP               int `toml:"manual_ep"`
}

type TierConfigs struct {
	Bronze int `toml:"bronze"`
	Silver int `toml:"silver"`
	Gold   int `toml:"gold"`
}

type EngineConfigs struct {
	MaxRetries      uint          `toml:"max_retries" env:"ENGINE_MAX_RETRIES"`
	InitialInterval time.Duration `toml:"initial_interval" env:"ENGINE_INITIAL_INTERVAL"`
	MaxInterval     time.Duration `toml:"max_interval" env:"ENGINE_MAX_INTERVAL"`
}

type CronConfigs struct {
	RecomputeTierInterval time.Duration `toml:"recompute_tier_interval" env:"CRON_RECOMPUTE_TIER_INTERVAL"`
}

type LogConfigs struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
}

func Default() Configs {
	return Configs{
		Env: "local",
		Database: DatabaseConfigs{
			Type:         "sqlite",
			File:         "jelajah.db",
			MaxOpenConns: 20,
		},
		ApiServer: APIServerConfigs{
			Port:         "8080",
			AllowOrigins: []string{"*"},
			MaxLimit:     50,
			DefaultLimit: 10,
		},
		Auth: AuthConfigs{
			TokenExpiration: 24 * time.Hour,
		},
		Redis: RedisConfigs{
			Addr:     "localhost:6379",
			TotalTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfigs{
			ClientID: "jelajah",
			Topic:    "progress_events",
		},
		Reward: RewardConfigs{
			TaskCompletionXP:       50,
			TaskSetCompletionXP:    100,
			AttractionCompletionXP: 200,
			AttractionCompletionEP: 100,
			BronzeEP:               50,
			SilverEP:               100,
			GoldEP:                 200,
		},
		Tier: TierConfigs{
			Bronze: 33,
			Silver: 66,
			Gold:   100,
		},
		Engine: EngineConfigs{
			MaxRetries:      5,
			InitialInterval: 20 * time.Millisecond,
			MaxInterval:     500 * time.Millisecond,
		},
		Cron: CronConfigs{
			RecomputeTierInterval: time.Hour,
		},
		Log: LogConfigs{
			Level: "info",
		},
	}
}

// Load reads the configurations in three layers: defaults, the toml file at
// path (skipped if path is empty or the file doesn't exist), then environment
// variables.
func Load(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Configs{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Configs{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

func (c Configs) Validate() error {
	if !(0 < c.Tier.Bronze && c.Tier.Bronze < c.Tier.Silver &&
		c.Tier.Silver < c.Tier.Gold && c.Tier.Gold <= 100) {
		return fmt.Errorf("invalid tier thresholds %d/%d/%d", c.Tier.Bronze, c.Tier.Silver, c.Tier.Gold)
	}

	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("invalid node id %d", c.NodeID)
	}

	if c.Engine.MaxRetries == 0 {
		return errors.New("engine max retries must be positive")
	}

	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}

	return nil
}
