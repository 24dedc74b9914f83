package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vocab-quiz-service/internal/game"
)

// DefaultMongoDatabase is used when mongo.database is unset.
const DefaultMongoDatabase = "vocab"

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Questions struct {
		TTL       string `yaml:"ttl"`
		BankPath  string `yaml:"bank_path"`
		BatchSize int    `yaml:"batch_size"`
	} `yaml:"questions"`
	Game Game `yaml:"game"`
}

// Game holds the session rules. Zero values fall back to game.DefaultRules.
type Game struct {
	QuestionSeconds int     `yaml:"question_seconds"`
	ExtraSeconds    int     `yaml:"extra_seconds"`
	BasePoints      int     `yaml:"base_points"`
	StreakStep      float64 `yaml:"streak_step"`
	StreakOffset    float64 `yaml:"streak_offset"`
	ProgressStep    int     `yaml:"progress_step"`
	StartingJokers  *int    `yaml:"starting_jokers"`
	Tick            string  `yaml:"tick"`
}

// Rules converts the game section into engine rules.
func (g Game) Rules() game.Rules {
	d := game.DefaultRules()
	rules := game.Rules{
		QuestionSeconds: g.QuestionSeconds,
		ExtraSeconds:    g.ExtraSeconds,
		BasePoints:      g.BasePoints,
		StreakStep:      g.StreakStep,
		StreakOffset:    g.StreakOffset,
		ProgressStep:    g.ProgressStep,
		StartingJokers:  d.StartingJokers,
	}
	// starting_jokers: 0 is a valid setting, so only a missing key uses the default
	if g.StartingJokers != nil {
		rules.StartingJokers = *g.StartingJokers
	}
	return rules
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = DefaultMongoDatabase
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
