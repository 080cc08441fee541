package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

type Config struct {
	Addr        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	SQLitePath  string
	Rules       engine.Rules
}

// rulesFile is the optional YAML rules file. Unset fields keep their defaults.
type rulesFile struct {
	AnnihilationWin *bool  `yaml:"annihilation_win"`
	TrapRule        string `yaml:"trap_rule"`
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. RULES_FILE is applied first so that
// ANNIHILATION_WIN and TRAP_RULE override it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Addr:        getenv("ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		Rules:       engine.DefaultRules(),
	}

	if path := os.Getenv("RULES_FILE"); path != "" {
		if err := applyRulesFile(&cfg.Rules, path); err != nil {
			return Config{}, err
		}
	}

	if v, ok := os.LookupEnv("ANNIHILATION_WIN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("ANNIHILATION_WIN: %w", err)
		}
		cfg.Rules.AnnihilationWin = b
	}
	if v, ok := os.LookupEnv("TRAP_RULE"); ok {
		rule, err := engine.ParseTrapRule(v)
		if err != nil {
			return Config{}, fmt.Errorf("TRAP_RULE: %w", err)
		}
		cfg.Rules.Trap = rule
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	return cfg, nil
}

func applyRulesFile(rules *engine.Rules, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if rf.AnnihilationWin != nil {
		rules.AnnihilationWin = *rf.AnnihilationWin
	}
	if rf.TrapRule != "" {
		rule, err := engine.ParseTrapRule(rf.TrapRule)
		if err != nil {
			return fmt.Errorf("rules file %s: %w", path, err)
		}
		rules.Trap = rule
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
