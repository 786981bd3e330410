package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
)

type Config struct {
	DatabaseFile string `mapstructure:"database_file"`
	ListenAddr   string `mapstructure:"listen_addr"`
	ServerUrl    string `mapstructure:"server_url"`
	DefaultUser  string `mapstructure:"default_user"`
}

func defaults() *Config {
	return &Config{
		DatabaseFile: "recall.sqlite",
		ListenAddr:   "localhost:7654",
		ServerUrl:    "http://localhost:7654",
		DefaultUser:  "default",
	}
}

// Path returns the config file location; the file is optional.
func Path() string {
	if path := os.Getenv("RECALL_CONFIG"); path != "" {
		return path
	}
	return "recall.json"
}

func CreateConfig(ctx context.Context) (*Config, error) {
	return Load(Path())
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applyEnv(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := mapstructure.Decode(values, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if val := os.Getenv("RECALL_DB"); val != "" {
		cfg.DatabaseFile = val
	}
	if val := os.Getenv("RECALL_LISTEN"); val != "" {
		cfg.ListenAddr = val
	}
	if val := os.Getenv("RECALL_SERVER"); val != "" {
		cfg.ServerUrl = val
	}
	if val := os.Getenv("RECALL_USER"); val != "" {
		cfg.DefaultUser = val
	}
}
