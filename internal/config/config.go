package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Retrieval   RetrievalConfig           `json:"retrieval"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	MaxMessageChars   int    `json:"max_message_chars"`
	MinWorkers        int    `json:"min_workers"`
	MaxWorkers        int    `json:"max_workers"`
	QueueSize         int    `json:"queue_size"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout"` // minutes
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	DB            int    `json:"db"`
	ReplyCacheTTL int    `json:"reply_cache_ttl"` // minutes
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// RetrievalConfig points at the hosted vector index and the embedding model
// used to turn questions into query vectors.
type RetrievalConfig struct {
	IndexURL       string `json:"index_url"`
	APIKey         string `json:"api_key"`
	Namespace      string `json:"namespace"`
	EmbeddingModel string `json:"embedding_model"`
	TopK           int    `json:"top_k"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BasicConfig.Provider == "" {
		cfg.BasicConfig.Provider = "gemini"
	}
	if cfg.BasicConfig.MaxMessageChars <= 0 {
		cfg.BasicConfig.MaxMessageChars = 1000
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 3
	}

	// sqlite paths in the config are resolved relative to the config file.
	for name, db := range cfg.Databases {
		if name == "mysql" || db.DSN == "" || filepath.IsAbs(db.DSN) {
			continue
		}
		db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
		cfg.Databases[name] = db
	}

	return &cfg, nil
}
