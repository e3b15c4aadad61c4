package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	Kind    string `yaml:"kind"` // "openai" or "ollama"
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type BackendConfig struct {
	Kind    string   `yaml:"kind"` // "openai" or "ollama"
	BaseURL string   `yaml:"base_url"`
	Key     string   `yaml:"key"`
	Models  []string `yaml:"models"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	ContextBudget int    `yaml:"context_budget"`
	HistoryDBPath string `yaml:"history_db_path"`
}

type GatewayConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	CacheCapacity     int `yaml:"cache_capacity"`
	TimeoutSeconds    int `yaml:"timeout_seconds"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	Database DatabaseConfig  `yaml:"database"`
	EmbedLLM LLMConfig       `yaml:"embed_llm"`
	Backends []BackendConfig `yaml:"backends"`
	RAG      RAGConfig       `yaml:"rag"`
	Gateway  GatewayConfig   `yaml:"gateway"`
	Store    StoreConfig     `yaml:"store"`
}

// LoadConfig reads the yaml config. A .env file, when present, is loaded
// first so API keys can come from the environment; ${VAR} values in key
// fields are expanded from it.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.EmbedLLM.Key = os.ExpandEnv(cfg.EmbedLLM.Key)
	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	for i := range cfg.Backends {
		cfg.Backends[i].Key = os.ExpandEnv(cfg.Backends[i].Key)
	}
	return &cfg, nil
}
