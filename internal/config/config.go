package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bookrag/internal/models"
)

// LLMConfig points at one OpenAI-compatible or Ollama endpoint.
type LLMConfig struct {
	Provider       string `yaml:"provider"` // "openai" or "ollama"
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured call timeout, defaulting to 60s.
func (c *LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type RerankConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c *RerankConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type StoreConfig struct {
	Backend    string `yaml:"backend"` // "chromem" or "postgres"
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Debug      bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	PoolSize         int    `yaml:"pool_size"`
	TopK             int    `yaml:"top_k"`
	PromptCharBudget int    `yaml:"prompt_char_budget"`
	DataDir          string `yaml:"data_dir"`
	ViewerBaseURL    string `yaml:"viewer_base_url"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ServeDocs      bool     `yaml:"serve_docs"`
	DocsMountPath  string   `yaml:"docs_mount_path"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Store    StoreConfig  `yaml:"store"`
	EmbedLLM LLMConfig    `yaml:"embed_llm"`
	ChatLLM  LLMConfig    `yaml:"chat_llm"`
	Rerank   RerankConfig `yaml:"rerank"`
	RAG      RAGConfig    `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.DocsMountPath == "" {
		c.Server.DocsMountPath = "/docs"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chromemdb"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "book_collection"
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = models.DefaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = models.DefaultChunkOverlap
	}
	if c.RAG.PoolSize == 0 {
		c.RAG.PoolSize = models.DefaultPoolSize
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = models.DefaultTopK
	}
	if c.RAG.DataDir == "" {
		c.RAG.DataDir = "./data"
	}
}

// applyEnv lets secrets come from the environment instead of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BOOKRAG_EMBED_KEY"); v != "" {
		c.EmbedLLM.Key = v
	}
	if v := os.Getenv("BOOKRAG_CHAT_KEY"); v != "" {
		c.ChatLLM.Key = v
	}
	if v := os.Getenv("BOOKRAG_RERANK_KEY"); v != "" {
		c.Rerank.Key = v
	}
	if v := os.Getenv("BOOKRAG_STORE_PASSWORD"); v != "" {
		c.Store.Password = v
	}
}

func (c *Config) validate() error {
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	if c.RAG.TopK > c.RAG.PoolSize {
		return fmt.Errorf("top_k (%d) must not exceed pool_size (%d)", c.RAG.TopK, c.RAG.PoolSize)
	}
	if c.EmbedLLM.Model == "" {
		return fmt.Errorf("embed_llm.model is required")
	}
	switch c.Store.Backend {
	case "chromem", "postgres":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	return nil
}
