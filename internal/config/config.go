package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible
// embeddings encoder.
type OpenAIEncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EncoderConfig selects and configures the embedding encoder implementation.
type EncoderConfig struct {
	Type   string               `yaml:"type"`
	OpenAI *OpenAIEncoderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how record content is split into chunks.
type ChunkerConfig struct {
	Size         int `yaml:"size"`
	Overlap      int `yaml:"overlap"`
	MinChunkLen  int `yaml:"min_chunk_len"`
	MinRecordLen int `yaml:"min_record_len"`
}

// RetrieverConfig configures ranking and domain anchoring.
type RetrieverConfig struct {
	TopK         int      `yaml:"top_k"`
	Keywords     []string `yaml:"keywords"`
	AnchorPhrase string   `yaml:"anchor_phrase"`
}

// OpenAIGeneratorConfig holds configuration for the chat-completion
// answer generator. Any OpenAI-compatible endpoint works; Groq by default.
type OpenAIGeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type               string                 `yaml:"type"`
	RelevanceThreshold float64                `yaml:"relevance_threshold"`
	OpenAI             *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DataDir        string          `yaml:"data_dir"`
	VectorstoreDir string          `yaml:"vectorstore_dir"`
	HistoryDir     string          `yaml:"history_dir"`
	Encoder        EncoderConfig   `yaml:"encoder"`
	Chunker        ChunkerConfig   `yaml:"chunker"`
	Retriever      RetrieverConfig `yaml:"retriever"`
	Generator      GeneratorConfig `yaml:"generator"`
}

// ChunksPath returns the path of the persisted chunk store.
func (c *AppConfig) ChunksPath() string {
	return filepath.Join(c.VectorstoreDir, "kct_chunks.json")
}

// IndexPath returns the path of the persisted vector index blob.
func (c *AppConfig) IndexPath() string {
	return filepath.Join(c.VectorstoreDir, "kct_index.bin")
}

// VocabularyPath returns the path of the persisted TF-IDF vocabulary.
func (c *AppConfig) VocabularyPath() string {
	return filepath.Join(c.VectorstoreDir, "kct_vocab.json")
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.VectorstoreDir == "" {
		cfg.VectorstoreDir = "vectorstore"
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = "chat_history"
	}
	if cfg.Encoder.Type == "" {
		cfg.Encoder.Type = "tfidf"
	}
	if cfg.Encoder.Type == "openai" {
		if cfg.Encoder.OpenAI == nil {
			cfg.Encoder.OpenAI = &OpenAIEncoderConfig{}
		}
		o := cfg.Encoder.OpenAI
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 600
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 150
	}
	if cfg.Chunker.MinChunkLen == 0 {
		cfg.Chunker.MinChunkLen = 100
	}
	if cfg.Chunker.MinRecordLen == 0 {
		cfg.Chunker.MinRecordLen = 30
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 5
	}
	if len(cfg.Retriever.Keywords) == 0 {
		cfg.Retriever.Keywords = []string{"KCT", "Kumaraguru", "College", "Technology"}
	}
	if cfg.Retriever.AnchorPhrase == "" {
		cfg.Retriever.AnchorPhrase = "Kumaraguru College of Technology"
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "extractive"
	}
	if cfg.Generator.RelevanceThreshold == 0 {
		cfg.Generator.RelevanceThreshold = 0.3
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		g := cfg.Generator.OpenAI
		if g.BaseURL == "" {
			g.BaseURL = "https://api.groq.com/openai/v1"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "GROQ_API_KEY"
		}
		if g.Model == "" {
			g.Model = "llama3-8b-8192"
		}
		if g.Temperature == 0 {
			g.Temperature = 0.4
		}
		if g.MaxTokens == 0 {
			g.MaxTokens = 1200
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 60
		}
	}
}
