package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"docsearch/internal/chunker"
	"docsearch/internal/lexical"
)

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type      string `yaml:"type"`
	ChunkSize int    `yaml:"chunk_size"`
	Overlap   int    `yaml:"overlap"`
}

// SearchConfig holds query defaults and limits.
type SearchConfig struct {
	MaxResults     int     `yaml:"max_results"`
	MinSimilarity  float64 `yaml:"min_similarity"`
	MinQueryLength int     `yaml:"min_query_length"`
	MaxQueryLength int     `yaml:"max_query_length"`
	CacheSize      int     `yaml:"cache_size"`
}

// StorageConfig selects where processed documents are persisted.
type StorageConfig struct {
	Type       string `yaml:"type"`
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// ProcessedDir is the directory the file store writes blobs to.
func (s StorageConfig) ProcessedDir() string { return filepath.Join(s.DataDir, "processed") }

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	MaxUploadMB       int      `yaml:"max_upload_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// MaxUploadBytes is the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 { return int64(s.MaxUploadMB) << 20 }

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Index      lexical.Options  `yaml:"index"`
	Search     SearchConfig     `yaml:"search"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Log        LogConfig        `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	// overlap starts at its default so an absent key keeps it; an explicit 0 still disables it
	cfg := AppConfig{Chunker: ChunkerConfig{Overlap: chunker.DefaultOverlap}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/docsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
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

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsearch", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Chunker: ChunkerConfig{Type: "sentence", ChunkSize: chunker.DefaultChunkSize, Overlap: chunker.DefaultOverlap},
		Index:   lexical.DefaultOptions(),
		Search: SearchConfig{
			MaxResults:     5,
			MinSimilarity:  0.01,
			MinQueryLength: 1,
			MaxQueryLength: 500,
			CacheSize:      128,
		},
		Storage: StorageConfig{Type: "file", DataDir: "./data"},
		Server: ServerConfig{
			Addr:              ":5000",
			MaxUploadMB:       16,
			AllowedExtensions: []string{"pdf", "txt"},
		},
		Summarizer: SummarizerConfig{Type: "frequency", MaxSentences: 3},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "sentence"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.Overlap < 0 {
		cfg.Chunker.Overlap = 0
	}
	def := lexical.DefaultOptions()
	if cfg.Index.MaxFeatures == 0 {
		cfg.Index.MaxFeatures = def.MaxFeatures
	}
	if cfg.Index.MinDF == 0 {
		cfg.Index.MinDF = def.MinDF
	}
	if cfg.Index.MaxDF == 0 {
		cfg.Index.MaxDF = def.MaxDF
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}
	if cfg.Search.MinQueryLength == 0 {
		cfg.Search.MinQueryLength = 1
	}
	if cfg.Search.MaxQueryLength == 0 {
		cfg.Search.MaxQueryLength = 500
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 128
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.Type == "sqlite" && cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = filepath.Join(cfg.Storage.DataDir, "docsearch.db")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 16
	}
	if len(cfg.Server.AllowedExtensions) == 0 {
		cfg.Server.AllowedExtensions = []string{"pdf", "txt"}
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// applyEnv lets the environment override a few deployment settings.
func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("DOCSEARCH_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCSEARCH_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("DOCSEARCH_DATA_DIR")); v != "" {
		cfg.Storage.DataDir = v
	}
}
