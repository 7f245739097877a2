package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, 5000, cfg.Index.MaxFeatures)
	assert.Equal(t, 1, cfg.Index.MinDF)
	assert.InDelta(t, 0.95, cfg.Index.MaxDF, 1e-12)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.InDelta(t, 0.01, cfg.Search.MinSimilarity, 1e-12)
	assert.Equal(t, 500, cfg.Search.MaxQueryLength)
	assert.Equal(t, "file", cfg.Storage.Type)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadBytes())
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Server.AllowedExtensions)
	assert.Equal(t, 3, cfg.Summarizer.MaxSentences)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
chunker:
  chunk_size: 200
storage:
  type: sqlite
  data_dir: /var/lib/docsearch
search:
  min_similarity: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, "sentence", cfg.Chunker.Type)
	assert.InDelta(t, 0.2, cfg.Search.MinSimilarity, 1e-12)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, filepath.Join("/var/lib/docsearch", "docsearch.db"), cfg.Storage.SQLitePath)
}

func TestLoad_ExplicitZeroOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
chunker:
  chunk_size: 300
  overlap: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Chunker.ChunkSize)
	assert.Equal(t, 0, cfg.Chunker.Overlap)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DOCSEARCH_ADDR", "127.0.0.1:8080")
	t.Setenv("DOCSEARCH_LOG_LEVEL", "debug")
	t.Setenv("DOCSEARCH_DATA_DIR", "/tmp/ds")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/ds", cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join("/tmp/ds", "processed"), cfg.Storage.ProcessedDir())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Server.Addr = ":9000"
	cfg.Index.MaxFeatures = 42

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", loaded.Server.Addr)
	assert.Equal(t, 42, loaded.Index.MaxFeatures)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, path, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "docsearch", "config.yaml"), path)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
