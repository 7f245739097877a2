package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"docsearch/internal/chunker"
	"docsearch/internal/config"
	"docsearch/internal/domain"
	"docsearch/internal/extract"
	"docsearch/internal/logging"
	"docsearch/internal/metrics"
	"docsearch/internal/service"
	"docsearch/internal/store"
	"docsearch/internal/store/file"
	"docsearch/internal/store/memory"
	"docsearch/internal/store/sqlite"
	"docsearch/internal/summarizer"
)

// app holds what every subcommand needs. It is filled in by setup before a
// command runs and torn down afterwards.
type app struct {
	cfgPath  string
	logLevel string

	cfg      *config.AppConfig
	logger   *slog.Logger
	store    store.Store
	registry *prometheus.Registry
	svc      *service.SearchService

	cleanup []func()
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgPath == "" {
		a.cfg, _, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}

	logger, closeLog, err := logging.Setup(logging.Config{
		Level:    a.cfg.Log.Level,
		Format:   a.cfg.Log.Format,
		FilePath: a.cfg.Log.File,
		Output:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	a.logger = logger
	a.cleanup = append(a.cleanup, closeLog)
	slog.SetDefault(logger)

	st, err := openStore(a.cfg.Storage)
	if err != nil {
		return err
	}
	a.store = st
	a.cleanup = append(a.cleanup, func() {
		if err := st.Close(); err != nil {
			a.logger.Warn("closing store", "error", err)
		}
	})

	ch, err := newChunker(a.cfg.Chunker)
	if err != nil {
		return err
	}
	sum, err := newSummarizer(a.cfg.Summarizer)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	proc := service.NewProcessor(extract.Auto{}, ch, sum, a.cfg.Summarizer.MaxSentences, logger)
	a.svc = service.NewSearchService(
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(a.registry)),
		service.WithIndexOptions(a.cfg.Index),
		service.WithCacheSize(a.cfg.Search.CacheSize),
		service.WithStore(st),
		service.WithProcessor(proc),
	)
	return nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// restore activates the named document, or the only stored one when name is empty.
func (a *app) restore(ctx context.Context, name string) (*domain.Document, error) {
	if name == "" {
		names, err := a.svc.Documents(ctx)
		if err != nil {
			return nil, err
		}
		switch len(names) {
		case 0:
			return nil, fmt.Errorf("no processed documents, run 'docsearch index <file>' first")
		case 1:
			name = names[0]
		default:
			return nil, fmt.Errorf("%d documents stored, pick one with --doc", len(names))
		}
	}
	return a.svc.Restore(ctx, name)
}

func openStore(cfg config.StorageConfig) (store.Store, error) {
	switch cfg.Type {
	case "file", "":
		return file.NewStorage(cfg.ProcessedDir())
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "docsearch.db")
		}
		return sqlite.Open(path)
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func newChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "sentence", "":
		return chunker.NewSentenceChunker(cfg.ChunkSize, cfg.Overlap), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

func newSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}
