package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
	"docsearch/internal/metrics"
	"docsearch/internal/store"
)

// DefaultSimilarChunks is the neighbour count used when callers pass n <= 0.
const DefaultSimilarChunks = 5

// active is the indexed document together with its fitted index. It is
// never mutated after install; replacing it swaps the pointer.
type active struct {
	doc        *domain.Document
	idx        *lexical.Index
	generation uint64
	indexedAt  time.Time
}

type cacheKey struct {
	generation    uint64
	query         string
	maxResults    int
	minSimilarity float64
}

// SearchService owns the active document and answers searches against it.
// Builds run outside the slot lock; searches hold a read lock, so a swap
// waits for in-flight reads and readers never see a partial index.
type SearchService struct {
	mu      sync.RWMutex
	current *active
	gen     uint64

	buildMu sync.Mutex

	indexOpts lexical.Options
	cache     *lru.Cache[cacheKey, *domain.SearchResponse]
	store     store.Store
	processor *Processor
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*SearchService)

func WithLogger(l *slog.Logger) Option { return func(s *SearchService) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *SearchService) { s.metrics = m } }

// WithStore persists ingested documents and enables Restore.
func WithStore(st store.Store) Option { return func(s *SearchService) { s.store = st } }

// WithProcessor enables Ingest.
func WithProcessor(p *Processor) Option { return func(s *SearchService) { s.processor = p } }

func WithIndexOptions(o lexical.Options) Option {
	return func(s *SearchService) { s.indexOpts = o }
}

// WithCacheSize bounds the response cache. Zero or less disables it.
func WithCacheSize(n int) Option {
	return func(s *SearchService) {
		if n <= 0 {
			s.cache = nil
			return
		}
		c, err := lru.New[cacheKey, *domain.SearchResponse](n)
		if err == nil {
			s.cache = c
		}
	}
}

func NewSearchService(opts ...Option) *SearchService {
	s := &SearchService{indexOpts: lexical.DefaultOptions()}
	WithCacheSize(128)(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// IndexDocument builds an index over doc's chunks and makes doc the active
// document. On failure the previously active document stays in place.
func (s *SearchService) IndexDocument(doc *domain.Document) error {
	_, err := s.index(doc)
	return err
}

func (s *SearchService) index(doc *domain.Document) (*lexical.Index, error) {
	if doc == nil || len(doc.Chunks) == 0 {
		s.metrics.IndexFailed()
		return nil, domain.SearchError("cannot index a document without chunks", domain.ErrNoChunks)
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()
	idx, err := s.build(doc.Texts())
	if err != nil {
		s.metrics.IndexFailed()
		if errors.Is(err, domain.ErrEmptyVocabulary) {
			// text without a single indexable term is bad input
			s.logger.Warn("document has no indexable terms", "document", doc.Filename, "chunks", len(doc.Chunks))
			return nil, domain.ProcessingError("document "+doc.Filename+" has no searchable terms", err)
		}
		s.logger.Error("index build failed", "document", doc.Filename, "chunks", len(doc.Chunks), "error", err)
		return nil, err
	}
	s.install(doc, idx)
	s.logger.Info("document indexed",
		"document", doc.Filename,
		"chunks", len(doc.Chunks),
		"features", idx.VocabularySize(),
		"elapsed", time.Since(start))
	return idx, nil
}

func (s *SearchService) build(texts []string) (idx *lexical.Index, err error) {
	defer recoverInto("index build", &err)
	return lexical.Build(texts, s.indexOpts)
}

func (s *SearchService) install(doc *domain.Document, idx *lexical.Index) {
	s.mu.Lock()
	s.gen++
	s.current = &active{doc: doc, idx: idx, generation: s.gen, indexedAt: time.Now()}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Purge()
	}
	s.metrics.IndexBuilt(len(doc.Chunks), idx.VocabularySize())
}

// Search scores every chunk of the active document against query, keeps the
// maxResults best (ties to the lower chunk id), then drops those scoring
// below minSimilarity. maxResults <= 0 keeps every chunk.
func (s *SearchService) Search(query string, maxResults int, minSimilarity float64) (resp *domain.SearchResponse, err error) {
	start := time.Now()
	cached := false
	defer func() { s.metrics.Searched(time.Since(start), err, cached) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.current
	if cur == nil {
		return nil, domain.SearchError("no document has been indexed", domain.ErrNotIndexed)
	}

	key := cacheKey{generation: cur.generation, query: query, maxResults: maxResults, minSimilarity: minSimilarity}
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			cached = true
			out := *hit
			out.Results = append([]domain.SearchResult(nil), hit.Results...)
			out.SearchTime = time.Since(start)
			return &out, nil
		}
	}

	results, err := rank(cur, query, maxResults, minSimilarity)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		return nil, err
	}
	resp = &domain.SearchResponse{
		Query:      query,
		Results:    results,
		TotalFound: len(results),
		SearchTime: time.Since(start),
	}
	if s.cache != nil {
		stored := *resp
		stored.Results = append([]domain.SearchResult(nil), results...)
		s.cache.Add(key, &stored)
	}
	s.logger.Debug("search", "query", query, "results", len(results), "elapsed", resp.SearchTime)
	return resp, nil
}

func rank(cur *active, query string, maxResults int, minSimilarity float64) (results []domain.SearchResult, err error) {
	defer recoverInto("search", &err)

	scores := cur.idx.Similarity(query)
	order := byScore(scores)
	if maxResults > 0 && maxResults < len(order) {
		order = order[:maxResults]
	}
	results = make([]domain.SearchResult, 0, len(order))
	for _, pos := range order {
		if scores[pos] < minSimilarity {
			continue
		}
		ch := cur.doc.Chunks[pos]
		results = append(results, domain.SearchResult{
			ChunkID:    ch.ID,
			Text:       ch.Text,
			PageNumber: ch.PageNumber,
			Score:      scores[pos],
			Rank:       len(results) + 1,
		})
	}
	return results, nil
}

// byScore returns chunk positions by descending score; equal scores keep
// position order.
func byScore(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	return order
}

// SimilarChunks returns up to n other chunks most similar to chunk id, best
// first, omitting chunks with no shared features. Unknown ids give nothing.
func (s *SearchService) SimilarChunks(id, n int) ([]domain.SimilarChunk, error) {
	if n <= 0 {
		n = DefaultSimilarChunks
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.current
	if cur == nil {
		return nil, domain.SearchError("no document has been indexed", domain.ErrNotIndexed)
	}
	if _, ok := cur.doc.ChunkByID(id); !ok {
		return []domain.SimilarChunk{}, nil
	}
	scores, err := cur.idx.SimilarTo(id)
	if err != nil {
		return nil, domain.SearchError(fmt.Sprintf("similar chunks for %d", id), err)
	}
	out := make([]domain.SimilarChunk, 0, n)
	for _, pos := range byScore(scores) {
		if len(out) == n || scores[pos] <= 0 {
			break
		}
		ch := cur.doc.Chunks[pos]
		out = append(out, domain.SimilarChunk{ChunkID: ch.ID, Text: ch.Text, Similarity: scores[pos]})
	}
	return out, nil
}

// TopTerms returns the n features with the highest mean weight.
func (s *SearchService) TopTerms(n int) ([]lexical.TermWeight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, domain.SearchError("no document has been indexed", domain.ErrNotIndexed)
	}
	return s.current.idx.TopTerms(n), nil
}

// Stats describes the active document. ok is false while nothing is indexed.
func (s *SearchService) Stats() (stats domain.IndexStats, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.IndexStats{}, false
	}
	return domain.IndexStats{
		Document:       s.current.doc.Info(),
		VocabularySize: s.current.idx.VocabularySize(),
		IndexedAt:      s.current.indexedAt,
	}, true
}

// ActiveDocument returns the indexed document, or nil.
func (s *SearchService) ActiveDocument() *domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	return s.current.doc
}

// Ingest processes the file at path, indexes it and persists it. Persisting
// is best effort: a storage failure is logged and the document stays active.
func (s *SearchService) Ingest(ctx context.Context, path, name string) (*domain.Document, error) {
	if s.processor == nil {
		return nil, domain.InternalError("ingest", fmt.Errorf("no document processor configured"))
	}
	doc, err := s.processor.Process(ctx, path, name)
	if err != nil {
		return nil, err
	}
	idx, err := s.index(doc)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, doc, idx); err != nil {
			s.logger.Warn("could not persist document", "document", doc.Filename, "error", err)
		}
	}
	return doc, nil
}

// Restore loads a persisted document and makes it active. The stored index is
// reused when present, otherwise it is rebuilt from the chunks.
func (s *SearchService) Restore(ctx context.Context, name string) (*domain.Document, error) {
	if s.store == nil {
		return nil, domain.StorageError("restore "+name, fmt.Errorf("no store configured"))
	}
	doc, idx, err := s.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		if _, err := s.index(doc); err != nil {
			return nil, err
		}
	} else {
		if len(doc.Chunks) == 0 {
			return nil, domain.SearchError("cannot index a document without chunks", domain.ErrNoChunks)
		}
		s.buildMu.Lock()
		s.install(doc, idx)
		s.buildMu.Unlock()
	}
	s.logger.Info("document restored", "document", doc.Filename, "chunks", len(doc.Chunks))
	return doc, nil
}

// Documents lists the persisted document names.
func (s *SearchService) Documents(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx)
}

func recoverInto(op string, err *error) {
	if r := recover(); r != nil {
		*err = domain.InternalError(op+" failed unexpectedly", fmt.Errorf("%v", r))
	}
}
