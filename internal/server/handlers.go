package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"docsearch/internal/domain"
	"docsearch/internal/validation"
)

const (
	previewLength   = 150
	defaultTopTerms = 10
	defaultSimilar  = 3
)

type searchRequest struct {
	Query         string   `json:"query"`
	MaxResults    *int     `json:"max_results,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

type resultView struct {
	Rank       int     `json:"rank"`
	ChunkID    int     `json:"chunk_id"`
	Score      float64 `json:"similarity_score"`
	Text       string  `json:"text"`
	Preview    string  `json:"preview"`
	Confidence string  `json:"confidence"`
	PageNumber *int    `json:"page_number"`
}

type searchResponse struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Query      string       `json:"query"`
	TotalFound int          `json:"total_found"`
	SearchTime float64      `json:"search_time"`
	Results    []resultView `json:"results"`
}

type termView struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

func (s *Server) index(c echo.Context) error {
	var b strings.Builder
	if err := pageTemplate.Execute(&b, pageData{
		MaxUploadMB: s.opts.Server.MaxUploadMB,
		Accept:      acceptList(s.opts.Server.AllowedExtensions),
	}); err != nil {
		return domain.InternalError("render page", err)
	}
	return c.HTML(http.StatusOK, b.String())
}

func (s *Server) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		fh, err = c.FormFile("pdf")
	}
	if err != nil {
		return domain.ValidationError("no file selected")
	}
	name, err := validation.Filename(fh.Filename, s.opts.Server.AllowedExtensions)
	if err != nil {
		return err
	}
	if err := validation.FileSize(fh.Size, s.opts.Server.MaxUploadBytes()); err != nil {
		return err
	}

	path, err := s.saveUpload(fh, filepath.Ext(name))
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("could not remove upload", "path", path, "error", err)
		}
	}()

	doc, err := s.svc.Ingest(c.Request().Context(), path, name)
	if err != nil {
		return err
	}
	s.rememberDocument(doc.Filename)
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"message":  fmt.Sprintf("Processed %s: %d chunks created", doc.Filename, doc.ChunkCount()),
		"document": doc.Info(),
	})
}

func (s *Server) saveUpload(fh *multipart.FileHeader, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", domain.ValidationError("could not read upload")
	}
	defer src.Close()

	dir := s.opts.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.StorageError("create upload dir", err)
	}
	dst, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(ext))
	if err != nil {
		return "", domain.StorageError("save upload", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", domain.StorageError("save upload", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", domain.StorageError("save upload", err)
	}
	return dst.Name(), nil
}

func (s *Server) search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return domain.ValidationError("invalid request body")
	}
	query, err := validation.Query(req.Query, s.opts.Search.MinQueryLength, s.opts.Search.MaxQueryLength)
	if err != nil {
		return err
	}
	maxResults := s.opts.Search.MaxResults
	if req.MaxResults != nil {
		if *req.MaxResults < 1 {
			return domain.ValidationError("max_results must be at least 1")
		}
		maxResults = *req.MaxResults
	}
	minSimilarity := s.opts.Search.MinSimilarity
	if req.MinSimilarity != nil {
		if *req.MinSimilarity < 0 || *req.MinSimilarity > 1 {
			return domain.ValidationError("min_similarity must be between 0 and 1")
		}
		minSimilarity = *req.MinSimilarity
	}

	resp, err := s.svc.Search(query, maxResults, minSimilarity)
	if errors.Is(err, domain.ErrNotIndexed) {
		resp, err = s.restoreAndSearch(c, query, maxResults, minSimilarity, err)
	}
	if err != nil {
		return err
	}

	out := searchResponse{
		Success:    true,
		Message:    fmt.Sprintf("%d results found", resp.TotalFound),
		Query:      resp.Query,
		TotalFound: resp.TotalFound,
		SearchTime: round(resp.SearchTime.Seconds(), 3),
		Results:    make([]resultView, len(resp.Results)),
	}
	for i, r := range resp.Results {
		out.Results[i] = resultView{
			Rank:       r.Rank,
			ChunkID:    r.ChunkID,
			Score:      round(r.Score, 3),
			Text:       r.Text,
			Preview:    r.Preview(previewLength),
			Confidence: r.Confidence(),
			PageNumber: r.PageNumber,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// restoreAndSearch loads the last known document when the service starts
// out empty, then retries the search once.
func (s *Server) restoreAndSearch(c echo.Context, query string, maxResults int, minSimilarity float64, cause error) (*domain.SearchResponse, error) {
	name := s.lastDocument()
	if name == "" {
		return nil, domain.SearchError("upload a document first", cause)
	}
	if _, err := s.svc.Restore(c.Request().Context(), name); err != nil {
		s.log.Warn("could not restore document", "document", name, "error", err)
		return nil, domain.SearchError("processed document "+name+" is not available", cause)
	}
	return s.svc.Search(query, maxResults, minSimilarity)
}

func (s *Server) stats(c echo.Context) error {
	stats, ok := s.svc.Stats()
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"success": true, "indexed": false})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "indexed": true, "stats": stats})
}

func (s *Server) terms(c echo.Context) error {
	n, err := intParam(c.QueryParam("n"), defaultTopTerms)
	if err != nil {
		return err
	}
	terms, err := s.svc.TopTerms(n)
	if err != nil {
		return err
	}
	out := make([]termView, len(terms))
	for i, t := range terms {
		out[i] = termView{Term: t.Term, Score: round(t.Weight, 4)}
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "terms": out})
}

func (s *Server) similar(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		return domain.ValidationError("chunk id must be a non-negative integer")
	}
	n, err := intParam(c.QueryParam("n"), defaultSimilar)
	if err != nil {
		return err
	}
	chunks, err := s.svc.SimilarChunks(id, n)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Similarity = round(chunks[i].Similarity, 3)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "chunk_id": id, "similar": chunks})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.ValidationError(fmt.Sprintf("invalid count %q", raw))
	}
	return n, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
