package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"nepsecli/internal/config"
	apperrors "nepsecli/internal/errors"
	"nepsecli/internal/features"
	"nepsecli/internal/files"
	"nepsecli/internal/infrastructure"
	"nepsecli/internal/metadata"
)

// SymbolInfo describes one symbol with a data file
type SymbolInfo struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	File      string    `json:"file"`
	SizeBytes int64     `json:"size_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeatureResponse is a symbol's enriched series in row form
type FeatureResponse struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Total   int      `json:"total_rows"`
	Rows    [][]any  `json:"rows"`
}

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// DataService reads symbols and computes feature series on demand.
type DataService struct {
	paths     *config.Paths
	discovery *files.Discovery
	pipeline  *features.Pipeline
	cache     *lru.Cache[cacheKey, *features.Series]
	logger    *slog.Logger
}

// NewDataService creates a data service holding up to cacheSize computed series.
func NewDataService(paths *config.Paths, pipeline *features.Pipeline, cacheSize int, logger *slog.Logger) (*DataService, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	cache, err := lru.New[cacheKey, *features.Series](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature cache: %w", err)
	}
	return &DataService{
		paths:     paths,
		discovery: files.NewDiscovery(""),
		pipeline:  pipeline,
		cache:     cache,
		logger:    infrastructure.WithComponent(logger, "data-service"),
	}, nil
}

// metadataIndex loads company names; a missing or broken file only loses names.
func (s *DataService) metadataIndex(ctx context.Context) metadata.Index {
	if s.paths.MetadataFile == "" {
		return nil
	}
	idx, err := metadata.LoadIndex(s.paths.MetadataFile)
	if err != nil {
		s.logger.DebugContext(ctx, "Metadata unavailable", slog.String("error", err.Error()))
		return nil
	}
	return idx
}

// Symbols lists every symbol with a data file, with company names where known.
func (s *DataService) Symbols(ctx context.Context) ([]SymbolInfo, error) {
	found, err := s.discovery.FindTabularFiles(s.paths.DataDir)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read data directory", err)
	}

	idx := s.metadataIndex(ctx)
	out := make([]SymbolInfo, 0, len(found))
	for _, f := range found {
		if strings.HasSuffix(f.Name, config.FeatureFileSuffix) {
			continue
		}
		info := SymbolInfo{
			Symbol:    f.Symbol(),
			File:      f.Name,
			SizeBytes: f.Size,
			UpdatedAt: f.ModTime,
		}
		if c, ok := idx.Lookup(info.Symbol); ok {
			info.Name = c.Name
		}
		out = append(out, info)
	}
	return out, nil
}

// Features returns the enriched series for symbol, limited to the last tail
// rows when tail > 0. Results are cached until the source file changes.
func (s *DataService) Features(ctx context.Context, symbol string, tail int) (*FeatureResponse, error) {
	f, ok, err := s.discovery.FindBySymbol(s.paths.DataDir, symbol)
	if err != nil {
		return nil, apperrors.NewIOError("failed to read data directory", err)
	}
	if !ok {
		return nil, apperrors.NewNotFoundError("symbol").WithContext("symbol", symbol)
	}

	key := cacheKey{path: f.Path, size: f.Size, modTime: f.ModTime}
	series, hit := s.cache.Get(key)
	if !hit {
		series, err = s.pipeline.Run(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, series)
	}

	s.logger.DebugContext(ctx, "Serving features",
		slog.String("symbol", series.Symbol()),
		slog.Bool("cache_hit", hit))

	resp := &FeatureResponse{
		Symbol:  series.Symbol(),
		Columns: series.Columns(),
		Total:   series.Len(),
		Rows:    series.Rows(tail),
	}
	if c, ok := s.metadataIndex(ctx).Lookup(resp.Symbol); ok {
		resp.Name = c.Name
	}
	return resp, nil
}
