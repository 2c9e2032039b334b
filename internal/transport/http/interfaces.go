package http

import (
	"context"

	"nepsecli/internal/services"
	"nepsecli/internal/standardizer"
)

// DataServiceInterface defines the read side used by DataHandler
type DataServiceInterface interface {
	Symbols(ctx context.Context) ([]services.SymbolInfo, error)
	Features(ctx context.Context, symbol string, tail int) (*services.FeatureResponse, error)
}

// PipelineServiceInterface defines the run side used by PipelineHandler
type PipelineServiceInterface interface {
	Standardize(ctx context.Context, trigger string) (*standardizer.Report, error)
	RunAll(ctx context.Context, trigger string) (*services.RunReport, error)
}
