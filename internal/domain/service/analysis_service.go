package service

import (
	"context"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// AnalysisService defines the interface for wallet analysis operations
type AnalysisService interface {
	// Analyze labels, graphs and clusters the rows of one analysis request
	Analyze(ctx context.Context, req *entity.AnalysisRequest) (*entity.AnalysisResult, error)

	// CleanRows deduplicates rows by signature and keeps successful transfers only
	CleanRows(rows []entity.TransactionRow) []entity.TransactionRow
}
