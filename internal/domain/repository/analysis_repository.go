package repository

import (
	"context"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// AnalysisRepository defines the interface for persisting analysis results
type AnalysisRepository interface {
	// SaveAnalysis stores the wallets, transfers and clusters of a result
	SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error

	// GetClusters returns the stored clusters of a subject wallet
	GetClusters(ctx context.Context, address string) ([]entity.ClusterReport, error)
}
