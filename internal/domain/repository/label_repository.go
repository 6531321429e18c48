package repository

import (
	"context"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// LabelSourceRepository defines the interface for loading address label sources
type LabelSourceRepository interface {
	// Load reads every configured label source once
	Load(ctx context.Context) (entity.LabelSources, error)
}
