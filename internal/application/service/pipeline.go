package service

import (
	"context"
	"fmt"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/domain/service"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
	"wallet-cluster-analyzer/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// NewEntityLabeler loads the label sources once and builds the labeling stage from config
func NewEntityLabeler(
	ctx context.Context,
	labelRepo repository.LabelSourceRepository,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *logger.Logger,
) (*service.EntityLabeler, error) {
	sources, err := labelRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load label sources: %w", err)
	}

	m.SetLabelEntries("curated", len(sources.Curated))
	m.SetLabelEntries("graph_intel", len(sources.GraphIntel))
	m.SetLabelEntries("known_accounts", len(sources.KnownAccounts))
	m.SetLabelEntries("known_programs", len(sources.KnownPrograms))

	labels := service.NewAddressLabelMap(sources)
	classifier := service.NewCategoryClassifier(cfg.Classifier.Rules...)
	aggregator := service.NewWalletBehaviorAggregator(
		cfg.Behavior.Thresholds,
		entity.GroupKey(cfg.Behavior.ReceivedGroupKey),
	)

	logger.WithComponent("pipeline").Info("Entity labeler ready",
		zap.Int("wallet_labels", labels.WalletCount()),
		zap.Int("program_labels", labels.ProgramCount()),
		zap.String("received_group_key", cfg.Behavior.ReceivedGroupKey))

	return service.NewEntityLabeler(labels, classifier, aggregator), nil
}

// NewAnalysisPipeline wires the full analysis service from config
func NewAnalysisPipeline(
	labeler *service.EntityLabeler,
	cfg *config.Config,
	analysisRepo repository.AnalysisRepository,
	m *metrics.Metrics,
	logger *logger.Logger,
) *AnalysisApplicationService {
	return NewAnalysisApplicationService(
		labeler,
		service.NewClusterEngine(cfg.Cluster.Thresholds),
		cfg.Profile.Thresholds,
		analysisRepo,
		m,
		logger,
	)
}
