package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/domain/service"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
	"wallet-cluster-analyzer/internal/infrastructure/metrics"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid analysis request")

// Drop reasons reported by CleanRows
const (
	dropDuplicate = "duplicate_signature"
	dropStatus    = "failed_status"
	dropEndpoint  = "missing_endpoint"
)

// AnalysisApplicationService implements AnalysisService interface
type AnalysisApplicationService struct {
	labeler           *service.EntityLabeler
	engine            *service.ClusterEngine
	profileThresholds service.ProfileThresholds
	analysisRepo      repository.AnalysisRepository
	metrics           *metrics.Metrics
	logger            *logger.Logger
	now               func() time.Time
}

// NewAnalysisApplicationService creates a new analysis application service.
// analysisRepo and m may be nil to skip persistence and metrics.
func NewAnalysisApplicationService(
	labeler *service.EntityLabeler,
	engine *service.ClusterEngine,
	profileThresholds service.ProfileThresholds,
	analysisRepo repository.AnalysisRepository,
	m *metrics.Metrics,
	logger *logger.Logger,
) *AnalysisApplicationService {
	return &AnalysisApplicationService{
		labeler:           labeler,
		engine:            engine,
		profileThresholds: profileThresholds,
		analysisRepo:      analysisRepo,
		metrics:           m,
		logger:            logger.WithComponent("analysis-service"),
		now:               time.Now,
	}
}

var _ service.AnalysisService = (*AnalysisApplicationService)(nil)

// Analyze runs labeling, graph building, clustering and profiling for one request
func (s *AnalysisApplicationService) Analyze(ctx context.Context, req *entity.AnalysisRequest) (*entity.AnalysisResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if err := entity.ValidateSolanaAddress(req.Address); err != nil {
		s.metrics.RecordAnalysis("invalid")
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := s.logger.WithRequest(requestID, req.Address)
	log.Info("Starting analysis", zap.Int("rows", len(req.Rows)), zap.Bool("clean", req.Clean))

	rows := req.Rows
	if req.Clean {
		rows = s.CleanRows(rows)
	}

	result, err := s.run(ctx, req.Address, rows)
	if err != nil {
		s.metrics.RecordAnalysis("error")
		log.Warn("Analysis aborted", zap.Error(err))
		return nil, err
	}
	result.RequestID = requestID
	result.CompletedAt = s.now().UTC()

	if s.analysisRepo != nil {
		started := time.Now()
		if err := s.analysisRepo.SaveAnalysis(ctx, result); err != nil {
			s.metrics.RecordPersistError()
			log.Error("Failed to persist analysis", zap.Error(err))
		}
		s.metrics.ObserveStage("persist", started)
	}

	s.metrics.RecordAnalysis("success")
	log.Info("Analysis completed",
		zap.Int("wallets", result.Graph.NodeCount()),
		zap.Int("transfers", result.Graph.EdgeCount()),
		zap.Int("clusters", len(result.Clusters)),
		zap.Int("flagged_clusters", len(result.FlaggedClusters())),
		zap.String("digest", result.Digest))

	return result, nil
}

// run executes the pure pipeline stages, checking for cancellation between them
func (s *AnalysisApplicationService) run(ctx context.Context, address string, rows []entity.TransactionRow) (*entity.AnalysisResult, error) {
	started := time.Now()
	labeled, stats := s.labeler.Label(rows, address)
	labeled = service.AttachBehaviorLabels(labeled, stats)
	s.metrics.ObserveStage("label", started)
	s.metrics.RecordRows(len(labeled))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started = time.Now()
	graph := service.BuildGraph(labeled)
	s.metrics.ObserveStage("graph", started)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	started = time.Now()
	clusters := s.engine.Cluster(graph, labeled)
	s.metrics.ObserveStage("cluster", started)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var flags []string
	for _, c := range clusters {
		for _, f := range c.RiskFlags {
			flags = append(flags, string(f))
		}
	}
	s.metrics.RecordClusters(len(clusters), flags)

	result := &entity.AnalysisResult{
		Address:     address,
		Rows:        labeled,
		WalletStats: stats,
		Graph:       graph,
		Clusters:    clusters,
		Profile:     service.BuildWalletProfile(labeled, address, stats, s.profileThresholds),
	}

	digest, err := Digest(result)
	if err != nil {
		return nil, err
	}
	result.Digest = digest

	return result, nil
}

// Digest fingerprints the deterministic part of a result. Request id and completion
// time are excluded, so identical inputs give identical digests.
func Digest(result *entity.AnalysisResult) (string, error) {
	payload := struct {
		Address     string                 `json:"address"`
		Rows        []entity.LabeledRow    `json:"rows"`
		WalletStats []entity.WalletStats   `json:"wallet_stats"`
		Graph       *entity.Graph          `json:"tx_graph"`
		Clusters    []entity.ClusterReport `json:"clusters"`
		Profile     *entity.WalletProfile  `json:"wallet_analysis"`
	}{
		Address:     result.Address,
		Rows:        result.Rows,
		WalletStats: result.WalletStats,
		Graph:       result.Graph,
		Clusters:    result.Clusters,
		Profile:     result.Profile,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode result for digest: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}

// CleanRows keeps the first row of each signature, drops unsuccessful transfers and rows
// missing a sender or receiver, and zeroes non-finite amounts. The input is not modified.
func (s *AnalysisApplicationService) CleanRows(rows []entity.TransactionRow) []entity.TransactionRow {
	seen := make(map[string]struct{}, len(rows))
	out := make([]entity.TransactionRow, 0, len(rows))
	var duplicates, failed, missing int

	for _, row := range rows {
		if _, dup := seen[row.Signature]; dup {
			duplicates++
			continue
		}
		seen[row.Signature] = struct{}{}

		if row.TxStatus != entity.TxStatusSuccess {
			failed++
			continue
		}
		if row.Sender == "" || row.Receiver == "" {
			missing++
			continue
		}

		row.TokenAmount = finite(row.TokenAmount)
		row.NativeAmount = finite(row.NativeAmount)
		row.PreBalance = finite(row.PreBalance)
		row.PostBalance = finite(row.PostBalance)
		row.TxFee = finite(row.TxFee)
		out = append(out, row)
	}

	s.metrics.RecordDropped(dropDuplicate, duplicates)
	s.metrics.RecordDropped(dropStatus, failed)
	s.metrics.RecordDropped(dropEndpoint, missing)

	if dropped := duplicates + failed + missing; dropped > 0 {
		s.logger.Debug("Cleaned transaction rows",
			zap.Int("kept", len(out)),
			zap.Int("duplicates", duplicates),
			zap.Int("failed", failed),
			zap.Int("missing_endpoint", missing))
	}

	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
