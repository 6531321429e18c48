package service

import (
	"context"
	"sync"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/service"
	"wallet-cluster-analyzer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// ResultPublisher delivers finished analysis results
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *entity.AnalysisResult) error
}

// RequestProcessor fans analysis requests out to a fixed worker pool
type RequestProcessor struct {
	analysis  service.AnalysisService
	publisher ResultPublisher
	workers   int
	timeout   time.Duration
	logger    *logger.Logger
}

// NewRequestProcessor creates a processor. A zero timeout leaves runs unbounded.
func NewRequestProcessor(
	analysis service.AnalysisService,
	publisher ResultPublisher,
	workers int,
	timeout time.Duration,
	logger *logger.Logger,
) *RequestProcessor {
	if workers < 1 {
		workers = 1
	}
	return &RequestProcessor{
		analysis:  analysis,
		publisher: publisher,
		workers:   workers,
		timeout:   timeout,
		logger:    logger.WithComponent("request-processor"),
	}
}

// Run consumes requests until ctx is done or the channel closes, then waits for
// in-flight runs to finish.
func (p *RequestProcessor) Run(ctx context.Context, requests <-chan *entity.AnalysisRequest) {
	jobs := make(chan *entity.AnalysisRequest, p.workers)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for req := range jobs {
				p.handle(ctx, workerID, req)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if req == nil {
				continue
			}
			select {
			case jobs <- req:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *RequestProcessor) handle(ctx context.Context, workerID int, req *entity.AnalysisRequest) {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, err := p.analysis.Analyze(runCtx, req)
	if err != nil {
		p.logger.Error("Analysis failed",
			zap.Int("worker_id", workerID),
			zap.String("request_id", req.RequestID),
			zap.String("address", req.Address),
			zap.Error(err))
		return
	}

	if err := p.publisher.PublishResult(runCtx, result); err != nil {
		p.logger.Error("Failed to publish result",
			zap.Int("worker_id", workerID),
			zap.String("request_id", result.RequestID),
			zap.Error(err))
	}
}
