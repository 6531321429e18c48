package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
)

type recordingPublisher struct {
	mu      sync.Mutex
	results []*entity.AnalysisResult
	err     error
}

func (p *recordingPublisher) PublishResult(ctx context.Context, result *entity.AnalysisResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return p.err
}

func (p *recordingPublisher) requestIDs() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make(map[string]bool, len(p.results))
	for _, r := range p.results {
		ids[r.RequestID] = true
	}
	return ids
}

func TestRequestProcessor_ProcessesUntilChannelCloses(t *testing.T) {
	publisher := &recordingPublisher{}
	processor := NewRequestProcessor(newTestService(nil), publisher, 3, time.Minute, logger.NewNop())

	requests := make(chan *entity.AnalysisRequest, 10)
	requests <- &entity.AnalysisRequest{RequestID: "r1", Address: subject, Rows: scenarioRows()}
	requests <- nil
	requests <- &entity.AnalysisRequest{RequestID: "r2", Address: "bad"}
	requests <- &entity.AnalysisRequest{RequestID: "r3", Address: subject}
	close(requests)

	processor.Run(context.Background(), requests)

	assert.Equal(t, map[string]bool{"r1": true, "r3": true}, publisher.requestIDs())
}

func TestRequestProcessor_StopsOnContextCancel(t *testing.T) {
	processor := NewRequestProcessor(newTestService(nil), &recordingPublisher{}, 0, 0, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		processor.Run(ctx, make(chan *entity.AnalysisRequest))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "processor did not stop after cancel")
	}
}

func TestRequestProcessor_PublishErrorDoesNotStop(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("nats down")}
	processor := NewRequestProcessor(newTestService(nil), publisher, 1, 0, logger.NewNop())

	requests := make(chan *entity.AnalysisRequest, 2)
	requests <- &entity.AnalysisRequest{RequestID: "r1", Address: subject}
	requests <- &entity.AnalysisRequest{RequestID: "r2", Address: subject}
	close(requests)

	processor.Run(context.Background(), requests)

	assert.Len(t, publisher.requestIDs(), 2)
}
