package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	fetchBatchSize = 10
	fetchMaxWait   = 5 * time.Second
	drainWait      = 10 * time.Second
)

// ErrNotConnected is returned when publishing without a live connection
var ErrNotConnected = errors.New("nats: not connected")

// NATSConsumer receives analysis requests and publishes analysis results
type NATSConsumer struct {
	// mu guards conn, js, sub, closed and stopFetch
	mu        sync.RWMutex
	conn      *nats.Conn
	js        nats.JetStreamContext
	sub       *nats.Subscription
	closed    chan struct{}
	stopFetch context.CancelFunc
	fetchers  sync.WaitGroup

	config  *config.NATSConfig
	logger  *logger.Logger
	msgChan chan *entity.AnalysisRequest

	// chanMu serializes sends on msgChan with its close
	chanMu     sync.RWMutex
	chanClosed bool

	isRunning atomic.Bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		msgChan: make(chan *entity.AnalysisRequest, cfg.MaxPendingMessages),
	}
}

// RequestSubject is the subject analysis requests arrive on
func (n *NATSConsumer) RequestSubject() string {
	return fmt.Sprintf("%s.requests", n.config.SubjectPrefix)
}

// ResultSubject is the subject analysis results are published to
func (n *NATSConsumer) ResultSubject() string {
	return fmt.Sprintf("%s.results", n.config.SubjectPrefix)
}

// Connect connects to NATS server and sets up the request subscription
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	closed := make(chan struct{})

	opts := []nats.Option{
		nats.Name("wallet-cluster-analyzer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
			close(closed)
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.closed = closed
	n.mu.Unlock()

	// Try JetStream first, if not available fall back to core NATS
	js, err := conn.JetStream()
	if err != nil {
		n.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription(conn)
	}

	n.mu.Lock()
	n.js = js
	n.mu.Unlock()
	return n.setupJetStreamSubscription(conn, js)
}

// setupJetStreamSubscription binds a durable pull consumer on the request stream
func (n *NATSConsumer) setupJetStreamSubscription(conn *nats.Conn, js nats.JetStreamContext) error {
	subject := n.RequestSubject()
	durable := n.config.ConsumerGroup

	n.logger.Info("Setting up JetStream subscription",
		zap.String("subject", subject),
		zap.String("stream", n.config.StreamName),
		zap.String("consumer", durable))

	sub, err := js.PullSubscribe(subject, durable, nats.BindStream(n.config.StreamName))
	if err != nil {
		n.logger.Warn("Failed to create pull consumer, falling back to core NATS", zap.Error(err))
		return n.setupCoreNATSSubscription(conn)
	}

	fetchCtx, stopFetch := context.WithCancel(context.Background())

	n.mu.Lock()
	n.sub = sub
	n.stopFetch = stopFetch
	n.mu.Unlock()
	n.isRunning.Store(true)

	n.fetchers.Add(1)
	go n.processJetStreamMessages(fetchCtx, sub)

	n.logger.Info("Subscribed to JetStream requests", zap.String("subject", subject))
	return nil
}

// processJetStreamMessages fetches request batches until ctx is cancelled
func (n *NATSConsumer) processJetStreamMessages(ctx context.Context, sub *nats.Subscription) {
	defer n.fetchers.Done()
	n.logger.Info("Starting JetStream message processing")

	for ctx.Err() == nil {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchMaxWait)
		msgs, err := sub.Fetch(fetchBatchSize, nats.Context(fetchCtx))
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			n.logger.Error("Failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			n.handleMessage(msg)
		}
	}

	n.logger.Info("Stopped JetStream message processing")
}

// setupCoreNATSSubscription sets up a core NATS queue subscription
func (n *NATSConsumer) setupCoreNATSSubscription(conn *nats.Conn) error {
	subject := n.RequestSubject()
	queueGroup := n.config.ConsumerGroup

	n.logger.Info("Setting up core NATS subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	sub, err := conn.QueueSubscribe(subject, queueGroup, n.handleMessage)
	if err != nil {
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.mu.Lock()
	n.sub = sub
	n.mu.Unlock()
	n.isRunning.Store(true)

	n.logger.Info("Subscribed to core NATS requests",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	return nil
}

// DecodeRequest parses an analysis request and assigns a request id when it has none
func DecodeRequest(data []byte) (*entity.AnalysisRequest, error) {
	var req entity.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return &req, nil
}

// handleMessage decodes a request and queues it for the workers. Requests arriving after
// the channel is closed are nak'ed.
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	req, err := DecodeRequest(msg.Data)
	if err != nil {
		n.logger.Error("Dropping malformed request", zap.Error(err))
		// a malformed payload never becomes valid, so it is acked away
		if msg.Reply != "" {
			_ = msg.Ack()
		}
		return
	}

	n.chanMu.RLock()
	defer n.chanMu.RUnlock()

	if n.chanClosed {
		n.logger.Warn("Consumer stopped, rejecting request", zap.String("request_id", req.RequestID))
		if msg.Reply != "" {
			_ = msg.Nak()
		}
		return
	}

	select {
	case n.msgChan <- req:
		n.logger.Debug("Queued analysis request",
			zap.String("request_id", req.RequestID),
			zap.String("address", req.Address),
			zap.Int("rows", len(req.Rows)))
		if msg.Reply != "" {
			_ = msg.Ack()
		}
	default:
		n.logger.Warn("Request channel is full, dropping message",
			zap.String("request_id", req.RequestID))
		if msg.Reply != "" {
			_ = msg.Nak()
		}
	}
}

// PublishResult publishes an analysis result as JSON
func (n *NATSConsumer) PublishResult(ctx context.Context, result *entity.AnalysisResult) error {
	n.mu.RLock()
	conn, js := n.conn, n.js
	n.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis result: %w", err)
	}

	if js != nil {
		_, err := js.Publish(n.ResultSubject(), data, nats.Context(ctx))
		if err == nil {
			return nil
		}
		n.logger.Debug("JetStream publish failed, using core publish", zap.Error(err))
	}

	if err := conn.Publish(n.ResultSubject(), data); err != nil {
		return fmt.Errorf("failed to publish analysis result: %w", err)
	}
	return nil
}

// Disconnect stops the fetch loop, drains the connection and closes the request channel.
// It is safe to call more than once.
func (n *NATSConsumer) Disconnect() error {
	n.isRunning.Store(false)

	n.mu.Lock()
	conn, sub, closed, stopFetch := n.conn, n.sub, n.closed, n.stopFetch
	n.conn, n.js, n.sub, n.stopFetch = nil, nil, nil, nil
	n.mu.Unlock()

	if stopFetch != nil {
		stopFetch()
	}
	n.fetchers.Wait()

	if sub != nil {
		_ = sub.Unsubscribe()
	}
	if conn != nil {
		if err := conn.Drain(); err != nil {
			n.logger.Warn("Failed to drain NATS connection", zap.Error(err))
			conn.Close()
		}
		select {
		case <-closed:
		case <-time.After(drainWait):
			n.logger.Warn("Timed out draining NATS connection")
			conn.Close()
		}
	}

	n.closeRequests()
	n.logger.Info("Disconnected from NATS")
	return nil
}

func (n *NATSConsumer) closeRequests() {
	n.chanMu.Lock()
	defer n.chanMu.Unlock()
	if !n.chanClosed {
		n.chanClosed = true
		close(n.msgChan)
	}
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	n.mu.RLock()
	conn := n.conn
	n.mu.RUnlock()
	return n.isRunning.Load() && conn != nil && conn.IsConnected()
}

// GetMessageChannel returns the request channel
func (n *NATSConsumer) GetMessageChannel() <-chan *entity.AnalysisRequest {
	return n.msgChan
}
