package database

import (
	"context"
	"fmt"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
	"wallet-cluster-analyzer/internal/domain/repository"
	"wallet-cluster-analyzer/internal/infrastructure/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const neo4jTimeLayout = "2006-01-02T15:04:05.000Z"

const mergeWalletsQuery = `
	UNWIND $wallets AS w
	MERGE (n:Wallet {address: w.address})
	SET n.label = w.label,
		n.entity = w.entity,
		n.node_type = w.node_type,
		n.pre_balance = w.pre_balance,
		n.post_balance = w.post_balance,
		n.net_balance_change = w.net_balance_change,
		n.native_amount = w.native_amount,
		n.updated_at = datetime(w.updated_at)
`

const mergeTransfersQuery = `
	UNWIND $transfers AS t
	MATCH (from:Wallet {address: t.source})
	MATCH (to:Wallet {address: t.target})
	MERGE (from)-[r:TRANSFERRED {signature: t.signature, source: t.source, target: t.target}]->(to)
	SET r.amount = t.amount,
		r.symbol = t.symbol,
		r.token = t.token,
		r.program = t.program,
		r.tx_type = t.tx_type,
		r.timestamp = t.timestamp
`

const mergeClustersQuery = `
	UNWIND $clusters AS c
	MERGE (cl:Cluster {subject: c.subject, cluster_id: c.cluster_id})
	SET cl.size = c.size,
		cl.total_transactions = c.total_transactions,
		cl.start_time = c.start_time,
		cl.end_time = c.end_time,
		cl.cluster_type = c.cluster_type,
		cl.avg_degree = c.avg_degree,
		cl.density = c.density,
		cl.central_wallets = c.central_wallets,
		cl.protocols = c.protocols,
		cl.risk_flags = c.risk_flags,
		cl.unusual = c.unusual,
		cl.wallets = c.wallets
	WITH cl, c
	UNWIND c.wallets AS address
	MATCH (w:Wallet {address: address})
	MERGE (w)-[:MEMBER_OF]->(cl)
`

const clearClustersQuery = `
	MATCH (cl:Cluster {subject: $subject})
	DETACH DELETE cl
`

const getClustersQuery = `
	MATCH (cl:Cluster {subject: $subject})
	RETURN cl.cluster_id, cl.wallets, cl.total_transactions, cl.start_time, cl.end_time,
		cl.size, cl.cluster_type, cl.avg_degree, cl.density, cl.central_wallets,
		cl.protocols, cl.risk_flags, cl.unusual
	ORDER BY cl.cluster_id
`

// Neo4JAnalysisRepository implements AnalysisRepository on a Neo4J graph
type Neo4JAnalysisRepository struct {
	client    *Neo4JClient
	logger    *logger.Logger
	batchSize int
}

// NewNeo4JAnalysisRepository creates a new Neo4J analysis repository
func NewNeo4JAnalysisRepository(client *Neo4JClient, batchSize int, logger *logger.Logger) repository.AnalysisRepository {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Neo4JAnalysisRepository{
		client:    client,
		logger:    logger.WithComponent("neo4j-analysis-repo"),
		batchSize: batchSize,
	}
}

// SaveAnalysis merges the wallets, transfers and clusters of a result.
// Clusters of the same subject from earlier runs are replaced.
func (r *Neo4JAnalysisRepository) SaveAnalysis(ctx context.Context, result *entity.AnalysisResult) error {
	if result == nil || result.Graph == nil {
		return nil
	}

	session := r.client.GetDriver().NewSession(ctx, r.client.SessionConfig())
	defer session.Close(ctx)

	updatedAt := result.CompletedAt.UTC().Format(neo4jTimeLayout)

	for _, batch := range chunk(walletParams(result.Graph, updatedAt), r.batchSize) {
		if err := r.run(ctx, session, mergeWalletsQuery, map[string]any{"wallets": batch}); err != nil {
			return fmt.Errorf("failed to merge wallets: %w", err)
		}
	}

	for _, batch := range chunk(transferParams(result.Graph), r.batchSize) {
		if err := r.run(ctx, session, mergeTransfersQuery, map[string]any{"transfers": batch}); err != nil {
			return fmt.Errorf("failed to merge transfers: %w", err)
		}
	}

	if err := r.run(ctx, session, clearClustersQuery, map[string]any{"subject": result.Address}); err != nil {
		return fmt.Errorf("failed to clear clusters: %w", err)
	}
	for _, batch := range chunk(clusterParams(result.Address, result.Clusters), r.batchSize) {
		if err := r.run(ctx, session, mergeClustersQuery, map[string]any{"clusters": batch}); err != nil {
			return fmt.Errorf("failed to merge clusters: %w", err)
		}
	}

	r.logger.Debug("Saved analysis",
		zap.String("request_id", result.RequestID),
		zap.Int("wallets", result.Graph.NodeCount()),
		zap.Int("transfers", result.Graph.EdgeCount()),
		zap.Int("clusters", len(result.Clusters)))

	return nil
}

func (r *Neo4JAnalysisRepository) run(ctx context.Context, session neo4j.SessionWithContext, query string, params map[string]any) error {
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// GetClusters returns the stored clusters of a subject wallet ordered by id
func (r *Neo4JAnalysisRepository) GetClusters(ctx context.Context, address string) ([]entity.ClusterReport, error) {
	session := r.client.GetDriver().NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: r.client.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, getClustersQuery, map[string]any{"subject": address})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		clusters := make([]entity.ClusterReport, 0, len(records))
		for _, rec := range records {
			clusters = append(clusters, clusterFromValues(rec.Values))
		}
		return clusters, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get clusters: %w", err)
	}

	return out.([]entity.ClusterReport), nil
}

func walletParams(g *entity.Graph, updatedAt string) []map[string]any {
	params := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		params = append(params, map[string]any{
			"address":            n.ID,
			"label":              n.Label,
			"entity":             n.Entity,
			"node_type":          n.Type,
			"pre_balance":        n.PreBalance,
			"post_balance":       n.PostBalance,
			"net_balance_change": n.NetBalanceChange,
			"native_amount":      n.NativeAmount,
			"updated_at":         updatedAt,
		})
	}
	return params
}

func transferParams(g *entity.Graph) []map[string]any {
	params := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		params = append(params, map[string]any{
			"source":    e.Source,
			"target":    e.Target,
			"signature": e.Signature,
			"amount":    e.Amount,
			"symbol":    e.Symbol,
			"token":     e.Token,
			"program":   e.Program,
			"tx_type":   e.TxType,
			"timestamp": e.Timestamp,
		})
	}
	return params
}

func clusterParams(subject string, clusters []entity.ClusterReport) []map[string]any {
	params := make([]map[string]any, 0, len(clusters))
	for _, c := range clusters {
		flags := make([]string, len(c.RiskFlags))
		for i, f := range c.RiskFlags {
			flags[i] = string(f)
		}
		params = append(params, map[string]any{
			"subject":            subject,
			"cluster_id":         int64(c.ClusterID),
			"wallets":            c.Wallets,
			"size":               int64(c.ClusterSize),
			"total_transactions": int64(c.TotalTransactions),
			"start_time":         c.ClusterStartTime.UTC().Format(time.RFC3339),
			"end_time":           c.ClusterEndTime.UTC().Format(time.RFC3339),
			"cluster_type":       c.ClusterType,
			"avg_degree":         c.AvgDegree,
			"density":            c.Density,
			"central_wallets":    c.CentralWallets,
			"protocols":          c.Protocols,
			"risk_flags":         flags,
			"unusual":            c.Unusual,
		})
	}
	return params
}

func clusterFromValues(values []any) entity.ClusterReport {
	c := entity.ClusterReport{
		ClusterID:         int(asInt64(values[0])),
		Wallets:           asStrings(values[1]),
		TotalTransactions: int(asInt64(values[2])),
		ClusterStartTime:  asTime(values[3]),
		ClusterEndTime:    asTime(values[4]),
		ClusterSize:       int(asInt64(values[5])),
		ClusterType:       asString(values[6]),
		AvgDegree:         asFloat64(values[7]),
		Density:           asFloat64(values[8]),
		CentralWallets:    asStrings(values[9]),
		Protocols:         asStrings(values[10]),
	}
	for _, f := range asStrings(values[11]) {
		c.RiskFlags = append(c.RiskFlags, entity.RiskFlag(f))
	}
	c.Unusual, _ = values[12].(bool)
	return c
}

func chunk(items []map[string]any, size int) [][]map[string]any {
	var out [][]map[string]any
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func asInt64(v any) int64 {
	i, _ := v.(int64)
	return i
}

func asFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asTime(v any) time.Time {
	t, _ := time.Parse(time.RFC3339, asString(v))
	return t
}

func asStrings(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
