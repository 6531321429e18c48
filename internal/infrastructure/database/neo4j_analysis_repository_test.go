package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
)

func TestChunk(t *testing.T) {
	items := make([]map[string]any, 5)
	for i := range items {
		items[i] = map[string]any{"i": i}
	}

	batches := chunk(items, 2)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[2], 1)
	assert.Equal(t, 4, batches[2][0]["i"])
	assert.Empty(t, chunk(nil, 2))
}

func TestWalletAndTransferParams(t *testing.T) {
	g := entity.NewGraph()
	g.AddNode(&entity.Node{ID: "A", Label: "Coinbase", Type: entity.NodeTypeSender, PreBalance: 1, PostBalance: 2})
	g.AddNode(&entity.Node{ID: "B", Label: "B", Type: entity.NodeTypeReceiver})
	g.AddEdge(entity.Edge{Source: "A", Target: "B", Amount: 3, Signature: "s1", Timestamp: "2024-05-01T00:00:00Z"})

	wallets := walletParams(g, "2024-05-01T00:00:00.000Z")
	require.Len(t, wallets, 2)
	assert.Equal(t, "A", wallets[0]["address"])
	assert.Equal(t, "Coinbase", wallets[0]["label"])
	assert.Equal(t, 2.0, wallets[0]["post_balance"])
	assert.Equal(t, "2024-05-01T00:00:00.000Z", wallets[1]["updated_at"])

	transfers := transferParams(g)
	require.Len(t, transfers, 1)
	assert.Equal(t, "s1", transfers[0]["signature"])
	assert.Equal(t, 3.0, transfers[0]["amount"])
}

func TestClusterParamsRoundTrip(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	report := entity.ClusterReport{
		ClusterID:         2,
		Wallets:           []string{"A", "B"},
		TotalTransactions: 4,
		ClusterStartTime:  start,
		ClusterEndTime:    start.Add(time.Hour),
		ClusterSize:       2,
		ClusterType:       entity.ClusterTypeMixed,
		AvgDegree:         2,
		Density:           2,
		CentralWallets:    []string{"A", "B"},
		Protocols:         []string{"Jupiter"},
		RiskFlags:         []entity.RiskFlag{entity.RiskFlagDenseSmallCluster},
		Unusual:           true,
	}

	params := clusterParams("subject", []entity.ClusterReport{report})
	require.Len(t, params, 1)
	p := params[0]
	assert.Equal(t, "subject", p["subject"])
	assert.Equal(t, int64(2), p["cluster_id"])
	assert.Equal(t, []string{"Dense Small Cluster"}, p["risk_flags"])

	// values as the driver returns them
	values := []any{
		p["cluster_id"],
		toAnyList(report.Wallets),
		p["total_transactions"],
		p["start_time"],
		p["end_time"],
		p["size"],
		p["cluster_type"],
		p["avg_degree"],
		p["density"],
		toAnyList(report.CentralWallets),
		toAnyList(report.Protocols),
		toAnyList([]string{"Dense Small Cluster"}),
		p["unusual"],
	}

	assert.Equal(t, report, clusterFromValues(values))
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
