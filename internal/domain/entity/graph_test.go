package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph()

	assert.True(t, g.AddNode(&Node{ID: "a", Label: "first"}))
	assert.False(t, g.AddNode(&Node{ID: "a", Label: "second"}))
	assert.True(t, g.AddNode(&Node{ID: "b"}))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, "first", g.Node("a").Label)
	assert.Nil(t, g.Node("missing"))
}

func TestGraph_DecodedLookup(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{ID: "a"})
	g.AddNode(&Node{ID: "b"})
	g.AddEdge(Edge{Source: "a", Target: "b", Signature: "s1"})

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded Graph
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.NotNil(t, decoded.Node("b"))
	assert.False(t, decoded.AddNode(&Node{ID: "a"}))
	assert.True(t, decoded.AddNode(&Node{ID: "c"}))
	assert.Equal(t, 3, decoded.NodeCount())
	assert.Equal(t, 1, decoded.EdgeCount())
}

func TestGraph_Nil(t *testing.T) {
	var g *Graph

	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
	assert.Nil(t, g.Node("a"))
}

func TestTransactionRow_TransferAmount(t *testing.T) {
	assert.Equal(t, 2.0, TransactionRow{NativeAmount: 2, TokenAmount: 5}.TransferAmount())
	assert.Equal(t, 5.0, TransactionRow{TokenAmount: 5}.TransferAmount())
}

func TestAnalysisResult_FlaggedClusters(t *testing.T) {
	r := &AnalysisResult{Clusters: []ClusterReport{
		{ClusterID: 1, RiskFlags: []RiskFlag{RiskFlagNormal}},
		{ClusterID: 2, RiskFlags: []RiskFlag{RiskFlagHighTxRate}, Unusual: true},
	}}

	flagged := r.FlaggedClusters()
	require.Len(t, flagged, 1)
	assert.Equal(t, 2, flagged[0].ClusterID)
	assert.True(t, flagged[0].HasFlag(RiskFlagHighTxRate))
	assert.False(t, flagged[0].HasFlag(RiskFlagNormal))
}

func TestCategory_IsValid(t *testing.T) {
	for _, c := range CategoryPriority {
		assert.True(t, c.IsValid())
	}
	assert.True(t, CategoryOther.IsValid())
	assert.False(t, Category("Gaming").IsValid())
}
