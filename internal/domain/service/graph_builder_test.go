package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
)

func TestBuildGraph(t *testing.T) {
	rows := labeled(
		transfer("s1", "Alice1234", "Binance9", 0),
		transfer("s2", "Alice1234", "Bob", 5),
		transfer("s2", "Binance9", "Alice1234", 10),
	)
	rows[0].SenderName = entity.UnknownAddress
	rows[0].ReceiverName = "Binance"
	rows[0].WalletEntityLabel = "Subject Label"
	rows[0].PreBalance, rows[0].PostBalance = 10, 8
	rows[0].NativeAmount = 2
	rows[0].ProgramName = "System Program"
	rows[1].SenderName = ""
	rows[1].PreBalance, rows[1].PostBalance = 8, 7
	rows[1].NativeAmount = 1
	rows[2].PreBalance, rows[2].PostBalance = 5, 12
	rows[2].TokenAmount = 7
	rows[2].Symbol = "USDC"

	g := BuildGraph(rows)

	require.Equal(t, 3, g.NodeCount())
	require.Equal(t, 3, g.EdgeCount(), "duplicate signatures still produce one edge per row")

	alice := g.Node("Alice1234")
	require.NotNil(t, alice)
	assert.Equal(t, "Alice1", alice.Label)
	assert.Equal(t, entity.NodeTypeSender, alice.Type)
	assert.Equal(t, "Subject Label", alice.Entity)
	assert.Equal(t, 5.0, alice.PreBalance)
	assert.Equal(t, 12.0, alice.PostBalance)
	assert.InDelta(t, -2-1+7, alice.NetBalanceChange, 1e-9)
	assert.InDelta(t, 3, alice.NativeAmount, 1e-9)

	binance := g.Node("Binance9")
	require.NotNil(t, binance)
	assert.Equal(t, "Binance", binance.Label)
	assert.Equal(t, entity.NodeTypeReceiver, binance.Type)

	bob := g.Node("Bob")
	require.NotNil(t, bob)
	assert.Equal(t, "Bob", bob.Label)

	assert.Equal(t, []string{"Alice1234", "Binance9", "Bob"},
		[]string{g.Nodes[0].ID, g.Nodes[1].ID, g.Nodes[2].ID})

	first := g.Edges[0]
	assert.Equal(t, "Alice1234", first.Source)
	assert.Equal(t, "Binance9", first.Target)
	assert.Equal(t, 2.0, first.Amount, "native amount is preferred")
	assert.Equal(t, "System Program", first.Program)
	assert.Equal(t, "2024-03-01T12:00:00Z", first.Timestamp)

	last := g.Edges[2]
	assert.Equal(t, 7.0, last.Amount, "token amount when no native moved")
	assert.Equal(t, "USDC", last.Symbol)
	assert.Equal(t, "s2", last.Signature)
}

func TestBuildGraph_Empty(t *testing.T) {
	g := BuildGraph(nil)

	assert.Zero(t, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
}

func TestBuildGraph_SelfTransfer(t *testing.T) {
	g := BuildGraph(labeled(transfer("s1", "A", "A", 0)))

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}
