package service

import (
	"math"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// BuildGraph converts labeled rows into a wallet interaction graph.
// Each row adds exactly one edge; no signature deduplication happens here.
// A wallet seen more than once keeps the lowest pre-balance, the highest post-balance
// and the running sums of net balance change and native amount.
func BuildGraph(rows []entity.LabeledRow) *entity.Graph {
	g := entity.NewGraph()

	for _, row := range rows {
		netChange := row.PostBalance - row.PreBalance

		upsertNode(g, row.Sender, row.SenderName, entity.NodeTypeSender, row, netChange)
		upsertNode(g, row.Receiver, row.ReceiverName, entity.NodeTypeReceiver, row, netChange)

		g.AddEdge(entity.Edge{
			Source:    row.Sender,
			Target:    row.Receiver,
			Amount:    row.TransferAmount(),
			Symbol:    row.Symbol,
			Token:     row.TokenName,
			Timestamp: FormatTimestamp(row.Timestamp),
			TxType:    row.TxType,
			Program:   row.ProgramName,
			Signature: row.Signature,
		})
	}

	return g
}

func upsertNode(g *entity.Graph, id, name, nodeType string, row entity.LabeledRow, netChange float64) {
	if n := g.Node(id); n != nil {
		n.PreBalance = math.Min(n.PreBalance, row.PreBalance)
		n.PostBalance = math.Max(n.PostBalance, row.PostBalance)
		n.NetBalanceChange += netChange
		n.NativeAmount += row.NativeAmount
		return
	}

	label := name
	if label == "" || label == entity.UnknownAddress {
		label = entity.ShortAddress(id)
	}

	g.AddNode(&entity.Node{
		ID:               id,
		Label:            label,
		Entity:           row.WalletEntityLabel,
		Type:             nodeType,
		PreBalance:       row.PreBalance,
		PostBalance:      row.PostBalance,
		NetBalanceChange: netChange,
		NativeAmount:     row.NativeAmount,
	})
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
