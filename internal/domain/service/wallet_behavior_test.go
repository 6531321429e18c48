package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-cluster-analyzer/internal/domain/entity"
)

func namedRows(rows []entity.TransactionRow, receiverName func(i int) string) []entity.LabeledRow {
	out := labeled(rows...)
	for i := range out {
		out[i].SenderName = entity.UnknownAddress
		out[i].ReceiverName = receiverName(i)
	}
	return out
}

func TestWalletBehaviorAggregator_SentAndReceived(t *testing.T) {
	rows := labeled(
		transfer("s1", "A", "B", 0),
		transfer("s2", "A", "C", 1),
		transfer("s3", "B", "A", 2),
	)
	rows[0].ReceiverName = "Bob"
	rows[1].ReceiverName = "Carol"
	rows[2].Direction = entity.DirectionReceived
	rows[2].ReceiverName = "Alice"
	rows[2].TokenAmount = 2.5

	t.Run("sender grouping", func(t *testing.T) {
		agg := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), entity.GroupBySender)
		stats := agg.Aggregate(rows)

		require.Len(t, stats, 2)
		assert.Equal(t, entity.WalletStats{
			WalletAddress:   "A",
			TotalSent:       2,
			SentTxCount:     2,
			UniqueReceivers: 2,
			EntityLabel:     entity.BehaviorNormalUser,
		}, stats[0])
		assert.Equal(t, entity.WalletStats{
			WalletAddress:   "B",
			TotalReceived:   2.5,
			ReceivedTxCount: 1,
			UniqueSenders:   1,
			EntityLabel:     entity.BehaviorNormalUser,
		}, stats[1])
	})

	t.Run("receiver grouping", func(t *testing.T) {
		rows := append([]entity.LabeledRow(nil), rows...)
		rows[2].SenderName = "Bob"
		agg := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), entity.GroupByReceiver)
		stats := agg.Aggregate(rows)

		require.Len(t, stats, 1)
		assert.Equal(t, "A", stats[0].WalletAddress)
		assert.Equal(t, int64(2), stats[0].SentTxCount)
		assert.Equal(t, int64(1), stats[0].ReceivedTxCount)
		assert.Equal(t, 2.5, stats[0].TotalReceived)
	})
}

func TestWalletBehaviorAggregator_IgnoresUnknownDirectionAndEmptyKeys(t *testing.T) {
	rows := labeled(
		transfer("s1", "A", "B", 0),
		transfer("s2", "", "B", 1),
		transfer("s3", "C", "B", 2),
	)
	rows[2].Direction = "swap"

	stats := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), "").Aggregate(rows)

	require.Len(t, stats, 1)
	assert.Equal(t, "A", stats[0].WalletAddress)
}

func TestWalletBehaviorAggregator_CountsDistinctNames(t *testing.T) {
	rows := labeled(
		transfer("s1", "A", "B", 0),
		transfer("s2", "A", "C", 1),
		transfer("s3", "A", "D", 2),
	)
	// two distinct receivers share the unknown sentinel
	rows[0].ReceiverName = entity.UnknownAddress
	rows[1].ReceiverName = entity.UnknownAddress
	rows[2].ReceiverName = "Binance"

	stats := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), entity.GroupBySender).Aggregate(rows)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].UniqueReceivers)
}

func TestWalletBehaviorAggregator_Labels(t *testing.T) {
	agg := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), entity.GroupBySender)

	tests := []struct {
		name  string
		stats entity.WalletStats
		want  entity.BehaviorLabel
	}{
		{
			name:  "exchange",
			stats: entity.WalletStats{SentTxCount: 101, ReceivedTxCount: 101, UniqueReceivers: 30, UniqueSenders: 21},
			want:  entity.BehaviorExchange,
		},
		{
			name:  "busy exchange hot wallet",
			stats: entity.WalletStats{SentTxCount: 150, ReceivedTxCount: 120, UniqueSenders: 30, UniqueReceivers: 40},
			want:  entity.BehaviorExchange,
		},
		{
			name:  "exchange needs counterparties",
			stats: entity.WalletStats{SentTxCount: 101, ReceivedTxCount: 101, UniqueReceivers: 25, UniqueSenders: 25},
			want:  entity.BehaviorSuspicious,
		},
		{
			name:  "project wallet",
			stats: entity.WalletStats{SentTxCount: 51, ReceivedTxCount: 9, UniqueReceivers: 31},
			want:  entity.BehaviorProjectWallet,
		},
		{
			name:  "project wallet bounds are strict",
			stats: entity.WalletStats{SentTxCount: 50, ReceivedTxCount: 9, UniqueReceivers: 31},
			want:  entity.BehaviorNormalUser,
		},
		{
			name:  "suspicious dust",
			stats: entity.WalletStats{SentTxCount: 11, ReceivedTxCount: 11, TotalSent: 0.001},
			want:  entity.BehaviorSuspicious,
		},
		{
			name:  "active but not dust",
			stats: entity.WalletStats{SentTxCount: 11, ReceivedTxCount: 11, TotalSent: 0.01},
			want:  entity.BehaviorNormalUser,
		},
		{
			name:  "empty stats",
			stats: entity.WalletStats{},
			want:  entity.BehaviorNormalUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, agg.LabelEntity(tt.stats))
		})
	}
}

func TestWalletBehaviorAggregator_ProjectWalletFromRows(t *testing.T) {
	var rows []entity.TransactionRow
	for i := 0; i < 51; i++ {
		rows = append(rows, transfer(fmt.Sprintf("s%d", i), "P", fmt.Sprintf("R%d", i), i))
	}
	labeledRows := namedRows(rows, func(i int) string { return fmt.Sprintf("Holder %d", i) })

	stats := NewWalletBehaviorAggregator(DefaultBehaviorThresholds(), entity.GroupBySender).Aggregate(labeledRows)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(51), stats[0].UniqueReceivers)
	assert.Equal(t, entity.BehaviorProjectWallet, stats[0].EntityLabel)
}

func TestStatsByWallet(t *testing.T) {
	byWallet := StatsByWallet([]entity.WalletStats{{WalletAddress: "A"}, {WalletAddress: "B"}})

	assert.Len(t, byWallet, 2)
	assert.Equal(t, "B", byWallet["B"].WalletAddress)
}
