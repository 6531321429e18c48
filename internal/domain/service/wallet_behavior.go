package service

import (
	"sort"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// BehaviorThresholds are the cut-offs of the behavioral decision list
type BehaviorThresholds struct {
	ExchangeMinSent           int64   `mapstructure:"exchange_min_sent"`
	ExchangeMinReceived       int64   `mapstructure:"exchange_min_received"`
	ExchangeMinCounterparties int64   `mapstructure:"exchange_min_counterparties"`
	ProjectMinSent            int64   `mapstructure:"project_min_sent"`
	ProjectMaxReceived        int64   `mapstructure:"project_max_received"`
	ProjectMinReceivers       int64   `mapstructure:"project_min_receivers"`
	SuspiciousMinSent         int64   `mapstructure:"suspicious_min_sent"`
	SuspiciousMinReceived     int64   `mapstructure:"suspicious_min_received"`
	SuspiciousMaxTotalSent    float64 `mapstructure:"suspicious_max_total_sent"`
}

// DefaultBehaviorThresholds returns the standard decision-list cut-offs
func DefaultBehaviorThresholds() BehaviorThresholds {
	return BehaviorThresholds{
		ExchangeMinSent:           100,
		ExchangeMinReceived:       100,
		ExchangeMinCounterparties: 50,
		ProjectMinSent:            50,
		ProjectMaxReceived:        10,
		ProjectMinReceivers:       30,
		SuspiciousMinSent:         10,
		SuspiciousMinReceived:     10,
		SuspiciousMaxTotalSent:    0.01,
	}
}

// WalletBehaviorAggregator groups labeled rows into per-wallet statistics
type WalletBehaviorAggregator struct {
	thresholds  BehaviorThresholds
	receivedKey entity.GroupKey
}

// NewWalletBehaviorAggregator creates an aggregator. receivedKey selects the field that keys
// received-direction rows; an empty value keeps the sender grouping.
func NewWalletBehaviorAggregator(thresholds BehaviorThresholds, receivedKey entity.GroupKey) *WalletBehaviorAggregator {
	if receivedKey != entity.GroupByReceiver {
		receivedKey = entity.GroupBySender
	}
	return &WalletBehaviorAggregator{
		thresholds:  thresholds,
		receivedKey: receivedKey,
	}
}

type sideAggregate struct {
	total  float64
	count  int64
	unique map[string]struct{}
}

// Aggregate computes one WalletStats per grouped wallet, sorted by wallet address.
// Sent rows are keyed by sender and count distinct receiver names. Received rows are keyed
// by the configured field; with sender grouping they count distinct receiver names, with
// receiver grouping distinct sender names. Rows with any other direction or an empty
// grouping address are ignored.
func (a *WalletBehaviorAggregator) Aggregate(rows []entity.LabeledRow) []entity.WalletStats {
	sent := make(map[string]*sideAggregate)
	received := make(map[string]*sideAggregate)

	for _, row := range rows {
		switch row.Direction {
		case entity.DirectionSent:
			accumulate(sent, row.Sender, row.TokenAmount, row.ReceiverName)
		case entity.DirectionReceived:
			if a.receivedKey == entity.GroupByReceiver {
				accumulate(received, row.Receiver, row.TokenAmount, row.SenderName)
			} else {
				accumulate(received, row.Sender, row.TokenAmount, row.ReceiverName)
			}
		}
	}

	keys := make([]string, 0, len(sent)+len(received))
	for k := range sent {
		keys = append(keys, k)
	}
	for k := range received {
		if _, ok := sent[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	stats := make([]entity.WalletStats, 0, len(keys))
	for _, k := range keys {
		ws := entity.WalletStats{WalletAddress: k}
		if s, ok := sent[k]; ok {
			ws.TotalSent = s.total
			ws.SentTxCount = s.count
			ws.UniqueReceivers = int64(len(s.unique))
		}
		if r, ok := received[k]; ok {
			ws.TotalReceived = r.total
			ws.ReceivedTxCount = r.count
			ws.UniqueSenders = int64(len(r.unique))
		}
		ws.EntityLabel = a.LabelEntity(ws)
		stats = append(stats, ws)
	}

	return stats
}

func accumulate(groups map[string]*sideAggregate, key string, amount float64, name string) {
	if key == "" {
		return
	}
	g, ok := groups[key]
	if !ok {
		g = &sideAggregate{unique: make(map[string]struct{})}
		groups[key] = g
	}
	g.total += amount
	g.count++
	g.unique[name] = struct{}{}
}

// LabelEntity applies the behavioral decision list; the first matching rule wins
func (a *WalletBehaviorAggregator) LabelEntity(ws entity.WalletStats) entity.BehaviorLabel {
	t := a.thresholds
	switch {
	case ws.SentTxCount > t.ExchangeMinSent &&
		ws.ReceivedTxCount > t.ExchangeMinReceived &&
		ws.UniqueReceivers+ws.UniqueSenders > t.ExchangeMinCounterparties:
		return entity.BehaviorExchange
	case ws.SentTxCount > t.ProjectMinSent &&
		ws.ReceivedTxCount < t.ProjectMaxReceived &&
		ws.UniqueReceivers > t.ProjectMinReceivers:
		return entity.BehaviorProjectWallet
	case ws.SentTxCount > t.SuspiciousMinSent &&
		ws.ReceivedTxCount > t.SuspiciousMinReceived &&
		ws.TotalSent < t.SuspiciousMaxTotalSent:
		return entity.BehaviorSuspicious
	default:
		return entity.BehaviorNormalUser
	}
}

// StatsByWallet indexes stats by wallet address
func StatsByWallet(stats []entity.WalletStats) map[string]entity.WalletStats {
	out := make(map[string]entity.WalletStats, len(stats))
	for _, s := range stats {
		out[s.WalletAddress] = s
	}
	return out
}
