package service

import (
	"wallet-cluster-analyzer/internal/domain/entity"
)

// EntityLabeler annotates transaction rows with resolved names, categories and
// the analyzed wallet's own label, then aggregates wallet behavior.
type EntityLabeler struct {
	labels     *AddressLabelMap
	classifier *CategoryClassifier
	aggregator *WalletBehaviorAggregator
}

// NewEntityLabeler creates a labeler over a label map loaded once for the run
func NewEntityLabeler(labels *AddressLabelMap, classifier *CategoryClassifier, aggregator *WalletBehaviorAggregator) *EntityLabeler {
	return &EntityLabeler{
		labels:     labels,
		classifier: classifier,
		aggregator: aggregator,
	}
}

// Label returns one labeled row per input row, in input order, and the wallet statistics
// aggregated over the labeled rows. The input slice is not modified.
func (l *EntityLabeler) Label(rows []entity.TransactionRow, address string) ([]entity.LabeledRow, []entity.WalletStats) {
	walletLabel := l.labels.ResolveWallet(address)

	labeled := make([]entity.LabeledRow, len(rows))
	for i, row := range rows {
		lr := entity.LabeledRow{
			TransactionRow:    row,
			SenderName:        l.labels.ResolveWallet(row.Sender),
			ReceiverName:      l.labels.ResolveWallet(row.Receiver),
			CounterpartyName:  l.labels.ResolveWallet(row.Counterparty),
			ProgramName:       l.labels.ResolveProgram(row.ProgramID),
			WalletEntityLabel: walletLabel,
		}
		lr.SenderCategory = l.classifier.Classify(lr.SenderName)
		lr.ReceiverCategory = l.classifier.Classify(lr.ReceiverName)
		lr.ProgramCategory = l.classifier.Classify(lr.ProgramName)
		labeled[i] = lr
	}

	return labeled, l.aggregator.Aggregate(labeled)
}

// AttachBehaviorLabels returns a copy of rows where each row carries the behavioral label
// of its sender. Rows whose sender has no stats keep an empty label.
func AttachBehaviorLabels(rows []entity.LabeledRow, stats []entity.WalletStats) []entity.LabeledRow {
	bySender := StatsByWallet(stats)
	out := make([]entity.LabeledRow, len(rows))
	for i, row := range rows {
		row.EntityLabel = ""
		if ws, ok := bySender[row.Sender]; ok {
			row.EntityLabel = ws.EntityLabel
		}
		out[i] = row
	}
	return out
}
