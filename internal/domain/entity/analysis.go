package entity

import (
	"time"
)

// AnalysisRequest asks for one wallet's rows to be labeled and clustered
type AnalysisRequest struct {
	RequestID string           `json:"request_id"`
	Address   string           `json:"address"`
	Rows      []TransactionRow `json:"rows"`
	// Clean runs signature dedup and status filtering before analysis
	Clean bool `json:"clean"`
}

// AnalysisResult is the full output of one analysis run
type AnalysisResult struct {
	RequestID   string          `json:"request_id"`
	Address     string          `json:"address"`
	Rows        []LabeledRow    `json:"rows"`
	WalletStats []WalletStats   `json:"wallet_stats"`
	Graph       *Graph          `json:"tx_graph"`
	Clusters    []ClusterReport `json:"clusters"`
	Profile     *WalletProfile  `json:"wallet_analysis,omitempty"`
	Digest      string          `json:"digest"`
	CompletedAt time.Time       `json:"completed_at"`
}

// FlaggedClusters returns the clusters carrying at least one non-Normal flag
func (r *AnalysisResult) FlaggedClusters() []ClusterReport {
	var flagged []ClusterReport
	for _, c := range r.Clusters {
		if c.Unusual {
			flagged = append(flagged, c)
		}
	}
	return flagged
}
