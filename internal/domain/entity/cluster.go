package entity

import (
	"time"
)

// RiskFlag is a structural anomaly raised on a cluster
type RiskFlag string

const (
	RiskFlagDenseSmallCluster RiskFlag = "Dense Small Cluster"
	RiskFlagHighTxRate        RiskFlag = "High Tx Rate"
	RiskFlagCentralizedFlow   RiskFlag = "Centralized Flow"
	RiskFlagNormal            RiskFlag = "Normal"
)

// Cluster types that are not a behavioral label
const (
	ClusterTypeUnknown = "Unknown"
	ClusterTypeMixed   = "Mixed"
)

// ClusterReport represents one connected component of the transaction graph
type ClusterReport struct {
	ClusterID         int        `json:"cluster_id"`
	Wallets           []string   `json:"wallets"`
	TotalTransactions int        `json:"total_transactions"`
	ClusterStartTime  time.Time  `json:"cluster_start_time"`
	ClusterEndTime    time.Time  `json:"cluster_end_time"`
	ClusterSize       int        `json:"cluster_size"`
	ClusterType       string     `json:"cluster_type"`
	AvgDegree         float64    `json:"avg_degree"`
	Density           float64    `json:"density"`
	CentralWallets    []string   `json:"central_wallets"`
	Protocols         []string   `json:"protocols"`
	RiskFlags         []RiskFlag `json:"risk_flags"`
	Unusual           bool       `json:"unusual"`
}

// HasFlag reports whether the cluster carries flag
func (c *ClusterReport) HasFlag(flag RiskFlag) bool {
	for _, f := range c.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}
