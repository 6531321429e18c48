package entity

import (
	"time"
)

// WalletProfile summarizes the analyzed wallet's own activity
type WalletProfile struct {
	WalletAddress string              `json:"wallet_address"`
	EntityLabel   string              `json:"entity_label"`
	History       TransactionHistory  `json:"transaction_history"`
	Patterns      ActivityPatterns    `json:"activity_patterns"`
	Risk          ActivityRiskFactors `json:"risk_factors"`
	FundingSource []WalletStats       `json:"funding_sources"`
}

// TransactionHistory holds volume and timing totals for the analyzed wallet
type TransactionHistory struct {
	NumTransactions      int                `json:"num_transactions"`
	NativeVolumeSent     float64            `json:"total_sol_volume_sent"`
	NativeVolumeReceived float64            `json:"total_sol_volume_received"`
	TokenVolumeSent      map[string]float64 `json:"total_token_volume_sent"`
	TokenVolumeReceived  map[string]float64 `json:"total_token_volume_received"`
	FirstTransaction     time.Time          `json:"first_transaction"`
	LastTransaction      time.Time          `json:"last_transaction"`
	AvgTxIntervalSeconds float64            `json:"avg_tx_interval_seconds"`
}

// ActivityPatterns holds derived activity ratios
type ActivityPatterns struct {
	ActivePeriodDays      int     `json:"active_period_days"`
	AvgTxPerDay           float64 `json:"avg_tx_per_day"`
	SenderToReceiverRatio float64 `json:"sender_to_receiver_ratio"`
	NativeNetFlow         float64 `json:"sol_net_flow"`
}

// ActivityRiskFactors holds threshold-based risk indicators for the analyzed wallet
type ActivityRiskFactors struct {
	HighVolumeRisk    bool     `json:"high_volume_risk"`
	HighFrequencyRisk bool     `json:"high_frequency_risk"`
	UnknownEntityRisk bool     `json:"unknown_entity_risk"`
	RiskSummary       []string `json:"risk_summary"`
}
