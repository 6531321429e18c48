package entity

// BehaviorLabel is a rule-based classification of a wallet's aggregate activity
type BehaviorLabel string

const (
	BehaviorExchange      BehaviorLabel = "Exchange"
	BehaviorProjectWallet BehaviorLabel = "Project Wallet"
	BehaviorSuspicious    BehaviorLabel = "Suspicious"
	BehaviorNormalUser    BehaviorLabel = "Normal User"
)

// WalletStats represents aggregate transfer statistics for one wallet
type WalletStats struct {
	WalletAddress   string        `json:"wallet_address"`
	TotalSent       float64       `json:"total_sent"`
	TotalReceived   float64       `json:"total_received"`
	SentTxCount     int64         `json:"sent_tx_count"`
	ReceivedTxCount int64         `json:"received_tx_count"`
	UniqueSenders   int64         `json:"unique_senders"`
	UniqueReceivers int64         `json:"unique_receivers"`
	EntityLabel     BehaviorLabel `json:"entity_label"`
}

// GroupKey selects which row field keys the received-side aggregate
type GroupKey string

const (
	GroupBySender   GroupKey = "sender"
	GroupByReceiver GroupKey = "receiver"
)
