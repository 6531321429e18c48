package entity

import (
	"time"
)

// Direction is the side of a transfer relative to the analyzed wallet
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// TxStatusSuccess is the only status the analysis keeps after cleaning
const TxStatusSuccess = "success"

// TransactionRow represents one economic transfer observed in one on-chain transaction.
// Optional fields use their zero value for "absent": an empty Counterparty means the
// transaction had zero or several counterparties, a zero NativeAmount means no native
// SOL moved.
type TransactionRow struct {
	Signature    string    `json:"signature"`
	Timestamp    time.Time `json:"timestamp"`
	BlockNumber  int64     `json:"block_number,omitempty"`
	Sender       string    `json:"sender"`
	Receiver     string    `json:"receiver"`
	Counterparty string    `json:"counterparty,omitempty"`
	Direction    Direction `json:"direction"`
	TxStatus     string    `json:"tx_status"`
	TxType       string    `json:"type,omitempty"`
	Source       string    `json:"source,omitempty"`
	ProgramID    string    `json:"program_id,omitempty"`
	TokenAddress string    `json:"token_address,omitempty"`
	TokenAmount  float64   `json:"token_amount"`
	NativeAmount float64   `json:"native_amount,omitempty"`
	Symbol       string    `json:"symbol,omitempty"`
	TokenName    string    `json:"token_name,omitempty"`
	PreBalance   float64   `json:"pre_balance,omitempty"`
	PostBalance  float64   `json:"post_balance,omitempty"`
	TxFee        float64   `json:"tx_fee,omitempty"`
}

// LabeledRow is a TransactionRow annotated with resolved names and categories
type LabeledRow struct {
	TransactionRow

	SenderName        string   `json:"sender_name"`
	ReceiverName      string   `json:"receiver_name"`
	CounterpartyName  string   `json:"counterparty_name"`
	ProgramName       string   `json:"program_name"`
	SenderCategory    Category `json:"sender_category"`
	ReceiverCategory  Category `json:"receiver_category"`
	ProgramCategory   Category `json:"program_category"`
	WalletEntityLabel string   `json:"wallet_entity_label"`

	// EntityLabel is the behavioral label of the row's sender, joined from WalletStats.
	// Empty when the sender has no stats record.
	EntityLabel BehaviorLabel `json:"entity_label,omitempty"`
}

// TransferAmount returns the native amount when one moved, otherwise the token amount
func (r TransactionRow) TransferAmount() float64 {
	if r.NativeAmount != 0 {
		return r.NativeAmount
	}
	return r.TokenAmount
}
