package service

import (
	"fmt"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// transfer builds a successful sent row between two wallets
func transfer(sig, from, to string, minutes int) entity.TransactionRow {
	return entity.TransactionRow{
		Signature:   sig,
		Timestamp:   baseTime.Add(time.Duration(minutes) * time.Minute),
		Sender:      from,
		Receiver:    to,
		Direction:   entity.DirectionSent,
		TxStatus:    entity.TxStatusSuccess,
		TokenAmount: 1,
		Symbol:      "SOL",
	}
}

func labeled(rows ...entity.TransactionRow) []entity.LabeledRow {
	out := make([]entity.LabeledRow, len(rows))
	for i, r := range rows {
		out[i] = entity.LabeledRow{TransactionRow: r}
	}
	return out
}

// repeated returns n rows from -> to with distinct signatures
func repeated(prefix, from, to string, n int, dir entity.Direction) []entity.TransactionRow {
	rows := make([]entity.TransactionRow, n)
	for i := range rows {
		rows[i] = transfer(fmt.Sprintf("%s-%d", prefix, i), from, to, i)
		rows[i].Direction = dir
	}
	return rows
}
