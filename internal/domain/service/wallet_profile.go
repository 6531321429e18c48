package service

import (
	"fmt"
	"sort"
	"time"

	"wallet-cluster-analyzer/internal/domain/entity"
)

// ProfileThresholds are the cut-offs of the subject wallet risk factors
type ProfileThresholds struct {
	HighVolumeNative float64 `mapstructure:"high_volume_native"`
	HighTxPerDay     float64 `mapstructure:"high_tx_per_day"`
}

// DefaultProfileThresholds returns the standard risk factor cut-offs
func DefaultProfileThresholds() ProfileThresholds {
	return ProfileThresholds{
		HighVolumeNative: 100,
		HighTxPerDay:     10,
	}
}

// BuildWalletProfile summarizes the subject wallet's own history from the labeled rows.
// Only rows where the subject is sender or receiver contribute. Funding sources are the
// stats of wallets that sent to the subject, in stats order.
func BuildWalletProfile(rows []entity.LabeledRow, address string, stats []entity.WalletStats, thresholds ProfileThresholds) *entity.WalletProfile {
	profile := &entity.WalletProfile{
		WalletAddress: address,
		EntityLabel:   entity.UnknownAddress,
		FundingSource: []entity.WalletStats{},
	}
	history := entity.TransactionHistory{
		TokenVolumeSent:     make(map[string]float64),
		TokenVolumeReceived: make(map[string]float64),
	}

	if len(rows) > 0 && rows[0].WalletEntityLabel != "" {
		profile.EntityLabel = rows[0].WalletEntityLabel
	}

	signatures := make(map[string]time.Time)
	funders := make(map[string]struct{})
	for _, row := range rows {
		isSender := row.Sender == address
		isReceiver := row.Receiver == address
		if !isSender && !isReceiver {
			continue
		}

		if _, seen := signatures[row.Signature]; !seen {
			signatures[row.Signature] = row.Timestamp
		}

		token := tokenKey(row.TransactionRow)
		if isSender {
			history.NativeVolumeSent += row.NativeAmount
			if token != "" && row.TokenAmount != 0 {
				history.TokenVolumeSent[token] += row.TokenAmount
			}
		}
		if isReceiver {
			history.NativeVolumeReceived += row.NativeAmount
			if token != "" && row.TokenAmount != 0 {
				history.TokenVolumeReceived[token] += row.TokenAmount
			}
			if row.Sender != address {
				funders[row.Sender] = struct{}{}
			}
		}
	}

	times := make([]time.Time, 0, len(signatures))
	for _, ts := range signatures {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	history.NumTransactions = len(times)
	if len(times) > 0 {
		history.FirstTransaction = times[0]
		history.LastTransaction = times[len(times)-1]
	}
	if len(times) > 1 {
		span := history.LastTransaction.Sub(history.FirstTransaction)
		history.AvgTxIntervalSeconds = span.Seconds() / float64(len(times)-1)
	}
	profile.History = history

	patterns := entity.ActivityPatterns{
		ActivePeriodDays: int(history.LastTransaction.Sub(history.FirstTransaction).Hours() / 24),
		NativeNetFlow:    history.NativeVolumeReceived - history.NativeVolumeSent,
	}
	patterns.AvgTxPerDay = float64(history.NumTransactions) / float64(max(patterns.ActivePeriodDays, 1))

	for _, ws := range stats {
		if ws.WalletAddress == address {
			patterns.SenderToReceiverRatio = float64(ws.UniqueSenders) / float64(max(ws.UniqueReceivers, 1))
		}
		if _, ok := funders[ws.WalletAddress]; ok {
			profile.FundingSource = append(profile.FundingSource, ws)
		}
	}
	profile.Patterns = patterns

	profile.Risk = assessRisk(profile, thresholds)
	return profile
}

func assessRisk(p *entity.WalletProfile, t ProfileThresholds) entity.ActivityRiskFactors {
	risk := entity.ActivityRiskFactors{RiskSummary: []string{}}

	volume := p.History.NativeVolumeSent + p.History.NativeVolumeReceived
	if volume > t.HighVolumeNative {
		risk.HighVolumeRisk = true
		risk.RiskSummary = append(risk.RiskSummary, fmt.Sprintf("High SOL volume: %.2f SOL", volume))
	}
	if p.Patterns.AvgTxPerDay > t.HighTxPerDay {
		risk.HighFrequencyRisk = true
		risk.RiskSummary = append(risk.RiskSummary, fmt.Sprintf("High tx frequency: %.2f tx/day", p.Patterns.AvgTxPerDay))
	}
	if p.EntityLabel == entity.UnknownAddress {
		risk.UnknownEntityRisk = true
		risk.RiskSummary = append(risk.RiskSummary, "Unknown entity label")
	}
	return risk
}

// tokenKey names the token moved by a row: symbol, else mint address
func tokenKey(row entity.TransactionRow) string {
	if row.Symbol != "" {
		return row.Symbol
	}
	return row.TokenAddress
}
