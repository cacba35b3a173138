package fraud

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// historyContext is the per-user aggregate the rules evaluate against.
type historyContext struct {
	withdrawals20m int
	avg30d         decimal.Decimal
	knownDevices   map[string]struct{}
	lastCountry    string
	knownPSPs      map[string]struct{}
}

// ComputeSignals evaluates all six rules against a transaction and the
// user's prior transactions. Every rule is always evaluated, in a fixed
// order, so the output stays stable and explainable even when nothing
// fires. History entries at or after the transaction's timestamp are
// ignored.
func ComputeSignals(tx *transaction.Transaction, history []*transaction.Transaction) []risk.Signal {
	prior := make([]*transaction.Transaction, 0, len(history))
	for _, h := range history {
		if h.Timestamp.Before(tx.Timestamp) {
			prior = append(prior, h)
		}
	}
	hist := buildHistoryContext(tx, prior)

	signals := make([]risk.Signal, 0, 6)

	// velocity_withdrawals_20m
	fired := hist.withdrawals20m >= velocityThreshold
	signals = append(signals, risk.Signal{
		Name:        "velocity_withdrawals_20m",
		Value:       fmt.Sprintf("%d", hist.withdrawals20m),
		Threshold:   fmt.Sprintf("%d", velocityThreshold),
		Weight:      velocityWeight,
		Fired:       fired,
		Explanation: fmt.Sprintf("Withdrawals in last 20 min: %d (threshold %d)", hist.withdrawals20m, velocityThreshold),
	})

	// amount_vs_user_avg
	avg := hist.avg30d
	if avg.IsZero() {
		avg = decimal.NewFromInt(1)
	}
	// Compare unrounded; the ratio is rounded for display only.
	ratio := tx.Amount.Div(avg)
	fired = ratio.GreaterThanOrEqual(decimal.NewFromFloat(amountRatioThreshold))
	ratioStr := ratio.Round(2).StringFixed(2)
	signals = append(signals, risk.Signal{
		Name:        "amount_vs_user_avg",
		Value:       ratioStr,
		Threshold:   fmt.Sprintf("%.1f", amountRatioThreshold),
		Weight:      amountRatioWeight,
		Fired:       fired,
		Explanation: fmt.Sprintf("Amount vs 30d avg ratio: %s (threshold %.1f)", ratioStr, amountRatioThreshold),
	})

	// new_device
	_, known := hist.knownDevices[tx.DeviceID]
	fired = tx.DeviceID != "" && !known
	explanation := "Known device"
	if fired {
		explanation = "New device"
	}
	signals = append(signals, risk.Signal{
		Name:        "new_device",
		Value:       fmt.Sprintf("%t", fired),
		Threshold:   "true",
		Weight:      newDeviceWeight,
		Fired:       fired,
		Explanation: explanation,
	})

	// geo_change
	fired = tx.Country != "" && hist.lastCountry != "" && tx.Country != hist.lastCountry
	explanation = "No geo change"
	if fired {
		explanation = fmt.Sprintf("Country changed from %s to %s", hist.lastCountry, tx.Country)
	}
	signals = append(signals, risk.Signal{
		Name:        "geo_change",
		Value:       fmt.Sprintf("%t", fired),
		Threshold:   "true",
		Weight:      geoChangeWeight,
		Fired:       fired,
		Explanation: explanation,
	})

	// young_account_high_amount
	fired = tx.AccountAgeDays < youngAccountMaxAgeDays &&
		tx.Amount.GreaterThanOrEqual(decimal.NewFromInt(youngAccountMinAmount))
	explanation = "OK"
	if fired {
		explanation = fmt.Sprintf("Account age %d days, amount %s", tx.AccountAgeDays, tx.Amount.String())
	}
	signals = append(signals, risk.Signal{
		Name:        "young_account_high_amount",
		Value:       fmt.Sprintf("%t", fired),
		Threshold:   "true",
		Weight:      youngAccountWeight,
		Fired:       fired,
		Explanation: explanation,
	})

	// psp_anomaly
	_, known = hist.knownPSPs[tx.PSP]
	fired = tx.PSP != "" && len(hist.knownPSPs) > 0 && !known
	explanation = "Known PSP"
	if fired {
		explanation = "PSP not seen before for this user"
	}
	signals = append(signals, risk.Signal{
		Name:        "psp_anomaly",
		Value:       fmt.Sprintf("%t", fired),
		Threshold:   "true",
		Weight:      pspAnomalyWeight,
		Fired:       fired,
		Explanation: explanation,
	})

	return signals
}

func buildHistoryContext(tx *transaction.Transaction, prior []*transaction.Transaction) historyContext {
	hist := historyContext{
		avg30d:       decimal.Zero,
		knownDevices: make(map[string]struct{}),
		knownPSPs:    make(map[string]struct{}),
	}

	var sum30d decimal.Decimal
	var count30d int64
	for _, h := range prior {
		if h.IsWithdrawal() && elapsed(h.Timestamp, tx.Timestamp) <= velocityWindow {
			hist.withdrawals20m++
		}
		if elapsed(h.Timestamp, tx.Timestamp) <= averageWindow {
			sum30d = sum30d.Add(h.Amount)
			count30d++
		}
		if h.DeviceID != "" {
			hist.knownDevices[h.DeviceID] = struct{}{}
		}
		if h.PSP != "" {
			hist.knownPSPs[h.PSP] = struct{}{}
		}
	}
	if count30d > 0 {
		hist.avg30d = sum30d.Div(decimal.NewFromInt(count30d))
	}
	if len(prior) > 0 {
		hist.lastCountry = prior[len(prior)-1].Country
	}

	return hist
}

// elapsed returns the absolute distance between two timestamps, treating an
// unusable (zero) timestamp as very far apart rather than failing.
func elapsed(a, b time.Time) time.Duration {
	if a.IsZero() || b.IsZero() {
		return farApart
	}
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return d
}
