package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryEntry is one payment in a wallet summary.
type SummaryEntry struct {
	URL       string          `json:"url"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	Recipient string          `json:"recipient"`
	Timestamp time.Time       `json:"timestamp"`
}

// Summary is a read-only projection of wallet state and history.
type Summary struct {
	WalletAddress string          `json:"wallet_address"`
	Network       string          `json:"network"`
	BudgetUSD     decimal.Decimal `json:"budget_usd"`
	SpentUSD      decimal.Decimal `json:"spent_usd"`
	RemainingUSD  decimal.Decimal `json:"remaining_usd"`
	PaymentCount  int             `json:"payment_count"`
	Payments      []SummaryEntry  `json:"payments"`
}

// Summary returns the wallet's address, network, budget state and
// payment history in insertion order.
func (w *Wallet) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries := make([]SummaryEntry, 0, len(w.payments))
	for _, p := range w.payments {
		entries = append(entries, SummaryEntry{
			URL:       p.Resource,
			AmountUSD: p.AmountUSD,
			Recipient: p.Recipient,
			Timestamp: p.Timestamp,
		})
	}

	return Summary{
		WalletAddress: w.signer.Address().Hex(),
		Network:       w.network,
		BudgetUSD:     w.budget,
		SpentUSD:      w.spent,
		RemainingUSD:  w.budget.Sub(w.spent),
		PaymentCount:  len(w.payments),
		Payments:      entries,
	}
}
