package x402agent

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// Request describes one request the negotiator should drive to
// completion, paying for it if the server demands payment.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// MaxPriceUSD caps what this single request may cost, independent
	// of the wallet budget. Nil means no per-request ceiling.
	MaxPriceUSD *decimal.Decimal
}

// PaymentQuote describes a payment the server demands, returned instead
// of paying when auto-pay is disabled.
type PaymentQuote struct {
	PriceUSD decimal.Decimal `json:"priceUsd"`
	PayTo    string          `json:"payTo"`
	Network  string          `json:"network"`
}

// Result is the outcome of a negotiated exchange.
type Result struct {
	StatusCode int
	Body       []byte

	// Paid reports whether a payment authorization was signed and spent
	// for this exchange. It stays true even when the post-payment retry
	// fails: the spend is not rolled back.
	Paid          bool
	AmountPaidUSD decimal.Decimal

	// TransactionHash is the settlement reference from the server's
	// payment confirmation header, when present.
	TransactionHash string

	// PaymentNeeded is set instead of paying when auto-pay is disabled.
	PaymentNeeded *PaymentQuote
}

// IsError reports whether the response status indicates a failure.
func (r *Result) IsError() bool {
	return r.StatusCode >= http.StatusBadRequest
}

// String renders the result for agent-facing output, prefixing paid
// responses with the amount and settlement reference.
func (r *Result) String() string {
	switch {
	case r.PaymentNeeded != nil:
		return fmt.Sprintf("Payment required: $%s USDC to %s",
			r.PaymentNeeded.PriceUSD.StringFixed(4), r.PaymentNeeded.PayTo)
	case r.Paid && r.TransactionHash != "":
		tx := r.TransactionHash
		if len(tx) > 16 {
			tx = tx[:16] + "..."
		}
		return fmt.Sprintf("[Paid $%s USDC | tx: %s]\n\n%s",
			r.AmountPaidUSD.StringFixed(4), tx, r.Body)
	case r.Paid:
		return fmt.Sprintf("[Paid $%s USDC]\n\n%s", r.AmountPaidUSD.StringFixed(4), r.Body)
	default:
		return string(r.Body)
	}
}
