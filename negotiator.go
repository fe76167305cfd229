// Package x402agent lets an autonomous agent pay for HTTP resources that
// demand per-request micropayments over the x402 protocol: it detects a
// 402 Payment Required response, parses the offered payment options,
// enforces budget and per-request price ceilings, signs an EIP-3009
// transfer authorization through the wallet, and retries the request
// with proof of payment attached.
package x402agent

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/encoding"
	"github.com/vitwit/x402-agent/logger"
	"github.com/vitwit/x402-agent/metrics"
	"github.com/vitwit/x402-agent/types"
	"github.com/vitwit/x402-agent/wallet"
)

// DefaultGracePeriod is how long a signed authorization stays valid past
// the moment it is issued.
const DefaultGracePeriod = 300 * time.Second

// DefaultTimeout bounds each HTTP round trip of the default executor.
const DefaultTimeout = 30 * time.Second

// Negotiator drives one request/response exchange to completion,
// negotiating payment when the server demands it. It performs at most
// one retry: the single paid retry the protocol defines. Blind retries
// after a paid-for failure risk double payment, so none are attempted.
type Negotiator struct {
	wallet   *wallet.Wallet
	executor Executor
	logger   logger.Logger
	metrics  metrics.Recorder
	validate *validator.Validate

	autoPay     bool
	gracePeriod time.Duration
	clock       func() time.Time
}

// New creates a negotiator around a wallet. By default it executes over
// net/http with a 30s timeout, pays automatically, and stays silent.
func New(w *wallet.Wallet, opts ...Option) *Negotiator {
	n := &Negotiator{
		wallet:      w,
		executor:    NewHTTPExecutor(DefaultTimeout),
		logger:      logger.NoopLogger{},
		metrics:     metrics.NoopRecorder{},
		validate:    validator.New(),
		autoPay:     true,
		gracePeriod: DefaultGracePeriod,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Wallet returns the wallet this negotiator spends from.
func (n *Negotiator) Wallet() *wallet.Wallet {
	return n.wallet
}

// Do performs the request, negotiating payment on a 402. Non-402
// responses pass through unchanged; a status >= 400 is reported via
// Result.IsError, not as a Go error.
//
// The only error that surfaces after wallet state has changed is
// post_payment_request_failed: the retry after payment failed, the spend
// is already recorded and is not rolled back. In that case the returned
// Result still carries the failing response and the amount paid.
func (n *Negotiator) Do(ctx context.Context, req Request) (*Result, error) {
	resp, err := n.roundTrip(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusPaymentRequired {
		return &Result{StatusCode: resp.StatusCode, Body: resp.Body}, nil
	}

	n.metrics.IncCounter(metrics.EventPaymentRequired, n.labels())
	return n.negotiate(ctx, req, resp)
}

// negotiate handles a 402 response: parse requirements, select an
// option, check ceilings, sign, retry. Each stage exits early with a
// typed error; no wallet state changes on any path before signing.
func (n *Negotiator) negotiate(ctx context.Context, req Request, resp *Response) (*Result, error) {
	option, err := n.selectOption(resp)
	if err != nil {
		return nil, err
	}

	priceUSD, err := n.checkPrice(req, option)
	if err != nil {
		return nil, err
	}

	if !n.autoPay {
		n.logger.Info("payment needed, auto-pay disabled", map[string]any{
			"url":    req.URL,
			"price":  priceUSD.String(),
			"pay_to": option.PayTo,
		})
		return &Result{
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			PaymentNeeded: &PaymentQuote{
				PriceUSD: priceUSD,
				PayTo:    option.PayTo,
				Network:  option.Network,
			},
		}, nil
	}

	header, err := n.signPayment(req, option, priceUSD)
	if err != nil {
		n.metrics.IncCounter(metrics.EventPaymentFailed, n.labels())
		return nil, err
	}
	n.metrics.IncCounter(metrics.EventPaymentSigned, n.labels())

	n.logger.Info("payment signed, retrying with proof", map[string]any{
		"url":    req.URL,
		"price":  priceUSD.String(),
		"pay_to": option.PayTo,
	})

	return n.retryWithPayment(ctx, req, header, priceUSD)
}

// selectOption extracts and decodes the payment requirements and picks
// the first option on the wallet's network. No cross-network
// substitution, no best-price search.
func (n *Negotiator) selectOption(resp *Response) (*types.PaymentRequirements, error) {
	header := resp.Headers.Get(types.HeaderPaymentRequired)
	if header == "" {
		return nil, types.NewError(types.ErrMalformedRequirements,
			"402 response missing "+types.HeaderPaymentRequired+" header")
	}

	requirements, err := encoding.DecodeRequirements(header)
	if err != nil {
		return nil, types.NewError(types.ErrMalformedRequirements,
			"failed to parse payment requirements: "+err.Error())
	}

	if len(requirements.Accepts) == 0 {
		return nil, types.NewError(types.ErrNoOptions, "no payment options in requirements")
	}

	offered := make([]string, 0, len(requirements.Accepts))
	for i := range requirements.Accepts {
		option := &requirements.Accepts[i]
		if option.Network == n.wallet.Network() {
			if err := n.validate.Struct(option); err != nil {
				return nil, types.NewError(types.ErrMalformedRequirements,
					"invalid payment option: "+err.Error())
			}
			return option, nil
		}
		offered = append(offered, option.Network)
	}

	return nil, types.NewError(types.ErrNoCompatibleOption,
		"no compatible payment option for wallet network "+n.wallet.Network()).
		WithData(map[string]any{
			"wallet_network":   n.wallet.Network(),
			"offered_networks": offered,
		})
}

// checkPrice converts the option's maximum amount to USD and enforces
// the per-request ceiling and the wallet budget, in that order.
func (n *Negotiator) checkPrice(req Request, option *types.PaymentRequirements) (decimal.Decimal, error) {
	units, ok := new(big.Int).SetString(option.MaxAmountRequired, 10)
	if !ok || units.Sign() < 0 {
		return decimal.Zero, types.NewError(types.ErrMalformedRequirements,
			"invalid maxAmountRequired: "+option.MaxAmountRequired)
	}
	priceUSD := wallet.FromSmallestUnit(units)

	if req.MaxPriceUSD != nil && priceUSD.GreaterThan(*req.MaxPriceUSD) {
		return decimal.Zero, types.NewError(types.ErrPriceExceedsRequestLimit,
			"price $"+priceUSD.StringFixed(4)+" exceeds request limit $"+req.MaxPriceUSD.StringFixed(4))
	}

	if !n.wallet.CanAfford(priceUSD) {
		return decimal.Zero, types.NewError(types.ErrPriceExceedsBudget,
			"price $"+priceUSD.StringFixed(4)+" exceeds remaining budget $"+n.wallet.Remaining().StringFixed(4))
	}

	return priceUSD, nil
}

// signPayment signs the authorization and builds the X-PAYMENT header
// value. The validity window opens now and closes after the grace
// period.
func (n *Negotiator) signPayment(req Request, option *types.PaymentRequirements, priceUSD decimal.Decimal) (string, error) {
	now := n.clock()
	signed, err := n.wallet.SignPayment(wallet.PaymentIntent{
		To:          option.PayTo,
		AmountUSD:   priceUSD,
		ValidAfter:  now.Unix(),
		ValidBefore: now.Add(n.gracePeriod).Unix(),
		Resource:    req.URL,
	})
	if err != nil {
		return "", err
	}

	header, err := encoding.EncodePayment(types.PaymentPayload{
		X402Version: types.X402Version,
		Scheme:      types.SchemeExact,
		Network:     n.wallet.Network(),
		Payload:     signed.Wire(),
	})
	if err != nil {
		return "", types.NewError(types.ErrSigningFailed,
			"failed to encode payment header: "+err.Error())
	}
	return header, nil
}

// retryWithPayment reissues the original request with the payment header
// attached. The spend is already recorded: a failure here is surfaced as
// post_payment_request_failed and is not compensated.
func (n *Negotiator) retryWithPayment(ctx context.Context, req Request, paymentHeader string, priceUSD decimal.Decimal) (*Result, error) {
	extra := http.Header{}
	extra.Set(types.HeaderPayment, paymentHeader)

	resp, err := n.roundTrip(ctx, req, extra)
	if err != nil {
		return nil, types.NewError(types.ErrPostPaymentRequestFailed,
			"request failed after payment of $"+priceUSD.StringFixed(4)+" (spend is not rolled back): "+err.Error())
	}

	result := &Result{
		StatusCode:    resp.StatusCode,
		Body:          resp.Body,
		Paid:          true,
		AmountPaidUSD: priceUSD,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		n.metrics.IncCounter(metrics.EventPaymentFailed, n.labels())
		return result, types.NewError(types.ErrPostPaymentRequestFailed,
			"server returned "+http.StatusText(resp.StatusCode)+" after payment of $"+
				priceUSD.StringFixed(4)+" (spend is not rolled back)").
			WithData(map[string]any{"status": resp.StatusCode, "amount_paid_usd": priceUSD.String()})
	}

	if confirmation := resp.Headers.Get(types.HeaderPaymentResponse); confirmation != "" {
		settlement, err := encoding.DecodeSettlement(confirmation)
		if err != nil {
			// Non-fatal: the payment already succeeded.
			n.logger.Warn("malformed payment confirmation header", map[string]any{
				"url":   req.URL,
				"error": err.Error(),
			})
		} else {
			result.TransactionHash = settlement.TransactionHash
		}
	}

	n.metrics.IncCounter(metrics.EventPaymentSettled, n.labels())
	return result, nil
}

func (n *Negotiator) roundTrip(ctx context.Context, req Request, extra http.Header) (*Response, error) {
	headers := http.Header{}
	for key, value := range req.Headers {
		headers.Set(key, value)
	}
	for key, values := range extra {
		for _, value := range values {
			headers.Set(key, value)
		}
	}

	start := n.clock()
	resp, err := n.executor.Execute(ctx, req.Method, req.URL, headers, req.Body)
	n.metrics.ObserveLatency("round_trip", time.Since(start), n.labels())
	return resp, err
}

func (n *Negotiator) labels() map[string]string {
	return map[string]string{"network": n.wallet.Network()}
}
