// Package wallet manages an agent's payment capability: a signing key, a
// USD budget ceiling, and the history of authorizations it has signed.
package wallet

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitwit/x402-agent/chains"
	"github.com/vitwit/x402-agent/eip3009"
	"github.com/vitwit/x402-agent/types"
)

// PaymentIntent describes one payment to authorize.
type PaymentIntent struct {
	// To is the recipient address.
	To string

	// AmountUSD is the payment amount in USD.
	AmountUSD decimal.Decimal

	// ValidAfter and ValidBefore bound the authorization validity
	// window in unix seconds, [ValidAfter, ValidBefore).
	ValidAfter  int64
	ValidBefore int64

	// Resource identifies what is being paid for, e.g. the URL.
	Resource string
}

// SignedAuthorization is the artifact sign_payment returns: the full
// authorization message plus its signature.
type SignedAuthorization struct {
	Authorization eip3009.Authorization
	Signature     []byte
}

// Wire renders the signed authorization in the x402 wire shape: decimal
// strings for the integers, 0x-hex for nonce and signature.
func (sa SignedAuthorization) Wire() types.ExactEvmPayload {
	auth := sa.Authorization
	return types.ExactEvmPayload{
		Signature: eip3009.EncodeSignature(sa.Signature),
		Authorization: types.ExactEvmAuthorization{
			From:        auth.From.Hex(),
			To:          auth.To.Hex(),
			Value:       auth.Value.String(),
			ValidAfter:  auth.ValidAfter.String(),
			ValidBefore: auth.ValidBefore.String(),
			Nonce:       common.BytesToHash(auth.Nonce[:]).Hex(),
		},
	}
}

// FromWire parses a wire payload back into a SignedAuthorization, the
// inverse of Wire. Used on the verifying side and in diagnostics.
func FromWire(payload types.ExactEvmPayload) (SignedAuthorization, error) {
	sig, err := eip3009.DecodeSignature(payload.Signature)
	if err != nil {
		return SignedAuthorization{}, err
	}

	auth := payload.Authorization
	value, ok := new(big.Int).SetString(auth.Value, 10)
	if !ok {
		return SignedAuthorization{}, fmt.Errorf("invalid value: %s", auth.Value)
	}
	validAfter, ok := new(big.Int).SetString(auth.ValidAfter, 10)
	if !ok {
		return SignedAuthorization{}, fmt.Errorf("invalid validAfter: %s", auth.ValidAfter)
	}
	validBefore, ok := new(big.Int).SetString(auth.ValidBefore, 10)
	if !ok {
		return SignedAuthorization{}, fmt.Errorf("invalid validBefore: %s", auth.ValidBefore)
	}
	if !common.IsHexAddress(auth.From) || !common.IsHexAddress(auth.To) {
		return SignedAuthorization{}, fmt.Errorf("invalid address in authorization")
	}

	return SignedAuthorization{
		Authorization: eip3009.Authorization{
			From:        common.HexToAddress(auth.From),
			To:          common.HexToAddress(auth.To),
			Value:       value,
			ValidAfter:  validAfter,
			ValidBefore: validBefore,
			Nonce:       common.HexToHash(auth.Nonce),
		},
		Signature: sig,
	}, nil
}

// PaymentRecord is an immutable log entry, created once per successful
// sign and removed only by an explicit reset.
type PaymentRecord struct {
	ID          string          `json:"id"`
	Resource    string          `json:"resource"`
	AmountUSD   decimal.Decimal `json:"amountUsd"`
	AmountUnits *big.Int        `json:"amountUnits"`
	Recipient   string          `json:"recipient"`
	Signature   string          `json:"signature"`
	Nonce       string          `json:"nonce"`
	Timestamp   time.Time       `json:"timestamp"`
	ValidBefore int64           `json:"validBefore"`
}

// Wallet tracks spending against a USD budget and signs EIP-3009
// transfer authorizations. The budget check and the spend update run
// under one mutex, so concurrent SignPayment calls cannot both pass an
// affordability check only one of them can satisfy.
type Wallet struct {
	signer  eip3009.Signer
	network string
	config  chains.NetworkConfig

	clock func() time.Time
	rand  io.Reader

	mu       sync.Mutex
	budget   decimal.Decimal
	spent    decimal.Decimal
	payments []PaymentRecord
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithClock replaces the timestamp source used for payment records.
func WithClock(clock func() time.Time) Option {
	return func(w *Wallet) {
		w.clock = clock
	}
}

// WithRand replaces the randomness source used for nonces and generated
// keys.
func WithRand(r io.Reader) Option {
	return func(w *Wallet) {
		w.rand = r
	}
}

// New creates a wallet from a hex private key. An empty key generates a
// fresh one. The network identifier is validated against the chain
// registry before any state is created.
func New(privateKeyHex, network string, budgetUSD decimal.Decimal, opts ...Option) (*Wallet, error) {
	w := &Wallet{
		network: network,
		clock:   time.Now,
		rand:    rand.Reader,
		budget:  budgetUSD,
		spent:   decimal.Zero,
	}
	for _, opt := range opts {
		opt(w)
	}

	config, err := chains.Resolve(network)
	if err != nil {
		return nil, err
	}
	w.config = config

	if privateKeyHex == "" {
		w.signer, err = eip3009.GenerateLocalSigner(w.rand)
	} else {
		w.signer, err = eip3009.NewLocalSigner(privateKeyHex)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewWithSigner creates a wallet around an externally managed signing
// capability.
func NewWithSigner(signer eip3009.Signer, network string, budgetUSD decimal.Decimal, opts ...Option) (*Wallet, error) {
	w := &Wallet{
		signer:  signer,
		network: network,
		clock:   time.Now,
		rand:    rand.Reader,
		budget:  budgetUSD,
		spent:   decimal.Zero,
	}
	for _, opt := range opts {
		opt(w)
	}

	config, err := chains.Resolve(network)
	if err != nil {
		return nil, err
	}
	w.config = config
	return w, nil
}

// FromEnv creates a wallet from a private key held in the named
// environment variable.
func FromEnv(keyEnvVar, network string, budgetUSD decimal.Decimal, opts ...Option) (*Wallet, error) {
	privateKey := os.Getenv(keyEnvVar)
	if privateKey == "" {
		return nil, types.NewError(
			types.ErrMissingCredential,
			fmt.Sprintf("environment variable %s not set", keyEnvVar),
		)
	}
	return New(privateKey, network, budgetUSD, opts...)
}

// Address returns the wallet address.
func (w *Wallet) Address() common.Address {
	return w.signer.Address()
}

// Network returns the network identifier the wallet was constructed with.
func (w *Wallet) Network() string {
	return w.network
}

// ChainID returns the chain ID of the wallet's network.
func (w *Wallet) ChainID() int64 {
	return w.config.ChainID
}

// AssetAddress returns the USDC contract address on the wallet's network.
func (w *Wallet) AssetAddress() string {
	return w.config.USDCAddress
}

// Budget returns the budget ceiling in USD.
func (w *Wallet) Budget() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budget
}

// Spent returns the running total spent in USD.
func (w *Wallet) Spent() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spent
}

// Remaining returns the remaining budget in USD.
func (w *Wallet) Remaining() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budget.Sub(w.spent)
}

// Payments returns a copy of the payment history in insertion order.
func (w *Wallet) Payments() []PaymentRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]PaymentRecord, len(w.payments))
	copy(out, w.payments)
	return out
}

// CanAfford reports whether a payment of amountUSD fits in the remaining
// budget.
func (w *Wallet) CanAfford(amountUSD decimal.Decimal) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAffordLocked(amountUSD)
}

func (w *Wallet) canAffordLocked(amountUSD decimal.Decimal) bool {
	return amountUSD.LessThanOrEqual(w.budget.Sub(w.spent))
}

// ToSmallestUnit converts a USD amount to USDC smallest units (6
// decimals), truncating toward zero. Rounding never favors the payee:
// fractional units below 1e-6 USD are dropped, not rounded up.
func ToSmallestUnit(amountUSD decimal.Decimal) *big.Int {
	return amountUSD.Shift(chains.Decimals).Truncate(0).BigInt()
}

// FromSmallestUnit converts USDC smallest units to a USD amount. Exact
// for any input: 1 unit is 0.000001 USD.
func FromSmallestUnit(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, -chains.Decimals)
}

// SignPayment signs one transfer authorization. The affordability check,
// signing, and the spend commit are a single critical section; wallet
// state is unchanged on every failure path.
func (w *Wallet) SignPayment(intent PaymentIntent) (SignedAuthorization, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.canAffordLocked(intent.AmountUSD) {
		return SignedAuthorization{}, types.NewError(
			types.ErrBudgetExceeded,
			fmt.Sprintf("cannot afford $%s, remaining budget: $%s",
				intent.AmountUSD.StringFixed(4), w.budget.Sub(w.spent).StringFixed(4)),
		)
	}

	units := ToSmallestUnit(intent.AmountUSD)
	nonce, err := eip3009.GenerateNonce(w.rand)
	if err != nil {
		return SignedAuthorization{}, types.NewError(types.ErrSigningFailed, err.Error())
	}

	auth := eip3009.Authorization{
		From:        w.signer.Address(),
		To:          common.HexToAddress(intent.To),
		Value:       units,
		ValidAfter:  big.NewInt(intent.ValidAfter),
		ValidBefore: big.NewInt(intent.ValidBefore),
		Nonce:       nonce,
	}

	digest, err := eip3009.AuthorizationDigest(w.config, auth)
	if err != nil {
		return SignedAuthorization{}, types.NewError(types.ErrSigningFailed, err.Error())
	}

	sig, err := w.signer.SignDigest(digest)
	if err != nil {
		return SignedAuthorization{}, types.NewError(
			types.ErrSigningFailed,
			fmt.Sprintf("failed to sign authorization: %v", err),
		)
	}

	// Commit: no state is mutated before this point.
	w.spent = w.spent.Add(intent.AmountUSD)
	w.payments = append(w.payments, PaymentRecord{
		ID:          uuid.NewString(),
		Resource:    intent.Resource,
		AmountUSD:   intent.AmountUSD,
		AmountUnits: units,
		Recipient:   intent.To,
		Signature:   eip3009.EncodeSignature(sig),
		Nonce:       common.BytesToHash(nonce[:]).Hex(),
		Timestamp:   w.clock(),
		ValidBefore: intent.ValidBefore,
	})

	return SignedAuthorization{Authorization: auth, Signature: sig}, nil
}

// ResetBudget zeroes spending and clears the payment history. Passing a
// budget replaces the ceiling; with no argument the ceiling is kept.
func (w *Wallet) ResetBudget(newBudget ...decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(newBudget) > 0 {
		w.budget = newBudget[0]
	}
	w.spent = decimal.Zero
	w.payments = nil
}
