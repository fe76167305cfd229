package wallet

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-agent/chains"
	"github.com/vitwit/x402-agent/eip3009"
	"github.com/vitwit/x402-agent/types"
)

// Test-only private key; never holds funds.
const testKey = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func usd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testWallet(t *testing.T, budget string, opts ...Option) *Wallet {
	t.Helper()
	w, err := New(testKey, "base-sepolia", usd(budget), opts...)
	require.NoError(t, err)
	return w
}

func testIntent(amount string) PaymentIntent {
	return PaymentIntent{
		To:          "0x2222222222222222222222222222222222222222",
		AmountUSD:   usd(amount),
		ValidAfter:  1_700_000_000,
		ValidBefore: 1_700_000_300,
		Resource:    "https://api.example.com/data",
	}
}

func TestNewWalletProperties(t *testing.T) {
	w := testWallet(t, "5")

	assert.Equal(t, "base-sepolia", w.Network())
	assert.Equal(t, int64(84532), w.ChainID())
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", w.AssetAddress())
	assert.Len(t, w.Address().Hex(), 42)

	assert.True(t, w.Spent().IsZero())
	assert.True(t, w.Remaining().Equal(usd("5")))
	assert.True(t, w.CanAfford(usd("5")))
	assert.False(t, w.CanAfford(usd("5.000001")))
	assert.Empty(t, w.Payments())
}

func TestNewWalletGeneratesKey(t *testing.T) {
	w, err := New("", "eip155:8453", usd("10"))
	require.NoError(t, err)
	assert.Len(t, w.Address().Hex(), 42)
}

func TestNewWalletRejectsUnknownNetwork(t *testing.T) {
	_, err := New(testKey, "invalid-network", usd("10"))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownNetwork, types.ErrorCode(err))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TEST_WALLET_KEY", testKey)
	w, err := FromEnv("TEST_WALLET_KEY", "base-sepolia", usd("10"))
	require.NoError(t, err)
	assert.Len(t, w.Address().Hex(), 42)
}

func TestFromEnvMissingCredential(t *testing.T) {
	t.Setenv("TEST_WALLET_KEY", "")
	_, err := FromEnv("TEST_WALLET_KEY", "base-sepolia", usd("10"))
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingCredential, types.ErrorCode(err))
}

func TestConversions(t *testing.T) {
	assert.Equal(t, big.NewInt(1_000_000), ToSmallestUnit(usd("1.0")))
	assert.Equal(t, big.NewInt(10_000), ToSmallestUnit(usd("0.01")))
	assert.True(t, FromSmallestUnit(big.NewInt(1)).Equal(usd("0.000001")))

	// Truncation toward zero: sub-unit fractions are dropped, never
	// rounded up.
	assert.Equal(t, big.NewInt(1), ToSmallestUnit(usd("0.0000019")))
	assert.Equal(t, big.NewInt(0), ToSmallestUnit(usd("0.0000009")))
}

func TestConversionRoundTrip(t *testing.T) {
	for _, amount := range []string{"0.000001", "0.01", "0.1", "1", "3.141592", "123.456789", "0"} {
		in := usd(amount)
		out := FromSmallestUnit(ToSmallestUnit(in))
		assert.True(t, out.Equal(in), "round trip of %s gave %s", amount, out)
	}
}

func TestSignPaymentSuccess(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWallet(t, "10", WithClock(func() time.Time { return now }))

	signed, err := w.SignPayment(testIntent("0.01"))
	require.NoError(t, err)

	assert.True(t, w.Spent().Equal(usd("0.01")))
	assert.True(t, w.Remaining().Equal(usd("9.99")))

	payments := w.Payments()
	require.Len(t, payments, 1)
	record := payments[0]
	assert.Equal(t, "https://api.example.com/data", record.Resource)
	assert.True(t, record.AmountUSD.Equal(usd("0.01")))
	assert.Equal(t, big.NewInt(10_000), record.AmountUnits)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", record.Recipient)
	assert.Equal(t, now, record.Timestamp)
	assert.Equal(t, int64(1_700_000_300), record.ValidBefore)
	assert.NotEmpty(t, record.ID)

	auth := signed.Authorization
	assert.Equal(t, w.Address(), auth.From)
	assert.Equal(t, big.NewInt(10_000), auth.Value)
	assert.Equal(t, int64(1_700_000_000), auth.ValidAfter.Int64())
	assert.Equal(t, int64(1_700_000_300), auth.ValidBefore.Int64())
}

func TestSignPaymentSignatureRecovers(t *testing.T) {
	w := testWallet(t, "10")

	signed, err := w.SignPayment(testIntent("0.25"))
	require.NoError(t, err)

	config, err := chains.Resolve(w.Network())
	require.NoError(t, err)
	digest, err := eip3009.AuthorizationDigest(config, signed.Authorization)
	require.NoError(t, err)

	recovered, err := eip3009.RecoverSigner(digest, signed.Signature)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), recovered)
}

func TestSignPaymentNoncesAreUnique(t *testing.T) {
	w := testWallet(t, "10")

	first, err := w.SignPayment(testIntent("0.01"))
	require.NoError(t, err)
	second, err := w.SignPayment(testIntent("0.01"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Authorization.Nonce, second.Authorization.Nonce)
}

func TestSignPaymentBudgetExceeded(t *testing.T) {
	w := testWallet(t, "1")

	_, err := w.SignPayment(testIntent("1.01"))
	require.Error(t, err)
	assert.Equal(t, types.ErrBudgetExceeded, types.ErrorCode(err))

	// State unchanged on failure.
	assert.True(t, w.Spent().IsZero())
	assert.True(t, w.Remaining().Equal(usd("1")))
	assert.Empty(t, w.Payments())
}

func TestSignPaymentExactRemaining(t *testing.T) {
	w := testWallet(t, "1")

	_, err := w.SignPayment(testIntent("1"))
	require.NoError(t, err)
	assert.True(t, w.Remaining().IsZero())

	_, err = w.SignPayment(testIntent("0.000001"))
	require.Error(t, err)
	assert.Equal(t, types.ErrBudgetExceeded, types.ErrorCode(err))
}

func TestSignPaymentInvalidWindow(t *testing.T) {
	w := testWallet(t, "10")

	intent := testIntent("0.01")
	intent.ValidAfter = 1_700_000_300
	intent.ValidBefore = 1_700_000_000
	_, err := w.SignPayment(intent)
	require.Error(t, err)
	assert.Equal(t, types.ErrSigningFailed, types.ErrorCode(err))
	assert.Empty(t, w.Payments())
}

func TestResetBudget(t *testing.T) {
	w := testWallet(t, "10")
	_, err := w.SignPayment(testIntent("2.50"))
	require.NoError(t, err)

	w.ResetBudget()
	assert.True(t, w.Spent().IsZero())
	assert.True(t, w.Budget().Equal(usd("10")))
	assert.Empty(t, w.Payments())

	w.ResetBudget(usd("20"))
	assert.True(t, w.Budget().Equal(usd("20")))
	assert.True(t, w.Remaining().Equal(usd("20")))
}

func TestSummary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	w := testWallet(t, "10", WithClock(func() time.Time { return now }))

	_, err := w.SignPayment(testIntent("0.01"))
	require.NoError(t, err)
	second := testIntent("0.02")
	second.Resource = "https://api.example.com/more"
	_, err = w.SignPayment(second)
	require.NoError(t, err)

	summary := w.Summary()
	assert.Equal(t, w.Address().Hex(), summary.WalletAddress)
	assert.Equal(t, "base-sepolia", summary.Network)
	assert.True(t, summary.BudgetUSD.Equal(usd("10")))
	assert.True(t, summary.SpentUSD.Equal(usd("0.03")))
	assert.True(t, summary.RemainingUSD.Equal(usd("9.97")))
	assert.Equal(t, 2, summary.PaymentCount)
	require.Len(t, summary.Payments, 2)
	assert.Equal(t, "https://api.example.com/data", summary.Payments[0].URL)
	assert.Equal(t, "https://api.example.com/more", summary.Payments[1].URL)
}

func TestConcurrentSignPayment(t *testing.T) {
	w := testWallet(t, "0.01")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.SignPayment(testIntent("0.01"))
		}(i)
	}
	wg.Wait()

	// Exactly one call wins the budget; never both.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, types.ErrBudgetExceeded, types.ErrorCode(err))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, w.Spent().Equal(usd("0.01")))
	assert.Len(t, w.Payments(), 1)
}

type stubSigner struct {
	fail bool
}

func (s *stubSigner) Address() common.Address {
	return common.HexToAddress("0x1111111111111111111111111111111111111111")
}

func (s *stubSigner) SignDigest(digest common.Hash) ([]byte, error) {
	if s.fail {
		return nil, errors.New("signer unavailable")
	}
	return make([]byte, 65), nil
}

func TestSignPaymentSignerFailure(t *testing.T) {
	signer := &stubSigner{fail: true}
	w, err := NewWithSigner(signer, "base-sepolia", usd("10"))
	require.NoError(t, err)

	_, err = w.SignPayment(testIntent("0.01"))
	require.Error(t, err)
	assert.Equal(t, types.ErrSigningFailed, types.ErrorCode(err))
	assert.True(t, w.Spent().IsZero())
	assert.Empty(t, w.Payments())
}
