package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-agent/types"
)

func TestPaymentHeaderRoundTrip(t *testing.T) {
	payment := types.PaymentPayload{
		X402Version: 1,
		Scheme:      "exact",
		Network:     "eip155:84532",
		Payload: types.ExactEvmPayload{
			Signature: "0xdeadbeef",
			Authorization: types.ExactEvmAuthorization{
				From:        "0x1111111111111111111111111111111111111111",
				To:          "0x2222222222222222222222222222222222222222",
				Value:       "10000",
				ValidAfter:  "1700000000",
				ValidBefore: "1700000300",
				Nonce:       "0xabababababababababababababababababababababababababababababababab",
			},
		},
	}

	encoded, err := EncodePayment(payment)
	require.NoError(t, err)

	decoded, err := DecodePayment(encoded)
	require.NoError(t, err)
	assert.Equal(t, payment, decoded)
}

func TestDecodeRequirementsRejectsBadBase64(t *testing.T) {
	_, err := DecodeRequirements("not base64!!!")
	assert.Error(t, err)
}

func TestDecodeRequirementsRejectsBadJSON(t *testing.T) {
	_, err := DecodeRequirements("bm90IGpzb24=") // "not json"
	assert.Error(t, err)
}

func TestDecodeSettlement(t *testing.T) {
	encoded, err := EncodeSettlement(types.SettlementInfo{
		Success:         true,
		TransactionHash: "0xabc123",
	})
	require.NoError(t, err)

	settlement, err := DecodeSettlement(encoded)
	require.NoError(t, err)
	assert.True(t, settlement.Success)
	assert.Equal(t, "0xabc123", settlement.TransactionHash)
}
