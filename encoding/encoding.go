// Package encoding handles the base64+JSON codec used by the x402
// payment headers.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vitwit/x402-agent/types"
)

// DecodeRequirements converts the base64 X-PAYMENT-REQUIRED header value
// into a PaymentRequired document.
func DecodeRequirements(encoded string) (types.PaymentRequired, error) {
	var requirements types.PaymentRequired

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return requirements, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &requirements); err != nil {
		return requirements, fmt.Errorf("failed to unmarshal requirements: %w", err)
	}

	return requirements, nil
}

// EncodeRequirements converts a PaymentRequired document to a base64
// header value.
func EncodeRequirements(requirements types.PaymentRequired) (string, error) {
	reqJSON, err := json.Marshal(requirements)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirements: %w", err)
	}
	return base64.StdEncoding.EncodeToString(reqJSON), nil
}

// EncodePayment converts a PaymentPayload to the base64 X-PAYMENT header
// value.
func EncodePayment(payment types.PaymentPayload) (string, error) {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(paymentJSON), nil
}

// DecodePayment converts a base64 X-PAYMENT header value back into a
// PaymentPayload.
func DecodePayment(encoded string) (types.PaymentPayload, error) {
	var payment types.PaymentPayload

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return payment, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &payment); err != nil {
		return payment, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	return payment, nil
}

// DecodeSettlement converts the base64 X-PAYMENT-RESPONSE header value
// into a SettlementInfo.
func DecodeSettlement(encoded string) (types.SettlementInfo, error) {
	var settlement types.SettlementInfo

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return settlement, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &settlement); err != nil {
		return settlement, fmt.Errorf("failed to unmarshal settlement: %w", err)
	}

	return settlement, nil
}

// EncodeSettlement converts a SettlementInfo to a base64 header value.
func EncodeSettlement(settlement types.SettlementInfo) (string, error) {
	settlementJSON, err := json.Marshal(settlement)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settlement: %w", err)
	}
	return base64.StdEncoding.EncodeToString(settlementJSON), nil
}
