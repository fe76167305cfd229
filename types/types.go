// Package types defines the x402 wire types exchanged between a paying
// client and a resource server, plus the error taxonomy of this library.
package types

// X402Version is the protocol version this library speaks.
const X402Version = 1

// SchemeExact is the only payment scheme the agent client produces.
const SchemeExact = "exact"

// Headers defined by the x402 protocol.
const (
	// HeaderPaymentRequired carries base64 payment requirements on a 402.
	HeaderPaymentRequired = "X-PAYMENT-REQUIRED"

	// HeaderPayment carries the base64 payment payload on the retry.
	HeaderPayment = "X-PAYMENT"

	// HeaderPaymentResponse carries the base64 settlement confirmation
	// on a successful paid response.
	HeaderPaymentResponse = "X-PAYMENT-RESPONSE"
)

// PaymentRequirements is one accepted payment option offered by a
// resource server inside a 402 response.
type PaymentRequirements struct {
	// Scheme of the payment protocol to use (e.g., "exact").
	Scheme string `json:"scheme,omitempty"`

	// Network identifier the payment must be made on.
	Network string `json:"network" validate:"required"`

	// Maximum amount required to pay for the resource in atomic units
	// of the asset. Represented as a decimal string because Go does not
	// support uint256.
	MaxAmountRequired string `json:"maxAmountRequired" validate:"required,number"`

	// Resource is the URL of the resource to pay for.
	Resource string `json:"resource,omitempty"`

	// Description of the resource being purchased.
	Description string `json:"description,omitempty"`

	// MIME type of the resource response.
	MimeType string `json:"mimeType,omitempty"`

	// PayTo is the address the payment must be sent to.
	PayTo string `json:"payTo" validate:"required"`

	// MaxTimeoutSeconds is the maximum time for the server to respond.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds,omitempty"`

	// Asset is the address of the EIP-3009 compliant ERC20 contract.
	Asset string `json:"asset,omitempty"`

	// Extra carries scheme-specific details, e.g. `name` and `version`
	// of the EIP-712 domain for the `exact` scheme on EVM.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// PaymentRequired is the document a resource server encodes into the
// X-PAYMENT-REQUIRED header of a 402 response.
type PaymentRequired struct {
	// Version of the x402 payment protocol.
	X402Version int `json:"x402Version,omitempty"`

	// Accepts lists the payment options the resource server accepts.
	Accepts []PaymentRequirements `json:"accepts"`

	// Error is an optional message from the resource server.
	Error string `json:"error,omitempty"`
}

// ExactEvmAuthorization is the EIP-3009 TransferWithAuthorization message
// as it travels on the wire. Value, ValidAfter and ValidBefore are decimal
// strings and Nonce is 0x-prefixed hex; the field naming and string typing
// are part of the wire contract the settlement side verifies against.
type ExactEvmAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// ExactEvmPayload pairs a signed authorization with its signature.
type ExactEvmPayload struct {
	Signature     string                `json:"signature"`
	Authorization ExactEvmAuthorization `json:"authorization"`
}

// PaymentPayload is the document the client encodes into the X-PAYMENT
// header when retrying a request with proof of payment.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     ExactEvmPayload `json:"payload"`
}

// SettlementInfo is the confirmation a server may attach to a paid
// response via the X-PAYMENT-RESPONSE header.
type SettlementInfo struct {
	Success         bool   `json:"success,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	NetworkID       string `json:"networkId,omitempty"`
	Payer           string `json:"payer,omitempty"`
}
