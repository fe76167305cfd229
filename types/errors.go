package types

import "errors"

// Error codes for payment negotiation and wallet failures.
const (
	ErrUnknownNetwork           = "unknown_network"
	ErrBudgetExceeded           = "budget_exceeded"
	ErrPriceExceedsRequestLimit = "price_exceeds_request_limit"
	ErrPriceExceedsBudget       = "price_exceeds_budget"
	ErrNoCompatibleOption       = "no_compatible_option"
	ErrNoOptions                = "no_payment_options"
	ErrMalformedRequirements    = "malformed_requirements"
	ErrSigningFailed            = "signing_failed"
	ErrPostPaymentRequestFailed = "post_payment_request_failed"
	ErrMissingCredential        = "missing_credential"
)

// X402Error is the typed error returned by every failing operation in
// this library. Code is stable and intended for programmatic handling;
// Message is for humans; Data carries optional diagnostic context.
type X402Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *X402Error) Error() string {
	return e.Message
}

// NewError creates an X402Error with the given code and message.
func NewError(code, message string) *X402Error {
	return &X402Error{Code: code, Message: message}
}

// WithData attaches diagnostic context to the error.
func (e *X402Error) WithData(data interface{}) *X402Error {
	e.Data = data
	return e
}

// ErrorCode extracts the x402 error code from err, or "" when err is not
// an X402Error.
func ErrorCode(err error) string {
	var xe *X402Error
	if errors.As(err, &xe) {
		return xe.Code
	}
	return ""
}
