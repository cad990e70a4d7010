package payment

import "github.com/memberportal/backend/internal/domain/shared"

var (
	ErrCallbackSignature = shared.NewDomainError("INVALID_SIGNATURE", "Callback signature is invalid")
	ErrCallbackEvent     = shared.NewDomainError("INVALID_CALLBACK_EVENT", "Unsupported callback event")
	ErrInvalidCallback   = shared.NewDomainError("INVALID_CALLBACK", "Callback payload is invalid")
	ErrUnknownMethod     = shared.NewDomainError("INVALID_METHOD", "Payment method is not available")
)

// CallbackEventPaymentStatus is the only callback event acted upon
const CallbackEventPaymentStatus = "payment_status"
