package payment

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSignature is returned when a callback signature does not verify
var ErrInvalidSignature = errors.New("payment: invalid callback signature")

// Channel is a payment method offered by the gateway
type Channel struct {
	Group      string  `json:"group"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	FeeFlat    int64   `json:"fee_flat"`
	FeePercent float64 `json:"fee_percent"`
	MinAmount  int64   `json:"minimum_amount"`
	MaxAmount  int64   `json:"maximum_amount"`
	IconURL    string  `json:"icon_url"`
	Active     bool    `json:"active"`
}

// Fee is the fee breakdown for an amount paid through one channel
type Fee struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CustomerFee int64  `json:"customer_fee"`
	MerchantFee int64  `json:"merchant_fee"`
}

// OrderItem is a line of the transaction shown on the checkout page
type OrderItem struct {
	SKU      string
	Name     string
	Price    int64
	Quantity int
}

// CreateRequest asks the gateway to open a closed-payment transaction
type CreateRequest struct {
	Method        string
	MerchantRef   string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Items         []OrderItem
	ExpiresAt     time.Time
}

// Instruction is one block of payment steps
type Instruction struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Checkout is what the gateway returns for a created transaction
type Checkout struct {
	Reference    string
	MerchantRef  string
	CheckoutURL  string
	PayCode      string
	PayURL       string
	Amount       int64
	CustomerFee  int64
	Status       string
	ExpiresAt    time.Time
	Instructions []Instruction
}

// TransactionDetail is the gateway's current view of a transaction
type TransactionDetail struct {
	Reference      string
	MerchantRef    string
	Status         string
	AmountReceived int64
	PaidAt         *time.Time
}

// Callback is a verified payment notification
type Callback struct {
	Reference      string
	MerchantRef    string
	Status         string
	AmountReceived int64
	PaidAt         *time.Time
}

// Gateway is the payment provider port
type Gateway interface {
	ListChannels(ctx context.Context) ([]Channel, error)
	CalculateFee(ctx context.Context, amount int64, method string) ([]Fee, error)
	CreateTransaction(ctx context.Context, req CreateRequest) (*Checkout, error)
	TransactionDetail(ctx context.Context, reference string) (*TransactionDetail, error)
	// ParseCallback verifies the signature over the raw body and decodes it.
	// Returns ErrInvalidSignature when verification fails.
	ParseCallback(body []byte, signature string) (*Callback, error)
}

// MayHaveApplied reports whether the gateway could have carried out a call
// that returned err. Errors that implement Ambiguous() decide for themselves;
// anything else is treated as possibly applied.
func MayHaveApplied(err error) bool {
	if err == nil {
		return true
	}
	var a interface{ Ambiguous() bool }
	if errors.As(err, &a) {
		return a.Ambiguous()
	}
	return true
}
