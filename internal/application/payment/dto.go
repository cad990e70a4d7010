package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memberportal/backend/internal/domain/payment"
)

// Config bounds top-ups. Amounts are whole rupiah.
type Config struct {
	MinAmount      int64
	MaxAmount      int64
	Expiry         time.Duration
	IdempotencyTTL time.Duration
	StaleBatch     int
}

// CreateTopUpInput asks for a top-up through one payment channel
type CreateTopUpInput struct {
	Amount int64
	Method string
}

// CallbackInput is a raw gateway notification
type CallbackInput struct {
	Body      []byte
	Signature string
	Event     string
}

// ListTopUpsInput narrows a top-up listing. UserID is an admin filter.
type ListTopUpsInput struct {
	UserID   *uuid.UUID
	Status   string
	Method   string
	Page     int
	PageSize int
}

// TopUpResponse describes a top-up
type TopUpResponse struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	MerchantRef    string          `json:"merchant_ref"`
	Reference      string          `json:"reference,omitempty"`
	Method         string          `json:"method"`
	Amount         decimal.Decimal `json:"amount"`
	CustomerFee    decimal.Decimal `json:"customer_fee"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	CheckoutURL    string          `json:"checkout_url,omitempty"`
	PayCode        string          `json:"pay_code,omitempty"`
	Status         string          `json:"status"`
	ExpiresAt      time.Time       `json:"expires_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func ToTopUpResponse(t *payment.TopUp) TopUpResponse {
	return TopUpResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		MerchantRef:    t.MerchantRef,
		Reference:      t.Reference,
		Method:         t.Method,
		Amount:         t.Amount,
		CustomerFee:    t.CustomerFee,
		AmountReceived: t.AmountReceived,
		CheckoutURL:    t.CheckoutURL,
		PayCode:        t.PayCode,
		Status:         string(t.Status),
		ExpiresAt:      t.ExpiresAt,
		PaidAt:         t.PaidAt,
		CreatedAt:      t.CreatedAt,
	}
}

// CheckoutResponse is a new top-up with the steps to pay it
type CheckoutResponse struct {
	TopUp        TopUpResponse         `json:"topup"`
	Instructions []payment.Instruction `json:"instructions"`
}
