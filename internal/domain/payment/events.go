package payment

import (
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeTopUp = "TopUp"

	EventTypeTopUpPaid = "TopUpPaid"
)

// TopUpPaidEvent is published once per top-up, when the gateway confirms payment
type TopUpPaidEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID       `json:"user_id"`
	MerchantRef string          `json:"merchant_ref"`
	Reference   string          `json:"reference"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
}

func NewTopUpPaidEvent(t *TopUp) *TopUpPaidEvent {
	return &TopUpPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTopUpPaid, AggregateTypeTopUp, t.ID, t.TenantID),
		UserID:          t.UserID,
		MerchantRef:     t.MerchantRef,
		Reference:       t.Reference,
		Method:          t.Method,
		Amount:          t.Amount,
	}
}
