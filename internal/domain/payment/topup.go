package payment

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status mirrors the Tripay transaction status
type Status string

const (
	StatusUnpaid   Status = "UNPAID"
	StatusPaid     Status = "PAID"
	StatusExpired  Status = "EXPIRED"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusExpired, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// IsFinal reports whether no further transition is possible
func (s Status) IsFinal() bool {
	return s.IsValid() && s != StatusUnpaid
}

// ParseStatus maps a vendor status string. Tripay reports refunds as "REFUND".
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s == "REFUND" {
		s = StatusRefunded
	}
	return s, s.IsValid()
}

var (
	ErrTopUpFinalized = shared.NewDomainError("TOPUP_FINALIZED", "Top-up is already finalized")
	ErrInvalidAmount  = shared.NewDomainError("INVALID_AMOUNT", "Top-up amount is out of range")
)

// TopUp is a wallet top-up paid through a Tripay closed-payment transaction
type TopUp struct {
	shared.TenantAggregateRoot
	UserID         uuid.UUID
	MerchantRef    string
	Reference      string
	Method         string
	Amount         decimal.Decimal
	CustomerFee    decimal.Decimal
	AmountReceived decimal.Decimal
	CheckoutURL    string
	PayCode        string
	Status         Status
	ExpiresAt      time.Time
	PaidAt         *time.Time
}

// NewTopUp creates an UNPAID top-up with a fresh merchant reference
func NewTopUp(tenantID, userID uuid.UUID, amount decimal.Decimal, method string, expiresAt time.Time) (*TopUp, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method cannot be empty")
	}
	t := &TopUp{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Method:              method,
		Amount:              amount,
		CustomerFee:         decimal.Zero,
		AmountReceived:      decimal.Zero,
		Status:              StatusUnpaid,
		ExpiresAt:           expiresAt,
	}
	t.MerchantRef = NewMerchantRef(t.CreatedAt)
	return t, nil
}

// NewMerchantRef returns TOPUP-<yyyymmdd>-<8 hex>
func NewMerchantRef(at time.Time) string {
	id := uuid.New()
	return "TOPUP-" + at.Format("20060102") + "-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// AttachCheckout records what the gateway returned for the created transaction
func (t *TopUp) AttachCheckout(c *Checkout) {
	t.Reference = c.Reference
	t.CheckoutURL = c.CheckoutURL
	t.PayCode = c.PayCode
	t.CustomerFee = decimal.NewFromInt(c.CustomerFee)
	if !c.ExpiresAt.IsZero() {
		t.ExpiresAt = c.ExpiresAt
	}
	t.IncrementVersion()
}

// ApplyStatus moves the top-up out of UNPAID.
// Re-applying the current final status reports changed=false without error.
func (t *TopUp) ApplyStatus(status Status, amountReceived decimal.Decimal, paidAt *time.Time) (changed bool, err error) {
	if !status.IsValid() {
		return false, shared.NewDomainError("INVALID_STATUS", "Invalid top-up status")
	}
	if status == t.Status {
		return false, nil
	}
	if t.Status.IsFinal() {
		return false, ErrTopUpFinalized
	}
	if status == StatusUnpaid {
		return false, nil
	}

	t.Status = status
	if status == StatusPaid {
		at := time.Now()
		if paidAt != nil {
			at = *paidAt
		}
		t.PaidAt = &at
		if amountReceived.IsPositive() {
			t.AmountReceived = amountReceived
		} else {
			t.AmountReceived = t.Amount
		}
		t.AddDomainEvent(NewTopUpPaidEvent(t))
	}
	t.IncrementVersion()
	return true, nil
}

// IsStale reports whether an UNPAID top-up has passed its expiry
func (t *TopUp) IsStale(now time.Time) bool {
	return t.Status == StatusUnpaid && now.After(t.ExpiresAt)
}

// IsOwnedBy reports whether userID created the top-up
func (t *TopUp) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}
