package payment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTopUp(t *testing.T) *TopUp {
	t.Helper()
	tu, err := NewTopUp(uuid.New(), uuid.New(), decimal.NewFromInt(100000), "briva", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tu
}

func TestNewTopUp(t *testing.T) {
	tu := newTestTopUp(t)
	assert.Equal(t, StatusUnpaid, tu.Status)
	assert.Equal(t, "BRIVA", tu.Method)
	assert.Regexp(t, `^TOPUP-\d{8}-[0-9A-F]{8}$`, tu.MerchantRef)

	_, err := NewTopUp(uuid.New(), uuid.New(), decimal.Zero, "BRIVA", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NewTopUp(uuid.New(), uuid.New(), decimal.NewFromInt(10), " ", time.Now())
	assert.Error(t, err)
}

func TestNewMerchantRef_Unique(t *testing.T) {
	seen := map[string]bool{}
	now := time.Now()
	for i := 0; i < 1000; i++ {
		ref := NewMerchantRef(now)
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		ok   bool
	}{
		{"PAID", StatusPaid, true},
		{"paid", StatusPaid, true},
		{"REFUND", StatusRefunded, true},
		{"EXPIRED", StatusExpired, true},
		{"PENDING", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestTopUp_ApplyStatus(t *testing.T) {
	t.Run("paid emits event once", func(t *testing.T) {
		tu := newTestTopUp(t)
		paidAt := time.Now()

		changed, err := tu.ApplyStatus(StatusPaid, decimal.NewFromInt(99000), &paidAt)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusPaid, tu.Status)
		assert.True(t, tu.AmountReceived.Equal(decimal.NewFromInt(99000)))
		assert.Len(t, tu.GetDomainEvents(), 1)

		changed, err = tu.ApplyStatus(StatusPaid, decimal.Zero, nil)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Len(t, tu.GetDomainEvents(), 1)
	})

	t.Run("final states are terminal", func(t *testing.T) {
		tu := newTestTopUp(t)
		_, err := tu.ApplyStatus(StatusExpired, decimal.Zero, nil)
		require.NoError(t, err)

		_, err = tu.ApplyStatus(StatusPaid, decimal.Zero, nil)
		assert.ErrorIs(t, err, ErrTopUpFinalized)
		assert.Equal(t, StatusExpired, tu.Status)
	})

	t.Run("paid without amount uses requested amount", func(t *testing.T) {
		tu := newTestTopUp(t)
		_, err := tu.ApplyStatus(StatusPaid, decimal.Zero, nil)
		require.NoError(t, err)
		assert.True(t, tu.AmountReceived.Equal(tu.Amount))
		assert.NotNil(t, tu.PaidAt)
	})

	t.Run("invalid", func(t *testing.T) {
		tu := newTestTopUp(t)
		_, err := tu.ApplyStatus("WHATEVER", decimal.Zero, nil)
		assert.Error(t, err)
	})
}

func TestTopUp_IsStale(t *testing.T) {
	tu := newTestTopUp(t)
	assert.False(t, tu.IsStale(time.Now()))
	assert.True(t, tu.IsStale(time.Now().Add(2*time.Hour)))

	_, err := tu.ApplyStatus(StatusFailed, decimal.Zero, nil)
	require.NoError(t, err)
	assert.False(t, tu.IsStale(time.Now().Add(2*time.Hour)))
}

func TestTopUp_AttachCheckout(t *testing.T) {
	tu := newTestTopUp(t)
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	tu.AttachCheckout(&Checkout{Reference: "T0001", CheckoutURL: "https://pay", PayCode: "123", CustomerFee: 4250, ExpiresAt: exp})
	assert.Equal(t, "T0001", tu.Reference)
	assert.True(t, tu.CustomerFee.Equal(decimal.NewFromInt(4250)))
	assert.Equal(t, exp, tu.ExpiresAt)
}
