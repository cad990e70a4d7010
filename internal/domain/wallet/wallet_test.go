package wallet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T, balance int64) *Wallet {
	t.Helper()
	w, err := NewWallet(uuid.New(), uuid.New())
	require.NoError(t, err)
	w.Balance = decimal.NewFromInt(balance)
	return w
}

func TestNewWallet(t *testing.T) {
	_, err := NewWallet(uuid.Nil, uuid.New())
	assert.Error(t, err)
	_, err = NewWallet(uuid.New(), uuid.Nil)
	assert.Error(t, err)

	w, err := NewWallet(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, 1, w.Version)
}

func TestWallet_Credit(t *testing.T) {
	w := newTestWallet(t, 10000)
	topUpID := uuid.New()

	tx, err := w.Credit(TransactionTypeTopUp, decimal.NewFromInt(50000), Source{Type: SourceTypeTopUp, ID: &topUpID, Reference: "T123"})
	require.NoError(t, err)

	assert.True(t, w.Balance.Equal(decimal.NewFromInt(60000)))
	assert.True(t, tx.BalanceBefore.Equal(decimal.NewFromInt(10000)))
	assert.True(t, tx.BalanceAfter.Equal(decimal.NewFromInt(60000)))
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(50000)))
	assert.True(t, tx.IsCredit())
	assert.Equal(t, w.ID, tx.WalletID)
	assert.Equal(t, w.UserID, tx.UserID)
	assert.Equal(t, "T123", tx.Reference)
	assert.Equal(t, 2, w.Version)

	_, err = w.Credit(TransactionTypeTopUp, decimal.Zero, Source{Type: SourceTypeTopUp})
	assert.Error(t, err)
	_, err = w.Credit(TransactionTypePurchase, decimal.NewFromInt(1), Source{Type: SourceTypeOrder})
	assert.Error(t, err)
}

func TestWallet_Debit(t *testing.T) {
	w := newTestWallet(t, 10000)

	tx, err := w.Debit(TransactionTypePurchase, decimal.NewFromInt(2500), Source{Type: SourceTypeOrder})
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(7500)))
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(-2500)))
	assert.False(t, tx.IsCredit())

	_, err = w.Debit(TransactionTypePurchase, decimal.NewFromInt(7501), Source{Type: SourceTypeOrder})
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(7500)), "failed debit must not change the balance")

	_, err = w.Debit(TransactionTypeRefund, decimal.NewFromInt(1), Source{Type: SourceTypeClaim})
	assert.Error(t, err)
}

func TestWallet_Adjust(t *testing.T) {
	operator := uuid.New()

	t.Run("positive", func(t *testing.T) {
		w := newTestWallet(t, 0)
		tx, err := w.Adjust(decimal.NewFromInt(1000), operator, "bonus")
		require.NoError(t, err)
		assert.Equal(t, TransactionTypeAdjustment, tx.Type)
		assert.Equal(t, SourceTypeManual, tx.SourceType)
		assert.Equal(t, "bonus", tx.Remark)
		require.NotNil(t, tx.OperatorID)
		assert.Equal(t, operator, *tx.OperatorID)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("negative cannot overdraw", func(t *testing.T) {
		w := newTestWallet(t, 500)
		_, err := w.Adjust(decimal.NewFromInt(-501), operator, "")
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)

		tx, err := w.Adjust(decimal.NewFromInt(-500), operator, "chargeback")
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(500)))
		assert.True(t, w.Balance.IsZero())
	})

	t.Run("zero", func(t *testing.T) {
		w := newTestWallet(t, 500)
		_, err := w.Adjust(decimal.Zero, operator, "")
		assert.Error(t, err)
	})

	t.Run("fractional", func(t *testing.T) {
		w := newTestWallet(t, 500)
		for _, delta := range []string{"0.001", "-0.5", "100.25"} {
			_, err := w.Adjust(decimal.RequireFromString(delta), operator, "")
			var de *shared.DomainError
			require.ErrorAs(t, err, &de, delta)
			assert.Equal(t, "INVALID_AMOUNT", de.Code, delta)
		}
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 1, w.Version)

		_, err := w.Adjust(decimal.RequireFromString("100.000"), operator, "")
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(600)))
	})
}

func TestWallet_RejectsFractionalAmounts(t *testing.T) {
	w := newTestWallet(t, 10000)
	_, err := w.Credit(TransactionTypeTopUp, decimal.RequireFromString("1.5"), Source{Type: SourceTypeTopUp})
	assert.Error(t, err)
	_, err = w.Debit(TransactionTypePurchase, decimal.RequireFromString("0.01"), Source{Type: SourceTypeOrder})
	assert.Error(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(10000)))
	assert.True(t, w.CanAfford(decimal.NewFromInt(10000)))
	assert.False(t, w.CanAfford(decimal.NewFromInt(10001)))
}
