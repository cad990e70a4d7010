package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(t *testing.T, warrantyDays int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(uuid.New(), "spotify", catalog.ProductDetails{
		Name:         "Spotify Family",
		Category:     "music",
		Price:        decimal.NewFromInt(25000),
		WarrantyDays: warrantyDays,
	})
	require.NoError(t, err)
	return p
}

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := testProduct(t, 7)
	userID := uuid.New()
	stockID := uuid.New()

	o, err := NewOrder(userID, p, stockID, now)
	require.NoError(t, err)

	assert.Equal(t, p.TenantID, o.TenantID)
	assert.Equal(t, "Spotify Family", o.ProductName)
	assert.True(t, o.Price.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, now.AddDate(0, 0, 7), o.WarrantyExpiresAt)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Regexp(t, `^ORD-20260301-[0-9a-f]{8}$`, o.OrderNumber)
	assert.True(t, o.IsOwnedBy(userID))

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderPlaced, events[0].EventType())

	_, err = NewOrder(uuid.Nil, p, stockID, now)
	assert.Error(t, err)
	_, err = NewOrder(userID, p, uuid.Nil, now)
	assert.Error(t, err)
}

func TestOrder_Warranty(t *testing.T) {
	now := time.Now()
	o, err := NewOrder(uuid.New(), testProduct(t, 3), uuid.New(), now)
	require.NoError(t, err)

	assert.True(t, o.IsUnderWarranty(now.AddDate(0, 0, 3)))
	assert.False(t, o.IsUnderWarranty(now.AddDate(0, 0, 3).Add(time.Second)))

	noWarranty, err := NewOrder(uuid.New(), testProduct(t, 0), uuid.New(), now)
	require.NoError(t, err)
	assert.True(t, noWarranty.IsUnderWarranty(now))
	assert.False(t, noWarranty.IsUnderWarranty(now.Add(time.Minute)))
}

func TestOrder_ReplaceAndRefund(t *testing.T) {
	o, err := NewOrder(uuid.New(), testProduct(t, 30), uuid.New(), time.Now())
	require.NoError(t, err)

	assert.Error(t, o.ReplaceStock(o.StockItemID))
	replacement := uuid.New()
	require.NoError(t, o.ReplaceStock(replacement))
	assert.Equal(t, replacement, o.StockItemID)
	assert.Equal(t, 1, o.ReplacementCount)

	require.NoError(t, o.MarkRefunded(time.Now()))
	assert.Equal(t, StatusRefunded, o.Status)
	assert.NotNil(t, o.RefundedAt)

	assert.Error(t, o.MarkRefunded(time.Now()))
	assert.Error(t, o.ReplaceStock(uuid.New()))
}

func TestNewOrderWithID(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.MustParse("0b1c2d3e-0000-4000-8000-000000000001")

	o, err := NewOrderWithID(id, uuid.New(), testProduct(t, 7), uuid.New(), now)
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.Equal(t, "ORD-20260301-0b1c2d3e", o.OrderNumber)
	require.Len(t, o.GetDomainEvents(), 1)
	assert.Equal(t, id, o.GetDomainEvents()[0].AggregateID())

	_, err = NewOrderWithID(uuid.Nil, uuid.New(), testProduct(t, 7), uuid.New(), now)
	assert.Error(t, err)
}
