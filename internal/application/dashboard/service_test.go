package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberportal/backend/internal/application/dashboard"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/infrastructure/persistence"
	"github.com/memberportal/backend/internal/infrastructure/persistence/testdb"
)

func TestStats(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()
	tenantID := uuid.New()

	users := persistence.NewGormUserRepository(db)
	products := persistence.NewGormProductRepository(db)
	stock := persistence.NewGormStockRepository(db)
	orders := persistence.NewGormOrderRepository(db)
	topups := persistence.NewGormTopUpRepository(db)
	claims := persistence.NewGormClaimRepository(db)

	alice, err := identity.NewMember(tenantID, "alice@example.com", "alice", "password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, alice))
	bob, err := identity.NewMember(tenantID, "bob@example.com", "bob", "password123")
	require.NoError(t, err)
	require.NoError(t, bob.SetStatus(identity.UserStatusSuspended))
	require.NoError(t, users.Create(ctx, bob))

	p, err := catalog.NewProduct(tenantID, "netflix", catalog.ProductDetails{
		Name:         "Netflix",
		Category:     "streaming",
		Price:        decimal.NewFromInt(25000),
		WarrantyDays: 30,
	})
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, p))
	var items []*catalog.StockItem
	for i := 0; i < 3; i++ {
		item, err := catalog.NewStockItem(tenantID, p.ID, []byte("sealed"), uuid.NewString())
		require.NoError(t, err)
		items = append(items, item)
	}
	require.NoError(t, stock.CreateBatch(ctx, items))

	now := time.Now()
	orderID := uuid.New()
	sold, err := stock.ClaimAvailable(ctx, tenantID, p.ID, orderID, now)
	require.NoError(t, err)
	o, err := order.NewOrderWithID(orderID, alice.ID, p, sold.ID, now)
	require.NoError(t, err)
	require.NoError(t, orders.Create(ctx, o))

	topup, err := payment.NewTopUp(tenantID, alice.ID, decimal.NewFromInt(100000), "QRIS", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = topup.ApplyStatus(payment.StatusPaid, decimal.Zero, &now)
	require.NoError(t, err)
	require.NoError(t, topups.Create(ctx, topup))

	c, err := claim.NewWarrantyClaim(tenantID, o.ID, alice.ID, "Account stopped working", nil)
	require.NoError(t, err)
	require.NoError(t, claims.Create(ctx, c))

	stats, err := dashboard.NewService(users, products, stock, orders, topups, claims).Stats(ctx, tenantID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalMembers)
	assert.Equal(t, int64(1), stats.ActiveMembers)
	assert.Equal(t, int64(1), stats.ActiveProducts)
	assert.Equal(t, int64(2), stats.AvailableStock)
	assert.Equal(t, int64(1), stats.Orders30d)
	assert.True(t, stats.Revenue30d.Equal(decimal.NewFromInt(25000)), "revenue %s", stats.Revenue30d)
	assert.True(t, stats.TopUpVolume30d.Equal(decimal.NewFromInt(100000)), "volume %s", stats.TopUpVolume30d)
	assert.Equal(t, int64(1), stats.PendingClaims)
}

func TestStats_EmptyTenant(t *testing.T) {
	db := testdb.New(t)
	svc := dashboard.NewService(
		persistence.NewGormUserRepository(db),
		persistence.NewGormProductRepository(db),
		persistence.NewGormStockRepository(db),
		persistence.NewGormOrderRepository(db),
		persistence.NewGormTopUpRepository(db),
		persistence.NewGormClaimRepository(db),
	)
	stats, err := svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMembers)
	assert.True(t, stats.Revenue30d.IsZero())
	assert.True(t, stats.TopUpVolume30d.IsZero())
}
