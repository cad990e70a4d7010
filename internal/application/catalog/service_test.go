package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	catalogapp "github.com/memberportal/backend/internal/application/catalog"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/cache"
	"github.com/memberportal/backend/internal/infrastructure/persistence"
	"github.com/memberportal/backend/internal/infrastructure/persistence/testdb"
	"github.com/memberportal/backend/internal/infrastructure/secret"
)

type fixture struct {
	tenantID uuid.UUID
	adminID  uuid.UUID
	service  *catalogapp.Service
	stock    *persistence.GormStockRepository
	audits   *auditapp.Service
	cache    *cache.Cache
	sealer   *secret.Sealer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	logger := zap.NewNop()
	sealer, err := secret.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	c := cache.New("catalog", "test:", cache.NewMemoryStore())
	audits := auditapp.NewService(persistence.NewGormAuditLogRepository(db), logger)
	stock := persistence.NewGormStockRepository(db)

	return &fixture{
		tenantID: uuid.New(),
		adminID:  uuid.New(),
		service: catalogapp.NewService(
			persistence.NewGormProductRepository(db),
			stock,
			sealer,
			c,
			time.Minute,
			audits,
			logger,
		),
		stock:  stock,
		audits: audits,
		cache:  c,
		sealer: sealer,
	}
}

func (f *fixture) createProduct(t *testing.T, name string) *catalogapp.ProductResponse {
	t.Helper()
	p, err := f.service.CreateProduct(context.Background(), f.tenantID, f.adminID, catalogapp.ProductInput{
		Name:         name,
		Category:     "Streaming",
		Description:  "Shared premium account",
		Price:        decimal.NewFromInt(25000),
		WarrantyDays: 30,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct_UniqueSlug(t *testing.T) {
	f := newFixture(t)

	first := f.createProduct(t, "Netflix Premium 1 Month")
	second := f.createProduct(t, "Netflix Premium 1 Month")

	assert.Equal(t, "netflix-premium-1-month", first.Slug)
	assert.Equal(t, "netflix-premium-1-month-2", second.Slug)
	assert.Equal(t, "streaming", first.Category)
	assert.Equal(t, "ACTIVE", first.Status)
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CreateProduct(context.Background(), f.tenantID, f.adminID, catalogapp.ProductInput{
		Name:     "Bad",
		Category: "misc",
		Price:    decimal.Zero,
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_PRICE", de.Code)
}

func TestAddStock_Deduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Spotify Family")

	res, err := f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{
		"user1@mail.com:pass1",
		"  user1@mail.com:pass1  ",
		"",
		"user2@mail.com:pass2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Blank)

	res, err = f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{"user2@mail.com:pass2", "user3@mail.com:pass3"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Duplicates)

	got, err := f.service.GetProductAdmin(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.AvailableStock)
}

func TestAddStock_StoresSealedCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Disney Plus")

	_, err := f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{"secret-login:hunter2"})
	require.NoError(t, err)

	item, err := f.stock.ClaimAvailable(ctx, f.tenantID, p.ID, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(item.Credential), "hunter2")
	plain, err := f.sealer.Open(item.Credential)
	require.NoError(t, err)
	assert.Equal(t, "secret-login:hunter2", plain)
}

func TestAddStock_RejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)
	p := f.createProduct(t, "Canva Pro")
	_, err := f.service.AddStock(context.Background(), f.tenantID, f.adminID, p.ID, nil)
	assert.Error(t, err)
}

func TestListProducts_OnlyActiveAndCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.createProduct(t, "YouTube Premium")
	hidden := f.createProduct(t, "Old Product")
	_, err := f.service.SetProductStatus(ctx, f.tenantID, f.adminID, hidden.ID, catalog.ProductStatusInactive)
	require.NoError(t, err)

	page, err := f.service.ListProducts(ctx, f.tenantID, catalogapp.ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, active.ID, page.Items[0].ID)

	_, err = f.service.ListProducts(ctx, f.tenantID, catalogapp.ListProductsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.cache.Stats().Hits)

	_, err = f.service.GetProduct(ctx, f.tenantID, hidden.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := f.service.ListAllProducts(ctx, f.tenantID, catalogapp.ListProductsInput{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.Equal(t, hidden.ID, all.Items[0].ID)
}

func TestAdminWrite_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Prime Video")

	before, err := f.service.GetProduct(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, before.AvailableStock)

	_, err = f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{"a:b"})
	require.NoError(t, err)

	after, err := f.service.GetProduct(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.AvailableStock)
}

func TestCacheInvalidator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "HBO Max")
	_, err := f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{"x:y"})
	require.NoError(t, err)

	cached, err := f.service.GetProduct(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), cached.AvailableStock)

	// a purchase elsewhere takes the item
	_, err = f.stock.ClaimAvailable(ctx, f.tenantID, p.ID, uuid.New(), time.Now())
	require.NoError(t, err)

	stale, err := f.service.GetProduct(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.AvailableStock)

	h := catalogapp.NewCacheInvalidator(f.service)
	assert.Contains(t, h.EventTypes(), order.EventTypeOrderPlaced)
	event := &order.OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(order.EventTypeOrderPlaced, order.AggregateTypeOrder, uuid.New(), f.tenantID),
		ProductID:       p.ID,
	}
	require.NoError(t, h.Handle(ctx, event))

	fresh, err := f.service.GetProduct(ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, fresh.AvailableStock)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unsold := f.createProduct(t, "Unsold")
	require.NoError(t, f.service.DeleteProduct(ctx, f.tenantID, f.adminID, unsold.ID))
	_, err := f.service.GetProductAdmin(ctx, f.tenantID, unsold.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	sold := f.createProduct(t, "Sold")
	_, err = f.service.AddStock(ctx, f.tenantID, f.adminID, sold.ID, []string{"cred"})
	require.NoError(t, err)
	_, err = f.stock.ClaimAvailable(ctx, f.tenantID, sold.ID, uuid.New(), time.Now())
	require.NoError(t, err)

	err = f.service.DeleteProduct(ctx, f.tenantID, f.adminID, sold.ID)
	assert.ErrorIs(t, err, catalogapp.ErrProductHasSales)
}

func TestRevokeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Vidio")
	_, err := f.service.AddStock(ctx, f.tenantID, f.adminID, p.ID, []string{"one", "two"})
	require.NoError(t, err)

	list, err := f.service.ListStock(ctx, f.tenantID, p.ID, catalogapp.ListStockInput{Status: "available"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)

	revoked, err := f.service.RevokeStock(ctx, f.tenantID, f.adminID, list.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "REVOKED", revoked.Status)

	_, err = f.service.RevokeStock(ctx, f.tenantID, f.adminID, list.Items[0].ID)
	assert.Error(t, err)

	list, err = f.service.ListStock(ctx, f.tenantID, p.ID, catalogapp.ListStockInput{Status: "AVAILABLE"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	_, err = f.service.ListStock(ctx, f.tenantID, p.ID, catalogapp.ListStockInput{Status: "bogus"})
	assert.Error(t, err)
}

func TestAdminWrites_AreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.createProduct(t, "Audited")
	_, err := f.service.UpdateProduct(ctx, f.tenantID, f.adminID, p.ID, catalogapp.ProductInput{
		Name:         "Audited v2",
		Category:     "misc",
		Price:        decimal.NewFromInt(1000),
		WarrantyDays: 7,
	})
	require.NoError(t, err)

	logs, err := f.audits.List(ctx, f.tenantID, auditapp.ListInput{ResourceType: "product"})
	require.NoError(t, err)
	actions := make([]string, 0, len(logs.Items))
	for _, l := range logs.Items {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []string{audit.ActionProductCreate, audit.ActionProductUpdate}, actions)
}
