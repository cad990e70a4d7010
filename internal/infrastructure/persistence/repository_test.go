package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/tutorial"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/memberportal/backend/internal/infrastructure/persistence/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, tenantID uuid.UUID, slug string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, slug, catalog.ProductDetails{
		Name:         "Netflix Premium " + slug,
		Category:     "streaming",
		Description:  "1 month shared profile",
		Price:        decimal.NewFromInt(35000),
		WarrantyDays: 30,
	})
	require.NoError(t, err)
	return p
}

func newTestStock(t *testing.T, p *catalog.Product, fingerprint string) *catalog.StockItem {
	t.Helper()
	item, err := catalog.NewStockItem(p.TenantID, p.ID, []byte("sealed-"+fingerprint), fingerprint)
	require.NoError(t, err)
	return item
}

func TestGormUserRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	user, err := identity.NewMember(tenantID, "Alice@Example.com", "alice", "s3cretpass")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("finds by email or username, case insensitive", func(t *testing.T) {
		byEmail, err := repo.FindByLogin(ctx, tenantID, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byName, err := repo.FindByLogin(ctx, tenantID, "Alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)
	})

	t.Run("does not leak across tenants", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), user.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		exists, err := repo.ExistsByEmail(ctx, uuid.New(), "alice@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("exists checks", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, tenantID, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByUsername(ctx, tenantID, "bob")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update is version checked", func(t *testing.T) {
		first, err := repo.FindByIDForTenant(ctx, tenantID, user.ID)
		require.NoError(t, err)
		second, err := repo.FindByIDForTenant(ctx, tenantID, user.ID)
		require.NoError(t, err)

		require.NoError(t, first.UpdateProfile("Alice Liddell", "0812"))
		require.NoError(t, repo.Update(ctx, first))

		require.NoError(t, second.UpdateProfile("Stale", ""))
		assert.ErrorIs(t, repo.Update(ctx, second), shared.ErrConcurrencyConflict)

		reloaded, err := repo.FindByIDForTenant(ctx, tenantID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", reloaded.FullName)
		assert.Equal(t, first.Version, reloaded.Version)
	})

	t.Run("lists with search and status filter", func(t *testing.T) {
		other, err := identity.NewMember(tenantID, "bob@example.com", "bob", "s3cretpass")
		require.NoError(t, err)
		require.NoError(t, other.SetStatus(identity.UserStatusSuspended))
		require.NoError(t, repo.Create(ctx, other))

		users, total, err := repo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("status", string(identity.UserStatusSuspended)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)

		f := shared.DefaultFilter()
		f.Search = "LIDDELL"
		users, total, err = repo.FindAllForTenant(ctx, tenantID, f)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, user.ID, users[0].ID)

		active := identity.UserStatusActive
		count, err := repo.CountForTenant(ctx, tenantID, &active)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestGormWalletRepository(t *testing.T) {
	db := testdb.New(t)
	wallets := NewGormWalletRepository(db)
	txs := NewGormWalletTransactionRepository(db)
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	w, err := wallet.NewWallet(tenantID, userID)
	require.NoError(t, err)
	require.NoError(t, wallets.Create(ctx, w))

	t.Run("one wallet per user", func(t *testing.T) {
		dup, err := wallet.NewWallet(tenantID, userID)
		require.NoError(t, err)
		assert.ErrorIs(t, wallets.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("balance update writes zero values and checks version", func(t *testing.T) {
		tx, err := w.Credit(wallet.TransactionTypeTopUp, decimal.NewFromInt(50000), wallet.Source{Type: wallet.SourceTypeTopUp})
		require.NoError(t, err)
		require.NoError(t, wallets.Update(ctx, w))
		require.NoError(t, txs.Create(ctx, tx))

		tx, err = w.Debit(wallet.TransactionTypePurchase, decimal.NewFromInt(50000), wallet.Source{Type: wallet.SourceTypeOrder})
		require.NoError(t, err)
		require.NoError(t, wallets.Update(ctx, w))
		require.NoError(t, txs.Create(ctx, tx))

		found, err := wallets.FindByUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.True(t, found.Balance.IsZero())
		assert.Equal(t, 3, found.Version)

		stale := *found
		stale.Version = 2
		assert.ErrorIs(t, wallets.Update(ctx, &stale), shared.ErrConcurrencyConflict)
	})

	t.Run("lists ledger by type", func(t *testing.T) {
		all, total, err := txs.FindByUser(ctx, tenantID, userID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)

		purchases, total, err := txs.FindByUser(ctx, tenantID, userID, shared.DefaultFilter().With("type", string(wallet.TransactionTypePurchase)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.True(t, purchases[0].SignedAmount().Equal(decimal.NewFromInt(-50000)))
	})
}

func TestGormStockRepository(t *testing.T) {
	db := testdb.New(t)
	products := NewGormProductRepository(db)
	stock := NewGormStockRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	p := newTestProduct(t, tenantID, "netflix")
	require.NoError(t, products.Create(ctx, p))

	first := newTestStock(t, p, "fp-1")
	second := newTestStock(t, p, "fp-2")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, stock.CreateBatch(ctx, []*catalog.StockItem{first, second}))

	t.Run("duplicate fingerprint is rejected by the index", func(t *testing.T) {
		err := stock.CreateBatch(ctx, []*catalog.StockItem{newTestStock(t, p, "fp-1")})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("existing fingerprints", func(t *testing.T) {
		existing, err := stock.ExistingFingerprints(ctx, tenantID, p.ID, []string{"fp-1", "fp-9"})
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"fp-1": true}, existing)
	})

	t.Run("claims oldest first then runs out", func(t *testing.T) {
		orderA, orderB := uuid.New(), uuid.New()
		now := time.Now()

		item, err := stock.ClaimAvailable(ctx, tenantID, p.ID, orderA, now)
		require.NoError(t, err)
		assert.Equal(t, first.ID, item.ID)
		assert.Equal(t, catalog.StockStatusSold, item.Status)
		require.NotNil(t, item.OrderID)
		assert.Equal(t, orderA, *item.OrderID)

		counts, err := stock.CountAvailable(ctx, tenantID, []uuid.UUID{p.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[p.ID])

		item, err = stock.ClaimAvailable(ctx, tenantID, p.ID, orderB, now)
		require.NoError(t, err)
		assert.Equal(t, second.ID, item.ID)

		_, err = stock.ClaimAvailable(ctx, tenantID, p.ID, uuid.New(), now)
		assert.ErrorIs(t, err, shared.ErrOutOfStock)

		sold, err := stock.CountByStatus(ctx, tenantID, &p.ID, catalog.StockStatusSold)
		require.NoError(t, err)
		assert.Equal(t, int64(2), sold)
	})

	t.Run("revoke only touches available items", func(t *testing.T) {
		third := newTestStock(t, p, "fp-3")
		require.NoError(t, stock.CreateBatch(ctx, []*catalog.StockItem{third}))
		require.NoError(t, stock.Revoke(ctx, third))
		assert.Equal(t, catalog.StockStatusRevoked, third.Status)

		assert.ErrorIs(t, stock.Revoke(ctx, third), shared.ErrInvalidState)

		missing := newTestStock(t, p, "fp-missing")
		assert.ErrorIs(t, stock.Revoke(ctx, missing), shared.ErrNotFound)

		items, total, err := stock.FindByProduct(ctx, tenantID, p.ID, shared.DefaultFilter().With("status", string(catalog.StockStatusRevoked)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, third.ID, items[0].ID)
	})
}

func TestGormProductRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	netflix := newTestProduct(t, tenantID, "netflix")
	spotify := newTestProduct(t, tenantID, "spotify")
	spotify.Category = "music"
	require.NoError(t, repo.Create(ctx, netflix))
	require.NoError(t, repo.Create(ctx, spotify))

	exists, err := repo.ExistsBySlug(ctx, tenantID, "spotify")
	require.NoError(t, err)
	assert.True(t, exists)

	list, total, err := repo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("category", "music"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, spotify.ID, list[0].ID)

	require.NoError(t, netflix.SetStatus(catalog.ProductStatusInactive))
	require.NoError(t, repo.Update(ctx, netflix))
	active := catalog.ProductStatusActive
	count, err := repo.CountForTenant(ctx, tenantID, &active)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, tenantID, spotify.ID))
	assert.ErrorIs(t, repo.Delete(ctx, tenantID, spotify.ID), shared.ErrNotFound)
}

func TestGormOrderRepository_SalesSince(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	p := newTestProduct(t, tenantID, "netflix")
	now := time.Now()

	count, revenue, err := repo.SalesSince(ctx, tenantID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, revenue.IsZero())

	userID := uuid.New()
	for range 2 {
		o, err := order.NewOrder(userID, p, uuid.New(), now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, o))
	}
	refunded, err := order.NewOrder(userID, p, uuid.New(), now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, refunded))
	require.NoError(t, refunded.MarkRefunded(now))
	require.NoError(t, repo.Update(ctx, refunded))

	count, revenue, err = repo.SalesSince(ctx, tenantID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, revenue.Equal(decimal.NewFromInt(70000)), revenue.String())

	sold, err := repo.CountSoldForProduct(ctx, tenantID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sold)

	mine, total, err := repo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("user_id", userID).With("status", string(order.StatusRefunded)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, refunded.ID, mine[0].ID)
}

func TestGormTopUpRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormTopUpRepository(db)
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()
	now := time.Now()

	stale, err := payment.NewTopUp(tenantID, userID, decimal.NewFromInt(20000), "briva", now.Add(-time.Minute))
	require.NoError(t, err)
	fresh, err := payment.NewTopUp(uuid.New(), userID, decimal.NewFromInt(30000), "qris", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	t.Run("merchant ref lookup ignores tenant", func(t *testing.T) {
		found, err := repo.FindByMerchantRef(ctx, fresh.MerchantRef)
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, found.ID)

		_, err = repo.FindByMerchantRef(ctx, "TOPUP-NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds stale unpaid top-ups", func(t *testing.T) {
		found, err := repo.FindStale(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, stale.ID, found[0].ID)
	})

	t.Run("sums paid volume", func(t *testing.T) {
		paidAt := now
		changed, err := stale.ApplyStatus(payment.StatusPaid, decimal.Zero, &paidAt)
		require.NoError(t, err)
		require.True(t, changed)
		require.NoError(t, repo.Update(ctx, stale))

		volume, err := repo.PaidVolumeSince(ctx, tenantID, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.True(t, volume.Equal(decimal.NewFromInt(20000)), volume.String())

		list, total, err := repo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("method", "BRIVA"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, payment.StatusPaid, list[0].Status)
	})
}

func TestGormClaimRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormClaimRepository(db)
	ctx := context.Background()
	tenantID, orderID, userID := uuid.New(), uuid.New(), uuid.New()

	c, err := claim.NewWarrantyClaim(tenantID, orderID, userID, "Password no longer works", []string{"claims/a.png"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, c))

	pending, err := repo.HasPendingForOrder(ctx, tenantID, orderID)
	require.NoError(t, err)
	assert.True(t, pending)

	found, err := repo.FindByIDForTenant(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"claims/a.png"}, found.Evidence)

	require.NoError(t, found.Reject("Works on our side", uuid.New(), time.Now()))
	require.NoError(t, repo.Update(ctx, found))

	pending, err = repo.HasPendingForOrder(ctx, tenantID, orderID)
	require.NoError(t, err)
	assert.False(t, pending)

	rejected, err := repo.CountByStatus(ctx, tenantID, claim.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rejected)
}

func TestGormTutorialRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormTutorialRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	second, err := tutorial.NewTutorial(tenantID, "login", tutorial.Details{Title: "Login", Content: "# Login", SortOrder: 2})
	require.NoError(t, err)
	first, err := tutorial.NewTutorial(tenantID, "setup", tutorial.Details{Title: "Setup", Content: "# Setup", SortOrder: 1})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	first.SetPublished(true)
	require.NoError(t, repo.Update(ctx, first))

	list, total, err := repo.FindAllForTenant(ctx, tenantID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "setup", list[0].Slug, "sort_order ascending by default")

	published, total, err := repo.FindAllForTenant(ctx, tenantID, shared.DefaultFilter().With("published", true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, published[0].ID)

	bySlug, err := repo.FindBySlug(ctx, tenantID, "login")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)

	require.NoError(t, repo.Delete(ctx, tenantID, second.ID))
	exists, err := repo.ExistsBySlug(ctx, tenantID, "login")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormAuditLogRepository(t *testing.T) {
	db := testdb.New(t)
	repo := NewGormAuditLogRepository(db)
	ctx := context.Background()
	tenantID, actorID := uuid.New(), uuid.New()

	for _, action := range []string{audit.ActionProductCreate, audit.ActionUserSuspend} {
		l, err := audit.NewLog(audit.Entry{
			TenantID:     tenantID,
			ActorID:      &actorID,
			Action:       action,
			ResourceType: "product",
			ResourceID:   uuid.NewString(),
			Metadata:     map[string]any{"name": "Netflix"},
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, l))
	}

	logs, total, err := repo.FindAllForTenant(ctx, tenantID, audit.Query{Action: audit.ActionUserSuspend}, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Netflix", logs[0].Metadata["name"])

	from := time.Now().Add(-time.Minute)
	_, total, err = repo.FindAllForTenant(ctx, tenantID, audit.Query{ActorID: &actorID, From: &from}, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGormTransactionScope(t *testing.T) {
	db := testdb.New(t)
	scope := NewGormTransactionScope(db)
	wallets := NewGormWalletRepository(db)
	ctx := context.Background()
	tenantID, userID := uuid.New(), uuid.New()

	w, err := wallet.NewWallet(tenantID, userID)
	require.NoError(t, err)
	require.NoError(t, wallets.Create(ctx, w))

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			inTx, err := repos.WalletRepo().FindByUser(ctx, tenantID, userID)
			if err != nil {
				return err
			}
			tx, err := inTx.Credit(wallet.TransactionTypeTopUp, decimal.NewFromInt(1000), wallet.Source{Type: wallet.SourceTypeTopUp})
			if err != nil {
				return err
			}
			if err := repos.WalletRepo().Update(ctx, inTx); err != nil {
				return err
			}
			if err := repos.WalletTxRepo().Create(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		after, err := wallets.FindByUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.True(t, after.Balance.IsZero())
		assert.Equal(t, 1, after.Version)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
			inTx, err := repos.WalletRepo().FindByUser(ctx, tenantID, userID)
			if err != nil {
				return err
			}
			tx, err := inTx.Credit(wallet.TransactionTypeTopUp, decimal.NewFromInt(1000), wallet.Source{Type: wallet.SourceTypeTopUp})
			if err != nil {
				return err
			}
			if err := repos.WalletRepo().Update(ctx, inTx); err != nil {
				return err
			}
			return repos.WalletTxRepo().Create(ctx, tx)
		})
		require.NoError(t, err)

		after, err := wallets.FindByUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.True(t, after.Balance.Equal(decimal.NewFromInt(1000)))
	})
}
