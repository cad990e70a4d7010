// Package dashboard aggregates the admin overview figures.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
)

// Window is the period covered by the sales and top-up figures
const Window = 30 * 24 * time.Hour

// Stats is the admin overview of one tenant
type Stats struct {
	TotalMembers   int64           `json:"total_members"`
	ActiveMembers  int64           `json:"active_members"`
	ActiveProducts int64           `json:"active_products"`
	AvailableStock int64           `json:"available_stock"`
	Orders30d      int64           `json:"orders_30d"`
	Revenue30d     decimal.Decimal `json:"revenue_30d"`
	TopUpVolume30d decimal.Decimal `json:"topup_volume_30d"`
	PendingClaims  int64           `json:"pending_claims"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// Service computes dashboard figures
type Service struct {
	users    identity.UserRepository
	products catalog.ProductRepository
	stock    catalog.StockRepository
	orders   order.Repository
	topups   payment.TopUpRepository
	claims   claim.Repository
	now      func() time.Time
}

func NewService(
	users identity.UserRepository,
	products catalog.ProductRepository,
	stock catalog.StockRepository,
	orders order.Repository,
	topups payment.TopUpRepository,
	claims claim.Repository,
) *Service {
	return &Service{
		users:    users,
		products: products,
		stock:    stock,
		orders:   orders,
		topups:   topups,
		claims:   claims,
		now:      time.Now,
	}
}

// Stats runs the independent counts concurrently; the first failure cancels the rest
func (s *Service) Stats(ctx context.Context, tenantID uuid.UUID) (*Stats, error) {
	now := s.now()
	since := now.Add(-Window)
	stats := &Stats{GeneratedAt: now}
	activeMember := identity.UserStatusActive
	activeProduct := catalog.ProductStatusActive

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalMembers, err = s.users.CountForTenant(ctx, tenantID, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveMembers, err = s.users.CountForTenant(ctx, tenantID, &activeMember)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveProducts, err = s.products.CountForTenant(ctx, tenantID, &activeProduct)
		return err
	})
	g.Go(func() (err error) {
		stats.AvailableStock, err = s.stock.CountByStatus(ctx, tenantID, nil, catalog.StockStatusAvailable)
		return err
	})
	g.Go(func() (err error) {
		stats.Orders30d, stats.Revenue30d, err = s.orders.SalesSince(ctx, tenantID, since)
		return err
	})
	g.Go(func() (err error) {
		stats.TopUpVolume30d, err = s.topups.PaidVolumeSince(ctx, tenantID, since)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingClaims, err = s.claims.CountByStatus(ctx, tenantID, claim.StatusPending)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
