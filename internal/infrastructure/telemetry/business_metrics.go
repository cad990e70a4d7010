package telemetry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/shared"
)

// ErrMeterNil is returned by NewBusinessMetrics without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// StockCounter reports AVAILABLE stock per tenant for the stock gauge
type StockCounter interface {
	AvailableByTenant(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BusinessMetrics counts portal activity. It subscribes to the domain
// events on the bus, so services do not call it directly.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersPlaced   *Counter
	orderRevenue   *Counter
	topUpsPaid     *Counter
	topUpVolume    *Counter
	claimsResolved *Counter

	stockRegistration metric.Registration
}

// NewBusinessMetrics creates the instruments. A nil stock counter skips the available-stock gauge.
func NewBusinessMetrics(meter metric.Meter, stock StockCounter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.ordersPlaced, err = NewCounter(meter, "portal_orders_placed_total", "Orders placed", "{orders}"); err != nil {
		return nil, err
	}
	if bm.orderRevenue, err = NewCounter(meter, "portal_order_revenue_total", "Wallet amount spent on orders", "IDR"); err != nil {
		return nil, err
	}
	if bm.topUpsPaid, err = NewCounter(meter, "portal_topups_paid_total", "Top-ups confirmed paid", "{topups}"); err != nil {
		return nil, err
	}
	if bm.topUpVolume, err = NewCounter(meter, "portal_topup_volume_total", "Amount credited by paid top-ups", "IDR"); err != nil {
		return nil, err
	}
	if bm.claimsResolved, err = NewCounter(meter, "portal_claims_resolved_total", "Warranty claims resolved", "{claims}"); err != nil {
		return nil, err
	}

	if stock != nil {
		gauge, err := meter.Int64ObservableGauge("portal_stock_available",
			metric.WithDescription("Stock items available for sale"),
			metric.WithUnit("{items}"),
		)
		if err != nil {
			return nil, err
		}
		bm.stockRegistration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			counts, err := stock.AvailableByTenant(ctx)
			if err != nil {
				bm.logger.Warn("failed to collect available stock", zap.Error(err))
				return nil
			}
			for tenantID, n := range counts {
				o.ObserveInt64(gauge, n, metric.WithAttributes(AttrTenantID.String(tenantID.String())))
			}
			return nil
		}, gauge)
		if err != nil {
			return nil, err
		}
	}
	return bm, nil
}

func (bm *BusinessMetrics) RecordOrderPlaced(ctx context.Context, tenantID uuid.UUID, price decimal.Decimal) {
	bm.ordersPlaced.Inc(ctx, AttrTenantID.String(tenantID.String()))
	bm.orderRevenue.Add(ctx, price.IntPart(), AttrTenantID.String(tenantID.String()))
}

func (bm *BusinessMetrics) RecordTopUpPaid(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	bm.topUpsPaid.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method))
	bm.topUpVolume.Add(ctx, amount.IntPart(), AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method))
}

func (bm *BusinessMetrics) RecordClaimResolved(ctx context.Context, tenantID uuid.UUID, status, resolution string) {
	bm.claimsResolved.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrClaimStatus.String(status),
		AttrResolution.String(resolution),
	)
}

func (bm *BusinessMetrics) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, payment.EventTypeTopUpPaid, claim.EventTypeClaimResolved}
}

// Handle implements shared.EventHandler
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		bm.RecordOrderPlaced(ctx, e.TenantID(), e.Price)
	case *payment.TopUpPaidEvent:
		bm.RecordTopUpPaid(ctx, e.TenantID(), e.Method, e.Amount)
	case *claim.ClaimResolvedEvent:
		bm.RecordClaimResolved(ctx, e.TenantID(), string(e.Status), e.Resolution)
	}
	return nil
}

// Close unregisters the stock gauge callback
func (bm *BusinessMetrics) Close() error {
	if bm.stockRegistration == nil {
		return nil
	}
	return bm.stockRegistration.Unregister()
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
