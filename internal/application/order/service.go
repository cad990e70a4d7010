// Package order runs wallet purchases and serves order history.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/memberportal/backend/internal/infrastructure/logger"
)

// Service handles purchases and order reads
type Service struct {
	scope       unitofwork.TransactionScope
	productRepo catalog.ProductRepository
	stockRepo   catalog.StockRepository
	orderRepo   order.Repository
	sealer      catalog.CredentialSealer
	events      shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	scope unitofwork.TransactionScope,
	productRepo catalog.ProductRepository,
	stockRepo catalog.StockRepository,
	orderRepo order.Repository,
	sealer catalog.CredentialSealer,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:       scope,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		sealer:      sealer,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// Purchase buys one item of an ACTIVE product with the wallet balance.
// Stock claim, debit, ledger line and order are written in one transaction.
func (s *Service) Purchase(ctx context.Context, tenantID, userID, productID uuid.UUID) (*PurchaseResult, error) {
	product, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.ErrNotFound
	}

	var (
		placed  *order.Order
		item    *catalog.StockItem
		balance = product.Price
	)
	err = unitofwork.ExecuteWithRetry(ctx, s.scope, unitofwork.DefaultConflictRetries, func(repos unitofwork.TransactionalRepositories) error {
		now := s.now()
		orderID := uuid.New()
		orderNumber := order.NumberFor(orderID, now)

		claimed, err := repos.StockRepo().ClaimAvailable(ctx, tenantID, product.ID, orderID, now)
		if err != nil {
			return err
		}

		w, err := repos.WalletRepo().FindByUser(ctx, tenantID, userID)
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInsufficientBalance
		}
		if err != nil {
			return err
		}
		tx, err := w.Debit(wallet.TransactionTypePurchase, product.Price, wallet.Source{
			Type:      wallet.SourceTypeOrder,
			ID:        &orderID,
			Reference: orderNumber,
		})
		if err != nil {
			return err
		}
		tx.WithRemark(product.Name)
		if err := repos.WalletRepo().Update(ctx, w); err != nil {
			return err
		}
		if err := repos.WalletTxRepo().Create(ctx, tx); err != nil {
			return err
		}

		o, err := order.NewOrderWithID(orderID, userID, product, claimed.ID, now)
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, o); err != nil {
			return err
		}
		placed, item, balance = o, claimed, w.Balance
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrOutOfStock) || errors.Is(err, shared.ErrInsufficientBalance) {
			logger.L(ctx).Info("Purchase refused",
				zap.String("product_id", productID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	s.publish(ctx, placed)
	credential, err := s.sealer.Open(item.Credential)
	if err != nil {
		// the sale is committed; the buyer can fetch the credential again from the order
		s.logger.Error("Failed to open sold credential", zap.String("order_id", placed.ID.String()), zap.Error(err))
	}
	s.logger.Info("Order placed",
		zap.String("order_number", placed.OrderNumber),
		zap.String("product_id", product.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("price", product.Price.String()))

	return &PurchaseResult{
		Order: OrderDetailResponse{
			OrderResponse: ToOrderResponse(placed, s.now()),
			Credential:    credential,
		},
		Balance: balance,
	}, nil
}

func (s *Service) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

// ListMyOrders returns the caller's orders, newest first
func (s *Service) ListMyOrders(ctx context.Context, tenantID, userID uuid.UUID, input ListOrdersInput) (*shared.Paginated[OrderResponse], error) {
	input.UserID = &userID
	input.ProductID = nil
	return s.ListOrders(ctx, tenantID, input)
}

// GetMyOrder returns one of the caller's orders with its credential.
// Orders of other users are reported as not found.
func (s *Service) GetMyOrder(ctx context.Context, tenantID, userID, orderID uuid.UUID) (*OrderDetailResponse, error) {
	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	resp := OrderDetailResponse{OrderResponse: ToOrderResponse(o, s.now())}
	if o.Status != order.StatusCompleted {
		return &resp, nil
	}

	item, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, o.StockItemID)
	if err != nil {
		return nil, fmt.Errorf("load stock item of order %s: %w", o.OrderNumber, err)
	}
	credential, err := s.sealer.Open(item.Credential)
	if err != nil {
		return nil, fmt.Errorf("open credential of order %s: %w", o.OrderNumber, err)
	}
	resp.Credential = credential
	return &resp, nil
}

// ListOrders is the admin listing across users
func (s *Service) ListOrders(ctx context.Context, tenantID uuid.UUID, input ListOrdersInput) (*shared.Paginated[OrderResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	if input.UserID != nil {
		filter.Filters["user_id"] = *input.UserID
	}
	if input.ProductID != nil {
		filter.Filters["product_id"] = *input.ProductID
	}
	if input.Status != "" {
		status := order.Status(strings.ToUpper(input.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown order status "+input.Status)
		}
		filter.Filters["status"] = status
	}

	orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i], now)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetOrder is the admin view of any order, without the credential
func (s *Service) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o, s.now())
	return &resp, nil
}
