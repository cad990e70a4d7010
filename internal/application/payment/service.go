// Package payment runs wallet top-ups through the payment gateway and
// settles them from callbacks, manual syncs and the expiry job.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/memberportal/backend/internal/infrastructure/logger"
	"github.com/memberportal/backend/internal/infrastructure/telemetry"
)

// Service handles top-ups
type Service struct {
	scope       unitofwork.TransactionScope
	topups      payment.TopUpRepository
	users       identity.UserRepository
	gateway     payment.Gateway
	idempotency shared.IdempotencyStore
	events      shared.EventPublisher
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(
	scope unitofwork.TransactionScope,
	topups payment.TopUpRepository,
	users identity.UserRepository,
	gateway payment.Gateway,
	idempotency shared.IdempotencyStore,
	events shared.EventPublisher,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.StaleBatch <= 0 {
		cfg.StaleBatch = 200
	}
	return &Service{
		scope:       scope,
		topups:      topups,
		users:       users,
		gateway:     gateway,
		idempotency: idempotency,
		events:      events,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// ListChannels returns the payment channels that are currently active
func (s *Service) ListChannels(ctx context.Context) ([]payment.Channel, error) {
	channels, err := s.gateway.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]payment.Channel, 0, len(channels))
	for _, c := range channels {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

// channelRefresher is implemented by gateways that cache the channel list
type channelRefresher interface {
	InvalidateChannels(ctx context.Context) error
}

// RefreshChannels drops any cached channel list and fetches a fresh one
func (s *Service) RefreshChannels(ctx context.Context) ([]payment.Channel, error) {
	if r, ok := s.gateway.(channelRefresher); ok {
		if err := r.InvalidateChannels(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("Payment channel cache invalidated")
	}
	return s.ListChannels(ctx)
}

// CalculateFee quotes gateway fees for an amount, optionally for one method
func (s *Service) CalculateFee(ctx context.Context, amount int64, method string) ([]payment.Fee, error) {
	if amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	return s.gateway.CalculateFee(ctx, amount, strings.ToUpper(strings.TrimSpace(method)))
}

// CreateTopUp stores an UNPAID top-up and opens its gateway transaction
func (s *Service) CreateTopUp(ctx context.Context, tenantID, userID uuid.UUID, input CreateTopUpInput) (result *CheckoutResponse, err error) {
	method := strings.ToUpper(strings.TrimSpace(input.Method))
	ctx, span := telemetry.StartSpan(ctx, "topup", "create", "method", method, "amount", input.Amount)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if input.Amount < s.cfg.MinAmount || input.Amount > s.cfg.MaxAmount {
		return nil, shared.NewDomainError(payment.ErrInvalidAmount.Code,
			fmt.Sprintf("Top-up amount must be between %d and %d", s.cfg.MinAmount, s.cfg.MaxAmount))
	}
	if err := s.checkMethod(ctx, method); err != nil {
		return nil, err
	}
	user, err := s.users.FindByIDForTenant(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	t, err := payment.NewTopUp(tenantID, userID, decimal.NewFromInt(input.Amount), method, s.now().Add(s.cfg.Expiry))
	if err != nil {
		return nil, err
	}
	// The row exists before the gateway sees the merchant ref, so a callback
	// for a transaction whose create response was lost can still settle it.
	if err := s.topups.Create(ctx, t); err != nil {
		return nil, err
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	checkout, err := s.gateway.CreateTransaction(ctx, payment.CreateRequest{
		Method:        t.Method,
		MerchantRef:   t.MerchantRef,
		Amount:        input.Amount,
		CustomerName:  name,
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone,
		Items: []payment.OrderItem{{
			SKU:      "TOPUP",
			Name:     "Wallet top-up",
			Price:    input.Amount,
			Quantity: 1,
		}},
		ExpiresAt: t.ExpiresAt,
	})
	if err != nil {
		s.abandon(ctx, t, err)
		return nil, err
	}
	if t, err = s.attachCheckout(ctx, t, checkout); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Top-up created",
		zap.String("merchant_ref", t.MerchantRef),
		zap.String("reference", t.Reference),
		zap.String("method", t.Method),
		zap.Int64("amount", input.Amount))
	return &CheckoutResponse{TopUp: ToTopUpResponse(t), Instructions: checkout.Instructions}, nil
}

// abandon settles a top-up whose create call failed. A rejected request is
// marked FAILED. One the gateway may have accepted stays UNPAID so a callback
// or the expiry job decides it.
func (s *Service) abandon(ctx context.Context, t *payment.TopUp, cause error) {
	if payment.MayHaveApplied(cause) {
		logger.L(ctx).Warn("Top-up create outcome unknown, leaving UNPAID",
			zap.String("merchant_ref", t.MerchantRef),
			zap.Error(cause))
		return
	}
	if _, err := s.settle(ctx, t.TenantID, t.ID, payment.StatusFailed, decimal.Zero, nil); err != nil {
		s.logger.Warn("Failed to mark top-up failed", zap.String("merchant_ref", t.MerchantRef), zap.Error(err))
	}
}

// attachCheckout stores the gateway reference on the saved top-up
func (s *Service) attachCheckout(ctx context.Context, t *payment.TopUp, checkout *payment.Checkout) (*payment.TopUp, error) {
	var attached *payment.TopUp
	err := unitofwork.ExecuteWithRetry(ctx, s.scope, unitofwork.DefaultConflictRetries, func(repos unitofwork.TransactionalRepositories) error {
		cur, err := repos.TopUpRepo().FindByIDForTenant(ctx, t.TenantID, t.ID)
		if err != nil {
			return err
		}
		cur.AttachCheckout(checkout)
		attached = cur
		return repos.TopUpRepo().Update(ctx, cur)
	})
	return attached, err
}

func (s *Service) checkMethod(ctx context.Context, method string) error {
	channels, err := s.ListChannels(ctx)
	if err != nil {
		return err
	}
	for _, c := range channels {
		if strings.EqualFold(c.Code, method) {
			return nil
		}
	}
	return ErrUnknownMethod
}

// GetMyTopUp returns one of the caller's top-ups
func (s *Service) GetMyTopUp(ctx context.Context, tenantID, userID, id uuid.UUID) (*TopUpResponse, error) {
	t, err := s.findOwned(ctx, tenantID, userID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTopUpResponse(t)
	return &resp, nil
}

func (s *Service) findOwned(ctx context.Context, tenantID, userID, id uuid.UUID) (*payment.TopUp, error) {
	t, err := s.topups.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !t.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (s *Service) ListMyTopUps(ctx context.Context, tenantID, userID uuid.UUID, input ListTopUpsInput) (*shared.Paginated[TopUpResponse], error) {
	input.UserID = &userID
	return s.ListTopUps(ctx, tenantID, input)
}

// ListTopUps is the admin listing across users
func (s *Service) ListTopUps(ctx context.Context, tenantID uuid.UUID, input ListTopUpsInput) (*shared.Paginated[TopUpResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	if input.UserID != nil {
		filter.Filters["user_id"] = *input.UserID
	}
	if input.Status != "" {
		status, ok := payment.ParseStatus(input.Status)
		if !ok {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown top-up status "+input.Status)
		}
		filter.Filters["status"] = status
	}
	if m := strings.ToUpper(strings.TrimSpace(input.Method)); m != "" {
		filter.Filters["method"] = m
	}

	topups, total, err := s.topups.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]TopUpResponse, len(topups))
	for i := range topups {
		items[i] = ToTopUpResponse(&topups[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SyncTopUp asks the gateway for the current status of an UNPAID top-up and applies it
func (s *Service) SyncTopUp(ctx context.Context, tenantID, userID, id uuid.UUID) (result *TopUpResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, "topup", "sync", "topup_id", id.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	t, err := s.findOwned(ctx, tenantID, userID, id)
	if err != nil {
		return nil, err
	}
	if t.Reference == "" && t.IsStale(s.now()) {
		// the gateway never confirmed the create and the window has passed
		t, err = s.settle(ctx, t.TenantID, t.ID, payment.StatusExpired, decimal.Zero, nil)
		if err != nil {
			return nil, err
		}
	}
	if t.Status.IsFinal() || t.Reference == "" {
		resp := ToTopUpResponse(t)
		return &resp, nil
	}

	detail, err := s.gateway.TransactionDetail(ctx, t.Reference)
	if err != nil {
		return nil, err
	}
	status, ok := payment.ParseStatus(detail.Status)
	if !ok {
		return nil, fmt.Errorf("gateway reported unknown status %q for %s", detail.Status, t.MerchantRef)
	}
	settled, err := s.settle(ctx, t.TenantID, t.ID, status, decimal.NewFromInt(detail.AmountReceived), detail.PaidAt)
	if err != nil {
		return nil, err
	}
	resp := ToTopUpResponse(settled)
	return &resp, nil
}

// HandleCallback verifies and applies a gateway notification. Each
// reference and status pair is applied at most once; a failed attempt is
// forgotten so the gateway's retry can succeed.
func (s *Service) HandleCallback(ctx context.Context, input CallbackInput) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "topup", "callback", "event", input.Event)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if input.Event != CallbackEventPaymentStatus {
		return ErrCallbackEvent
	}
	cb, err := s.gateway.ParseCallback(input.Body, input.Signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			logger.L(ctx).Warn("Rejected callback with invalid signature")
			return ErrCallbackSignature
		}
		return fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	status, ok := payment.ParseStatus(cb.Status)
	if !ok || cb.MerchantRef == "" {
		return ErrInvalidCallback
	}

	key := "tripay:" + cb.Reference + ":" + string(status)
	first, err := s.idempotency.MarkProcessed(ctx, key, s.cfg.IdempotencyTTL)
	if err != nil {
		return err
	}
	if !first {
		logger.L(ctx).Info("Duplicate callback ignored",
			zap.String("reference", cb.Reference),
			zap.String("status", string(status)))
		return nil
	}

	if err := s.applyCallback(ctx, cb, status); err != nil {
		if ferr := s.idempotency.Forget(ctx, key); ferr != nil {
			s.logger.Warn("Failed to forget callback key", zap.String("key", key), zap.Error(ferr))
		}
		return err
	}
	return nil
}

func (s *Service) applyCallback(ctx context.Context, cb *payment.Callback, status payment.Status) error {
	t, err := s.topups.FindByMerchantRef(ctx, cb.MerchantRef)
	if err != nil {
		return err
	}
	if t.Reference != "" && cb.Reference != "" && t.Reference != cb.Reference {
		return fmt.Errorf("%w: reference %s does not belong to %s", ErrInvalidCallback, cb.Reference, cb.MerchantRef)
	}
	_, err = s.settle(ctx, t.TenantID, t.ID, status, decimal.NewFromInt(cb.AmountReceived), cb.PaidAt)
	return err
}

// ExpireStale marks UNPAID top-ups past their expiry as EXPIRED
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.topups.FindStale(ctx, s.now(), s.cfg.StaleBatch)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		t, err := s.settle(ctx, stale[i].TenantID, stale[i].ID, payment.StatusExpired, decimal.Zero, nil)
		if err != nil {
			s.logger.Warn("Failed to expire top-up", zap.String("merchant_ref", stale[i].MerchantRef), zap.Error(err))
			continue
		}
		if t.Status == payment.StatusExpired {
			expired++
		}
	}
	if expired > 0 {
		s.logger.Info("Expired stale top-ups", zap.Int("count", expired))
	}
	return expired, nil
}

// settle applies a status inside one transaction. A PAID top-up credits the
// wallet and writes the TOPUP ledger line in the same transaction. A status
// arriving after another final status is ignored.
func (s *Service) settle(ctx context.Context, tenantID, id uuid.UUID, status payment.Status, received decimal.Decimal, paidAt *time.Time) (*payment.TopUp, error) {
	var settled *payment.TopUp
	err := unitofwork.ExecuteWithRetry(ctx, s.scope, unitofwork.DefaultConflictRetries, func(repos unitofwork.TransactionalRepositories) error {
		t, err := repos.TopUpRepo().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		settled = t

		changed, err := t.ApplyStatus(status, received, paidAt)
		if errors.Is(err, payment.ErrTopUpFinalized) {
			logger.L(ctx).Warn("Ignoring status for finalized top-up",
				zap.String("merchant_ref", t.MerchantRef),
				zap.String("current", string(t.Status)),
				zap.String("incoming", string(status)))
			return nil
		}
		if err != nil || !changed {
			return err
		}
		if err := repos.TopUpRepo().Update(ctx, t); err != nil {
			return err
		}
		if t.Status != payment.StatusPaid {
			return nil
		}
		return s.credit(ctx, repos, t)
	})
	if err != nil {
		return nil, err
	}

	events := settled.GetDomainEvents()
	settled.ClearDomainEvents()
	if len(events) > 0 {
		s.logger.Info("Top-up paid",
			zap.String("merchant_ref", settled.MerchantRef),
			zap.String("user_id", settled.UserID.String()),
			zap.String("amount", settled.Amount.String()))
		if s.events != nil {
			if err := s.events.Publish(ctx, events...); err != nil {
				s.logger.Warn("Failed to publish top-up events", zap.String("merchant_ref", settled.MerchantRef), zap.Error(err))
			}
		}
	}
	return settled, nil
}

func (s *Service) credit(ctx context.Context, repos unitofwork.TransactionalRepositories, t *payment.TopUp) error {
	w, err := repos.WalletRepo().FindByUser(ctx, t.TenantID, t.UserID)
	isNew := false
	if errors.Is(err, shared.ErrNotFound) {
		w, err = wallet.NewWallet(t.TenantID, t.UserID)
		isNew = true
	}
	if err != nil {
		return err
	}

	tx, err := w.Credit(wallet.TransactionTypeTopUp, t.Amount, wallet.Source{
		Type:      wallet.SourceTypeTopUp,
		ID:        &t.ID,
		Reference: t.MerchantRef,
	})
	if err != nil {
		return err
	}
	tx.WithRemark(t.Method)
	if isNew {
		err = repos.WalletRepo().Create(ctx, w)
	} else {
		err = repos.WalletRepo().Update(ctx, w)
	}
	if err != nil {
		return err
	}
	return repos.WalletTxRepo().Create(ctx, tx)
}
