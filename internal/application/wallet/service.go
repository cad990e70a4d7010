// Package wallet serves balances and ledgers, and the admin balance adjustment.
package wallet

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
)

// Service handles wallet reads and admin adjustments
type Service struct {
	scope      unitofwork.TransactionScope
	walletRepo wallet.WalletRepository
	txRepo     wallet.TransactionRepository
	auditor    auditapp.Recorder
	logger     *zap.Logger
}

func NewService(
	scope unitofwork.TransactionScope,
	walletRepo wallet.WalletRepository,
	txRepo wallet.TransactionRepository,
	auditor auditapp.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:      scope,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		auditor:    auditor,
		logger:     logger,
	}
}

// GetWallet returns the user's wallet, opening an empty one if the user has none yet
func (s *Service) GetWallet(ctx context.Context, tenantID, userID uuid.UUID) (*WalletResponse, error) {
	w, err := s.walletRepo.FindByUser(ctx, tenantID, userID)
	if errors.Is(err, shared.ErrNotFound) {
		w, err = s.open(ctx, tenantID, userID)
	}
	if err != nil {
		return nil, err
	}
	resp := ToWalletResponse(w)
	return &resp, nil
}

func (s *Service) open(ctx context.Context, tenantID, userID uuid.UUID) (*wallet.Wallet, error) {
	w, err := wallet.NewWallet(tenantID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		// opened concurrently by another request
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.walletRepo.FindByUser(ctx, tenantID, userID)
		}
		return nil, err
	}
	return w, nil
}

// ListTransactions returns one page of the user's ledger, newest first
func (s *Service) ListTransactions(ctx context.Context, tenantID, userID uuid.UUID, input ListTransactionsInput) (*shared.Paginated[TransactionResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	if input.Type != "" {
		txType := wallet.TransactionType(strings.ToUpper(input.Type))
		if !txType.IsValid() {
			return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown transaction type "+input.Type)
		}
		filter.Filters["type"] = txType
	}

	txs, total, err := s.txRepo.FindByUser(ctx, tenantID, userID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]TransactionResponse, len(txs))
	for i := range txs {
		items[i] = ToTransactionResponse(&txs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// AdjustBalance applies a signed manual correction. A negative adjustment
// cannot take the balance below zero.
func (s *Service) AdjustBalance(ctx context.Context, tenantID, operatorID uuid.UUID, input AdjustInput) (*AdjustResult, error) {
	remark := strings.TrimSpace(input.Remark)
	if remark == "" {
		return nil, shared.NewDomainError("INVALID_REMARK", "A remark is required for manual adjustments")
	}

	var result AdjustResult
	err := unitofwork.ExecuteWithRetry(ctx, s.scope, unitofwork.DefaultConflictRetries, func(repos unitofwork.TransactionalRepositories) error {
		w, err := repos.WalletRepo().FindByUser(ctx, tenantID, input.UserID)
		if err != nil {
			return err
		}
		tx, err := w.Adjust(input.Amount, operatorID, remark)
		if err != nil {
			return err
		}
		if err := repos.WalletRepo().Update(ctx, w); err != nil {
			return err
		}
		if err := repos.WalletTxRepo().Create(ctx, tx); err != nil {
			return err
		}
		result = AdjustResult{Wallet: ToWalletResponse(w), Transaction: ToTransactionResponse(tx)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     tenantID,
		ActorID:      &operatorID,
		Action:       audit.ActionWalletAdjust,
		ResourceType: "wallet",
		ResourceID:   result.Wallet.ID.String(),
		Metadata: map[string]any{
			"user_id": input.UserID.String(),
			"amount":  input.Amount.String(),
			"remark":  remark,
		},
	})
	s.logger.Info("Wallet adjusted",
		zap.String("user_id", input.UserID.String()),
		zap.String("amount", input.Amount.String()),
		zap.String("operator_id", operatorID.String()))
	return &result, nil
}
