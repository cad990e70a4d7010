// Package claim handles warranty claims: submission with evidence uploads,
// and admin resolution by replacement or refund.
package claim

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
)

var (
	ErrInvalidContentType = shared.NewDomainError("INVALID_CONTENT_TYPE", "Evidence must be an image or a PDF")
	ErrInvalidEvidence    = shared.NewDomainError("INVALID_EVIDENCE", "Evidence file was not uploaded for this account")
	ErrOrderNotClaimable  = shared.NewDomainError("INVALID_STATE", "Only completed orders can be claimed")
)

// DefaultURLExpiry is how long pre-signed evidence URLs stay valid
const DefaultURLExpiry = 15 * time.Minute

// Service handles warranty claims
type Service struct {
	scope     unitofwork.TransactionScope
	claims    claim.Repository
	orders    order.Repository
	storage   EvidenceStorage
	events    shared.EventPublisher
	auditor   auditapp.Recorder
	logger    *zap.Logger
	urlExpiry time.Duration
	now       func() time.Time
}

func NewService(
	scope unitofwork.TransactionScope,
	claims claim.Repository,
	orders order.Repository,
	storage EvidenceStorage,
	events shared.EventPublisher,
	auditor auditapp.Recorder,
	urlExpiry time.Duration,
	logger *zap.Logger,
) *Service {
	if urlExpiry <= 0 {
		urlExpiry = DefaultURLExpiry
	}
	return &Service{
		scope:     scope,
		claims:    claims,
		orders:    orders,
		storage:   storage,
		events:    events,
		auditor:   auditor,
		logger:    logger,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

func evidencePrefix(tenantID, userID uuid.UUID) string {
	return "claims/" + tenantID.String() + "/" + userID.String() + "/"
}

// PresignEvidenceUpload reserves an object key under the caller's prefix and
// returns a pre-signed PUT URL for it
func (s *Service) PresignEvidenceUpload(ctx context.Context, tenantID, userID uuid.UUID, input PresignInput) (*PresignResponse, error) {
	mediaType, _, err := mime.ParseMediaType(input.ContentType)
	if err != nil {
		return nil, ErrInvalidContentType
	}
	if !strings.HasPrefix(mediaType, "image/") && mediaType != "application/pdf" {
		return nil, ErrInvalidContentType
	}

	key := evidencePrefix(tenantID, userID) + uuid.NewString() + extension(input.Filename)
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, mediaType, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign evidence upload: %w", err)
	}
	return &PresignResponse{Key: key, UploadURL: url, ContentType: mediaType, ExpiresAt: expiresAt}, nil
}

// extension keeps a short alphanumeric file extension, or nothing
func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// Submit files a PENDING claim for a completed order still under warranty
func (s *Service) Submit(ctx context.Context, tenantID, userID uuid.UUID, input SubmitInput) (*ClaimResponse, error) {
	o, err := s.orders.FindByIDForTenant(ctx, tenantID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	if o.Status != order.StatusCompleted {
		return nil, ErrOrderNotClaimable
	}
	if !o.IsUnderWarranty(s.now()) {
		return nil, claim.ErrWarrantyExpired
	}
	pending, err := s.claims.HasPendingForOrder(ctx, tenantID, o.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, claim.ErrClaimPending
	}

	evidence, err := s.checkEvidence(ctx, tenantID, userID, input.Evidence)
	if err != nil {
		return nil, err
	}
	c, err := claim.NewWarrantyClaim(tenantID, o.ID, userID, input.Reason, evidence)
	if err != nil {
		return nil, err
	}
	if err := s.claims.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Warranty claim submitted",
		zap.String("claim_id", c.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Int("evidence", len(evidence)))
	resp := ToClaimResponse(c)
	return &resp, nil
}

func (s *Service) checkEvidence(ctx context.Context, tenantID, userID uuid.UUID, keys []string) ([]string, error) {
	if len(keys) > claim.MaxEvidence {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", fmt.Sprintf("At most %d evidence files are allowed", claim.MaxEvidence))
	}
	prefix := evidencePrefix(tenantID, userID)
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") {
			return nil, ErrInvalidEvidence
		}
		exists, err := s.storage.ObjectExists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check evidence %s: %w", key, err)
		}
		if !exists {
			return nil, ErrInvalidEvidence
		}
		seen[key] = true
		out = append(out, key)
	}
	return out, nil
}

func (s *Service) ListMyClaims(ctx context.Context, tenantID, userID uuid.UUID, input ListClaimsInput) (*shared.Paginated[ClaimResponse], error) {
	input.UserID = &userID
	return s.ListClaims(ctx, tenantID, input)
}

// GetMyClaim returns one of the caller's claims with evidence download URLs
func (s *Service) GetMyClaim(ctx context.Context, tenantID, userID, claimID uuid.UUID) (*ClaimResponse, error) {
	c, err := s.claims.FindByIDForTenant(ctx, tenantID, claimID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(userID) {
		return nil, shared.ErrNotFound
	}
	return s.withEvidenceURLs(ctx, c), nil
}

// ListClaims is the admin listing, oldest first so the queue is worked in order
func (s *Service) ListClaims(ctx context.Context, tenantID uuid.UUID, input ListClaimsInput) (*shared.Paginated[ClaimResponse], error) {
	orderDir := "asc"
	if input.UserID != nil {
		orderDir = "desc"
	}
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, OrderBy: "created_at", OrderDir: orderDir}.Normalize()
	if input.UserID != nil {
		filter.Filters["user_id"] = *input.UserID
	}
	if input.OrderID != nil {
		filter.Filters["order_id"] = *input.OrderID
	}
	if input.Status != "" {
		status := claim.Status(strings.ToUpper(input.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown claim status "+input.Status)
		}
		filter.Filters["status"] = status
	}

	claims, total, err := s.claims.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ClaimResponse, len(claims))
	for i := range claims {
		items[i] = ToClaimResponse(&claims[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetClaim is the admin view of any claim, with evidence download URLs
func (s *Service) GetClaim(ctx context.Context, tenantID, claimID uuid.UUID) (*ClaimResponse, error) {
	c, err := s.claims.FindByIDForTenant(ctx, tenantID, claimID)
	if err != nil {
		return nil, err
	}
	return s.withEvidenceURLs(ctx, c), nil
}

// withEvidenceURLs signs a download URL per evidence key. A key that cannot
// be signed is returned without a URL.
func (s *Service) withEvidenceURLs(ctx context.Context, c *claim.WarrantyClaim) *ClaimResponse {
	resp := ToClaimResponse(c)
	for i := range resp.Evidence {
		url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, resp.Evidence[i].Key, s.urlExpiry)
		if err != nil {
			s.logger.Warn("Failed to presign evidence download", zap.String("key", resp.Evidence[i].Key), zap.Error(err))
			continue
		}
		resp.Evidence[i].URL = url
		resp.Evidence[i].ExpiresAt = &expiresAt
	}
	return &resp
}

// Approve resolves a PENDING claim. REPLACEMENT hands the order a new stock
// item of the same product; REFUND credits the order price back to the wallet
// and marks the order REFUNDED. The claim stays PENDING if either fails.
func (s *Service) Approve(ctx context.Context, tenantID, adminID, claimID uuid.UUID, input ApproveInput) (*ClaimResponse, error) {
	resolution := claim.Resolution(strings.ToUpper(strings.TrimSpace(input.Resolution)))
	if !resolution.IsValid() {
		return nil, shared.NewDomainError("INVALID_RESOLUTION", "Resolution must be REPLACEMENT or REFUND")
	}

	var resolved *claim.WarrantyClaim
	err := unitofwork.ExecuteWithRetry(ctx, s.scope, unitofwork.DefaultConflictRetries, func(repos unitofwork.TransactionalRepositories) error {
		now := s.now()
		c, err := repos.ClaimRepo().FindByIDForTenant(ctx, tenantID, claimID)
		if err != nil {
			return err
		}
		if c.Status != claim.StatusPending {
			return claim.ErrClaimResolved
		}
		o, err := repos.OrderRepo().FindByIDForTenant(ctx, tenantID, c.OrderID)
		if err != nil {
			return err
		}

		switch resolution {
		case claim.ResolutionReplacement:
			item, err := repos.StockRepo().ClaimAvailable(ctx, tenantID, o.ProductID, o.ID, now)
			if err != nil {
				return err
			}
			if err := o.ReplaceStock(item.ID); err != nil {
				return err
			}
		case claim.ResolutionRefund:
			if err := refund(ctx, repos, c, o); err != nil {
				return err
			}
			if err := o.MarkRefunded(now); err != nil {
				return err
			}
		}
		if err := repos.OrderRepo().Update(ctx, o); err != nil {
			return err
		}

		if err := c.Approve(resolution, input.Note, adminID, now); err != nil {
			return err
		}
		if err := repos.ClaimRepo().Update(ctx, c); err != nil {
			return err
		}
		resolved = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterResolve(ctx, resolved, adminID, audit.ActionClaimApprove)
	resp := ToClaimResponse(resolved)
	return &resp, nil
}

func refund(ctx context.Context, repos unitofwork.TransactionalRepositories, c *claim.WarrantyClaim, o *order.Order) error {
	w, err := repos.WalletRepo().FindByUser(ctx, o.TenantID, o.UserID)
	isNew := false
	if errors.Is(err, shared.ErrNotFound) {
		w, err = wallet.NewWallet(o.TenantID, o.UserID)
		isNew = true
	}
	if err != nil {
		return err
	}
	tx, err := w.Credit(wallet.TransactionTypeRefund, o.Price, wallet.Source{
		Type:      wallet.SourceTypeClaim,
		ID:        &c.ID,
		Reference: o.OrderNumber,
	})
	if err != nil {
		return err
	}
	tx.WithRemark("Warranty refund for " + o.OrderNumber)
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

// Reject closes a PENDING claim without compensation. A note is required.
func (s *Service) Reject(ctx context.Context, tenantID, adminID, claimID uuid.UUID, note string) (*ClaimResponse, error) {
	c, err := s.claims.FindByIDForTenant(ctx, tenantID, claimID)
	if err != nil {
		return nil, err
	}
	if err := c.Reject(note, adminID, s.now()); err != nil {
		return nil, err
	}
	if err := s.claims.Update(ctx, c); err != nil {
		return nil, err
	}

	s.afterResolve(ctx, c, adminID, audit.ActionClaimReject)
	resp := ToClaimResponse(c)
	return &resp, nil
}

func (s *Service) afterResolve(ctx context.Context, c *claim.WarrantyClaim, adminID uuid.UUID, action string) {
	events := c.GetDomainEvents()
	c.ClearDomainEvents()
	if s.events != nil && len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish claim events", zap.String("claim_id", c.ID.String()), zap.Error(err))
		}
	}

	metadata := map[string]any{
		"order_id": c.OrderID.String(),
		"status":   string(c.Status),
		"note":     c.AdminNote,
	}
	if c.Resolution != nil {
		metadata["resolution"] = string(*c.Resolution)
	}
	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     c.TenantID,
		ActorID:      &adminID,
		Action:       action,
		ResourceType: "claim",
		ResourceID:   c.ID.String(),
		Metadata:     metadata,
	})
	s.logger.Info("Warranty claim resolved",
		zap.String("claim_id", c.ID.String()),
		zap.String("status", string(c.Status)),
		zap.String("admin_id", adminID.String()))
}
