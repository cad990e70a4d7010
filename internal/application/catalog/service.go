// Package catalog serves the marketplace product listing and the admin
// product and stock management.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/cache"
	"github.com/memberportal/backend/internal/infrastructure/slug"
)

// MaxStockBatch caps the credentials accepted by one AddStock call
const MaxStockBatch = 1000

// ErrProductHasSales blocks deleting a product that customers own
var ErrProductHasSales = shared.NewDomainError("PRODUCT_HAS_SALES", "Products with sold stock cannot be deleted; deactivate it instead")

// CredentialVault seals stock credentials and fingerprints them for de-duplication
type CredentialVault interface {
	catalog.CredentialSealer
	Fingerprint(plaintext string) string
}

// Service handles products and stock
type Service struct {
	productRepo catalog.ProductRepository
	stockRepo   catalog.StockRepository
	vault       CredentialVault
	cache       *cache.Cache
	cacheTTL    time.Duration
	auditor     auditapp.Recorder
	logger      *zap.Logger
}

// NewService creates a catalog service. cache may be nil.
func NewService(
	productRepo catalog.ProductRepository,
	stockRepo catalog.StockRepository,
	vault CredentialVault,
	c *cache.Cache,
	cacheTTL time.Duration,
	auditor auditapp.Recorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		vault:       vault,
		cache:       c,
		cacheTTL:    cacheTTL,
		auditor:     auditor,
		logger:      logger,
	}
}

func tenantKeyPrefix(tenantID uuid.UUID) string {
	return "catalog:" + tenantID.String() + ":"
}

// ListProducts returns ACTIVE products with available stock, through the request cache
func (s *Service) ListProducts(ctx context.Context, tenantID uuid.UUID, input ListProductsInput) (*shared.Paginated[ProductResponse], error) {
	filter := shared.Filter{
		Page:     input.Page,
		PageSize: input.PageSize,
		OrderBy:  input.OrderBy,
		OrderDir: input.OrderDir,
		Search:   strings.TrimSpace(input.Search),
	}.Normalize()
	filter.Filters["status"] = catalog.ProductStatusActive
	if c := strings.ToLower(strings.TrimSpace(input.Category)); c != "" {
		filter.Filters["category"] = c
	}

	key := fmt.Sprintf("%slist:%v:%s:%d:%d:%s:%s", tenantKeyPrefix(tenantID),
		filter.Filters["category"], strings.ToLower(filter.Search), filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir)
	page, err := cache.Do(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (shared.Paginated[ProductResponse], error) {
		return s.list(ctx, tenantID, filter)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllProducts is the uncached admin listing with any status
func (s *Service) ListAllProducts(ctx context.Context, tenantID uuid.UUID, input ListProductsInput) (*shared.Paginated[ProductResponse], error) {
	filter := shared.Filter{
		Page:     input.Page,
		PageSize: input.PageSize,
		OrderBy:  input.OrderBy,
		OrderDir: input.OrderDir,
		Search:   strings.TrimSpace(input.Search),
	}.Normalize()
	if input.Status != "" {
		filter.Filters["status"] = catalog.ProductStatus(strings.ToUpper(input.Status))
	}
	if c := strings.ToLower(strings.TrimSpace(input.Category)); c != "" {
		filter.Filters["category"] = c
	}
	page, err := s.list(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *Service) list(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[ProductResponse], error) {
	products, total, err := s.productRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	ids := make([]uuid.UUID, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	available, err := s.stockRepo.CountAvailable(ctx, tenantID, ids)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i], available[products[i].ID])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetProduct returns an ACTIVE product, through the request cache
func (s *Service) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	key := tenantKeyPrefix(tenantID) + "product:" + productID.String()
	resp, err := cache.Do(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (ProductResponse, error) {
		p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
		if err != nil {
			return ProductResponse{}, err
		}
		if !p.IsActive() {
			return ProductResponse{}, shared.ErrNotFound
		}
		return s.withStock(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProductAdmin returns a product in any status, uncached
func (s *Service) GetProductAdmin(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	resp, err := s.withStock(ctx, p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) withStock(ctx context.Context, p *catalog.Product) (ProductResponse, error) {
	available, err := s.stockRepo.CountAvailable(ctx, p.TenantID, []uuid.UUID{p.ID})
	if err != nil {
		return ProductResponse{}, err
	}
	return ToProductResponse(p, available[p.ID]), nil
}

func (s *Service) CreateProduct(ctx context.Context, tenantID, actorID uuid.UUID, input ProductInput) (*ProductResponse, error) {
	productSlug, err := slug.Unique(ctx, slug.Make(input.Name), func(ctx context.Context, candidate string) (bool, error) {
		return s.productRepo.ExistsBySlug(ctx, tenantID, candidate)
	})
	if err != nil {
		return nil, err
	}
	p, err := catalog.NewProduct(tenantID, productSlug, input.details())
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, tenantID, actorID, audit.ActionProductCreate, p.ID, map[string]any{
		"name":  p.Name,
		"slug":  p.Slug,
		"price": p.Price.String(),
	})
	resp := ToProductResponse(p, 0)
	return &resp, nil
}

func (s *Service) UpdateProduct(ctx context.Context, tenantID, actorID, productID uuid.UUID, input ProductInput) (*ProductResponse, error) {
	p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.details()); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionProductUpdate, p.ID, map[string]any{
		"name":  p.Name,
		"price": p.Price.String(),
	})
	resp, err := s.withStock(ctx, p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Service) SetProductStatus(ctx context.Context, tenantID, actorID, productID uuid.UUID, status catalog.ProductStatus) (*ProductResponse, error) {
	p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	old := p.Status
	if err := p.SetStatus(status); err != nil {
		return nil, err
	}
	if old != p.Status {
		if err := s.productRepo.Update(ctx, p); err != nil {
			return nil, err
		}
		s.afterWrite(ctx, tenantID, actorID, audit.ActionProductStatus, p.ID, map[string]any{
			"from": string(old),
			"to":   string(status),
		})
	}
	resp, err := s.withStock(ctx, p)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProduct removes a product that never sold anything
func (s *Service) DeleteProduct(ctx context.Context, tenantID, actorID, productID uuid.UUID) error {
	p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	sold, err := s.stockRepo.CountByStatus(ctx, tenantID, &p.ID, catalog.StockStatusSold)
	if err != nil {
		return err
	}
	if sold > 0 {
		return ErrProductHasSales
	}
	if err := s.productRepo.Delete(ctx, tenantID, p.ID); err != nil {
		return err
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionProductDelete, p.ID, map[string]any{"name": p.Name})
	return nil
}

// AddStock seals and stores credentials. Blank lines and credentials already
// stored for the product, or repeated within the batch, are skipped.
func (s *Service) AddStock(ctx context.Context, tenantID, actorID, productID uuid.UUID, credentials []string) (*AddStockResult, error) {
	if len(credentials) == 0 {
		return nil, shared.NewDomainError("INVALID_CREDENTIAL", "At least one credential is required")
	}
	if len(credentials) > MaxStockBatch {
		return nil, shared.NewDomainError("INVALID_CREDENTIAL", fmt.Sprintf("At most %d credentials can be added at once", MaxStockBatch))
	}
	p, err := s.productRepo.FindByIDForTenant(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	result := &AddStockResult{}
	seen := make(map[string]bool, len(credentials))
	plain := make([]string, 0, len(credentials))
	fingerprints := make([]string, 0, len(credentials))
	for _, c := range credentials {
		c = strings.TrimSpace(c)
		if c == "" {
			result.Blank++
			continue
		}
		fp := s.vault.Fingerprint(c)
		if seen[fp] {
			result.Duplicates++
			continue
		}
		seen[fp] = true
		plain = append(plain, c)
		fingerprints = append(fingerprints, fp)
	}

	existing, err := s.stockRepo.ExistingFingerprints(ctx, tenantID, p.ID, fingerprints)
	if err != nil {
		return nil, err
	}
	items := make([]*catalog.StockItem, 0, len(plain))
	for i, c := range plain {
		if existing[fingerprints[i]] {
			result.Duplicates++
			continue
		}
		sealed, err := s.vault.Seal(c)
		if err != nil {
			return nil, fmt.Errorf("seal credential: %w", err)
		}
		item, err := catalog.NewStockItem(tenantID, p.ID, sealed, fingerprints[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) > 0 {
		if err := s.stockRepo.CreateBatch(ctx, items); err != nil {
			return nil, err
		}
	}
	result.Added = len(items)

	s.afterWrite(ctx, tenantID, actorID, audit.ActionStockAdd, p.ID, map[string]any{
		"added":      result.Added,
		"duplicates": result.Duplicates,
	})
	s.logger.Info("Stock added",
		zap.String("product_id", p.ID.String()),
		zap.Int("added", result.Added),
		zap.Int("duplicates", result.Duplicates))
	return result, nil
}

// ListStock pages through a product's stock items, never exposing credentials
func (s *Service) ListStock(ctx context.Context, tenantID, productID uuid.UUID, input ListStockInput) (*shared.Paginated[StockItemResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	if input.Status != "" {
		status := catalog.StockStatus(strings.ToUpper(input.Status))
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown stock status "+input.Status)
		}
		filter.Filters["status"] = status
	}
	items, total, err := s.stockRepo.FindByProduct(ctx, tenantID, productID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StockItemResponse, len(items))
	for i := range items {
		out[i] = ToStockItemResponse(&items[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// RevokeStock withdraws an AVAILABLE item from sale
func (s *Service) RevokeStock(ctx context.Context, tenantID, actorID, itemID uuid.UUID) (*StockItemResponse, error) {
	item, err := s.stockRepo.FindByIDForTenant(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.Revoke(); err != nil {
		return nil, err
	}
	if err := s.stockRepo.Revoke(ctx, item); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionStockRevoke, item.ID, map[string]any{
		"product_id": item.ProductID.String(),
	})
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// Invalidate drops every cached catalog page of the tenant
func (s *Service) Invalidate(ctx context.Context, tenantID uuid.UUID) {
	if _, err := s.cache.InvalidatePrefix(ctx, tenantKeyPrefix(tenantID)); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

func (s *Service) afterWrite(ctx context.Context, tenantID, actorID uuid.UUID, action string, resourceID uuid.UUID, metadata map[string]any) {
	s.Invalidate(ctx, tenantID)
	resourceType := "product"
	if action == audit.ActionStockRevoke {
		resourceType = "stock_item"
	}
	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     tenantID,
		ActorID:      &actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID.String(),
		Metadata:     metadata,
	})
}
