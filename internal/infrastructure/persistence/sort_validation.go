package persistence

import (
	"strings"

	"github.com/memberportal/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyPage adds a whitelisted ORDER BY plus LIMIT/OFFSET for the filter's page
func applyPage(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultField string) *gorm.DB {
	f := filter.Normalize()
	field := ValidateSortField(f.OrderBy, allowedFields, defaultField)
	return query.
		Order(field + " " + ValidateSortOrder(f.OrderDir)).
		Offset(f.Offset()).
		Limit(f.PageSize)
}

// filterValue returns a non-empty filter value
func filterValue(filter shared.Filter, key string) (any, bool) {
	v, ok := filter.Filters[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

// likePattern builds a case-insensitive LIKE pattern for LOWER(column) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"username":      true,
	"full_name":     true,
	"status":        true,
	"last_login_at": true,
}

// WalletTransactionSortFields contains allowed sort fields for wallet transactions
var WalletTransactionSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
	"type":       true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"category":      true,
	"price":         true,
	"warranty_days": true,
}

// StockItemSortFields contains allowed sort fields for stock items
var StockItemSortFields = map[string]bool{
	"created_at": true,
	"status":     true,
	"sold_at":    true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":          true,
	"order_number":        true,
	"price":               true,
	"status":              true,
	"warranty_expires_at": true,
}

// TopUpSortFields contains allowed sort fields for top-ups
var TopUpSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
	"status":     true,
	"expires_at": true,
	"paid_at":    true,
}

// ClaimSortFields contains allowed sort fields for warranty claims
var ClaimSortFields = map[string]bool{
	"created_at":  true,
	"status":      true,
	"resolved_at": true,
}

// TutorialSortFields contains allowed sort fields for tutorials
var TutorialSortFields = map[string]bool{
	"created_at":   true,
	"title":        true,
	"sort_order":   true,
	"published_at": true,
}

// AuditLogSortFields contains allowed sort fields for audit logs
var AuditLogSortFields = map[string]bool{
	"created_at": true,
	"action":     true,
}
