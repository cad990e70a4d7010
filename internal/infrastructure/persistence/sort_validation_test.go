package persistence

import (
	"testing"

	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"ASC uppercase returns ASC", "ASC", "ASC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"DESC uppercase returns DESC", "DESC", "DESC"},
		{"desc lowercase returns DESC", "DESC", "DESC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE users;--", "DESC"},
		{"whitespace only returns DESC", "   ", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortOrder(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateSortField(t *testing.T) {
	allowedFields := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}

	tests := []struct {
		name         string
		input        string
		allowedMap   map[string]bool
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", allowedFields, "created_at", "created_at"},
		{"valid field returns field", "name", allowedFields, "created_at", "name"},
		{"valid field id returns field", "id", allowedFields, "created_at", "id"},
		{"invalid field returns default", "invalid_field", allowedFields, "created_at", "created_at"},
		{"sql injection attempt returns default", "id; DROP TABLE users;--", allowedFields, "created_at", "created_at"},
		{"case sensitive - uppercase invalid", "NAME", allowedFields, "created_at", "created_at"},
		{"whitespace only returns default", "   ", allowedFields, "created_at", "created_at"},
		{"whitespace around valid field returns field", "  name  ", allowedFields, "created_at", "name"},
		{"field with spaces injection returns default", "name users", allowedFields, "created_at", "created_at"},
		{"field with quotes injection returns default", "name'--", allowedFields, "created_at", "created_at"},
		{"empty default with valid field", "name", allowedFields, "", "name"},
		{"empty default with invalid field", "invalid", allowedFields, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSortField(tt.input, tt.allowedMap, tt.defaultField)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"UserSortFields":              UserSortFields,
		"WalletTransactionSortFields": WalletTransactionSortFields,
		"ProductSortFields":           ProductSortFields,
		"StockItemSortFields":         StockItemSortFields,
		"OrderSortFields":             OrderSortFields,
		"TopUpSortFields":             TopUpSortFields,
		"ClaimSortFields":             ClaimSortFields,
		"TutorialSortFields":          TutorialSortFields,
		"AuditLogSortFields":          AuditLogSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name+" allows created_at", func(t *testing.T) {
			assert.True(t, whitelist["created_at"])
		})
		t.Run(name+" rejects unknown columns", func(t *testing.T) {
			assert.False(t, whitelist["password_hash"])
			assert.False(t, whitelist["credential"])
		})
	}
}

func TestFilterValue(t *testing.T) {
	f := shared.DefaultFilter().
		With("status", "ACTIVE").
		With("category", "  ").
		With("user_id", nil)

	v, ok := filterValue(f, "status")
	assert.True(t, ok)
	assert.Equal(t, "ACTIVE", v)

	_, ok = filterValue(f, "category")
	assert.False(t, ok, "blank strings are ignored")

	_, ok = filterValue(f, "user_id")
	assert.False(t, ok)

	_, ok = filterValue(f, "missing")
	assert.False(t, ok)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%netflix%", likePattern("  NetFlix "))
}
