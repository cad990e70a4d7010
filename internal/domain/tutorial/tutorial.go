package tutorial

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Tutorial is a markdown how-to page shown to members
type Tutorial struct {
	shared.TenantAggregateRoot
	Title       string
	Slug        string
	Category    string
	Content     string
	Published   bool
	SortOrder   int
	PublishedAt *time.Time
}

// Details holds the editable attributes of a tutorial
type Details struct {
	Title     string
	Category  string
	Content   string
	SortOrder int
}

func (d Details) validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Tutorial title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Tutorial title cannot exceed 200 characters")
	}
	if strings.TrimSpace(d.Content) == "" {
		return shared.NewDomainError("INVALID_CONTENT", "Tutorial content cannot be empty")
	}
	if d.SortOrder < 0 {
		return shared.NewDomainError("INVALID_SORT_ORDER", "Sort order cannot be negative")
	}
	return nil
}

// NewTutorial creates an unpublished draft
func NewTutorial(tenantID uuid.UUID, slug string, details Details) (*Tutorial, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Tutorial slug cannot be empty")
	}
	if err := details.validate(); err != nil {
		return nil, err
	}
	t := &Tutorial{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Slug:                slug,
	}
	t.apply(details)
	return t, nil
}

func (t *Tutorial) apply(d Details) {
	t.Title = strings.TrimSpace(d.Title)
	t.Category = strings.ToLower(strings.TrimSpace(d.Category))
	if t.Category == "" {
		t.Category = "general"
	}
	t.Content = d.Content
	t.SortOrder = d.SortOrder
}

// Update replaces the editable attributes. A new slug is applied when non-empty.
func (t *Tutorial) Update(details Details, slug string) error {
	if err := details.validate(); err != nil {
		return err
	}
	t.apply(details)
	if slug != "" {
		t.Slug = slug
	}
	t.IncrementVersion()
	return nil
}

// SetPublished publishes or unpublishes the tutorial
func (t *Tutorial) SetPublished(published bool) {
	if t.Published == published {
		return
	}
	t.Published = published
	if published {
		now := time.Now()
		t.PublishedAt = &now
	} else {
		t.PublishedAt = nil
	}
	t.IncrementVersion()
}
