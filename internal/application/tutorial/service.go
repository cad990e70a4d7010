// Package tutorial serves the member how-to pages and their admin editing.
package tutorial

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/tutorial"
	"github.com/memberportal/backend/internal/infrastructure/cache"
	"github.com/memberportal/backend/internal/infrastructure/slug"
)

// Service handles tutorials
type Service struct {
	repo     tutorial.Repository
	cache    *cache.Cache
	cacheTTL time.Duration
	auditor  auditapp.Recorder
	logger   *zap.Logger
}

func NewService(repo tutorial.Repository, c *cache.Cache, cacheTTL time.Duration, auditor auditapp.Recorder, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, cacheTTL: cacheTTL, auditor: auditor, logger: logger}
}

func keyPrefix(tenantID uuid.UUID) string {
	return "tutorial:" + tenantID.String() + ":"
}

// ListPublished returns published tutorials in sort order, through the request cache
func (s *Service) ListPublished(ctx context.Context, tenantID uuid.UUID, input ListTutorialsInput) (*shared.Paginated[TutorialResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, Search: strings.TrimSpace(input.Search)}.Normalize()
	filter.Filters["published"] = true
	if c := strings.ToLower(strings.TrimSpace(input.Category)); c != "" {
		filter.Filters["category"] = c
	}

	key := fmt.Sprintf("%slist:%v:%s:%d:%d", keyPrefix(tenantID), filter.Filters["category"], strings.ToLower(filter.Search), filter.Page, filter.PageSize)
	page, err := cache.Do(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (shared.Paginated[TutorialResponse], error) {
		return s.list(ctx, tenantID, filter)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll is the uncached admin listing including drafts
func (s *Service) ListAll(ctx context.Context, tenantID uuid.UUID, input ListTutorialsInput) (*shared.Paginated[TutorialResponse], error) {
	filter := shared.Filter{Page: input.Page, PageSize: input.PageSize, Search: strings.TrimSpace(input.Search)}.Normalize()
	if input.Published != nil {
		filter.Filters["published"] = *input.Published
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

func (s *Service) list(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[TutorialResponse], error) {
	tutorials, total, err := s.repo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[TutorialResponse]{}, err
	}
	items := make([]TutorialResponse, len(tutorials))
	for i := range tutorials {
		items[i] = ToTutorialResponse(&tutorials[i], false)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetBySlug returns a published tutorial with its content, through the request cache
func (s *Service) GetBySlug(ctx context.Context, tenantID uuid.UUID, tutorialSlug string) (*TutorialResponse, error) {
	tutorialSlug = strings.ToLower(strings.TrimSpace(tutorialSlug))
	resp, err := cache.Do(ctx, s.cache, keyPrefix(tenantID)+"slug:"+tutorialSlug, s.cacheTTL, func(ctx context.Context) (TutorialResponse, error) {
		t, err := s.repo.FindBySlug(ctx, tenantID, tutorialSlug)
		if err != nil {
			return TutorialResponse{}, err
		}
		if !t.Published {
			return TutorialResponse{}, shared.ErrNotFound
		}
		return ToTutorialResponse(t, true), nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get is the admin view of a tutorial in any state
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*TutorialResponse, error) {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTutorialResponse(t, true)
	return &resp, nil
}

// Create stores an unpublished draft with a slug derived from the title
func (s *Service) Create(ctx context.Context, tenantID, actorID uuid.UUID, input TutorialInput) (*TutorialResponse, error) {
	tutorialSlug, err := s.uniqueSlug(ctx, tenantID, input.Title, "")
	if err != nil {
		return nil, err
	}
	t, err := tutorial.NewTutorial(tenantID, tutorialSlug, input.details())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionTutorialCreate, t, nil)
	resp := ToTutorialResponse(t, true)
	return &resp, nil
}

// Update edits a tutorial. A changed title re-derives the slug.
func (s *Service) Update(ctx context.Context, tenantID, actorID, id uuid.UUID, input TutorialInput) (*TutorialResponse, error) {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	newSlug := ""
	if strings.TrimSpace(input.Title) != t.Title {
		newSlug, err = s.uniqueSlug(ctx, tenantID, input.Title, t.Slug)
		if err != nil {
			return nil, err
		}
	}
	oldSlug := t.Slug
	if err := t.Update(input.details(), newSlug); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	var metadata map[string]any
	if oldSlug != t.Slug {
		metadata = map[string]any{"old_slug": oldSlug}
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionTutorialUpdate, t, metadata)
	resp := ToTutorialResponse(t, true)
	return &resp, nil
}

func (s *Service) SetPublished(ctx context.Context, tenantID, actorID, id uuid.UUID, published bool) (*TutorialResponse, error) {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t.Published != published {
		t.SetPublished(published)
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, err
		}
		s.afterWrite(ctx, tenantID, actorID, audit.ActionTutorialPublish, t, map[string]any{"published": published})
	}
	resp := ToTutorialResponse(t, true)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, actorID, id uuid.UUID) error {
	t, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tenantID, t.ID); err != nil {
		return err
	}
	s.afterWrite(ctx, tenantID, actorID, audit.ActionTutorialDelete, t, nil)
	return nil
}

// uniqueSlug derives a slug from title; own is the tutorial's current slug and never counts as taken
func (s *Service) uniqueSlug(ctx context.Context, tenantID uuid.UUID, title, own string) (string, error) {
	return slug.Unique(ctx, slug.Make(title), func(ctx context.Context, candidate string) (bool, error) {
		if candidate == own {
			return false, nil
		}
		return s.repo.ExistsBySlug(ctx, tenantID, candidate)
	})
}

func (s *Service) afterWrite(ctx context.Context, tenantID, actorID uuid.UUID, action string, t *tutorial.Tutorial, metadata map[string]any) {
	if _, err := s.cache.InvalidatePrefix(ctx, keyPrefix(tenantID)); err != nil {
		s.logger.Warn("Failed to invalidate tutorial cache", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["title"] = t.Title
	metadata["slug"] = t.Slug
	auditapp.RecordQuietly(ctx, s.auditor, s.logger, audit.Entry{
		TenantID:     tenantID,
		ActorID:      &actorID,
		Action:       action,
		ResourceType: "tutorial",
		ResourceID:   t.ID.String(),
		Metadata:     metadata,
	})
}
