package tutorial

import (
	"time"

	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/domain/tutorial"
)

// TutorialInput holds the editable tutorial fields
type TutorialInput struct {
	Title     string
	Category  string
	Content   string
	SortOrder int
}

func (in TutorialInput) details() tutorial.Details {
	return tutorial.Details{
		Title:     in.Title,
		Category:  in.Category,
		Content:   in.Content,
		SortOrder: in.SortOrder,
	}
}

// ListTutorialsInput narrows a listing. Published is honoured by the admin listing only.
type ListTutorialsInput struct {
	Category  string
	Search    string
	Published *bool
	Page      int
	PageSize  int
}

// TutorialResponse describes a tutorial. Listings leave Content empty.
type TutorialResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Category    string     `json:"category"`
	Content     string     `json:"content,omitempty"`
	Published   bool       `json:"published"`
	SortOrder   int        `json:"sort_order"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToTutorialResponse(t *tutorial.Tutorial, withContent bool) TutorialResponse {
	resp := TutorialResponse{
		ID:          t.ID,
		Title:       t.Title,
		Slug:        t.Slug,
		Category:    t.Category,
		Published:   t.Published,
		SortOrder:   t.SortOrder,
		PublishedAt: t.PublishedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if withContent {
		resp.Content = t.Content
	}
	return resp
}
