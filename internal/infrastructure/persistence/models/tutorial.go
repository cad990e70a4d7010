package models

import (
	"time"

	"github.com/memberportal/backend/internal/domain/tutorial"
)

// TutorialModel is the persistence model for tutorial.Tutorial
type TutorialModel struct {
	TenantAggregateModel
	Title       string `gorm:"type:varchar(200);not null"`
	Slug        string `gorm:"type:varchar(220);not null;index"`
	Category    string `gorm:"type:varchar(50);not null;default:'general';index"`
	Content     string `gorm:"type:text;not null"`
	Published   bool   `gorm:"not null;default:false"`
	SortOrder   int    `gorm:"not null;default:0"`
	PublishedAt *time.Time
}

func (TutorialModel) TableName() string {
	return "tutorials"
}

func (m *TutorialModel) ToDomain() *tutorial.Tutorial {
	return &tutorial.Tutorial{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Title:               m.Title,
		Slug:                m.Slug,
		Category:            m.Category,
		Content:             m.Content,
		Published:           m.Published,
		SortOrder:           m.SortOrder,
		PublishedAt:         m.PublishedAt,
	}
}

func TutorialModelFromDomain(t *tutorial.Tutorial) *TutorialModel {
	m := &TutorialModel{
		Title:       t.Title,
		Slug:        t.Slug,
		Category:    t.Category,
		Content:     t.Content,
		Published:   t.Published,
		SortOrder:   t.SortOrder,
		PublishedAt: t.PublishedAt,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}
