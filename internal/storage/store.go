package storage

import (
	"context"
	"errors"
	"strings"

	"funnel-tracker/internal/models"
)

var ErrNotFound = errors.New("prospect not found")

// SearchFilter narrows a prospect listing. Empty fields match everything;
// Status "all" is the same as no status.
type SearchFilter struct {
	UserID string
	Query  string
	Status string
}

func (f SearchFilter) status() string {
	s := strings.TrimSpace(f.Status)
	if s == "all" {
		return ""
	}
	return s
}

// ProspectStore is the data store prospects are kept in.
// Search returns the newest prospects first.
type ProspectStore interface {
	Create(ctx context.Context, p models.Prospect) (models.Prospect, error)
	Get(ctx context.Context, id string) (models.Prospect, error)
	Update(ctx context.Context, p models.Prospect) (models.Prospect, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, f SearchFilter) ([]models.Prospect, error)
	Ping(ctx context.Context) error
}
