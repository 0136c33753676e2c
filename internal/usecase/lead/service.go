// Package lead implements read-side lead operations over the filter grid.
package lead

import (
	"context"
	"fmt"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/grid"
)

// Service handles lead listing and lookup.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxPageSize     int
}

// New creates a lead service.
func New(repo Repository, defaultPageSize, maxPageSize int) *Service {
	return &Service{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// List returns the owner's leads narrowed by the given filter descriptors.
// A non-positive limit falls back to the default page size; oversized limits
// are clamped to the maximum.
func (s *Service) List(
	ctx context.Context, ownerID int64,
	descriptors []grid.Descriptor, limit, offset int,
) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	leads, err := s.repo.List(ctx, ownerID, descriptors, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// Get retrieves a lead by id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Lead, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}
