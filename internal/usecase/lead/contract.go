package lead

import (
	"context"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/grid"
)

// Repository defines the storage contract for leads.
type Repository interface {
	List(ctx context.Context, ownerID int64, descriptors []grid.Descriptor, limit, offset int) ([]domain.Lead, error)
	Get(ctx context.Context, id int64) (domain.Lead, error)
}
