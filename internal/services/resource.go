package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// ResourceService serves the educational catalog.
type ResourceService struct {
	store store.Storage
}

func NewResourceService(s store.Storage) *ResourceService {
	return &ResourceService{store: s}
}

// List returns active resources, narrowed to category when it is non-empty.
func (s *ResourceService) List(ctx context.Context, category string) ([]types.Resource, error) {
	if category == "" {
		return s.store.GetAllResources(ctx)
	}
	return s.store.GetResourcesByCategory(ctx, category)
}

func (s *ResourceService) Create(ctx context.Context, input types.NewResource) (types.Resource, error) {
	return s.store.CreateResource(ctx, input)
}

func (s *ResourceService) SetActive(ctx context.Context, id int64, active bool) (types.Resource, error) {
	return s.store.SetResourceActive(ctx, id, active)
}
