package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// ProfessionalService serves the support directory.
type ProfessionalService struct {
	store store.Storage
}

func NewProfessionalService(s store.Storage) *ProfessionalService {
	return &ProfessionalService{store: s}
}

func (s *ProfessionalService) List(ctx context.Context) ([]types.Professional, error) {
	return s.store.GetAllProfessionals(ctx)
}

func (s *ProfessionalService) Create(ctx context.Context, input types.NewProfessional) (types.Professional, error) {
	return s.store.CreateProfessional(ctx, input)
}

func (s *ProfessionalService) SetActive(ctx context.Context, id int64, active bool) (types.Professional, error) {
	return s.store.SetProfessionalActive(ctx, id, active)
}
