package services

import (
	"context"

	"github.com/recoverytrack/apiserver/internal/store"
	"github.com/recoverytrack/apiserver/types"
)

// UserService encapsulates account and profile use-cases.
type UserService struct {
	store store.Storage
}

func NewUserService(s store.Storage) *UserService {
	return &UserService{store: s}
}

func (s *UserService) Register(ctx context.Context, input types.RegisterUser) (types.User, error) {
	return s.store.Register(ctx, input)
}

// Login returns ErrInvalidCredentials when the username or password does
// not match.
func (s *UserService) Login(ctx context.Context, creds types.Credentials) (types.User, error) {
	user, ok, err := s.store.Login(ctx, creds)
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (types.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.store.GetUserByUsername(ctx, username)
}

func (s *UserService) Update(ctx context.Context, id int64, patch types.UserPatch) (types.User, error) {
	return s.store.UpdateUser(ctx, id, patch)
}
