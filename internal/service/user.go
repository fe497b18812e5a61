package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/voicememo/server/internal/model"
	"github.com/voicememo/server/internal/repository"
)

// UserService resolves authenticated users. Lookups are cached briefly because every
// authenticated request needs one.
type UserService struct {
	userRepository repository.UserRepository
	cache          *gocache.Cache
}

func NewUserService(userRepository repository.UserRepository, cacheTTL time.Duration) *UserService {
	return &UserService{
		userRepository: userRepository,
		cache:          gocache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	if cached, ok := s.cache.Get(id); ok {
		user := *cached.(*model.User)
		return &user, nil
	}

	user, err := s.userRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Password hash never leaves the repository layer through the cache
	safe := *user
	safe.PasswordHash = ""
	s.cache.SetDefault(id, &safe)

	result := safe
	return &result, nil
}

// Forget drops a cached user, e.g. after the account was deleted.
func (s *UserService) Forget(id string) {
	s.cache.Delete(id)
}

// Delete removes the account; recordings are removed with it by the database.
func (s *UserService) Delete(ctx context.Context, id string) error {
	err := s.userRepository.Delete(ctx, id)
	s.Forget(id)
	return err
}
