package app

import (
	"context"
	"errors"

	"apicatalog/internal/logging"
	"apicatalog/internal/model"
	"apicatalog/internal/repository"
)

var ErrSelfFollow = errors.New("users cannot follow themselves")

type UserService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	names      NameCache
}

// NameCache is satisfied by cache.NameCache; nil disables caching.
type NameCache interface {
	GetName(ctx context.Context, userID uint) (string, bool, error)
	SetName(ctx context.Context, userID uint, name string) error
	DeleteName(ctx context.Context, userID uint) error
}

type FollowResult struct {
	Changed   bool   `json:"changed"`
	Following []uint `json:"following"`
}

func NewUserService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, names NameCache) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		names:      names,
	}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// GetName returns the display name of a user, going through the cache when one
// is configured. Cache failures are logged and never fail the lookup.
func (s *UserService) GetName(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", ErrInvalidInput
	}
	if s.names != nil {
		name, ok, err := s.names.GetName(ctx, userID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint("user_id", userID).Msg("name cache read failed")
		} else if ok {
			return name, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	if s.names != nil {
		if err := s.names.SetName(ctx, userID, user.Name); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint("user_id", userID).Msg("name cache write failed")
		}
	}
	return user.Name, nil
}

func (s *UserService) Follow(ctx context.Context, userID, followedID uint) (*FollowResult, error) {
	if err := s.checkFollow(ctx, userID, followedID); err != nil {
		return nil, err
	}
	changed, err := s.followRepo.Follow(ctx, userID, followedID)
	if err != nil {
		return nil, err
	}
	return s.followResult(ctx, userID, changed)
}

func (s *UserService) Unfollow(ctx context.Context, userID, followedID uint) (*FollowResult, error) {
	if err := s.checkFollow(ctx, userID, followedID); err != nil {
		return nil, err
	}
	changed, err := s.followRepo.Unfollow(ctx, userID, followedID)
	if err != nil {
		return nil, err
	}
	return s.followResult(ctx, userID, changed)
}

// Delete removes userID. Only the user themselves may do so.
func (s *UserService) Delete(ctx context.Context, actorID, userID uint) error {
	if actorID == 0 || userID == 0 {
		return ErrInvalidInput
	}
	if actorID != userID {
		return ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if s.names != nil {
		if err := s.names.DeleteName(ctx, userID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint("user_id", userID).Msg("name cache delete failed")
		}
	}
	logging.Ctx(ctx).Info().Uint("user_id", userID).Msg("user deleted")
	return nil
}

func (s *UserService) checkFollow(ctx context.Context, userID, followedID uint) error {
	if userID == 0 || followedID == 0 {
		return ErrInvalidInput
	}
	if userID == followedID {
		return ErrSelfFollow
	}
	for _, id := range []uint{userID, followedID} {
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
	}
	return nil
}

func (s *UserService) followResult(ctx context.Context, userID uint, changed bool) (*FollowResult, error) {
	following, err := s.followRepo.FollowedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if following == nil {
		following = []uint{}
	}
	return &FollowResult{Changed: changed, Following: following}, nil
}
