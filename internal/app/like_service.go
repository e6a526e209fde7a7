package app

import (
	"context"

	"apicatalog/internal/logging"
	"apicatalog/internal/metrics"
	"apicatalog/internal/model"
	"apicatalog/internal/repository"
)

const (
	opIncrement = "increment"
	opDecrement = "decrement"
)

// LikeService adjusts entry like counters. The server-side like rows are the
// single source of truth for "user has liked entry"; the credential returned
// with every result is a fresh copy of that set.
type LikeService struct {
	userRepo *repository.UserRepository
	apiRepo  *repository.APIRepository
	likeRepo *repository.LikeRepository
	tokens   *TokenIssuer
}

type LikeResult struct {
	APIID   uint   `json:"api_id"`
	Likes   int64  `json:"likes"`
	Liked   bool   `json:"liked"`
	Changed bool   `json:"changed"`
	Token   string `json:"token"`
}

func NewLikeService(
	userRepo *repository.UserRepository,
	apiRepo *repository.APIRepository,
	likeRepo *repository.LikeRepository,
	tokens *TokenIssuer,
) *LikeService {
	return &LikeService{
		userRepo: userRepo,
		apiRepo:  apiRepo,
		likeRepo: likeRepo,
		tokens:   tokens,
	}
}

// Increment records that userID likes apiID. Liking twice is a no-op.
func (s *LikeService) Increment(ctx context.Context, userID, apiID uint) (*LikeResult, error) {
	user, err := s.resolve(ctx, userID, apiID)
	if err != nil {
		return nil, err
	}
	change, err := s.likeRepo.Add(ctx, userID, apiID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, opIncrement, user, apiID, true, change)
}

// Decrement removes the like. Disliking an entry that is not liked is a no-op,
// so the counter never drops below zero.
func (s *LikeService) Decrement(ctx context.Context, userID, apiID uint) (*LikeResult, error) {
	user, err := s.resolve(ctx, userID, apiID)
	if err != nil {
		return nil, err
	}
	change, err := s.likeRepo.Remove(ctx, userID, apiID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, opDecrement, user, apiID, false, change)
}

func (s *LikeService) resolve(ctx context.Context, userID, apiID uint) (*model.User, error) {
	if userID == 0 || apiID == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	entry, err := s.apiRepo.GetByID(ctx, apiID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrAPINotFound
	}
	return user, nil
}

func (s *LikeService) finish(ctx context.Context, op string, user *model.User, apiID uint, liked bool, change repository.LikeChange) (*LikeResult, error) {
	metrics.ObserveLike(op, change.Changed)

	token, _, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("op", op).
		Uint("user_id", user.ID).
		Uint("api_id", apiID).
		Bool("changed", change.Changed).
		Int64("likes", change.Likes).
		Msg("like counter updated")

	return &LikeResult{
		APIID:   apiID,
		Likes:   change.Likes,
		Liked:   liked,
		Changed: change.Changed,
		Token:   token,
	}, nil
}
