package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"apicatalog/internal/model"
	"apicatalog/internal/pkg/jwtutil"
	"apicatalog/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("email already exists")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrUserNotFound      = errors.New("user not found")
	ErrForbidden         = errors.New("operation not allowed for this user")
)

const minPasswordLength = 8

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *TokenIssuer
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Country         string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string
	User      *model.User
	LikedAPIs []uint
}

// TokenIssuer signs credentials that embed the user's current server-side
// liked-set. Every like mutation goes through it so the client copy is
// refreshed on each change.
type TokenIssuer struct {
	likeRepo   *repository.LikeRepository
	secret     string
	expiration time.Duration
}

func NewTokenIssuer(likeRepo *repository.LikeRepository, secret string, expiration time.Duration) *TokenIssuer {
	return &TokenIssuer{
		likeRepo:   likeRepo,
		secret:     secret,
		expiration: expiration,
	}
}

func (i *TokenIssuer) Issue(ctx context.Context, user *model.User) (string, []uint, error) {
	liked, err := i.likeRepo.LikedAPIIDs(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	token, err := jwtutil.GenerateToken(i.secret, i.expiration, user.ID, user.Name, liked)
	if err != nil {
		return "", nil, err
	}
	return token, liked, nil
}

func NewAuthService(userRepo *repository.UserRepository, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	country := strings.TrimSpace(input.Country)
	password := strings.TrimSpace(input.Password)

	if name == "" || email == "" || country == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidInput
	}
	if password != strings.TrimSpace(input.ConfirmPassword) {
		return nil, ErrPasswordMismatch
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Country:      country,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, liked, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, LikedAPIs: liked}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := strings.TrimSpace(input.Password)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, liked, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user, LikedAPIs: liked}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(ctx, id)
}
