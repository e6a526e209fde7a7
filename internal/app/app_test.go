package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"apicatalog/internal/model"
	"apicatalog/internal/pkg/jwtutil"
	"apicatalog/internal/repository"
	"apicatalog/internal/testutil"
)

const testSecret = "app-test-secret"

type services struct {
	db      *gorm.DB
	auth    *AuthService
	catalog *CatalogService
	likes   *LikeService
	users   *UserService
}

func newServices(t *testing.T, views ViewRecorder, names NameCache) *services {
	t.Helper()
	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepository(db)
	apiRepo := repository.NewAPIRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tokens := NewTokenIssuer(likeRepo, testSecret, time.Hour)

	return &services{
		db:      db,
		auth:    NewAuthService(userRepo, tokens),
		catalog: NewCatalogService(apiRepo, userRepo, views),
		likes:   NewLikeService(userRepo, apiRepo, likeRepo, tokens),
		users:   NewUserService(userRepo, followRepo, names),
	}
}

func (s *services) register(t *testing.T, email string) *model.User {
	t.Helper()
	res, err := s.auth.Register(context.Background(), RegisterInput{
		Name:            "user " + email,
		Email:           email,
		Password:        "password123",
		ConfirmPassword: "password123",
		Country:         "Brazil",
	})
	require.NoError(t, err)
	return res.User
}

func (s *services) createAPI(t *testing.T, ownerID uint, name string) *model.APIEntry {
	t.Helper()
	entry, err := s.catalog.Create(context.Background(), CreateAPIInput{
		UserID:      ownerID,
		Name:        name,
		Country:     "Brazil",
		Description: "An API called " + name,
		MainURL:     "https://api.example.com/" + name,
	})
	require.NoError(t, err)
	return entry
}

type fakeViews struct {
	mu    sync.Mutex
	err   error
	calls []uint
}

func (f *fakeViews) RecordView(_ context.Context, apiID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, apiID)
	return f.err
}

type fakeNames struct {
	names   map[uint]string
	reads   int
	failGet bool
}

func (f *fakeNames) GetName(_ context.Context, userID uint) (string, bool, error) {
	f.reads++
	if f.failGet {
		return "", false, errors.New("redis down")
	}
	name, ok := f.names[userID]
	return name, ok, nil
}

func (f *fakeNames) SetName(_ context.Context, userID uint, name string) error {
	f.names[userID] = name
	return nil
}

func (f *fakeNames) DeleteName(_ context.Context, userID uint) error {
	delete(f.names, userID)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	user := s.register(t, "Ada@Example.com")
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)

	res, err := s.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := jwtutil.Decode(res.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Empty(t, claims.LikedAPIs)

	_, err = s.auth.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = s.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRegisterValidation(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	s.register(t, "taken@example.com")

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"short password", RegisterInput{Name: "a", Email: "a@example.com", Password: "short", ConfirmPassword: "short", Country: "BR"}, ErrInvalidInput},
		{"bad email", RegisterInput{Name: "a", Email: "not-an-email", Password: "password123", ConfirmPassword: "password123", Country: "BR"}, ErrInvalidInput},
		{"missing country", RegisterInput{Name: "a", Email: "a@example.com", Password: "password123", ConfirmPassword: "password123"}, ErrInvalidInput},
		{"mismatch", RegisterInput{Name: "a", Email: "a@example.com", Password: "password123", ConfirmPassword: "password124", Country: "BR"}, ErrPasswordMismatch},
		{"duplicate", RegisterInput{Name: "a", Email: "taken@example.com", Password: "password123", ConfirmPassword: "password123", Country: "BR"}, ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.auth.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIncrementThenDecrementRestoresLikes(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	fan := s.register(t, "fan@example.com")
	entry := s.createAPI(t, owner.ID, "weather")

	up, err := s.likes.Increment(ctx, fan.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, up.Changed)
	assert.True(t, up.Liked)
	assert.EqualValues(t, 1, up.Likes)

	claims, err := jwtutil.Decode(up.Token, testSecret)
	require.NoError(t, err)
	assert.True(t, claims.HasLiked(entry.ID))

	down, err := s.likes.Decrement(ctx, fan.ID, entry.ID)
	require.NoError(t, err)
	assert.True(t, down.Changed)
	assert.False(t, down.Liked)
	assert.EqualValues(t, 0, down.Likes)

	claims, err = jwtutil.Decode(down.Token, testSecret)
	require.NoError(t, err)
	assert.False(t, claims.HasLiked(entry.ID))
}

func TestLikesAreIdempotentAndNeverNegative(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	entry := s.createAPI(t, owner.ID, "maps")

	for i := 0; i < 3; i++ {
		res, err := s.likes.Increment(ctx, owner.ID, entry.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, res.Likes)
		assert.Equal(t, i == 0, res.Changed)
	}
	for i := 0; i < 3; i++ {
		res, err := s.likes.Decrement(ctx, owner.ID, entry.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, res.Likes)
		assert.Equal(t, i == 0, res.Changed)
	}
}

func TestLikePreconditions(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	entry := s.createAPI(t, owner.ID, "books")

	_, err := s.likes.Increment(ctx, 0, entry.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.likes.Increment(ctx, 999, entry.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = s.likes.Decrement(ctx, owner.ID, 999)
	assert.ErrorIs(t, err, ErrAPINotFound)
}

func TestConcurrentIncrementsFromDistinctUsers(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	entry := s.createAPI(t, owner.ID, "popular")

	const n = 8
	fans := make([]uint, n)
	for i := range fans {
		fans[i] = s.register(t, fmt.Sprintf("fan%d@example.com", i)).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range fans {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = s.likes.Increment(ctx, id, entry.ID)
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	page, err := s.catalog.ListByIDs(ctx, []uint{entry.ID})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.EqualValues(t, n, page[0].Likes)
}

func TestCatalogCreateValidation(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")

	_, err := s.catalog.Create(ctx, CreateAPIInput{UserID: owner.ID, Name: "x", Country: "BR", Description: "d", MainURL: "ftp://x"})
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = s.catalog.Create(ctx, CreateAPIInput{UserID: owner.ID, Name: "x", Country: "BR", Description: "d", MainURL: "https://x.io", DocumentationURL: "docs"})
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = s.catalog.Create(ctx, CreateAPIInput{UserID: owner.ID, Country: "BR", Description: "d", MainURL: "https://x.io"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.catalog.Create(ctx, CreateAPIInput{UserID: 4242, Name: "x", Country: "BR", Description: "d", MainURL: "https://x.io"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCatalogPaging(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	for i := 0; i < 12; i++ {
		s.createAPI(t, owner.ID, fmt.Sprintf("api%d", i))
	}

	page, err := s.catalog.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, DefaultPageSize, page.Limit)
	assert.Equal(t, 2, page.Pages)
	assert.EqualValues(t, 12, page.Total)
	assert.Len(t, page.Items, 2)

	pages, total, err := s.catalog.Pages(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.EqualValues(t, 12, total)

	big, err := s.catalog.List(ctx, -1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, big.Page)
	assert.Equal(t, MaxPageSize, big.Limit)
	assert.Len(t, big.Items, 12)
}

func TestRecordViewQueuedAndFallback(t *testing.T) {
	views := &fakeViews{}
	s := newServices(t, views, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	entry := s.createAPI(t, owner.ID, "queued")

	require.NoError(t, s.catalog.RecordView(ctx, entry.ID))
	assert.Equal(t, []uint{entry.ID}, views.calls)

	stored, err := s.catalog.ListByIDs(ctx, []uint{entry.ID})
	require.NoError(t, err)
	assert.Zero(t, stored[0].Views, "queued views are applied by the worker")

	views.err = errors.New("broker down")
	require.NoError(t, s.catalog.RecordView(ctx, entry.ID))
	stored, err = s.catalog.ListByIDs(ctx, []uint{entry.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored[0].Views)

	assert.ErrorIs(t, s.catalog.RecordView(ctx, 9999), ErrAPINotFound)
	assert.ErrorIs(t, s.catalog.ApplyView(ctx, 9999), ErrAPINotFound)
}

func TestCatalogDeleteOwnerOnly(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	owner := s.register(t, "owner@example.com")
	other := s.register(t, "other@example.com")
	entry := s.createAPI(t, owner.ID, "mine")

	assert.ErrorIs(t, s.catalog.Delete(ctx, other.ID, entry.ID), ErrForbidden)
	require.NoError(t, s.catalog.Delete(ctx, owner.ID, entry.ID))
	assert.ErrorIs(t, s.catalog.Delete(ctx, owner.ID, entry.ID), ErrAPINotFound)
}

func TestGetNameUsesCache(t *testing.T) {
	names := &fakeNames{names: map[uint]string{}}
	s := newServices(t, nil, names)
	ctx := context.Background()
	user := s.register(t, "named@example.com")

	name, err := s.users.GetName(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, name)
	assert.Equal(t, user.Name, names.names[user.ID])

	names.names[user.ID] = "cached"
	name, err = s.users.GetName(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", name)

	names.failGet = true
	name, err = s.users.GetName(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, name)

	_, err = s.users.GetName(ctx, 777)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowAndUnfollow(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	a := s.register(t, "a@example.com")
	b := s.register(t, "b@example.com")

	_, err := s.users.Follow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)
	_, err = s.users.Follow(ctx, a.ID, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	res, err := s.users.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []uint{b.ID}, res.Following)

	res, err = s.users.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Empty(t, res.Following)
}

func TestDeleteUserSelfOnly(t *testing.T) {
	names := &fakeNames{names: map[uint]string{}}
	s := newServices(t, nil, names)
	ctx := context.Background()
	a := s.register(t, "a@example.com")
	b := s.register(t, "b@example.com")
	names.names[a.ID] = "stale"

	assert.ErrorIs(t, s.users.Delete(ctx, b.ID, a.ID), ErrForbidden)
	require.NoError(t, s.users.Delete(ctx, a.ID, a.ID))
	assert.NotContains(t, names.names, a.ID)
	assert.ErrorIs(t, s.users.Delete(ctx, a.ID, a.ID), ErrUserNotFound)
}
