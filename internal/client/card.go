package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"apicatalog/internal/pkg/jwtutil"
)

// ErrNotLoggedIn is returned by Like and Dislike when no usable credential is
// stored. No request is sent in that case.
var ErrNotLoggedIn = errors.New("not logged in")

const summaryLimit = 115

type LikeState int

const (
	NotLiked LikeState = iota
	Liked
)

func (s LikeState) String() string {
	if s == Liked {
		return "liked"
	}
	return "not liked"
}

// LikeAPI is the subset of Client a Card needs.
type LikeAPI interface {
	GetName(ctx context.Context, userID uint) (string, error)
	IncrementLikes(ctx context.Context, token string, userID, apiID uint) (*LikeResult, error)
	DecrementLikes(ctx context.Context, token string, userID, apiID uint) (*LikeResult, error)
}

// Card is one catalog entry with a like/dislike toggle. Local state only
// changes after the server confirms a mutation, and the displayed counter is
// taken from the server's answer.
type Card struct {
	mu      sync.Mutex
	entry   Entry
	api     LikeAPI
	tokens  TokenStore
	secret  string
	state   LikeState
	likes   int64
	creator string
}

func NewCard(entry Entry, api LikeAPI, tokens TokenStore, secret string) *Card {
	return &Card{
		entry:  entry,
		api:    api,
		tokens: tokens,
		secret: secret,
		likes:  entry.Likes,
	}
}

// Mount derives the initial state from the stored credential and loads the
// creator name. A missing or unreadable credential simply means NotLiked.
func (c *Card) Mount(ctx context.Context) error {
	c.mu.Lock()
	if claims, _, err := c.credential(); err == nil && claims.HasLiked(c.entry.ID) {
		c.state = Liked
	} else {
		c.state = NotLiked
	}
	c.mu.Unlock()

	name, err := c.api.GetName(ctx, c.entry.UserID)
	if err != nil {
		return fmt.Errorf("load creator name failed: %w", err)
	}
	c.mu.Lock()
	c.creator = name
	c.mu.Unlock()
	return nil
}

func (c *Card) Like(ctx context.Context) error {
	return c.apply(ctx, Liked)
}

func (c *Card) Dislike(ctx context.Context) error {
	return c.apply(ctx, NotLiked)
}

// Toggle likes a NotLiked card and dislikes a Liked one.
func (c *Card) Toggle(ctx context.Context) error {
	if c.State() == Liked {
		return c.Dislike(ctx)
	}
	return c.Like(ctx)
}

func (c *Card) apply(ctx context.Context, target LikeState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	claims, token, err := c.credential()
	if err != nil {
		return err
	}

	adjust := c.api.IncrementLikes
	if target == NotLiked {
		adjust = c.api.DecrementLikes
	}
	res, err := adjust(ctx, token, claims.UserID, c.entry.ID)
	if err != nil {
		return err
	}

	if res.Token != "" {
		if err := c.tokens.Save(res.Token); err != nil {
			return err
		}
	}
	c.state = target
	c.likes = res.Likes
	return nil
}

// credential loads and verifies the stored token. Caller holds mu.
func (c *Card) credential() (*jwtutil.Claims, string, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return nil, "", err
	}
	if token == "" {
		return nil, "", ErrNotLoggedIn
	}
	claims, err := jwtutil.Decode(token, c.secret)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	return claims, token, nil
}

func (c *Card) State() LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Card) Likes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.likes
}

func (c *Card) CreatorName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creator
}

// Summary shortens long descriptions to their first 115 characters plus "...".
func (c *Card) Summary() string {
	r := []rune(c.entry.Description)
	if len(r) > summaryLimit {
		return string(r[:summaryLimit]) + "..."
	}
	return c.entry.Description
}

func (c *Card) Render(w io.Writer) error {
	c.mu.Lock()
	state, likes, creator := c.state, c.likes, c.creator
	c.mu.Unlock()

	heart := "♡"
	if state == Liked {
		heart = "♥"
	}
	_, err := fmt.Fprintf(w,
		"#%d API Name: %s\n   Creator's name: %s\n   %s\n   Country: %s\n   %s %d   views %d\n",
		c.entry.ID, c.entry.Name, creator, c.Summary(), c.entry.Country, heart, likes, c.entry.Views,
	)
	return err
}
