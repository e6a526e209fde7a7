// Package jwtutil encodes and decodes the signed credential handed to clients.
// The credential carries the user id and the user's liked-set as a
// comma-delimited string under "liked_apis".
package jwtutil

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
	ErrMalformed        = errors.New("token is malformed")
)

type Claims struct {
	UserID    uint   `json:"id"`
	Name      string `json:"name"`
	LikedAPIs string `json:"liked_apis"`
	jwt.RegisteredClaims
}

// LikedSet returns the parsed liked-set; an empty liked_apis yields nil.
func (c *Claims) LikedSet() []uint {
	return ParseLikedSet(c.LikedAPIs)
}

func (c *Claims) HasLiked(apiID uint) bool {
	for _, id := range c.LikedSet() {
		if id == apiID {
			return true
		}
	}
	return false
}

func GenerateToken(secret string, ttl time.Duration, userID uint, name string, liked []uint) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Name:      name,
		LikedAPIs: JoinLikedSet(liked),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(uint64(userID), 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return Encode(claims, secret)
}

func Encode(claims Claims, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("sign token failed: empty secret")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token failed: %w", err)
	}
	return signed, nil
}

func Decode(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformed)
	}
	return claims, nil
}

// ParseToken is kept for middleware callers that only need the claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	return Decode(tokenString, secret)
}

// ParseLikedSet splits a comma-delimited id list. Blank, non-numeric and
// duplicate entries are dropped; order of first appearance is kept.
func ParseLikedSet(raw string) []uint {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[uint]struct{})
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || v == 0 {
			continue
		}
		id := uint(v)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func JoinLikedSet(ids []uint) string {
	if len(ids) == 0 {
		return ""
	}
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	parts := make([]string, 0, len(sorted))
	var prev uint
	for i, id := range sorted {
		if id == 0 || (i > 0 && id == prev) {
			continue
		}
		prev = id
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}
