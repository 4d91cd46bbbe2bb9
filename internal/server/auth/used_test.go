package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func claimsFor(id string, exp time.Time) *Claims {
	return &Claims{RegisteredClaims: jwt.RegisteredClaims{ID: id, ExpiresAt: jwt.NewNumericDate(exp)}}
}

func TestUsedTokens_Consume(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	u := NewUsedTokens()
	u.now = func() time.Time { return now }

	c := claimsFor("a", now.Add(time.Minute))
	if err := u.Consume(c); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if err := u.Consume(c); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("replay: expected common.ErrInvalidToken, got %v", err)
	}
	if err := u.Consume(claimsFor("b", now.Add(time.Minute))); err != nil {
		t.Fatalf("other token: %v", err)
	}

	// Expired IDs are forgotten.
	now = now.Add(2 * time.Minute)
	if err := u.Consume(claimsFor("c", now.Add(time.Minute))); err != nil {
		t.Fatalf("new token: %v", err)
	}
	if _, ok := u.seen["a"]; ok {
		t.Fatalf("expired id was not pruned")
	}
}
