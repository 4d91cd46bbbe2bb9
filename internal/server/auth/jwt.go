// Package auth issues and verifies the bearer tokens that gate master key
// export.
//
// An export token is single use: it carries a unique ID which the server
// records on first use, so a replayed token is refused even before it
// expires. Consumed IDs live in process memory; a restart forgets them, which
// leaves a replay window of at most the token validity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeKeyExport is the only scope the server issues.
const ScopeKeyExport = "key:export"

// MinSecretKeyLength is the shortest HMAC secret accepted for export tokens.
const MinSecretKeyLength = 32

const issuer = "bitguard"

// Claims are the registered claims plus the granted scope.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// ValidateSecret rejects secrets too short to sign export tokens.
func ValidateSecret(secretKey []byte) error {
	if len(secretKey) < MinSecretKeyLength {
		return fmt.Errorf("%w: export token secret must be at least %d bytes", common.ErrorValidation, MinSecretKeyLength)
	}
	return nil
}

// GenerateExportToken signs an HS256 token allowing one holder to fetch the
// master key once before it expires.
func GenerateExportToken(secretKey []byte, validity time.Duration) (string, error) {
	if err := ValidateSecret(secretKey); err != nil {
		return "", err
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Scope: ScopeKeyExport,
	})
	return token.SignedString(secretKey)
}

// VerifyExportToken checks signature, expiry, token ID and scope. Expired
// tokens yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
// It does not record the token; see UsedTokens.
func VerifyExportToken(tokenString string, secretKey []byte) (*Claims, error) {
	if ValidateSecret(secretKey) != nil {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Scope != ScopeKeyExport || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
