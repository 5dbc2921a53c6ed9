// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token payload: registered claims plus the owning user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
}

// GenerateToken signs a token for userID. A non-positive validityDuration
// yields a token without an expiry.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	rc := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if validityDuration > 0 {
		rc.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: rc, UserID: userID})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the signature and expiry of tokenString and
// returns the user id it carries. Any failure is common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
