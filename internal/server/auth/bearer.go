package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidBearerFormat = errors.New("invalid bearer authorization header format")
	ErrEmptyBearerToken    = errors.New("empty bearer token")
)

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>" value.
func ParseBearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidBearerFormat
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrEmptyBearerToken
	}

	return token, nil
}
