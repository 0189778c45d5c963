package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/premiums/internal/pkg/constants"
)

const adminIssuer = "premiums-admin"

type AdminTokenClaims struct {
	Scope string `json:"scope"`
	jwt.StandardClaims
}

// GenerateAdminToken signs a short lived HS256 token for the admin routes.
func GenerateAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin secret is empty")
	}

	now := time.Now()
	claims := AdminTokenClaims{
		Scope: "admin",
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			Issuer:    adminIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("SignedString: %w", err)
	}

	return signed, nil
}

func ParseAdminToken(raw, secret string) (*AdminTokenClaims, error) {
	if secret == "" || raw == "" {
		return nil, constants.ErrForbidden
	}

	claims := new(AdminTokenClaims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, constants.ErrForbidden
	}

	if claims.Scope != "admin" || claims.Issuer != adminIssuer {
		return nil, constants.ErrForbidden
	}

	return claims, nil
}
