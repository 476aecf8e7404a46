// Package jwtauth validates access tokens minted by the external account
// service. Only validation lives here; issuing tokens is out of scope.
package jwtauth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	id "trustbridge/pkg/domain"
	dErrors "trustbridge/pkg/domain-errors"
)

// Claims represents the JWT claims expected on access tokens. FullName is
// optional; it feeds the holder name embedded in issued credentials.
type Claims struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Service validates HS256 access tokens against the shared deployment secret.
type Service struct {
	signingKey []byte
}

func New(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// ValidateToken checks signature and expiry and returns the owner the token
// was issued to plus the holder's display name, if the token carries one.
func (s *Service) ValidateToken(tokenString string) (id.UserID, string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return id.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return id.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return id.UserID{}, "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return userID, claims.FullName, nil
}
