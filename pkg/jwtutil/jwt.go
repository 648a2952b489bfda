package jwtutil

import (
	"backoffice-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

var signingKey []byte

// UserClaims represents the JWT claims issued by the external auth provider
type UserClaims struct {
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	StoreID  *uint  `json:"store_id,omitempty"` // Storefront scope for multi-store deployments
	Role     string `json:"role,omitempty"`     // User's role in the back office
	jwt.RegisteredClaims
}

// Initialize sets the signing key used to validate tokens
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
