package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// OwnerClaim is the JWT claim that identifies the record owner.
const OwnerClaim = "user_id"

// Identity is the verified caller. Only OwnerID is trusted for scoping.
type Identity struct {
	OwnerID string
	Claims  jwt.MapClaims
}

// TokenVerifier checks session tokens issued by the login service.
type TokenVerifier struct {
	jwtSecret []byte
}

func NewTokenVerifier(jwtSecret string) *TokenVerifier {
	return &TokenVerifier{jwtSecret: []byte(jwtSecret)}
}

func (v *TokenVerifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingCredential
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}

	ownerID, ok := claims[OwnerClaim].(string)
	if !ok || ownerID == "" {
		return nil, fmt.Errorf("%w: missing %s claim", ErrInvalidCredential, OwnerClaim)
	}

	return &Identity{OwnerID: ownerID, Claims: claims}, nil
}
