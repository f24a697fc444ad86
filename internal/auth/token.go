package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	issuer        = "chantier-rapports"
	signingMethod = "HS256"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims représente les droits transmis par le fournisseur d'identité
type Claims struct {
	jwt.StandardClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// Can vérifie une permission pour le porteur du jeton
func (c *Claims) Can(perm string) bool {
	return Can(c.Role, perm)
}

// TokenManager signe et vérifie les jetons HS256 avec un secret partagé
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueToken produit un jeton pour l'outillage et les tests
func (m *TokenManager) IssueToken(subject, name, role string) (string, error) {
	if !IsKnownRole(role) {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}

	now := m.now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
		Name: name,
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod(signingMethod), claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken vérifie la signature, l'algorithme et l'expiration
func (m *TokenManager) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !IsKnownRole(claims.Role) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, claims.Role)
	}
	return claims, nil
}
