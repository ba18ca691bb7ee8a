package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "oncofeliz/pkg/domain"
)

// Claims are the token claims issued by the account service: numeric user
// id, e-mail, role name and, for beneficiary accounts, their code.
type Claims struct {
	UserID          int64  `json:"id"`
	Email           string `json:"email"`
	Role            string `json:"rol"`
	BeneficiaryCode string `json:"codigo_beneficiario,omitempty"`
	jwt.RegisteredClaims
}

// ActorID returns the typed user id.
func (c *Claims) ActorID() id.UserID {
	return id.UserID(c.UserID)
}

// HMACValidator verifies HS256 tokens with a shared key, issuer and audience.
type HMACValidator struct {
	key      []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func NewHMACValidator(key, issuer, audience string) *HMACValidator {
	return &HMACValidator{key: []byte(key), issuer: issuer, audience: audience, leeway: 30 * time.Second}
}

// ValidateToken parses and verifies a token string.
func (v *HMACValidator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token has no user id")
	}
	if claims.Role == "" {
		return nil, errors.New("token has no role")
	}
	return claims, nil
}

// Sign issues a token for claims. The service itself never issues tokens;
// this exists for tests and local tooling.
func (v *HMACValidator) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Issuer = v.issuer
	claims.Audience = jwt.ClaimStrings{v.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}
