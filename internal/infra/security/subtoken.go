// Package security issues the signed tokens embedded in subscription URLs.
package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.SubscriptionTokens = (*SubscriptionTokens)(nil)

var ErrInvalidToken = errors.New("invalid subscription token")

const subscriptionAccess = "subscription"

type SubscriptionClaims struct {
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// SubscriptionTokens signs subscription tokens with HS256. A token's issue
// time is the account's last revocation (or creation), so revoking an
// account changes its URL and Current rejects the old one.
type SubscriptionTokens struct {
	secret []byte
	prefix string
}

func NewSubscriptionTokens(secret, urlPrefix string) (*SubscriptionTokens, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("subscription secret must be at least 16 bytes; got %d", len(secret))
	}
	return &SubscriptionTokens{secret: []byte(secret), prefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func issuedAt(a *model.Account) time.Time {
	if a.SubRevokedAt != nil {
		return *a.SubRevokedAt
	}
	return a.CreatedAt
}

func (s *SubscriptionTokens) Token(a *model.Account) (string, error) {
	claims := SubscriptionClaims{
		Access: subscriptionAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  a.Username,
			IssuedAt: jwt.NewNumericDate(issuedAt(a)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// URL returns the account's subscription URL.
func (s *SubscriptionTokens) URL(a *model.Account) (string, error) {
	tok, err := s.Token(a)
	if err != nil {
		return "", fmt.Errorf("sign subscription token: %w", err)
	}
	return s.prefix + "/sub/" + tok + "/", nil
}

func (s *SubscriptionTokens) claims(tok string) (*SubscriptionClaims, error) {
	claims := &SubscriptionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuedAt())
	if err != nil || !tkn.Valid || claims.Access != subscriptionAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Parse verifies tok and returns the username it was issued for.
func (s *SubscriptionTokens) Parse(tok string) (string, error) {
	c, err := s.claims(tok)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// Current reports whether tok is the live token of a; tokens issued before
// the last revocation are stale.
func (s *SubscriptionTokens) Current(a *model.Account, tok string) bool {
	c, err := s.claims(tok)
	if err != nil || c.Subject != a.Username || c.IssuedAt == nil {
		return false
	}
	return c.IssuedAt.Unix() == issuedAt(a).Unix()
}
