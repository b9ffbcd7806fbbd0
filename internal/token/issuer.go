package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints the short-lived service-to-service bearer credential attached
// to every outbound request. Tokens are HMAC-signed and scoped to a single
// target service via the audience claim.
type Issuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(key []byte, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Mint returns a signed token for one call from subject to the audience
// service. A fresh token is generated per call; nothing is cached.
func (i *Issuer) Mint(subject, audience string) (string, error) {
	now := i.now()

	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing service token: %w", err)
	}

	return signed, nil
}
