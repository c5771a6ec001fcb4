package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

const (
	defaultStateTTL = 10 * time.Minute
	stateIssuer     = "daycare-api"
)

// StateSigner issues and checks the OAuth state parameter. A state is an HS256
// token with a random nonce and a short expiry.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a fresh signed state.
func (s *StateSigner) Issue() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("state nonce: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    stateIssuer,
		ID:        base64.RawURLEncoding.EncodeToString(nonce),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify accepts a state produced by Issue that has not expired.
func (s *StateSigner) Verify(state string) error {
	if state == "" {
		return domain.ErrOAuthState
	}

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", domain.ErrOAuthState)
		}
		return domain.ErrOAuthState
	}
	return nil
}
