package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/swassyman/heart/internal/contracts"
)

const tokenIssuer = "heart"

// MinKeyBytes is the shortest HMAC key NewSigner accepts.
const MinKeyBytes = 32

// Claims is the identity carried by an API bearer token.
type Claims struct {
	Name string         `json:"name"`
	Role contracts.Role `json:"role"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 bearer tokens for the HTTP API. Unlike
// the local session envelope, these tokens cannot be minted without key.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key []byte, ttl time.Duration) (*Signer, error) {
	if len(key) < MinKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeyBytes, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Signer{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}, nil
}

// WithClock replaces the clock used for issue and expiry checks.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	clone := *s
	clone.now = now
	return &clone
}

func (s *Signer) Issue(user contracts.User) (string, error) {
	if err := user.Validate(); err != nil {
		return "", err
	}
	now := s.now()
	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, issuer and expiry and returns the embedded user
// with Token set to the verified token.
func (s *Signer) Verify(token string) (contracts.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return contracts.User{}, &contracts.ValidationError{Entity: "session", Field: "token", Reason: err.Error()}
	}
	user := contracts.User{ID: claims.Subject, Name: claims.Name, Role: claims.Role, Token: token}
	if err := user.Validate(); err != nil {
		return contracts.User{}, err
	}
	return user, nil
}
