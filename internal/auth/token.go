package auth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/entity"
)

// ErrInvalidToken is the only error Validate exposes. Signature, audience
// and expiry failures are deliberately indistinguishable to callers; the
// underlying cause is wrapped for internal logging only.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity embedded in every issued token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	UserID   int64  `json:"id"`
	jwt.RegisteredClaims
}

// TokenConfig holds the signing material for the codec. Values are loaded
// once at startup and passed in explicitly; the codec never reads ambient
// state at validation time.
type TokenConfig struct {
	Secret   string
	Audience string
	TTL      time.Duration
}

// TokenConfigFromEnv reads codec config from env vars with development
// defaults.
func TokenConfigFromEnv() TokenConfig {
	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	aud := os.Getenv("TOKEN_AUDIENCE")
	if aud == "" {
		aud = "todomanager"
	}
	ttl := 60 * time.Minute
	if v := os.Getenv("TOKEN_TTL_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Minute
		}
	}
	return TokenConfig{Secret: secret, Audience: aud, TTL: ttl}
}

// TokenCodec issues and validates signed, time-bounded identity tokens.
// Symmetric HS256 keeps verification stateless: no session table, no
// per-request database round trip, and consequently no revocation.
type TokenCodec struct {
	secret   []byte
	audience string
	ttl      time.Duration
}

func NewTokenCodec(cfg TokenConfig) *TokenCodec {
	return &TokenCodec{secret: []byte(cfg.Secret), audience: cfg.Audience, ttl: cfg.TTL}
}

// Issue signs a token for the user with subject, role, user id and the
// service audience, expiring at now+TTL.
func (c *TokenCodec) Issue(u *entity.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		UserID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Validate parses and verifies a raw token: signature, audience, expiry.
// Every failure is reported as ErrInvalidToken; errors.Is distinguishes
// nothing further, though the wrapped cause may be logged at debug level.
func (c *TokenCodec) Validate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{},
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
