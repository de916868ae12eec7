package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TimestampPrecision is the granularity of token iat/exp claims and of
// registry watermarks. It matches jwt.TimePrecision.
const TimestampPrecision = time.Second

// DefaultTokenTTL is the lifetime of a freshly minted token.
const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrEmptySecret = errors.New("token secret cannot be empty")

// Claims is the signed payload: the registered iat/exp/jti claims plus the
// public view of the user. The password hash is never part of it.
type Claims struct {
	jwt.RegisteredClaims
	UID    uint64  `json:"uid,string"`
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Gender *bool   `json:"gender,omitempty"`
	Age    *int    `json:"age,omitempty"`
}

func (c *Claims) view() models.PublicView {
	return models.PublicView{
		ID:     c.UID,
		Name:   c.Name,
		Email:  c.Email,
		Phone:  c.Phone,
		Gender: c.Gender,
		Age:    c.Age,
	}
}

// TokenCodec mints and validates HS256 session tokens.
type TokenCodec struct {
	secret   []byte
	ttl      time.Duration
	registry *Registry
	now      func() time.Time
	log      logging.Logger
}

type TokenOption func(*TokenCodec)

// WithTokenClock overrides time.Now, for tests.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) { c.now = now }
}

func WithTokenLogger(l logging.Logger) TokenOption {
	return func(c *TokenCodec) { c.log = l }
}

// NewTokenCodec builds a codec signing with secret. A non-positive ttl means
// DefaultTokenTTL. Rotating the secret invalidates every outstanding token.
func NewTokenCodec(secret []byte, ttl time.Duration, registry *Registry, opts ...TokenOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if registry == nil {
		registry = NewRegistry()
	}
	c := &TokenCodec{
		secret:   append([]byte(nil), secret...),
		ttl:      ttl,
		registry: registry,
		now:      time.Now,
		log:      logging.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// TTL reports the lifetime of minted tokens.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Mint signs a token for view with iat = now and exp = iat + ttl. If the
// user's watermark lies ahead of now (a change in the current second), the
// watermark is used as iat so the new token is not rejected by it.
func (c *TokenCodec) Mint(view models.PublicView) (string, error) {
	iat := c.now().UTC().Truncate(TimestampPrecision)
	if wm, ok := c.registry.Watermark(view.ID); ok && wm.After(iat) {
		iat = wm
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(view.ID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
		UID:    view.ID,
		Name:   view.Name,
		Email:  view.Email,
		Phone:  view.Phone,
		Gender: view.Gender,
		Age:    view.Age,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Validate checks signature, presence of iat and exp, expiry, and the
// user's invalidation watermark. Every failure is common.ErrInvalidToken;
// the concrete reason is only logged.
func (c *TokenCodec) Validate(ctx context.Context, token string) (models.PublicView, error) {
	claims, err := c.parse(token)
	if err != nil {
		c.log.Debug(ctx, "token rejected", "reason", err.Error())
		return models.PublicView{}, common.ErrInvalidToken
	}

	if !c.registry.IsValidIssuedAt(claims.UID, claims.IssuedAt.Time) {
		c.log.Debug(ctx, "token rejected", "reason", "issued before credential change", "uid", claims.UID)
		return models.PublicView{}, common.ErrInvalidToken
	}

	return claims.view(), nil
}

func (c *TokenCodec) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil {
		return nil, errors.New("token has no iat claim")
	}
	return claims, nil
}
