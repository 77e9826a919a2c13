// Package token encodes and verifies the bearer tokens issued by the iam
// service. Tokens are stateless: subject, expiry, and a refresh-class flag,
// signed with a symmetric key. The refresh allow-list lives elsewhere.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/iam"
)

// claims is the wire payload: {sub, exp, irt}. The irt flag is present only
// on refresh tokens so a decoder can reject an access token where a refresh
// token is required, and vice versa.
type claims struct {
	IRT bool `json:"irt,omitempty"`
	jwt.RegisteredClaims
}

// Payload is the decoded, verified content of a token.
type Payload struct {
	Subject   int64
	ExpiresAt time.Time
	IsRefresh bool
}

// Codec produces and verifies tokens. Pure: no I/O, deterministic given key,
// algorithm and clock.
type Codec struct {
	key        []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec for the named HMAC algorithm (HS256/HS384/HS512).
func NewCodec(signingKey, algorithm string, accessTTL, refreshTTL time.Duration, opts ...Option) (*Codec, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not symmetric", algorithm)
	}

	c := &Codec{
		key:        []byte(signingKey),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Generate issues a token for the subject. Refresh tokens get the longer TTL
// and carry the irt flag.
func (c *Codec) Generate(userID int64, isRefresh bool) (string, time.Time, error) {
	ttl := c.accessTTL
	if isRefresh {
		ttl = c.refreshTTL
	}
	expiresAt := c.now().Add(ttl)

	tok := jwt.NewWithClaims(c.method, claims{
		IRT: isRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := tok.SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode verifies signature, expiry, and token class. Failures are typed:
// iam.ErrMalformedToken, iam.ErrAccessTokenExpired / iam.ErrRefreshTokenExpired
// (flavored by the class the caller expected), iam.ErrWrongTokenClass.
func (c *Codec) Decode(tokenString string, wantRefresh bool) (Payload, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return c.key, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if wantRefresh {
				return Payload{}, iam.ErrRefreshTokenExpired
			}
			return Payload{}, iam.ErrAccessTokenExpired
		}
		return Payload{}, iam.ErrMalformedToken
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Payload{}, iam.ErrMalformedToken
	}
	if cl.Subject == "" || cl.ExpiresAt == nil {
		return Payload{}, iam.ErrMalformedToken
	}
	subject, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil {
		return Payload{}, iam.ErrMalformedToken
	}
	if cl.IRT != wantRefresh {
		return Payload{}, iam.ErrWrongTokenClass
	}

	return Payload{
		Subject:   subject,
		ExpiresAt: cl.ExpiresAt.Time,
		IsRefresh: cl.IRT,
	}, nil
}
