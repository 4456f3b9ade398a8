package token

import (
	"errors"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated covers every verification failure: bad signature,
// malformed token, expired token, or a missing/invalid subject claim.
// Callers get no finer detail so responses cannot be used to probe tokens.
var ErrUnauthenticated = errors.New("could not validate credentials")

type Config struct {
	Secret        string
	Algorithm     string
	ExpireMinutes int
}

// ConfigFromEnv reads token config from environment variables.
func ConfigFromEnv() Config {
	alg := os.Getenv("JWT_ALGORITHM")
	if alg == "" {
		alg = "HS256"
	}
	exp := 30
	if m, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); err == nil && m > 0 {
		exp = m
	}
	return Config{
		Secret:        os.Getenv("JWT_SECRET_KEY"),
		Algorithm:     alg,
		ExpireMinutes: exp,
	}
}

// Claims is the token payload: the subject email in `username` plus the
// registered expiry/issued-at fields.
type Claims struct {
	Username string `json:"username"`
	Type     string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, errors.New("token: unsupported algorithm " + cfg.Algorithm)
	}
	ttl := time.Duration(cfg.ExpireMinutes) * time.Minute
	return &Issuer{secret: []byte(cfg.Secret), method: method, ttl: ttl}, nil
}

// Issue creates a signed token carrying identity as the `username` claim.
// A zero ttl uses the configured default expiry.
func (i *Issuer) Issue(identity string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = i.ttl
	}
	now := time.Now()
	claims := &Claims{
		Username: identity,
		Type:     "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
}

// Verify decodes and signature-checks a token, failing closed. On success
// it returns the subject email used as the row key for every profile
// operation.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{i.method.Alg()}))
	if err != nil || !tok.Valid {
		return "", ErrUnauthenticated
	}
	if claims.Username == "" {
		return "", ErrUnauthenticated
	}
	if _, err := mail.ParseAddress(claims.Username); err != nil {
		return "", ErrUnauthenticated
	}
	return claims.Username, nil
}
