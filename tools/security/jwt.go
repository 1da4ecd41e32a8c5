// Package security issues and checks the bearer tokens chat clients
// present when they open a socket or call the HTTP API.
package security

import (
	"strings"
	"time"

	"PTalk/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	Issuer     = "ptalk"
	defaultTTL = 2 * time.Hour
)

// Options controls signing and token lifetime.
type Options struct {
	Secret []byte        // HMAC key
	Alg    string        // HS256, HS384 or HS512; empty means HS256
	TTL    time.Duration // zero means two hours
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: defaultTTL}
}

// Claims identifies a chat user. Subject is the user id.
type Claims struct {
	jwtlib.RegisteredClaims
}

func (c *Claims) UserID() string { return c.Subject }

// Issue signs a token for userID and returns it with its expiry.
func Issue(opts Options, userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errs.ErrValidation.WrapMsg("token needs a user id")
	}
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{jwtlib.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		NotBefore: jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(exp),
	}}
	signed, err := jwtlib.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, errs.WrapMsg(err, "sign token")
	}
	return signed, exp, nil
}

// Verify checks the signature, the time window and the issuer. Every
// failure is a validation error.
func Verify(opts Options, token string) (*Claims, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	_, err = jwtlib.ParseWithClaims(token, claims, func(*jwtlib.Token) (any, error) {
		return opts.Secret, nil
	},
		jwtlib.WithValidMethods([]string{method.Alg()}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errs.ErrValidation.WrapCause(err, "invalid token")
	}
	if claims.UserID() == "" {
		return nil, errs.ErrValidation.WrapMsg("token has no subject")
	}
	return claims, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	}
	return nil, errs.ErrValidation.WrapMsg("unsupported signing alg", "alg", alg)
}
