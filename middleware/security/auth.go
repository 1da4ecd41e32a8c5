// Package security resolves the caller's user id for HTTP and websocket
// requests.
package security

import (
	"net/http"
	"strings"

	"PTalk/tools/errs"
	jwtsec "PTalk/tools/security"

	"github.com/gin-gonic/gin"
)

// CtxUserIDKey is where Middleware stores the authenticated user id.
const CtxUserIDKey = "user_id"

type Options struct {
	// JWT verifies bearer tokens. With an empty secret the middleware runs in
	// development mode and trusts DevHeader / DevQuery instead.
	JWT jwtsec.Options

	HeaderToken string // default "Authorization", "Bearer " prefix optional
	QueryToken  string // default "token", for websocket clients that cannot set headers
	DevHeader   string // default "X-User-Id"
	DevQuery    string // default "user_id"
}

func DefaultOptions(secret []byte, alg string) *Options {
	return &Options{
		JWT:         jwtsec.Options{Secret: secret, Alg: alg},
		HeaderToken: "Authorization",
		QueryToken:  "token",
		DevHeader:   "X-User-Id",
		DevQuery:    "user_id",
	}
}

func (o *Options) secured() bool {
	return len(o.JWT.Secret) > 0
}

func (o *Options) token(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get(o.QueryToken)); t != "" {
		return t
	}
	authz := strings.TrimSpace(r.Header.Get(o.HeaderToken))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return authz
}

// Resolve returns the user id carried by r. An empty id with a nil error
// means the request is anonymous; a presented but invalid token is an error.
func Resolve(r *http.Request, opts *Options) (string, error) {
	if !opts.secured() {
		if id := strings.TrimSpace(r.Header.Get(opts.DevHeader)); id != "" {
			return id, nil
		}
		return strings.TrimSpace(r.URL.Query().Get(opts.DevQuery)), nil
	}
	tok := opts.token(r)
	if tok == "" {
		return "", nil
	}
	claims, err := jwtsec.Verify(opts.JWT, tok)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

// Middleware rejects requests without a resolvable user id.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := Resolve(c.Request, opts)
		if err == nil && id == "" {
			err = errs.ErrValidation.WrapMsg("missing credentials")
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": errs.Msg(err),
			})
			return
		}
		c.Set(CtxUserIDKey, id)
		c.Next()
	}
}

// UserID reads the id stored by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
