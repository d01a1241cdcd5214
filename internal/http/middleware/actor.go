// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting user once per request. The actor is taken
// from a verified HS256 bearer token (claims "sub" and "roles") or, when
// header authentication is allowed, from X-User-ID and X-User-Roles. Role
// names are parsed into a closed domain.RoleSet here, so nothing downstream
// compares raw role strings.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

// Headers read by Actor when header authentication is enabled.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRoles = "X-User-Roles"
)

const actorKey = "actor"

// ActorOptions configures Actor.
type ActorOptions struct {
	// JWTSecret verifies bearer tokens. Empty disables token auth.
	JWTSecret []byte
	// AllowHeaders accepts X-User-ID / X-User-Roles (trusted gateways, dev).
	AllowHeaders bool
}

// actorClaims is the token payload: the subject is the numeric user id.
type actorClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

var errNoCredentials = errors.New("missing credentials")

// Actor authenticates the request and stores the resulting domain.Actor.
// Requests without usable credentials are rejected with 401.
func Actor(opts ActorOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, rawRoles, err := credentials(c, opts)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		roles, unknown := domain.ParseRoles(rawRoles)
		lg := LoggerFrom(c).With().Int64("actor_id", id).Logger()
		if len(unknown) > 0 {
			lg.Warn().Strs("unknown_roles", unknown).Msg("ignoring unknown roles")
		}

		actor := domain.Actor{ID: id, Roles: roles}
		c.Set(actorKey, actor)
		c.Set("userID", strconv.FormatInt(id, 10))
		c.Set(loggerKey, &lg)
		c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))
		c.Next()
	}
}

// ActorFrom returns the actor stored by Actor.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	a, ok := v.(domain.Actor)
	return a, ok
}

func credentials(c *gin.Context, opts ActorOptions) (int64, []string, error) {
	if auth := strings.TrimSpace(c.GetHeader("Authorization")); auth != "" && len(opts.JWTSecret) > 0 {
		tok, found := strings.CutPrefix(auth, "Bearer ")
		if !found {
			return 0, nil, errors.New("authorization must use the Bearer scheme")
		}
		return parseToken(strings.TrimSpace(tok), opts.JWTSecret)
	}
	if opts.AllowHeaders {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			return 0, nil, errNoCredentials
		}
		id, err := parseActorID(raw)
		if err != nil {
			return 0, nil, err
		}
		return id, splitRoles(c.GetHeader(HeaderUserRoles)), nil
	}
	return 0, nil, errNoCredentials
}

func parseToken(tok string, secret []byte) (int64, []string, error) {
	var claims actorClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, nil, errors.New("invalid token")
	}
	id, err := parseActorID(claims.Subject)
	if err != nil {
		return 0, nil, err
	}
	return id, claims.Roles, nil
}

// IssueToken signs an HS256 token for id and roles. Operators use it to
// mint tokens for service accounts; tests use it to exercise Actor.
func IssueToken(secret []byte, id int64, roles []string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = strconv.FormatInt(id, 10)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, actorClaims{Roles: roles, RegisteredClaims: claims})
	return tok.SignedString(secret)
}

func parseActorID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user id must be a positive integer")
	}
	return id, nil
}

func splitRoles(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func abortUnauthorized(c *gin.Context, err error) {
	countRejection(rejectUnauthenticated)
	c.Header("WWW-Authenticate", `Bearer realm="records"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       "unauthorized",
		"message":    err.Error(),
	})
}
