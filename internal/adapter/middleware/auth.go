package middleware

import (
	"errors"
	"net/http"
	"strings"

	"rahnu-backend/internal/domain/access"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// StaffClaims is what the identity service puts in a staff bearer token.
type StaffClaims struct {
	Role   string   `json:"role"`
	Scopes []string `json:"scopes"`
	Branch string   `json:"branch"`
	jwt.RegisteredClaims
}

var errBadToken = errors.New("invalid bearer token")

// RequireAuth verifies an HS256 bearer token and stores the caller in the
// request context. Tokens are issued elsewhere.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			caller, err := parseCaller(parser, raw, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			req := c.Request()
			c.SetRequest(req.WithContext(access.WithCaller(req.Context(), caller)))
			return next(c)
		}
	}
}

func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func parseCaller(p *jwt.Parser, raw string, secret []byte) (access.Caller, error) {
	var claims StaffClaims
	if _, err := p.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
		return access.Caller{}, errBadToken
	}
	role := access.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return access.Caller{}, errBadToken
	}
	caller := access.Caller{UserID: claims.Subject, Role: role, Branch: claims.Branch}
	for _, s := range claims.Scopes {
		if sc := access.Scope(s); sc.Valid() {
			caller.Scopes = append(caller.Scopes, sc)
		}
	}
	return caller, nil
}

// RequireStaff rejects callers that lack one of roles or all of scopes.
// Must run after RequireAuth.
func RequireStaff(roles []access.Role, scopes ...access.Scope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := access.CallerFrom(c.Request().Context())
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}
			if !access.AllowAny(caller, roles, scopes...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
