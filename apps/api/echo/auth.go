package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/classfence/core"
)

const tokenContextKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the user service; Subject is the user (student) ID.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// IsStaff reports whether any of the roles is an admin or teacher role.
func (c Claims) IsStaff() bool {
	for _, role := range c.Roles {
		if core.IsStaffRole(role) {
			return true
		}
	}
	return false
}

func (c Claims) identity() core.Identity {
	return core.Identity{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func NewClaims(conf *core.Config, subject, username string, roles ...string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: username,
		Roles:    roles,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func newJWTMiddleware(secretKey string) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Subject != "" {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
