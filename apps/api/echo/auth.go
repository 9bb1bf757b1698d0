package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/user"
)

const (
	contextUserKey = "user"
	bearerPrefix   = "Bearer "
)

// Claims represents the session claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

type authenticator struct {
	key        []byte
	issuer     string
	ttl        time.Duration
	cookieName string
	secure     bool
	users      *user.Service
}

func newAuthenticator(conf *core.Config, users *user.Service) *authenticator {
	return &authenticator{
		key:        []byte(conf.SecretKey),
		issuer:     conf.AppName,
		ttl:        conf.Auth.SessionTTL,
		cookieName: conf.Auth.CookieName,
		secure:     !conf.Debug,
		users:      users,
	}
}

// GenerateToken signs a session token for usr.
func (a *authenticator) GenerateToken(usr user.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(a.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   usr.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name: usr.Name,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return ss, exp, nil
}

func (a *authenticator) parseToken(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// requestToken reads the token from the Authorization header, then from the session cookie.
func (a *authenticator) requestToken(ctx echo.Context) string {
	if h := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	if c, err := ctx.Cookie(a.cookieName); err == nil {
		return c.Value
	}
	return ""
}

func (a *authenticator) setCookie(ctx echo.Context, token string, exp time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authenticator) clearCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// session requires a valid session. The user is re-read on every request so that
// admin changes apply immediately.
func (a *authenticator) session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := a.requestToken(ctx)
			if token == "" {
				return errUnauthorized
			}
			claims, err := a.parseToken(token)
			if err != nil {
				return errUnauthorized
			}
			usr, err := a.users.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// ctxUser returns the user set by the session middleware, or the zero User.
func ctxUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}
