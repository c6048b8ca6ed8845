package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaithabhanuteja/StudentManagement/core"
	"github.com/kaithabhanuteja/StudentManagement/core/user"
)

const (
	SessionCookieName = "session"

	contextUserKey = "user"
	csrfField      = "csrf"
	csrfContextKey = "csrf"
)

var errInvalidSession = errors.New("invalid session")

// Claims represents the session claims carried by the cookie.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// NewSessionToken returns a signed HS256 token identifying usr.
func NewSessionToken(usr user.User, conf *core.Config) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    conf.AppName,
			Subject:   strconv.FormatInt(usr.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.SessionExpirationDelta)),
		},
		Username: usr.Username,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.SecretKey))
	return ss, errors.Wrap(err, "signing token")
}

func parseSessionToken(token string, conf *core.Config) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		token, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(conf.AppName),
	)
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	return claims, nil
}

func setSessionCookie(ctx echo.Context, usr user.User, conf *core.Config) error {
	token, err := NewSessionToken(usr, conf)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(conf.Server.SessionExpirationDelta),
		HttpOnly: true,
		Secure:   strings.HasPrefix(conf.SiteURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// sessionUser returns the active account identified by the session cookie.
func sessionUser(ctx echo.Context, conf *core.Config, svc *user.Service) (user.User, error) {
	cookie, err := ctx.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return user.User{}, errInvalidSession
	}
	claims, err := parseSessionToken(cookie.Value, conf)
	if err != nil {
		return user.User{}, errInvalidSession
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return user.User{}, errInvalidSession
	}

	usr, err := svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errInvalidSession
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, errInvalidSession
	}
	return usr, nil
}

// sessionMiddleware stores the account of a valid session in the request context.
// Requests without a valid session carry on anonymously.
func sessionMiddleware(conf *core.Config, svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := sessionUser(ctx, conf, svc)
			switch err {
			case nil:
				ctx.Set(contextUserKey, usr)
			case errInvalidSession:
			default:
				return err
			}
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}
