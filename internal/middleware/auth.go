package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/helpers"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshTokenMaxAge = 3600 * 24 * 30
	userKey            = "user"
)

var errNoSession = errors.New("no session")

type TokenValidator interface {
	Validate(tokenStr string) (*helpers.CustomClaims, error)
}

// Authenticator resolves the Supabase session from cookies or a bearer header,
// refreshing an expired access token when a refresh token is available.
type Authenticator struct {
	validator     TokenValidator
	authRepo      models.AuthRepo
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthenticator(validator TokenValidator, authRepo models.AuthRepo, secureCookies bool, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		validator:     validator,
		authRepo:      authRepo,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (a *Authenticator) resolve(c *gin.Context) (*helpers.AuthUser, error) {
	token := accessToken(c)

	var claims *helpers.CustomClaims
	var err error
	if token != "" {
		claims, err = a.validator.Validate(token)
	} else {
		err = errNoSession
	}

	if err != nil {
		refreshToken, cookieErr := c.Cookie(RefreshTokenCookie)
		if cookieErr != nil || refreshToken == "" {
			return nil, err
		}

		resp, refreshErr := a.authRepo.RefreshToken(c.Request.Context(), refreshToken)
		if refreshErr != nil {
			a.logger.Warn("Token refresh failed", "error", refreshErr)
			return nil, refreshErr
		}
		if resp == nil || resp.AccessToken == "" {
			return nil, errors.New("invalid refresh response")
		}

		SetSessionCookies(c, resp, a.secureCookies)
		a.logger.Info("Token refreshed successfully",
			"user_id", resp.User.ID,
			"expires_in", resp.ExpiresIn,
		)

		claims, err = a.validator.Validate(resp.AccessToken)
		if err != nil {
			return nil, errors.Wrap(err, "refreshed token validation failed")
		}
	}

	return helpers.NewAuthUser(claims)
}

// RequireAuth rejects the request with 401 unless a valid session is present.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.resolve(c)
		if err != nil {
			resp := models.ErrorResponse("Unauthorized access")
			resp.RequestID = GetRequestID(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when there is a valid session and carries on anonymously otherwise.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := a.resolve(c); err == nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *helpers.AuthUser {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*helpers.AuthUser)
	return user
}

// CurrentUserID is nil for anonymous requests.
func CurrentUserID(c *gin.Context) *uuid.UUID {
	user := CurrentUser(c)
	if user == nil {
		return nil
	}
	id := user.UserID
	return &id
}

func SetSessionCookies(c *gin.Context, resp *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, resp.AccessToken, resp.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, resp.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
