package handlers

import (
	"net/http"
	"net/url"

	"github.com/aditinaik811/Pre-Bookings-VGO/internal/middleware"
	"github.com/aditinaik811/Pre-Bookings-VGO/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	verifierCookie = "pkce_verifier"
	verifierMaxAge = 600
)

// callbackURL is where Supabase sends the browser back with ?code=.
func callbackURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/api/v1/auth/google/callback"
}

func signinErrorURL(frontendURL, code, description string) string {
	q := url.Values{}
	q.Set("error", code)
	if description != "" {
		q.Set("error_description", description)
	}
	return frontendURL + "/auth/signin?" + q.Encode()
}

// GoogleAuth starts a PKCE sign-in through Supabase. The verifier is parked in a
// short-lived http-only cookie until the callback.
func GoogleAuth(authRepo models.AuthRepo, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := authRepo.AuthorizeGoogle(c.Request.Context())
		if err != nil {
			fail(c, err, nil)
			return
		}

		authURL, err := url.Parse(resp.AuthorizationURL)
		if err != nil {
			fail(c, err, nil)
			return
		}
		q := authURL.Query()
		q.Set("redirect_to", callbackURL(c))
		authURL.RawQuery = q.Encode()

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(verifierCookie, resp.Verifier, verifierMaxAge, "/", "", secureCookies, true)
		c.Redirect(http.StatusTemporaryRedirect, authURL.String())
	}
}

// GoogleAuthCallback exchanges the code for a session and sends the browser to the frontend.
func GoogleAuthCallback(authRepo models.AuthRepo, frontendURL string, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if e := c.Query("error"); e != "" {
			c.Redirect(http.StatusTemporaryRedirect, signinErrorURL(frontendURL, e, c.Query("error_description")))
			return
		}

		code := c.Query("code")
		verifier, err := c.Cookie(verifierCookie)
		if code == "" || err != nil || verifier == "" {
			c.Redirect(http.StatusTemporaryRedirect, signinErrorURL(frontendURL, "invalid_request", "sign-in session expired, please try again"))
			return
		}

		session, err := authRepo.ExchangeCode(c.Request.Context(), code, verifier)
		if err != nil {
			c.Redirect(http.StatusTemporaryRedirect, signinErrorURL(frontendURL, "exchange_failed", ""))
			return
		}

		c.SetCookie(verifierCookie, "", -1, "/", "", secureCookies, true)
		middleware.SetSessionCookies(c, session, secureCookies)
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth/callback")
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookies(c, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}

func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("Unauthorized access"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"id":       user.UserID,
			"email":    user.Email,
			"name":     user.Name,
			"provider": user.Provider(),
		}, ""))
	}
}
