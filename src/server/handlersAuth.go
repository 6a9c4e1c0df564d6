package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	app "recipeserv/src/app"
	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
)

const (
	oidcStateCookieName    = "oidc_state"
	oidcCallbackCookieName = "callback"
	oidcStateMaxAge        = 600
)

// AuthHandler logs users in through an external OpenID Connect provider and hands out
// the same access tokens as /user/token/.
type AuthHandler struct {
	authConfig *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	app        *Handler
}

func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewAuthHandler discovers the provider at AUTH_OIDC_HOST.
func NewAuthHandler(ctx context.Context, config *cfg.Properties, h *Handler) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, config.Auth.OIDCHost)
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	logging.Info().Str("endpoint", provider.Endpoint().AuthURL).Msg("OIDC provider discovered")
	authConfig := &oauth2.Config{
		ClientID:     config.Auth.ID,
		ClientSecret: config.Auth.Secret,
		RedirectURL:  config.Auth.Redirect,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return newAuthHandler(authConfig, provider.Verifier(&oidc.Config{ClientID: config.Auth.ID}), h), nil
}

func newAuthHandler(authConfig *oauth2.Config, verifier *oidc.IDTokenVerifier, h *Handler) *AuthHandler {
	return &AuthHandler{
		authConfig: authConfig,
		verifier:   verifier,
		app:        h,
	}
}

func (a *AuthHandler) register(router gin.IRoutes) {
	router.GET("/login", a.Login)
	router.GET("/signin", a.Signin)
	router.GET("/callback", a.Callback)
}

// newState stores a fresh state in a short lived cookie and returns the provider URL.
func (a *AuthHandler) newState(c *gin.Context) (string, error) {
	state, err := randString(16)
	if err != nil {
		return "", err
	}
	c.SetCookie(oidcStateCookieName, state, oidcStateMaxAge, "/", "", false, true)
	return a.authConfig.AuthCodeURL(state), nil
}

func (a *AuthHandler) Login(c *gin.Context) {
	ref, err := a.newState(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ref": ref})
}

func (a *AuthHandler) Signin(c *gin.Context) {
	ref, err := a.newState(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, ref)
}

// Callback completes the code flow, creating an account with an unusable password on the
// first login of an email.
func (a *AuthHandler) Callback(c *gin.Context) {
	expected, err := c.Cookie(oidcStateCookieName)
	if err != nil || expected == "" || c.Query("state") != expected {
		abortWithError(c, http.StatusBadRequest, "no current state found")
		return
	}
	c.SetCookie(oidcStateCookieName, "", -1, "/", "", false, true)

	ctx := c.Request.Context()
	// Exchange the authorization code for access and id tokens
	token, err := a.authConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "error getting access token: "+err.Error())
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "no ID token found in request to /callback")
		return
	}
	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "error verifying ID token: "+err.Error())
		return
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		abortWithError(c, http.StatusBadRequest, "ID token carries no email")
		return
	}

	user, err := a.app.users.GetUserByEmail(ctx, claims.Email)
	if errors.Is(err, app.ErrNotFound) {
		user, err = a.app.users.CreateUser(ctx, claims.Email, "", claims.Name)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !user.IsActive {
		abortWithError(c, http.StatusUnauthorized, errUnauthorized.Error())
		return
	}
	access, err := a.app.issueToken(ctx, user)
	if err != nil {
		respondError(c, err)
		return
	}
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Bool("password_login", user.HasUsablePassword()).Msg("OIDC login")
	c.SetCookie(a.app.config.Auth.AccessTokenCookieName, access, int(a.app.config.Auth.TokenTTL.Seconds()), "/", "", false, true)

	if callback, err := c.Cookie(oidcCallbackCookieName); err == nil && isLocalPath(callback) {
		c.Redirect(http.StatusFound, callback)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: access})
}

func isLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
