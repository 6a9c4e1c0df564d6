package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	app "recipeserv/src/app"
	"recipeserv/src/logging"
)

const (
	currentUserKey = "currentUser"
	claimsKey      = "tokenClaims"
)

var errUnauthorized = errors.New("authentication credentials were not provided or are invalid")

// Claims are the JWT claims of an access token; ID (jti) keys the token store.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 access tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required but was empty")
	}
	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
		now:     time.Now,
	}, nil
}

func (m *JWTManager) GenerateToken(user *app.User) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// issueToken signs a token for user and records it so it can be revoked.
func (h *Handler) issueToken(ctx context.Context, user *app.User) (string, error) {
	signed, claims, err := h.jwt.GenerateToken(user)
	if err != nil {
		return "", err
	}
	if err := h.tokens.Issue(ctx, claims.ID, user.ID, claims.ExpiresAt.Time); err != nil {
		return "", fmt.Errorf("record token: %w", err)
	}
	return signed, nil
}

func (h *Handler) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "Token")) {
			return strings.TrimSpace(token)
		}
		return ""
	}
	cookie, err := c.Cookie(h.config.Auth.AccessTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie
}

// AuthRequired rejects requests without a valid, unrevoked token of an active user and
// stores that user and the token claims on the context.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := h.tokenFromRequest(c)
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, errUnauthorized.Error())
			return
		}
		claims, err := h.jwt.ValidateToken(raw)
		if err != nil {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("rejected token")
			abortWithError(c, http.StatusUnauthorized, errUnauthorized.Error())
			return
		}
		active, err := h.tokens.Active(c.Request.Context(), claims.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !active {
			abortWithError(c, http.StatusUnauthorized, errUnauthorized.Error())
			return
		}
		user, err := h.users.GetUserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, app.ErrNotFound) || (err == nil && !user.IsActive) {
			abortWithError(c, http.StatusUnauthorized, errUnauthorized.Error())
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Set(claimsKey, claims)
		c.Set(logging.UserIDKey, user.ID)
		c.Next()
	}
}

func currentUser(c *gin.Context) *app.User {
	return c.MustGet(currentUserKey).(*app.User)
}

func currentClaims(c *gin.Context) *Claims {
	return c.MustGet(claimsKey).(*Claims)
}
