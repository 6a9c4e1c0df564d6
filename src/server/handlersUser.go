package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "recipeserv/src/app"
	db "recipeserv/src/repository"
)

type (
	createUserRequest struct {
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=5,max=72"`
		Name     string `json:"name" validate:"max=255"`
	}

	createTokenRequest struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	updateUserRequest struct {
		Name     *string `json:"name" validate:"omitempty,max=255"`
		Password *string `json:"password" validate:"omitempty,min=5,max=72"`
	}
)

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var request createUserRequest
	if !bindJSON(c, &request) {
		return
	}
	if err := app.Validate(&request); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.CreateUser(c.Request.Context(), request.Email, request.Password, request.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// CreateToken exchanges email and password for an access token.
func (h *Handler) CreateToken(c *gin.Context) {
	var request createTokenRequest
	if !bindJSON(c, &request) {
		return
	}
	if err := app.Validate(&request); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.issueToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(currentUser(c)))
}

// UpdateMe changes the caller's name and/or password. PUT needs the name.
func (h *Handler) UpdateMe(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request updateUserRequest
		if !bindJSON(c, &request) {
			return
		}
		if !partial && request.Name == nil {
			respondError(c, app.NewValidationError("name", "this field is required"))
			return
		}
		if err := app.Validate(&request); err != nil {
			respondError(c, err)
			return
		}
		user, err := h.users.UpdateUser(c.Request.Context(), currentUser(c).ID, db.UserUpdate{
			Name:     request.Name,
			Password: request.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newUserResponse(user))
	}
}

// Logout revokes the token used for this request and clears the access cookie.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.tokens.Revoke(c.Request.Context(), currentClaims(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(h.config.Auth.AccessTokenCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
