package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/identity"
	"github.com/orgdir/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles login, logout and registration
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @ID           login
// @Summary      Log in
// @Description  Exchanges email and password for a bearer token. Accepts a form or a JSON body.
// @Tags         auth
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        username formData string true "Email"
// @Param        password formData string true "Password"
// @Success      200 {object} APIResponse[identity.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /auth/jwt/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input identity.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @ID           logout
// @Summary      Log out
// @Description  Revokes the presented bearer token
// @Tags         auth
// @Produce      json
// @Success      200 {object} SuccessResponse
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /auth/jwt/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Unauthorized")
		return
	}
	userID, _ := claims.UserID()

	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:   userID,
		TokenJTI: claims.ID,
		TTL:      claims.RemainingTTL(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, OKData{OK: true})
}

// Register godoc
// @ID           register
// @Summary      Register
// @Description  Creates an active, unverified, non-superuser account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Credentials"
// @Success      201 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}
