package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/identity"
	"github.com/orgdir/backend/internal/interfaces/http/middleware"
)

// UserHandler serves the account endpoints
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me godoc
// @ID           getMe
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetJWTUserID(c)
	if !ok {
		h.Unauthorized(c, "Unauthorized")
		return
	}

	user, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateMe godoc
// @ID           updateMe
// @Summary      Update current user
// @Description  Changes email or password. Changing the password revokes existing tokens.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateMeRequest true "Fields to change"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.GetJWTUserID(c)
	if !ok {
		h.Unauthorized(c, "Unauthorized")
		return
	}
	var req identity.UpdateMeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Get godoc
// @ID           getUser
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Update godoc
// @ID           updateUser
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id      path int                        true "User ID"
// @Param        request body identity.UpdateUserRequest true "Fields to change"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete godoc
// @ID           deleteUser
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} SuccessResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, OKData{OK: true})
}
