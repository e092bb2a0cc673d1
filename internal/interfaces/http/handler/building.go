package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/directory"
)

// BuildingHandler handles building endpoints
type BuildingHandler struct {
	BaseHandler
	buildingService *directory.BuildingService
}

// NewBuildingHandler creates a new BuildingHandler
func NewBuildingHandler(buildingService *directory.BuildingService) *BuildingHandler {
	return &BuildingHandler{buildingService: buildingService}
}

// Create godoc
// @ID           createBuilding
// @Summary      Create a building
// @Tags         buildings
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateBuildingRequest true "Building"
// @Success      201 {object} APIResponse[directory.BuildingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /buildings [post]
func (h *BuildingHandler) Create(c *gin.Context) {
	var req directory.CreateBuildingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	building, err := h.buildingService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, building)
}

// List godoc
// @ID           listBuildings
// @Summary      List buildings
// @Description  Buildings ordered by id
// @Tags         buildings
// @Produce      json
// @Param        offset query int false "Offset" default(0)
// @Param        limit  query int false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.BuildingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /buildings [get]
func (h *BuildingHandler) List(c *gin.Context) {
	var q directory.PageQuery
	if !h.bindQuery(c, &q) {
		return
	}

	buildings, err := h.buildingService.List(c.Request.Context(), q.Page())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, buildings)
}

// Get godoc
// @ID           getBuilding
// @Summary      Get a building
// @Tags         buildings
// @Produce      json
// @Param        id path int true "Building ID"
// @Success      200 {object} APIResponse[directory.BuildingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /buildings/{id} [get]
func (h *BuildingHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	building, err := h.buildingService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, building)
}

// Update godoc
// @ID           updateBuilding
// @Summary      Update a building
// @Description  Only the fields present in the body are changed
// @Tags         buildings
// @Accept       json
// @Produce      json
// @Param        id      path int                             true "Building ID"
// @Param        request body directory.UpdateBuildingRequest true "Fields to change"
// @Success      200 {object} APIResponse[directory.BuildingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /buildings/{id} [patch]
func (h *BuildingHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req directory.UpdateBuildingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	building, err := h.buildingService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, building)
}

// Delete godoc
// @ID           deleteBuilding
// @Summary      Delete a building
// @Description  Fails with HAS_ORGANIZATIONS while organizations are located in the building
// @Tags         buildings
// @Produce      json
// @Param        id path int true "Building ID"
// @Success      200 {object} APIResponse[directory.OKResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /buildings/{id} [delete]
func (h *BuildingHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.buildingService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, directory.OKResponse{OK: true})
}
