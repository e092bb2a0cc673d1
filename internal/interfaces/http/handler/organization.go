package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/directory"
	domain "github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/interfaces/http/dto"
)

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	BaseHandler
	organizationService *directory.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(organizationService *directory.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{organizationService: organizationService}
}

// ActivityFilterQuery carries the parameters of the by_activity listing
type ActivityFilterQuery struct {
	directory.PageQuery
	Tree bool `form:"tree"`
}

// Create godoc
// @ID           createOrganization
// @Summary      Create an organization
// @Description  Phones are created on demand; unknown activity ids are skipped
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateOrganizationRequest true "Organization"
// @Success      201 {object} APIResponse[directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req directory.CreateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organizationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, org)
}

// Get godoc
// @ID           getOrganization
// @Summary      Get an organization
// @Tags         organizations
// @Produce      json
// @Param        id path int true "Organization ID"
// @Success      200 {object} APIResponse[directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	org, err := h.organizationService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Update godoc
// @ID           updateOrganization
// @Summary      Update an organization
// @Description  A provided phone_numbers or activity_ids list replaces the whole set
// @Tags         organizations
// @Accept       json
// @Produce      json
// @Param        id      path int                                 true "Organization ID"
// @Param        request body directory.UpdateOrganizationRequest true "Fields to change"
// @Success      200 {object} APIResponse[directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/{id} [patch]
func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req directory.UpdateOrganizationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	org, err := h.organizationService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, org)
}

// Delete godoc
// @ID           deleteOrganization
// @Summary      Delete an organization
// @Tags         organizations
// @Produce      json
// @Param        id path int true "Organization ID"
// @Success      200 {object} APIResponse[directory.OKResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/{id} [delete]
func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.organizationService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, directory.OKResponse{OK: true})
}

// ListByBuilding godoc
// @ID           listOrganizationsByBuilding
// @Summary      Organizations in a building
// @Tags         organizations
// @Produce      json
// @Param        building_id path  int true  "Building ID"
// @Param        offset      query int false "Offset" default(0)
// @Param        limit       query int false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/by_building/{building_id} [get]
func (h *OrganizationHandler) ListByBuilding(c *gin.Context) {
	buildingID, ok := h.parseID(c, "building_id")
	if !ok {
		return
	}
	var q directory.PageQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page := q.Page()
	list, err := h.organizationService.ListByBuilding(c.Request.Context(), buildingID, page)
	h.respondList(c, list, page.Offset, page.Limit, err)
}

// ListByActivity godoc
// @ID           listOrganizationsByActivity
// @Summary      Organizations with an activity
// @Description  With tree=true organizations of any descendant activity (three levels) match too
// @Tags         organizations
// @Produce      json
// @Param        activity_id path  int  true  "Activity ID"
// @Param        tree        query bool false "Include descendants" default(false)
// @Param        offset      query int  false "Offset" default(0)
// @Param        limit       query int  false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/by_activity/{activity_id} [get]
func (h *OrganizationHandler) ListByActivity(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity_id")
	if !ok {
		return
	}
	var q ActivityFilterQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page := q.Page()
	list, err := h.organizationService.ListByActivity(c.Request.Context(), activityID, q.Tree, page)
	h.respondList(c, list, page.Offset, page.Limit, err)
}

// ListByActivityTree godoc
// @ID           listOrganizationsByActivityTree
// @Summary      Organizations within an activity subtree
// @Tags         organizations
// @Produce      json
// @Param        activity_id path  int true  "Activity ID"
// @Param        offset      query int false "Offset" default(0)
// @Param        limit       query int false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/by_activity_tree/{activity_id} [get]
func (h *OrganizationHandler) ListByActivityTree(c *gin.Context) {
	activityID, ok := h.parseID(c, "activity_id")
	if !ok {
		return
	}
	var q directory.PageQuery
	if !h.bindQuery(c, &q) {
		return
	}

	page := q.Page()
	list, err := h.organizationService.ListByActivityTree(c.Request.Context(), activityID, page)
	h.respondList(c, list, page.Offset, page.Limit, err)
}

// ListByLocation godoc
// @ID           listOrganizationsByLocation
// @Summary      Organizations near a point
// @Description  Matches buildings within radius (degrees) of lat/lon, or inside the min/max box when no radius is given
// @Tags         organizations
// @Produce      json
// @Param        lat     query number true  "Latitude"
// @Param        lon     query number true  "Longitude"
// @Param        radius  query number false "Radius in degrees"
// @Param        min_lat query number false "Box south edge"
// @Param        max_lat query number false "Box north edge"
// @Param        min_lon query number false "Box west edge"
// @Param        max_lon query number false "Box east edge"
// @Param        offset  query int    false "Offset" default(0)
// @Param        limit   query int    false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/by_location [get]
func (h *OrganizationHandler) ListByLocation(c *gin.Context) {
	var q directory.LocationQueryRequest
	if !h.bindQuery(c, &q) {
		return
	}

	query := domain.LocationQuery{
		Lat:    *q.Lat,
		Lon:    *q.Lon,
		Radius: q.Radius,
		MinLat: q.MinLat,
		MaxLat: q.MaxLat,
		MinLon: q.MinLon,
		MaxLon: q.MaxLon,
	}
	page := q.Page()
	list, err := h.organizationService.ListByLocation(c.Request.Context(), query, page)
	h.respondList(c, list, page.Offset, page.Limit, err)
}

// Search godoc
// @ID           searchOrganizations
// @Summary      Search organizations by name
// @Description  Case-insensitive substring match; an empty name matches every organization
// @Tags         organizations
// @Produce      json
// @Param        name   query string true  "Name fragment"
// @Param        offset query int    false "Offset" default(0)
// @Param        limit  query int    false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.OrganizationResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /organizations/search [get]
func (h *OrganizationHandler) Search(c *gin.Context) {
	var q directory.SearchRequest
	if !h.bindQuery(c, &q) {
		return
	}
	// the parameter must be present; an empty value lists everything
	if _, ok := c.GetQuery("name"); !ok {
		h.BadRequest(c, dto.ErrCodeValidation, "Query parameter name is required")
		return
	}

	page := q.Page()
	list, err := h.organizationService.Search(c.Request.Context(), q.Name, page)
	h.respondList(c, list, page.Offset, page.Limit, err)
}

func (h *OrganizationHandler) respondList(c *gin.Context, list *directory.OrganizationList, offset, limit int, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list.Items, list.Total, offset, limit)
}
