package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/application/directory"
)

// ActivityHandler handles activity endpoints
type ActivityHandler struct {
	BaseHandler
	activityService *directory.ActivityService
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activityService *directory.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// TreeQuery carries the depth limit of the activity tree
type TreeQuery struct {
	MaxLevel *int `form:"max_level"`
}

// Create godoc
// @ID           createActivity
// @Summary      Create an activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        request body directory.CreateActivityRequest true "Activity"
// @Success      201 {object} APIResponse[directory.ActivityNodeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req directory.CreateActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.activityService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, activity)
}

// List godoc
// @ID           listActivities
// @Summary      List activities
// @Description  Flat list ordered by id
// @Tags         activities
// @Produce      json
// @Param        offset query int false "Offset" default(0)
// @Param        limit  query int false "Limit"  default(100)
// @Success      200 {object} APIResponse[[]directory.ActivityResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var q directory.PageQuery
	if !h.bindQuery(c, &q) {
		return
	}

	activities, err := h.activityService.List(c.Request.Context(), q.Page())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activities)
}

// Tree godoc
// @ID           activityTree
// @Summary      Activity tree
// @Description  Root activities with nested children down to max_level. max_level below 1 yields an empty list.
// @Tags         activities
// @Produce      json
// @Param        max_level query int false "Depth limit" default(3)
// @Success      200 {object} APIResponse[[]directory.ActivityNodeResponse]
// @Failure      400 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities/tree [get]
func (h *ActivityHandler) Tree(c *gin.Context) {
	var q TreeQuery
	if !h.bindQuery(c, &q) {
		return
	}
	maxLevel := 3
	if q.MaxLevel != nil {
		maxLevel = *q.MaxLevel
	}

	tree, err := h.activityService.Tree(c.Request.Context(), maxLevel)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// Get godoc
// @ID           getActivity
// @Summary      Get an activity
// @Description  The activity with its children nested up to three levels
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} APIResponse[directory.ActivityNodeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	activity, err := h.activityService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activity)
}

// Update godoc
// @ID           updateActivity
// @Summary      Update an activity
// @Description  parent_id set to null detaches the activity; an omitted parent_id leaves it unchanged
// @Tags         activities
// @Accept       json
// @Produce      json
// @Param        id      path int                             true "Activity ID"
// @Param        request body directory.UpdateActivityRequest true "Fields to change"
// @Success      200 {object} APIResponse[directory.ActivityNodeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities/{id} [patch]
func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req directory.UpdateActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.activityService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activity)
}

// Delete godoc
// @ID           deleteActivity
// @Summary      Delete an activity
// @Description  Organization links are removed and children become roots
// @Tags         activities
// @Produce      json
// @Param        id path int true "Activity ID"
// @Success      200 {object} APIResponse[directory.OKResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     APIKeyAuth
// @Router       /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, directory.OKResponse{OK: true})
}
