package directory

import (
	"bytes"
	"encoding/json"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
)

// CreateBuildingRequest represents a request to register a building
type CreateBuildingRequest struct {
	Address   string   `json:"address" binding:"required,min=1,max=500"`
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// UpdateBuildingRequest represents a partial building update
type UpdateBuildingRequest struct {
	Address   *string  `json:"address" binding:"omitempty,min=1,max=500"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// BuildingResponse represents a building in API responses
type BuildingResponse struct {
	ID        int64   `json:"id"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateActivityRequest represents a request to add an activity to the catalogue
type CreateActivityRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	ParentID *int64 `json:"parent_id" binding:"omitempty,gt=0"`
	Level    int    `json:"level" binding:"omitempty,min=1"`
}

// UpdateActivityRequest represents a partial activity update. An explicit
// "parent_id": null detaches the activity from its parent.
type UpdateActivityRequest struct {
	Name     *string    `json:"name" binding:"omitempty,min=1,max=200"`
	ParentID OptionalID `json:"parent_id"`
	Level    *int       `json:"level" binding:"omitempty,min=1"`
}

// OptionalID distinguishes an absent JSON field from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ActivityResponse represents a flat activity in API responses
type ActivityResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Level    int    `json:"level"`
}

// ActivityNodeResponse represents an activity with its nested children
type ActivityNodeResponse struct {
	ID       int64                  `json:"id"`
	Name     string                 `json:"name"`
	ParentID *int64                 `json:"parent_id"`
	Level    int                    `json:"level"`
	Children []ActivityNodeResponse `json:"children"`
}

// PhoneResponse represents a phone number in API responses
type PhoneResponse struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

// CreateOrganizationRequest represents a request to register an organization
type CreateOrganizationRequest struct {
	Name         string   `json:"name" binding:"required,min=1,max=255"`
	BuildingID   int64    `json:"building_id" binding:"required,gt=0"`
	PhoneNumbers []string `json:"phone_numbers" binding:"omitempty,dive,required,max=50"`
	ActivityIDs  []int64  `json:"activity_ids" binding:"omitempty,dive,gt=0"`
}

// UpdateOrganizationRequest represents a partial organization update. A
// provided list replaces the whole association.
type UpdateOrganizationRequest struct {
	Name         *string   `json:"name" binding:"omitempty,min=1,max=255"`
	BuildingID   *int64    `json:"building_id" binding:"omitempty,gt=0"`
	PhoneNumbers *[]string `json:"phone_numbers" binding:"omitempty,dive,required,max=50"`
	ActivityIDs  *[]int64  `json:"activity_ids" binding:"omitempty,dive,gt=0"`
}

// OrganizationResponse represents an organization with its building, phones and activities
type OrganizationResponse struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Building   BuildingResponse   `json:"building"`
	Phones     []PhoneResponse    `json:"phones"`
	Activities []ActivityResponse `json:"activities"`
}

// OKResponse is returned by delete operations
type OKResponse struct {
	OK bool `json:"ok"`
}

// ToBuildingResponse converts a domain Building to BuildingResponse
func ToBuildingResponse(b *directory.Building) BuildingResponse {
	return BuildingResponse{
		ID:        b.ID,
		Address:   b.Address,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
	}
}

// ToBuildingResponses converts a slice of buildings
func ToBuildingResponses(buildings []directory.Building) []BuildingResponse {
	out := make([]BuildingResponse, len(buildings))
	for i := range buildings {
		out[i] = ToBuildingResponse(&buildings[i])
	}
	return out
}

// ToActivityResponse converts a domain Activity to ActivityResponse
func ToActivityResponse(a *directory.Activity) ActivityResponse {
	return ActivityResponse{
		ID:       a.ID,
		Name:     a.Name,
		ParentID: a.ParentID,
		Level:    a.Level,
	}
}

// ToActivityResponses converts a slice of activities
func ToActivityResponses(activities []directory.Activity) []ActivityResponse {
	out := make([]ActivityResponse, len(activities))
	for i := range activities {
		out[i] = ToActivityResponse(&activities[i])
	}
	return out
}

// ToActivityNodeResponse converts an activity and its loaded children recursively
func ToActivityNodeResponse(a *directory.Activity) ActivityNodeResponse {
	children := make([]ActivityNodeResponse, 0, len(a.Children))
	for _, c := range a.Children {
		children = append(children, ToActivityNodeResponse(c))
	}
	return ActivityNodeResponse{
		ID:       a.ID,
		Name:     a.Name,
		ParentID: a.ParentID,
		Level:    a.Level,
		Children: children,
	}
}

// ToOrganizationResponse converts a domain Organization to OrganizationResponse
func ToOrganizationResponse(o *directory.Organization) OrganizationResponse {
	resp := OrganizationResponse{
		ID:         o.ID,
		Name:       o.Name,
		Building:   BuildingResponse{ID: o.BuildingID},
		Phones:     make([]PhoneResponse, len(o.Phones)),
		Activities: ToActivityResponses(o.Activities),
	}
	if o.Building != nil {
		resp.Building = ToBuildingResponse(o.Building)
	}
	for i, p := range o.Phones {
		resp.Phones[i] = PhoneResponse{ID: p.ID, Number: p.Number}
	}
	return resp
}

// ToOrganizationResponses converts a slice of organizations
func ToOrganizationResponses(orgs []directory.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		out[i] = ToOrganizationResponse(&orgs[i])
	}
	return out
}

// PageQuery carries offset/limit query parameters
type PageQuery struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// Page converts the query into a normalized domain page
func (q PageQuery) Page() shared.Page {
	return shared.NewPage(q.Offset, q.Limit)
}

// LocationQueryRequest carries the parameters of a location search. A radius
// takes precedence over the bounding box.
type LocationQueryRequest struct {
	PageQuery
	Lat    *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lon    *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Radius *float64 `form:"radius" binding:"omitempty,min=0"`
	MinLat *float64 `form:"min_lat"`
	MaxLat *float64 `form:"max_lat"`
	MinLon *float64 `form:"min_lon"`
	MaxLon *float64 `form:"max_lon"`
}

// SearchRequest carries the parameters of a name search
type SearchRequest struct {
	PageQuery
	Name string `form:"name"`
}

// OrganizationList is a page of organizations with the total match count
type OrganizationList struct {
	Items []OrganizationResponse
	Total int64
}
