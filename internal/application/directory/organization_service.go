package directory

import (
	"context"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

const organizationServiceName = "OrganizationService"

// Search kinds reported to metrics
const (
	searchByBuilding     = "building"
	searchByActivity     = "activity"
	searchByActivityTree = "activity_tree"
	searchByLocation     = "location"
	searchByName         = "name"
)

// OrganizationService handles organization-related business operations
type OrganizationService struct {
	orgRepo      directory.OrganizationRepository
	buildingRepo directory.BuildingRepository
	activityRepo directory.ActivityRepository
	phoneRepo    directory.PhoneRepository
	metrics      *telemetry.DirectoryMetrics
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(
	orgRepo directory.OrganizationRepository,
	buildingRepo directory.BuildingRepository,
	activityRepo directory.ActivityRepository,
	phoneRepo directory.PhoneRepository,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		buildingRepo: buildingRepo,
		activityRepo: activityRepo,
		phoneRepo:    phoneRepo,
	}
}

// SetMetrics sets the directory metrics recorder
func (s *OrganizationService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// Create registers an organization at an existing building. Unknown activity
// IDs are skipped.
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (resp *OrganizationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, organizationServiceName, "Create",
		telemetry.WithAttribute(telemetry.SpanAttrBuildingID, req.BuildingID))
	defer telemetry.EndSpan(span, &err)

	building, err := s.buildingRepo.FindByID(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	org, err := directory.NewOrganization(req.Name, building.ID)
	if err != nil {
		return nil, err
	}
	org.MoveTo(building)

	phones, err := s.resolvePhones(ctx, req.PhoneNumbers)
	if err != nil {
		return nil, err
	}
	org.SetPhones(phones)

	activities, err := s.resolveActivities(ctx, req.ActivityIDs)
	if err != nil {
		return nil, err
	}
	org.SetActivities(activities)

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrOrganizationID, org.ID)
	s.metrics.RecordWrite(ctx, telemetry.EntityOrganization, telemetry.ActionCreate)

	out := ToOrganizationResponse(org)
	return &out, nil
}

// Get retrieves an organization by ID
func (s *OrganizationService) Get(ctx context.Context, id int64) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToOrganizationResponse(org)
	return &out, nil
}

// Update applies a partial update. Provided phone or activity lists replace
// the current sets.
func (s *OrganizationService) Update(ctx context.Context, id int64, req UpdateOrganizationRequest) (resp *OrganizationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, organizationServiceName, "Update",
		telemetry.WithAttribute(telemetry.SpanAttrOrganizationID, id))
	defer telemetry.EndSpan(span, &err)

	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := org.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.BuildingID != nil && *req.BuildingID != org.BuildingID {
		building, err := s.buildingRepo.FindByID(ctx, *req.BuildingID)
		if err != nil {
			return nil, err
		}
		org.MoveTo(building)
	}
	if req.PhoneNumbers != nil {
		phones, err := s.resolvePhones(ctx, *req.PhoneNumbers)
		if err != nil {
			return nil, err
		}
		org.SetPhones(phones)
	}
	if req.ActivityIDs != nil {
		activities, err := s.resolveActivities(ctx, *req.ActivityIDs)
		if err != nil {
			return nil, err
		}
		org.SetActivities(activities)
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityOrganization, telemetry.ActionUpdate)

	out := ToOrganizationResponse(org)
	return &out, nil
}

// Delete removes an organization
func (s *OrganizationService) Delete(ctx context.Context, id int64) error {
	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityOrganization, telemetry.ActionDelete)
	return nil
}

// ListByBuilding lists organizations registered at a building
func (s *OrganizationService) ListByBuilding(ctx context.Context, buildingID int64, page shared.Page) (*OrganizationList, error) {
	return s.list(ctx, searchByBuilding, directory.OrganizationFilter{BuildingID: &buildingID}, page)
}

// ListByActivity lists organizations linked to an activity. With tree set the
// activity's descendants down to three levels match as well.
func (s *OrganizationService) ListByActivity(ctx context.Context, activityID int64, tree bool, page shared.Page) (*OrganizationList, error) {
	if !tree {
		return s.list(ctx, searchByActivity, directory.OrganizationFilter{ActivityIDs: []int64{activityID}}, page)
	}
	ids, err := s.activityRepo.FindDescendantIDs(ctx, activityID, directory.MaxActivityDepth)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return s.list(ctx, searchByActivityTree, directory.OrganizationFilter{ActivityIDs: ids}, page)
}

// ListByActivityTree is ListByActivity with descendants included
func (s *OrganizationService) ListByActivityTree(ctx context.Context, activityID int64, page shared.Page) (*OrganizationList, error) {
	return s.ListByActivity(ctx, activityID, true, page)
}

// ListByLocation lists organizations whose building lies within a radius of,
// or inside a bounding box around, the given point
func (s *OrganizationService) ListByLocation(ctx context.Context, query directory.LocationQuery, page shared.Page) (*OrganizationList, error) {
	if _, err := query.Mode(); err != nil {
		return nil, err
	}
	return s.list(ctx, searchByLocation, directory.OrganizationFilter{Location: &query}, page)
}

// Search lists organizations whose name contains the term, ignoring case.
// A blank term matches every organization.
func (s *OrganizationService) Search(ctx context.Context, name string, page shared.Page) (*OrganizationList, error) {
	return s.list(ctx, searchByName, directory.OrganizationFilter{NameContains: name}, page)
}

// CountOrganizations returns the number of registered organizations
func (s *OrganizationService) CountOrganizations(ctx context.Context) (int64, error) {
	return s.orgRepo.Count(ctx, directory.OrganizationFilter{})
}

func (s *OrganizationService) list(ctx context.Context, kind string, filter directory.OrganizationFilter, page shared.Page) (result *OrganizationList, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, organizationServiceName, "List",
		telemetry.WithAttribute("search.kind", kind))
	defer telemetry.EndSpan(span, &err)

	orgs, err := s.orgRepo.FindAll(ctx, filter, page.Normalize())
	if err != nil {
		return nil, err
	}
	total, err := s.orgRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrResultCount, len(orgs))
	s.metrics.RecordSearch(ctx, kind, len(orgs))

	return &OrganizationList{Items: ToOrganizationResponses(orgs), Total: total}, nil
}

func (s *OrganizationService) resolvePhones(ctx context.Context, numbers []string) ([]directory.Phone, error) {
	normalized, err := directory.NormalizePhoneNumbers(numbers)
	if err != nil {
		return nil, err
	}
	phones := make([]directory.Phone, 0, len(normalized))
	for _, n := range normalized {
		phone, err := s.phoneRepo.GetOrCreate(ctx, n)
		if err != nil {
			return nil, err
		}
		phones = append(phones, *phone)
	}
	return phones, nil
}

func (s *OrganizationService) resolveActivities(ctx context.Context, ids []int64) ([]directory.Activity, error) {
	if len(ids) == 0 {
		return []directory.Activity{}, nil
	}
	return s.activityRepo.FindByIDs(ctx, ids)
}
