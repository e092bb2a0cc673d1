package directory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
)

type seedBuilding struct {
	key       string
	address   string
	latitude  float64
	longitude float64
}

type seedActivity struct {
	key    string
	name   string
	parent string
	level  int
}

type seedOrganization struct {
	name       string
	building   string
	phones     []string
	activities []string
}

var (
	seedBuildings = []seedBuilding{
		{"b1", "г. Москва, ул. Ленина 1, офис 3", 55.7558, 37.6176},
		{"b2", "г. Новосибирск, ул. Блюхера 32/1", 55.0415, 82.9346},
	}

	// Parents come before their children.
	seedActivities = []seedActivity{
		{"a1", "Еда", "", 1},
		{"a2", "Мясная продукция", "a1", 2},
		{"a3", "Молочная продукция", "a1", 2},
		{"a4", "Автомобили", "", 1},
		{"a5", "Грузовые", "a4", 2},
		{"a6", "Легковые", "a4", 2},
		{"a7", "Запчасти", "a6", 3},
		{"a8", "Аксессуары", "a6", 3},
	}

	seedOrganizations = []seedOrganization{
		{"ООО Рога и Копыта", "b2", []string{"2-222-222", "3-333-333", "8-923-666-13-13"}, []string{"a2", "a1"}},
		{"ООО Молоко", "b1", []string{"3-333-333"}, []string{"a3"}},
	}
)

// Seeder fills an empty directory with demo data. Running it again only
// creates what is missing.
type Seeder struct {
	buildingRepo directory.BuildingRepository
	activityRepo directory.ActivityRepository
	phoneRepo    directory.PhoneRepository
	orgRepo      directory.OrganizationRepository
	logger       *zap.Logger
}

// NewSeeder creates a new Seeder
func NewSeeder(
	buildingRepo directory.BuildingRepository,
	activityRepo directory.ActivityRepository,
	phoneRepo directory.PhoneRepository,
	orgRepo directory.OrganizationRepository,
	logger *zap.Logger,
) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		buildingRepo: buildingRepo,
		activityRepo: activityRepo,
		phoneRepo:    phoneRepo,
		orgRepo:      orgRepo,
		logger:       logger,
	}
}

// Seed creates the demo buildings, activities, phones and organizations
func (s *Seeder) Seed(ctx context.Context) error {
	buildings := make(map[string]*directory.Building, len(seedBuildings))
	for _, sb := range seedBuildings {
		b, err := s.building(ctx, sb)
		if err != nil {
			return fmt.Errorf("seed building %q: %w", sb.address, err)
		}
		buildings[sb.key] = b
	}

	activities := make(map[string]*directory.Activity, len(seedActivities))
	for _, sa := range seedActivities {
		var parentID *int64
		if sa.parent != "" {
			id := activities[sa.parent].ID
			parentID = &id
		}
		a, err := s.activity(ctx, sa, parentID)
		if err != nil {
			return fmt.Errorf("seed activity %q: %w", sa.name, err)
		}
		activities[sa.key] = a
	}

	created := 0
	for _, so := range seedOrganizations {
		building := buildings[so.building]
		_, err := s.orgRepo.FindByNameAndBuilding(ctx, so.name, building.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("seed organization %q: %w", so.name, err)
		}

		org, err := directory.NewOrganization(so.name, building.ID)
		if err != nil {
			return err
		}
		org.MoveTo(building)

		phones := make([]directory.Phone, 0, len(so.phones))
		for _, number := range so.phones {
			p, err := s.phoneRepo.GetOrCreate(ctx, number)
			if err != nil {
				return fmt.Errorf("seed phone %q: %w", number, err)
			}
			phones = append(phones, *p)
		}
		org.SetPhones(phones)

		linked := make([]directory.Activity, 0, len(so.activities))
		for _, key := range so.activities {
			linked = append(linked, *activities[key])
		}
		org.SetActivities(linked)

		if err := s.orgRepo.Save(ctx, org); err != nil {
			return fmt.Errorf("seed organization %q: %w", so.name, err)
		}
		created++
	}

	s.logger.Info("Seed data ensured", zap.Int("organizations_created", created))
	return nil
}

func (s *Seeder) building(ctx context.Context, sb seedBuilding) (*directory.Building, error) {
	existing, err := s.buildingRepo.FindByAddress(ctx, sb.address)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	b, err := directory.NewBuilding(sb.address, sb.latitude, sb.longitude)
	if err != nil {
		return nil, err
	}
	if err := s.buildingRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Seeder) activity(ctx context.Context, sa seedActivity, parentID *int64) (*directory.Activity, error) {
	existing, err := s.activityRepo.FindByNameAndParent(ctx, sa.name, parentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	a, err := directory.NewActivity(sa.name, parentID, sa.level)
	if err != nil {
		return nil, err
	}
	if err := s.activityRepo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
