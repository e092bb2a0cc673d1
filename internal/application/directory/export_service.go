package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/orgdir/backend/internal/domain/directory"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// ErrStorageDisabled is returned when no object storage is configured
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Object storage is not configured")

const (
	exportPageSize   = 500
	exportURLExpires = 15 * time.Minute
	snapshotTimeFmt  = "20060102T150405Z"
)

// ObjectStorage stores snapshot files and hands out download links
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	Bucket() string
}

// Snapshot is the exported form of the whole directory
type Snapshot struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	Buildings     []BuildingResponse     `json:"buildings"`
	Activities    []ActivityResponse     `json:"activities"`
	Organizations []OrganizationResponse `json:"organizations"`
}

// ExportResponse describes an uploaded snapshot
type ExportResponse struct {
	Key         string    `json:"key"`
	Bucket      string    `json:"bucket"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExportService writes JSON snapshots of the directory to object storage
type ExportService struct {
	buildingRepo directory.BuildingRepository
	activityRepo directory.ActivityRepository
	orgRepo      directory.OrganizationRepository
	storage      ObjectStorage
	prefix       string
	metrics      *telemetry.DirectoryMetrics
	now          func() time.Time
}

// NewExportService creates a new ExportService. A nil storage makes every
// export fail with ErrStorageDisabled.
func NewExportService(
	buildingRepo directory.BuildingRepository,
	activityRepo directory.ActivityRepository,
	orgRepo directory.OrganizationRepository,
	storage ObjectStorage,
	prefix string,
) *ExportService {
	return &ExportService{
		buildingRepo: buildingRepo,
		activityRepo: activityRepo,
		orgRepo:      orgRepo,
		storage:      storage,
		prefix:       strings.Trim(prefix, "/"),
		now:          time.Now,
	}
}

// SetMetrics sets the directory metrics recorder
func (s *ExportService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// Snapshot uploads the current directory and returns a download link
func (s *ExportService) Snapshot(ctx context.Context) (resp *ExportResponse, err error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "ExportService", "Snapshot")
	defer telemetry.EndSpan(span, &err)

	var size int64
	defer func() { s.metrics.RecordExport(ctx, size, err) }()

	snapshot, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.objectKey(snapshot.GeneratedAt)
	telemetry.SetAttributes(span, telemetry.SpanAttrObjectKey, key)
	if err := s.storage.Upload(ctx, key, data, "application/json"); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	size = int64(len(data))

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, exportURLExpires)
	if err != nil {
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}

	return &ExportResponse{
		Key:         key,
		Bucket:      s.storage.Bucket(),
		Size:        size,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *ExportService) objectKey(at time.Time) string {
	name := "directory-" + at.UTC().Format(snapshotTimeFmt) + ".json"
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *ExportService) collect(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		GeneratedAt:   s.now().UTC(),
		Buildings:     []BuildingResponse{},
		Organizations: []OrganizationResponse{},
	}

	for offset := 0; ; offset += exportPageSize {
		buildings, err := s.buildingRepo.FindAll(ctx, shared.NewPage(offset, exportPageSize))
		if err != nil {
			return nil, err
		}
		snapshot.Buildings = append(snapshot.Buildings, ToBuildingResponses(buildings)...)
		if len(buildings) < exportPageSize {
			break
		}
	}

	activities, err := s.activityRepo.FindAllUnpaged(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Activities = ToActivityResponses(activities)

	for offset := 0; ; offset += exportPageSize {
		orgs, err := s.orgRepo.FindAll(ctx, directory.OrganizationFilter{}, shared.NewPage(offset, exportPageSize))
		if err != nil {
			return nil, err
		}
		snapshot.Organizations = append(snapshot.Organizations, ToOrganizationResponses(orgs)...)
		if len(orgs) < exportPageSize {
			break
		}
	}
	return snapshot, nil
}
