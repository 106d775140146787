package links

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SnapshotStorage persists collection snapshots to object storage.
type SnapshotStorage interface {
	// PutSnapshot stores data under the given name and returns its location.
	PutSnapshot(ctx context.Context, name string, data []byte) (string, error)
}

// BackupService exports the full link collection as a JSON snapshot.
type BackupService struct {
	repo    links.LinkRepository
	storage SnapshotStorage
	logger  *zap.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(repo links.LinkRepository, storage SnapshotStorage, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		repo:    repo,
		storage: storage,
		logger:  logger,
	}
}

// ExportResult describes a completed snapshot export.
type ExportResult struct {
	Location string    `json:"location"`
	Count    int       `json:"count"`
	TakenAt  time.Time `json:"taken_at"`
}

type snapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Count   int           `json:"count"`
	Links   []*links.Link `json:"links"`
}

// Export writes a timestamped JSON snapshot of all links to storage.
func (s *BackupService) Export(ctx context.Context) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "backup", "export")
	defer span.End()

	// Wrap in profiling labels for performance analysis
	var result *ExportResult
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("backup.export", nil), func(c context.Context) {
		all, err := s.repo.FindAll(c)
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = err
			return
		}

		takenAt := time.Now().UTC()
		data, err := json.MarshalIndent(snapshot{
			TakenAt: takenAt,
			Count:   len(all),
			Links:   all,
		}, "", "  ")
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = fmt.Errorf("failed to marshal snapshot: %w", err)
			return
		}

		name := fmt.Sprintf("linkdeck-%s.json", takenAt.Format("20060102-150405"))
		location, err := s.storage.PutSnapshot(c, name, data)
		if err != nil {
			telemetry.RecordError(span, err)
			operationErr = fmt.Errorf("failed to store snapshot: %w", err)
			return
		}

		telemetry.SetAttributes(span,
			telemetry.SpanAttrSnapshot, location,
			telemetry.SpanAttrLinkCount, len(all),
		)

		s.logger.Info("exported link snapshot",
			zap.String("location", location),
			zap.Int("links", len(all)))

		result = &ExportResult{
			Location: location,
			Count:    len(all),
			TakenAt:  takenAt,
		}
	})

	return result, operationErr
}
