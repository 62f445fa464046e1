package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/recoverytrack/apiserver/internal/export"
	"github.com/recoverytrack/apiserver/internal/storage"
	"github.com/recoverytrack/apiserver/internal/store"
)

const (
	exportMoodLogLimit = 1000
	exportURLTTL       = 15 * time.Minute
)

// ErrExportsDisabled is returned by stored-export operations when no object
// storage is configured.
var ErrExportsDisabled = errors.New("object storage is not configured")

// ObjectStore is the subset of *storage.Storage used for exports.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
}

// ExportResult describes an uploaded workbook.
type ExportResult struct {
	ExportID  string `json:"export_id"`
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
	URL       string `json:"url,omitempty"`
}

// ExportService renders a user's journal as a workbook.
type ExportService struct {
	store   store.Storage
	objects ObjectStore
	now     func() time.Time
}

// NewExportService builds the service; objects may be nil.
func NewExportService(s store.Storage, objects ObjectStore) *ExportService {
	return &ExportService{store: s, objects: objects, now: time.Now}
}

// Stored reports whether exports are uploaded rather than streamed.
func (s *ExportService) Stored() bool {
	return s.objects != nil
}

// Render builds the workbook for userID.
func (s *ExportService) Render(ctx context.Context, userID int64) ([]byte, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	moods, err := s.store.GetMoodLogsByUser(ctx, userID, exportMoodLogLimit)
	if err != nil {
		return nil, fmt.Errorf("load mood logs: %w", err)
	}
	meds, err := s.store.GetMedicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}
	doses, err := s.store.GetMedicationLogsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load medication logs: %w", err)
	}

	return export.BuildWorkbook(export.Report{
		User:           user,
		MoodLogs:       moods,
		Medications:    meds,
		MedicationLogs: doses,
		GeneratedAt:    s.now(),
	})
}

// Upload renders the workbook and stores it under a fresh export id.
func (s *ExportService) Upload(ctx context.Context, userID int64) (ExportResult, error) {
	if s.objects == nil {
		return ExportResult{}, ErrExportsDisabled
	}
	data, err := s.Render(ctx, userID)
	if err != nil {
		return ExportResult{}, err
	}

	exportID := uuid.NewString()
	key := ObjectKey(userID, exportID)
	if err := s.objects.Upload(ctx, key, data, export.ContentType); err != nil {
		return ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	result := ExportResult{ExportID: exportID, Bucket: s.objects.Bucket(), ObjectKey: key}
	// URL stays empty when the backend cannot sign.
	if url, err := s.objects.SignedURL(ctx, key, exportURLTTL); err == nil {
		result.URL = url
	}
	return result, nil
}

// Open streams a previously uploaded export. Unknown or malformed ids yield
// store.ErrNotFound.
func (s *ExportService) Open(ctx context.Context, userID int64, exportID string) (io.ReadCloser, error) {
	if s.objects == nil {
		return nil, ErrExportsDisabled
	}
	if _, err := uuid.Parse(exportID); err != nil {
		return nil, store.ErrNotFound
	}
	reader, err := s.objects.Get(ctx, ObjectKey(userID, exportID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return reader, nil
}

// ObjectKey is where an export is stored.
func ObjectKey(userID int64, exportID string) string {
	return fmt.Sprintf("exports/user-%d/%s.xlsx", userID, exportID)
}
