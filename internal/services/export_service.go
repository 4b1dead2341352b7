package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/productcompass/compass/internal/access"
	"github.com/productcompass/compass/internal/importer"
	"github.com/productcompass/compass/internal/models"
	apperrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/logger"
)

// ImportSummary reports what a bulk upload produced.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ExportOption customises ExportService behaviour.
type ExportOption func(*ExportService)

// WithExportClock injects a custom clock primarily for testing.
func WithExportClock(clock func() time.Time) ExportOption {
	return func(s *ExportService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ExportService produces roadmap exports and ingests bulk uploads.
type ExportService struct {
	db       *gorm.DB
	checker  *access.Checker
	features *FeatureService
	activity *ActivityService
	now      func() time.Time
}

// NewExportService constructs an ExportService with the provided dependencies.
func NewExportService(db *gorm.DB, checker *access.Checker, features *FeatureService, activity *ActivityService, opts ...ExportOption) (*ExportService, error) {
	if db == nil {
		return nil, errors.New("export service: db is required")
	}
	if checker == nil {
		return nil, errors.New("export service: access checker is required")
	}
	if features == nil {
		return nil, errors.New("export service: feature service is required")
	}

	svc := &ExportService{
		db:       db,
		checker:  checker,
		features: features,
		activity: activity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// ExportCSV writes the roadmap's features as CSV, ordered by date. Requires
// view access.
func (s *ExportService) ExportCSV(ctx context.Context, userID, roadmapID string) ([]byte, error) {
	ctx = ensureContext(ctx)

	features, err := s.loadForExport(ctx, userID, roadmapID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(importer.Header); err != nil {
		return nil, fmt.Errorf("export service: write header: %w", err)
	}
	for _, f := range features {
		record := []string{
			f.Title,
			f.Description,
			f.Priority,
			f.Status,
			f.Release,
			f.Date.Format(models.DateLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("export service: write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("export service: flush: %w", err)
	}

	s.recordExport(ctx, userID, roadmapID, models.ExportCSV, len(features))
	return buf.Bytes(), nil
}

// ExportJSON writes the roadmap and its features as a JSON document. Requires
// view access.
func (s *ExportService) ExportJSON(ctx context.Context, userID, roadmapID string) ([]byte, error) {
	ctx = ensureContext(ctx)

	features, err := s.loadForExport(ctx, userID, roadmapID)
	if err != nil {
		return nil, err
	}

	var roadmap models.Roadmap
	if err := s.db.WithContext(ctx).First(&roadmap, "id = ?", roadmapID).Error; err != nil {
		return nil, fmt.Errorf("export service: load roadmap: %w", err)
	}

	payload := map[string]any{
		"roadmap":     roadmap,
		"features":    features,
		"exported_at": s.now().UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export service: marshal: %w", err)
	}

	s.recordExport(ctx, userID, roadmapID, models.ExportJSON, len(features))
	return raw, nil
}

// Import ingests a bulk upload in the given format and inserts the surviving
// rows as features. Requires edit access, which BulkInsert enforces.
func (s *ExportService) Import(ctx context.Context, userID, roadmapID, format string, r io.Reader) (*ImportSummary, error) {
	ctx = ensureContext(ctx)

	var (
		result *importer.Result
		err    error
	)
	switch format {
	case models.ExportCSV:
		result, err = importer.ParseCSV(r, s.now())
	case models.ExportJSON:
		result, err = importer.ParseJSON(r, s.now())
	default:
		return nil, apperrors.NewBadRequest("format must be csv or json")
	}
	if err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	features := make([]models.Feature, 0, len(result.Rows))
	for _, row := range result.Rows {
		features = append(features, models.Feature{
			Title:       row.Title,
			Description: row.Description,
			Priority:    row.Priority,
			Status:      row.Status,
			Release:     row.Release,
			Date:        row.Date,
		})
	}

	imported, err := s.features.BulkInsert(ctx, userID, roadmapID, features)
	if err != nil {
		return nil, err
	}

	return &ImportSummary{Imported: imported, Skipped: result.Skipped}, nil
}

// History returns the user's export records, newest first.
func (s *ExportService) History(ctx context.Context, userID string, limit int) ([]models.ExportHistory, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var history []models.ExportHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("export service: history: %w", err)
	}
	return history, nil
}

func (s *ExportService) loadForExport(ctx context.Context, userID, roadmapID string) ([]models.Feature, error) {
	if err := s.checker.Require(ctx, userID, roadmapID, access.PermView, apperrors.ErrForbidden); err != nil {
		return nil, err
	}

	var features []models.Feature
	err := s.db.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("date").
		Find(&features).Error
	if err != nil {
		return nil, fmt.Errorf("export service: load features: %w", err)
	}
	return features, nil
}

// recordExport is best effort; a failed history row never fails the export.
func (s *ExportService) recordExport(ctx context.Context, userID, roadmapID, format string, rows int) {
	record := models.ExportHistory{
		UserID:    userID,
		RoadmapID: roadmapID,
		Format:    format,
		RowCount:  rows,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.WithModule("exports").Warn("export history record failed")
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   userID,
		Action:   "roadmap.export",
		Resource: roadmapID,
		Metadata: map[string]any{"format": format, "rows": rows},
	})
}
