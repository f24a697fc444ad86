package rapports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chantier-rapports/internal/storage"
	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"
)

type rapportServiceImpl struct {
	repo    RapportRepository
	storage *storage.StorageService
	tracer  trace.Tracer
	now     func() time.Time
}

func NewRapportService(repo RapportRepository, storageService *storage.StorageService) RapportService {
	return &rapportServiceImpl{
		repo:    repo,
		storage: storageService,
		tracer:  otel.Tracer("chantier-rapports/rapports"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *rapportServiceImpl) CreateRapport(ctx context.Context, req *models.CreateRapportRequest) (*models.Rapport, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.CreateRapport")
	defer span.End()

	date, err := rapport.ParseDate(req.Date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	key := rapport.Key{
		Chantier: strings.TrimSpace(req.Chantier),
		Type:     strings.ToLower(strings.TrimSpace(req.Type)),
		Date:     date,
	}
	span.SetAttributes(attribute.String("rapport.path", key.StoragePath()))

	metadata := models.JSON{}
	if req.Metadata != nil {
		metadata = models.JSON(req.Metadata)
	}

	r := &models.Rapport{
		Chantier:    key.Chantier,
		Type:        key.Type,
		Date:        rapport.FormatDate(date),
		Description: req.Description,
		Author:      req.Author,
		Status:      models.StatusDraft,
		Metadata:    metadata,
	}

	// Deux fiches actives ne doivent jamais partager le même PDF
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			log.Ctx(ctx).Info().Str("path", key.StoragePath()).
				Msg("RapportService.CreateRapport: storage path already used")
			return nil, err
		}
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Msg("RapportService.CreateRapport: failed to create rapport")
		return nil, fmt.Errorf("failed to create rapport: %w", err)
	}

	log.Ctx(ctx).Info().Str("id", r.ID.String()).Str("title", key.DisplayTitle()).
		Msg("RapportService.CreateRapport: rapport created")
	return r, nil
}

func (s *rapportServiceImpl) GetRapport(ctx context.Context, id uuid.UUID) (*models.Rapport, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.GetRapport")
	defer span.End()

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get rapport %s: %w", id, err)
	}
	return r, nil
}

func (s *rapportServiceImpl) ListRapports(ctx context.Context, filters RapportFilters) ([]*models.Rapport, int64, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.ListRapports")
	defer span.End()

	if filters.Limit <= 0 {
		filters.Limit = 100
	}

	rapports, total, err := s.repo.List(ctx, filters)
	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Msg("RapportService.ListRapports: failed to list rapports")
		return nil, 0, fmt.Errorf("failed to list rapports: %w", err)
	}

	log.Ctx(ctx).Debug().Int("count", len(rapports)).Int64("total", total).
		Msg("RapportService.ListRapports: rapports retrieved")
	return rapports, total, nil
}

// load charge une fiche et sa clé de stockage
func (s *rapportServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Rapport, rapport.Key, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, rapport.Key{}, err
	}

	key, err := r.Key()
	if err != nil {
		return nil, rapport.Key{}, fmt.Errorf("rapport %s has an invalid date: %w", id, err)
	}
	return r, key, nil
}

func (s *rapportServiceImpl) AttachPDF(ctx context.Context, id uuid.UUID, data []byte) (*AttachResult, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.AttachPDF")
	defer span.End()

	r, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	url, folders, err := s.storage.UploadRapportPDF(ctx, key, data)
	if err != nil {
		span.RecordError(err)
		log.Ctx(ctx).Error().Err(err).Str("id", id.String()).Msg("RapportService.AttachPDF: upload failed")
		return nil, fmt.Errorf("failed to upload pdf: %w", err)
	}

	r.PDFSize = int64(len(data))
	r.Status = models.StatusFinal
	if err := s.repo.Update(ctx, r); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update rapport: %w", err)
	}

	span.SetAttributes(attribute.String("folders.status", string(folders.Status)))
	log.Ctx(ctx).Info().Str("id", id.String()).Str("path", key.StoragePath()).
		Str("folders", string(folders.Status)).Msg("RapportService.AttachPDF: pdf stored")

	return &AttachResult{Rapport: r, URL: url, Folders: folders}, nil
}

func (s *rapportServiceImpl) DownloadPDF(ctx context.Context, id uuid.UUID) (*models.Rapport, io.ReadCloser, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.DownloadPDF")
	defer span.End()

	r, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	reader, err := s.storage.DownloadRapportPDF(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, nil, translateError(err)
	}
	return r, reader, nil
}

func (s *rapportServiceImpl) PDFURL(ctx context.Context, id uuid.UUID) (string, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.PDFURL")
	defer span.End()

	r, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if r.Status != models.StatusFinal {
		return "", ErrNoPDF
	}

	url, err := s.storage.RapportPDFURL(ctx, key)
	if err != nil {
		span.RecordError(err)
		return "", translateError(err)
	}
	return url, nil
}

func (s *rapportServiceImpl) AddPhotos(ctx context.Context, id uuid.UUID, photos []storage.PhotoUpload) (*models.Rapport, storage.PhotoBatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.AddPhotos")
	defer span.End()

	r, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, storage.PhotoBatchResult{}, err
	}

	result := s.storage.UploadPhotos(ctx, key, photos)
	span.SetAttributes(
		attribute.Int("photos.uploaded", len(result.Uploaded)),
		attribute.Int("photos.failed", len(result.Failed)),
	)

	if len(result.Uploaded) > 0 {
		r.PhotoCount += len(result.Uploaded)
		if err := s.repo.Update(ctx, r); err != nil {
			span.RecordError(err)
			return nil, result, fmt.Errorf("failed to update rapport: %w", err)
		}
	}

	log.Ctx(ctx).Info().Str("id", id.String()).Int("uploaded", len(result.Uploaded)).
		Int("failed", len(result.Failed)).Msg("RapportService.AddPhotos: batch processed")
	return r, result, nil
}

func (s *rapportServiceImpl) ListPhotos(ctx context.Context, id uuid.UUID) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.ListPhotos")
	defer span.End()

	_, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	photos, err := s.storage.ListPhotos(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

func (s *rapportServiceImpl) DownloadPhoto(ctx context.Context, id uuid.UUID, filename string) (io.ReadCloser, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.DownloadPhoto")
	defer span.End()

	_, key, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reader, err := s.storage.DownloadPhoto(ctx, key, filename)
	if err != nil {
		span.RecordError(err)
		return nil, translateError(err)
	}
	return reader, nil
}

// DeleteRapport supprime logiquement la fiche, les fichiers partent à la purge
func (s *rapportServiceImpl) DeleteRapport(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "RapportService.DeleteRapport")
	defer span.End()

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete rapport %s: %w", id, err)
	}

	log.Ctx(ctx).Info().Str("id", id.String()).Msg("RapportService.DeleteRapport: rapport deleted")
	return nil
}

// PurgeDeleted efface les fichiers puis les fiches supprimées depuis plus de maxAge.
// Une fiche dont les fichiers n'ont pas pu être effacés est gardée pour la purge suivante.
func (s *rapportServiceImpl) PurgeDeleted(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "RapportService.PurgeDeleted")
	defer span.End()

	deleted, err := s.repo.ListDeleted(ctx, s.now().Add(-maxAge))
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to list deleted rapports: %w", err)
	}

	var ids []uuid.UUID
	var errs []error
	for _, r := range deleted {
		if err := s.purgeFiles(ctx, r); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("id", r.ID.String()).
				Msg("RapportService.PurgeDeleted: files kept, will retry")
			errs = append(errs, err)
			continue
		}
		ids = append(ids, r.ID)
	}

	purged, err := s.repo.HardDelete(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to purge rapports: %w", err)
	}

	span.SetAttributes(attribute.Int64("rapports.purged", purged))
	return purged, errors.Join(errs...)
}

func (s *rapportServiceImpl) purgeFiles(ctx context.Context, r *models.Rapport) error {
	key, err := r.Key()
	if err != nil {
		// Sans date valide aucun chemin n'a pu être écrit
		return nil
	}

	// Les fichiers appartiennent à une fiche active recréée avec la même clé
	live, err := s.repo.FindByDate(ctx, r.Date)
	if err != nil {
		return err
	}
	for _, other := range live {
		if otherKey, err := other.Key(); err == nil && otherKey.StoragePath() == key.StoragePath() {
			return nil
		}
	}

	return s.storage.DeleteRapportFiles(ctx, key)
}
