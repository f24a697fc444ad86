package rapports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/provisioner"
	"chantier-rapports/pkg/models"
)

// RapportService gère les fiches de rapport et les fichiers rangés sous leurs chemins dérivés
type RapportService interface {
	CreateRapport(ctx context.Context, req *models.CreateRapportRequest) (*models.Rapport, error)
	GetRapport(ctx context.Context, id uuid.UUID) (*models.Rapport, error)
	ListRapports(ctx context.Context, filters RapportFilters) ([]*models.Rapport, int64, error)

	AttachPDF(ctx context.Context, id uuid.UUID, data []byte) (*AttachResult, error)
	DownloadPDF(ctx context.Context, id uuid.UUID) (*models.Rapport, io.ReadCloser, error)
	PDFURL(ctx context.Context, id uuid.UUID) (string, error)

	AddPhotos(ctx context.Context, id uuid.UUID, photos []storage.PhotoUpload) (*models.Rapport, storage.PhotoBatchResult, error)
	ListPhotos(ctx context.Context, id uuid.UUID) ([]string, error)
	DownloadPhoto(ctx context.Context, id uuid.UUID, filename string) (io.ReadCloser, error)

	DeleteRapport(ctx context.Context, id uuid.UUID) error
	PurgeDeleted(ctx context.Context, maxAge time.Duration) (int64, error)
}

// AttachResult est le résultat du dépôt d'un PDF
type AttachResult struct {
	Rapport *models.Rapport
	URL     string
	Folders provisioner.Outcome
}
