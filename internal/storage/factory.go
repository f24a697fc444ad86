package storage

import (
	"context"
	"fmt"

	"chantier-rapports/internal/storage/filesystem"
	"chantier-rapports/internal/storage/garage"
	"chantier-rapports/internal/storage/memory"
	"chantier-rapports/internal/storage/minio"
	"chantier-rapports/pkg/storage"
)

// NewStorage crée une nouvelle instance de storage basée sur la configuration.
// L'appelant possède l'instance et doit appeler Close.
func NewStorage(ctx context.Context, config *storage.StorageConfig) (storage.Storage, error) {
	switch config.Type {
	case storage.TypeFilesystem:
		return filesystem.NewFilesystemStorage(config.BasePath)
	case storage.TypeGarage:
		return garage.NewGarageStorage(ctx, config)
	case storage.TypeMinIO:
		return minio.NewMinIOStorage(ctx, config)
	case storage.TypeMemory:
		return memory.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
