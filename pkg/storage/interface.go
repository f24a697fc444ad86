package storage

import (
	"context"
	"io"
)

// Storage définit l'interface pour le stockage des rapports
type Storage interface {
	// Upload écrit un fichier ; réécrire une clé existante réussit
	Upload(ctx context.Context, path string, data io.Reader) error

	// Download lit un fichier, ErrNotFound s'il n'existe pas
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists vérifie si un fichier existe
	Exists(ctx context.Context, path string) (bool, error)

	// Delete supprime un fichier
	Delete(ctx context.Context, path string) error

	// List liste les fichiers avec un préfixe donné, sans ordre garanti
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL retourne l'URL d'accès à un fichier
	GetURL(ctx context.Context, path string) (string, error)

	// EnsureDir matérialise un dossier. Peut échouer avec ErrAlreadyExists,
	// ErrNotFound ou ErrUnauthorized, que l'appelant traite comme non fatals.
	EnsureDir(ctx context.Context, dir string) error

	// Close libère les ressources du backend
	Close() error
}

// Type de backend
const (
	TypeFilesystem = "filesystem"
	TypeGarage     = "garage"
	TypeMinIO      = "minio"
	TypeMemory     = "memory"
)

// StorageConfig contient la configuration du storage
type StorageConfig struct {
	Type      string `env:"STORAGE_TYPE" env-default:"filesystem"` // "filesystem", "garage", "minio" ou "memory"
	BasePath  string `env:"STORAGE_PATH" env-default:"./storage"`  // Pour filesystem
	Endpoint  string `env:"STORAGE_ENDPOINT"`                      // Pour S3/Garage/MinIO
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`
	Bucket    string `env:"STORAGE_BUCKET" env-default:"chantier-rapports"`
	Region    string `env:"STORAGE_REGION" env-default:"us-east-1"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" env-default:"false"`
}
