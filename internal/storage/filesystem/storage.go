package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"chantier-rapports/pkg/storage"
)

type filesystemStorage struct {
	basePath string
}

// NewFilesystemStorage crée une nouvelle instance de storage filesystem
func NewFilesystemStorage(basePath string) (storage.Storage, error) {
	// Créer le répertoire de base s'il n'existe pas
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
	}

	return &filesystemStorage{
		basePath: basePath,
	}, nil
}

// resolve construit le chemin absolu et refuse toute sortie du basePath
func (s *filesystemStorage) resolve(path string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(path, "/")))

	rel, err := filepath.Rel(s.basePath, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root: %s", path)
	}

	return fullPath, nil
}

func (s *filesystemStorage) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	// Créer les répertoires parents si nécessaire
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", fullPath, translate(err))
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, translate(err))
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to %s: %w", fullPath, err)
	}

	return nil
}

func (s *filesystemStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, translate(err))
	}

	return file, nil
}

func (s *filesystemStorage) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence %s: %w", fullPath, translate(err))
	}

	return true, nil
}

func (s *filesystemStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Déjà supprimé
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, translate(err))
	}

	return nil
}

func (s *filesystemStorage) List(ctx context.Context, prefix string) ([]string, error) {
	cleanPrefix := strings.TrimPrefix(prefix, "/")

	var files []string

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// Retourner le chemin relatif au basePath, séparé par des "/"
		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if strings.HasPrefix(relPath, cleanPrefix) {
			files = append(files, relPath)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files with prefix %s: %w", prefix, err)
	}

	return files, nil
}

func (s *filesystemStorage) GetURL(ctx context.Context, path string) (string, error) {
	// Pour filesystem, on retourne juste le chemin relatif
	return strings.TrimPrefix(path, "/"), nil
}

// EnsureDir crée le dossier et ses parents, sans erreur s'il existe déjà
func (s *filesystemStorage) EnsureDir(ctx context.Context, dir string) error {
	fullPath, err := s.resolve(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, translate(err))
	}

	return nil
}

func (s *filesystemStorage) Close() error {
	return nil
}

// translate ramène les erreurs du système de fichiers aux erreurs du package storage
func translate(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
	default:
		return err
	}
}
