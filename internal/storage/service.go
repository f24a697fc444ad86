package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"chantier-rapports/internal/storage/provisioner"
	"chantier-rapports/pkg/rapport"
	"chantier-rapports/pkg/storage"
)

// ErrInvalidFilename est retourné pour un nom de fichier qui sort du dossier attendu
var ErrInvalidFilename = errors.New("invalid filename")

const defaultPhotoConcurrency = 4

// PhotoUpload est une photo à déposer dans le dossier d'un rapport
type PhotoUpload struct {
	Name string
	Data []byte
}

// UploadedPhoto décrit une photo déposée
type UploadedPhoto struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url,omitempty"`
}

// FailedPhoto décrit une photo rejetée, les autres ne sont pas affectées
type FailedPhoto struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// PhotoBatchResult est le résultat d'un lot de photos
type PhotoBatchResult struct {
	Uploaded []UploadedPhoto     `json:"uploaded"`
	Failed   []FailedPhoto       `json:"failed"`
	Folders  provisioner.Outcome `json:"folders"`
}

// StorageService range les PDF et photos des rapports selon les chemins dérivés
type StorageService struct {
	storage     storage.Storage
	provisioner *provisioner.Provisioner
	uploadRetry provisioner.RetryPolicy
	concurrency int
	now         func() time.Time
}

func NewStorageService(store storage.Storage, prov *provisioner.Provisioner, uploadRetry provisioner.RetryPolicy) *StorageService {
	return &StorageService{
		storage:     store,
		provisioner: prov,
		uploadRetry: uploadRetry,
		concurrency: defaultPhotoConcurrency,
		now:         time.Now,
	}
}

// WithPhotoConcurrency borne le nombre d'uploads de photos simultanés
func (s *StorageService) WithPhotoConcurrency(n int) *StorageService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Ping vérifie que le backend répond
func (s *StorageService) Ping(ctx context.Context) error {
	_, err := s.storage.Exists(ctx, rapport.Root+"/"+rapport.MarkerName)
	return err
}

// ProvisionFolders expose le provisioning d'un dossier arbitraire
func (s *StorageService) ProvisionFolders(ctx context.Context, dir string) provisioner.Outcome {
	return s.provisioner.EnsureFolders(ctx, dir)
}

// UploadRapportPDF provisionne le dossier du rapport puis dépose le PDF.
// Le provisioning ne fait jamais échouer l'appel, l'upload si.
func (s *StorageService) UploadRapportPDF(ctx context.Context, key rapport.Key, data []byte) (string, provisioner.Outcome, error) {
	if err := key.Validate(); err != nil {
		return "", provisioner.Outcome{}, fmt.Errorf("%w: %w", ErrInvalidFilename, err)
	}

	p := key.StoragePath()
	outcome := s.provisioner.EnsureFolders(ctx, key.Dir())

	if err := s.upload(ctx, p, data); err != nil {
		return "", outcome, fmt.Errorf("failed to upload rapport %s: %w", p, err)
	}

	url, err := s.storage.GetURL(ctx, p)
	if err != nil {
		return "", outcome, fmt.Errorf("failed to get url for %s: %w", p, err)
	}

	log.Ctx(ctx).Info().
		Str("path", p).
		Int("size", len(data)).
		Str("folders", string(outcome.Status)).
		Msg("StorageService.UploadRapportPDF: uploaded")

	return url, outcome, nil
}

// upload réessaie les erreurs transitoires, pas NotFound ni Unauthorized
func (s *StorageService) upload(ctx context.Context, p string, data []byte) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.storage.Upload(ctx, p, bytes.NewReader(data))
		if err != nil && storage.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("path", p).
			Int("attempt", attempt).
			Dur("next_in", wait).
			Msg("StorageService: upload failed, retrying")
	}

	return backoff.RetryNotify(op, s.uploadRetry.NewBackOff(ctx), notify)
}

// DownloadRapportPDF ouvre le PDF d'un rapport
func (s *StorageService) DownloadRapportPDF(ctx context.Context, key rapport.Key) (io.ReadCloser, error) {
	return s.storage.Download(ctx, key.StoragePath())
}

// RapportPDFURL retourne l'URL du PDF après avoir vérifié sa présence
func (s *StorageService) RapportPDFURL(ctx context.Context, key rapport.Key) (string, error) {
	p := key.StoragePath()

	exists, err := s.storage.Exists(ctx, p)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", storage.ErrNotFound, p)
	}

	return s.storage.GetURL(ctx, p)
}

// DeleteRapportPDF supprime le PDF d'un rapport
func (s *StorageService) DeleteRapportPDF(ctx context.Context, key rapport.Key) error {
	return s.storage.Delete(ctx, key.StoragePath())
}

// UploadPhotos dépose un lot de photos en parallèle. Chaque photo réussit
// ou échoue indépendamment, le lot n'est jamais annulé par un échec.
func (s *StorageService) UploadPhotos(ctx context.Context, key rapport.Key, photos []PhotoUpload) PhotoBatchResult {
	result := PhotoBatchResult{
		Uploaded: []UploadedPhoto{},
		Failed:   []FailedPhoto{},
		Folders:  s.provisioner.EnsureFolders(ctx, key.PhotoDir()),
	}

	uploaded := make([]*UploadedPhoto, len(photos))
	failed := make([]*FailedPhoto, len(photos))

	// Pas de contexte dérivé : une erreur ne doit pas annuler les autres photos
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, photo := range photos {
		i, photo := i, photo
		g.Go(func() error {
			filename := rapport.PhotoFileName(i, s.now(), path.Ext(photo.Name))
			p := key.PhotoPath(filename)

			if err := s.upload(ctx, p, photo.Data); err != nil {
				failed[i] = &FailedPhoto{Index: i, Name: photo.Name, Error: err.Error()}
				return nil
			}

			url, err := s.storage.GetURL(ctx, p)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("StorageService.UploadPhotos: no url")
			}
			uploaded[i] = &UploadedPhoto{Index: i, Name: photo.Name, Filename: filename, Path: p, URL: url}
			return nil
		})
	}
	_ = g.Wait()

	for i := range photos {
		if uploaded[i] != nil {
			result.Uploaded = append(result.Uploaded, *uploaded[i])
		}
		if failed[i] != nil {
			result.Failed = append(result.Failed, *failed[i])
		}
	}

	log.Ctx(ctx).Info().
		Str("dir", key.PhotoDir()).
		Int("uploaded", len(result.Uploaded)).
		Int("failed", len(result.Failed)).
		Msg("StorageService.UploadPhotos: batch done")

	return result
}

// ListPhotos liste les noms des photos d'un rapport, triés
func (s *StorageService) ListPhotos(ctx context.Context, key rapport.Key) ([]string, error) {
	prefix := key.PhotoDir() + "/"
	files, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	names := []string{}
	for _, file := range files {
		if after, ok := strings.CutPrefix(file, prefix); ok && after != "" && after != rapport.MarkerName {
			names = append(names, after)
		}
	}
	sort.Strings(names)

	return names, nil
}

// DownloadPhoto ouvre une photo du rapport
func (s *StorageService) DownloadPhoto(ctx context.Context, key rapport.Key, filename string) (io.ReadCloser, error) {
	if !isPlainName(filename) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return s.storage.Download(ctx, key.PhotoPath(filename))
}

// DeleteRapportFiles supprime le PDF et les photos, les fichiers absents sont ignorés
func (s *StorageService) DeleteRapportFiles(ctx context.Context, key rapport.Key) error {
	var errs []error

	if err := s.storage.Delete(ctx, key.StoragePath()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		errs = append(errs, err)
	}

	photos, err := s.ListPhotos(ctx, key)
	if err != nil {
		errs = append(errs, err)
	}
	for _, name := range photos {
		if err := s.storage.Delete(ctx, key.PhotoPath(name)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Tree retourne l'arbre des fichiers sous prefix, organisé par dossiers.
// Les marqueurs sont masqués mais leurs dossiers apparaissent, même vides.
func (s *StorageService) Tree(ctx context.Context, prefix string) (map[string][]string, error) {
	files, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	tree := make(map[string][]string)

	for _, file := range files {
		dir := path.Dir(file)
		if dir == "." {
			dir = "root"
		}

		if _, ok := tree[dir]; !ok {
			tree[dir] = []string{}
		}
		if base := path.Base(file); base != rapport.MarkerName {
			tree[dir] = append(tree[dir], base)
		}
	}

	for dir := range tree {
		sort.Strings(tree[dir])
	}

	return tree, nil
}

// ListChantierPDFs liste les PDF d'un chantier, relatifs à son dossier
func (s *StorageService) ListChantierPDFs(ctx context.Context, chantier string) ([]string, error) {
	prefix := rapport.ChantierPDFDir(chantier) + "/"
	files, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list pdfs of %s: %w", chantier, err)
	}

	var pdfs []string
	for _, file := range files {
		if after, ok := strings.CutPrefix(file, prefix); ok && strings.HasSuffix(strings.ToLower(after), ".pdf") {
			pdfs = append(pdfs, after)
		}
	}
	sort.Strings(pdfs)

	return pdfs, nil
}

// DownloadChantierPDF ouvre un PDF retourné par ListChantierPDFs
func (s *StorageService) DownloadChantierPDF(ctx context.Context, chantier, relPath string) (io.ReadCloser, error) {
	if strings.Contains(relPath, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, relPath)
	}
	return s.storage.Download(ctx, rapport.ChantierPDFDir(chantier)+"/"+relPath)
}

func isPlainName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
