package api

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/validation"
	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"
)

// ArchiveHandlers gère les archives de chantier
type ArchiveHandlers struct {
	storageService *storage.StorageService
	now            func() time.Time
}

func NewArchiveHandlers(storageService *storage.StorageService) *ArchiveHandlers {
	return &ArchiveHandlers{
		storageService: storageService,
		now:            time.Now,
	}
}

// DownloadChantierArchive télécharge tous les PDF d'un chantier dans une archive
// @Summary Download the PDFs of a chantier as an archive
// @Tags Archive
// @Produce application/zip
// @Param chantier path string true "Chantier"
// @Param format query string false "Archive format (zip, tar)" default(zip)
// @Param compress query bool false "Enable compression" default(true)
// @Param include query string false "Motifs à inclure, séparés par des virgules (ex: intervention/*)"
// @Param exclude query string false "Motifs à exclure, séparés par des virgules"
// @Success 200 {file} file "Archive"
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/storage/chantiers/{chantier}/archive [get]
func (h *ArchiveHandlers) DownloadChantierArchive(c *gin.Context) {
	chantier := c.MustGet("validated_chantier").(string)
	format := models.ArchiveFormat(c.DefaultQuery("format", string(models.FormatZIP)))
	compress := c.DefaultQuery("compress", "true") == "true"

	files, err := h.storageService.ListChantierPDFs(c.Request.Context(), chantier)
	if err != nil {
		respondError(c, err)
		return
	}

	files = filterFiles(files, splitPatterns(c.Query("include")), splitPatterns(c.Query("exclude")))
	if len(files) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No PDF found for this chantier"})
		return
	}

	info := h.archiveInfo(chantier, files, format, compress)

	contentType := "application/zip"
	if format == models.FormatTAR {
		contentType = "application/x-tar"
		if compress {
			contentType = "application/gzip"
		}
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Filename))
	c.Header("X-Archive-Files-Count", fmt.Sprintf("%d", info.FilesCount))
	c.Status(http.StatusOK)

	if err := h.writeArchive(c.Request.Context(), c.Writer, chantier, files, format, compress); err != nil {
		// Headers déjà envoyés, on ne peut plus renvoyer d'erreur JSON
		logAborted(c, err)
	}
}

func (h *ArchiveHandlers) archiveInfo(chantier string, files []string, format models.ArchiveFormat, compress bool) models.ArchiveInfo {
	ext := string(format)
	if format == models.FormatTAR && compress {
		ext = "tar.gz"
	}

	return models.ArchiveInfo{
		Filename:   fmt.Sprintf("%s-rapports-%s.%s", rapport.Sanitize(chantier), h.now().Format("20060102-150405"), ext),
		Format:     string(format),
		FilesCount: len(files),
		Compressed: compress,
		Files:      files,
	}
}

// writeArchive écrit l'archive en streaming directement vers la réponse
func (h *ArchiveHandlers) writeArchive(ctx context.Context, w io.Writer, chantier string, files []string, format models.ArchiveFormat, compress bool) error {
	switch format {
	case models.FormatZIP:
		return h.writeZip(ctx, w, chantier, files, compress)
	case models.FormatTAR:
		return h.writeTar(ctx, w, chantier, files, compress)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func (h *ArchiveHandlers) writeZip(ctx context.Context, w io.Writer, chantier string, files []string, compress bool) error {
	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	method := zip.Deflate
	if !compress {
		method = zip.Store
	}

	for _, name := range files {
		entry, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   method,
			Modified: h.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to create zip entry for %s: %w", name, err)
		}

		if err := h.copyPDF(ctx, entry, chantier, name); err != nil {
			return err
		}
	}

	return nil
}

// writeTar lit chaque PDF en entier : l'en-tête tar exige la taille
func (h *ArchiveHandlers) writeTar(ctx context.Context, w io.Writer, chantier string, files []string, compress bool) error {
	if compress {
		gz := gzip.NewWriter(w)
		defer gz.Close()
		w = gz
	}

	tarWriter := tar.NewWriter(w)
	defer tarWriter.Close()

	for _, name := range files {
		reader, err := h.storageService.DownloadChantierPDF(ctx, chantier, name)
		if err != nil {
			return fmt.Errorf("failed to download file %s: %w", name, err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", name, err)
		}

		if err := tarWriter.WriteHeader(&tar.Header{
			Name:    name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: h.now(),
		}); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", name, err)
		}
		if _, err := tarWriter.Write(data); err != nil {
			return fmt.Errorf("failed to write file %s to archive: %w", name, err)
		}
	}

	return nil
}

func (h *ArchiveHandlers) copyPDF(ctx context.Context, w io.Writer, chantier, name string) error {
	reader, err := h.storageService.DownloadChantierPDF(ctx, chantier, name)
	if err != nil {
		return fmt.Errorf("failed to download file %s: %w", name, err)
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		return fmt.Errorf("failed to write file %s to archive: %w", name, err)
	}
	return nil
}

func splitPatterns(raw string) []string {
	var patterns []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// filterFiles filtre les fichiers selon les patterns include/exclude
func filterFiles(files []string, include, exclude []string) []string {
	if len(include) == 0 && len(exclude) == 0 {
		return files
	}

	var filtered []string

	for _, file := range files {
		if len(include) > 0 && !matchAny(include, file) {
			continue
		}
		if matchAny(exclude, file) {
			continue
		}
		filtered = append(filtered, file)
	}

	return filtered
}

func matchAny(patterns []string, file string) bool {
	for _, pattern := range patterns {
		if matched, _ := path.Match(pattern, file); matched {
			return true
		}
	}
	return false
}

// ValidateArchiveParams valide les paramètres d'archive
func ValidateArchiveParams(c *gin.Context, v *validation.APIValidator) *validation.ValidationResult {
	result := &validation.ValidationResult{Valid: true}

	if format := c.Query("format"); format != "" {
		if format != string(models.FormatZIP) && format != string(models.FormatTAR) {
			result.AddError("format", format, "unsupported archive format (supported: zip, tar)", "INVALID_FORMAT")
		}
	}

	if compress := c.Query("compress"); compress != "" {
		if compress != "true" && compress != "false" {
			result.AddError("compress", compress, "compress must be true or false", "INVALID_BOOLEAN")
		}
	}

	for _, pattern := range append(splitPatterns(c.Query("include")), splitPatterns(c.Query("exclude"))...) {
		if _, err := path.Match(pattern, ""); err != nil {
			result.AddError("pattern", pattern, "malformed glob pattern", "INVALID_PATTERN")
		}
	}

	return result
}
