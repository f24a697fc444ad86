package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/garage"
	"chantier-rapports/internal/storage/provisioner"
	"chantier-rapports/pkg/models"
)

// UploadPDF dépose le PDF d'un rapport sous son chemin dérivé
// @Summary Upload the rapport PDF
// @Description Les dossiers parents sont provisionnés avant l'écriture ; un provisioning dégradé est signalé dans folders
// @Tags Fichiers
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Rapport ID"
// @Param file formData file true "PDF"
// @Success 201 {object} models.PDFUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/pdf [put]
func (h *Handlers) UploadPDF(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)
	header := c.MustGet("validated_file").(*multipart.FileHeader)

	data, err := readFileHeader(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + header.Filename})
		return
	}

	result, err := h.rapportService.AttachPDF(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, err)
		return
	}

	storagePath := ""
	if key, err := result.Rapport.Key(); err == nil {
		storagePath = key.StoragePath()
	}

	c.JSON(http.StatusCreated, models.PDFUploadResponse{
		Message:     "PDF uploaded successfully",
		RapportID:   id.String(),
		StoragePath: storagePath,
		URL:         result.URL,
		Size:        result.Rapport.PDFSize,
		Folders:     folderStatus(result.Folders),
	})
}

// DownloadPDF télécharge le PDF d'un rapport
// @Summary Download the rapport PDF
// @Tags Fichiers
// @Produce application/pdf
// @Param id path string true "Rapport ID"
// @Success 200 {file} file "PDF"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/pdf [get]
func (h *Handlers) DownloadPDF(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)

	r, reader, err := h.rapportService.DownloadPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	filename := ""
	if key, err := r.Key(); err == nil {
		filename = key.FileName()
	}

	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}

// PDFURL retourne une URL de téléchargement direct
// @Summary Get a download URL for the PDF
// @Tags Fichiers
// @Produce json
// @Param id path string true "Rapport ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/pdf/url [get]
func (h *Handlers) PDFURL(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)

	url, err := h.rapportService.PDFURL(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rapport_id": id, "url": url})
}

// UploadPhotos dépose un lot de photos ; chaque photo réussit ou échoue seule
// @Summary Upload rapport photos
// @Tags Fichiers
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Rapport ID"
// @Param photos formData file true "Photos"
// @Success 201 {object} storage.PhotoBatchResult
// @Success 207 {object} storage.PhotoBatchResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/photos [post]
func (h *Handlers) UploadPhotos(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)
	headers := c.MustGet("validated_files").([]*multipart.FileHeader)

	photos := make([]storage.PhotoUpload, 0, len(headers))
	for _, header := range headers {
		data, err := readFileHeader(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file: " + header.Filename})
			return
		}
		photos = append(photos, storage.PhotoUpload{Name: header.Filename, Data: data})
	}

	r, result, err := h.rapportService.AddPhotos(c.Request.Context(), id, photos)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	switch {
	case len(result.Uploaded) == 0:
		status = http.StatusBadGateway
	case len(result.Failed) > 0:
		status = http.StatusMultiStatus
	}

	c.JSON(status, gin.H{
		"rapport_id":  id,
		"photo_count": r.PhotoCount,
		"uploaded":    result.Uploaded,
		"failed":      result.Failed,
		"folders":     folderStatus(result.Folders),
	})
}

// ListPhotos liste les photos d'un rapport
// @Summary List rapport photos
// @Tags Fichiers
// @Produce json
// @Param id path string true "Rapport ID"
// @Success 200 {object} models.FileListResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/photos [get]
func (h *Handlers) ListPhotos(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)

	photos, err := h.rapportService.ListPhotos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FileListResponse{
		RapportID: id.String(),
		Files:     photos,
		Count:     len(photos),
	})
}

// DownloadPhoto télécharge une photo
// @Summary Download a rapport photo
// @Tags Fichiers
// @Produce octet-stream
// @Param id path string true "Rapport ID"
// @Param filename path string true "Nom de la photo"
// @Success 200 {file} file "Photo"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id}/photos/{filename} [get]
func (h *Handlers) DownloadPhoto(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)
	filename := c.MustGet("validated_filename").(string)

	reader, err := h.rapportService.DownloadPhoto(c.Request.Context(), id, filename)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, garage.ContentType(path.Base(filename)), reader, nil)
}

func readFileHeader(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func folderStatus(o provisioner.Outcome) models.FolderStatus {
	return models.FolderStatus{
		Status: string(o.Status),
		Reason: o.Reason,
		Failed: o.Failed,
	}
}
