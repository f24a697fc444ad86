package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chantier-rapports/internal/storage"
	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"
)

type StorageHandlers struct {
	storageService *storage.StorageService
}

func NewStorageHandlers(storageService *storage.StorageService) *StorageHandlers {
	return &StorageHandlers{
		storageService: storageService,
	}
}

// Tree retourne les fichiers groupés par dossier
// @Summary Storage tree
// @Tags Storage
// @Produce json
// @Param prefix query string false "Préfixe" default(RAPPORT/)
// @Success 200 {object} models.TreeResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/storage/tree [get]
func (h *StorageHandlers) Tree(c *gin.Context) {
	prefix := c.DefaultQuery("prefix", rapport.Root+"/")

	if validator := GetValidator(c); validator != nil {
		if result := validator.ValidateStoragePrefix(prefix); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "Invalid prefix",
				"validation_errors": result.Errors,
			})
			return
		}
	}

	tree, err := h.storageService.Tree(c.Request.Context(), prefix)
	if err != nil {
		respondError(c, err)
		return
	}

	count := 0
	for _, files := range tree {
		count += len(files)
	}

	c.JSON(http.StatusOK, models.TreeResponse{Prefix: prefix, Tree: tree, Count: count})
}

// Provision crée un dossier et tous ses parents
// @Summary Provision a folder
// @Description Un échec est rapporté avec le statut degraded, jamais en erreur
// @Tags Storage
// @Accept json
// @Produce json
// @Param request body models.ProvisionRequest true "Dossier"
// @Success 200 {object} models.ProvisionResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/storage/provision [post]
func (h *StorageHandlers) Provision(c *gin.Context) {
	req := c.MustGet("validated_request").(models.ProvisionRequest)
	dir := strings.Trim(req.Path, "/")

	outcome := h.storageService.ProvisionFolders(c.Request.Context(), dir)

	c.JSON(http.StatusOK, models.ProvisionResponse{
		Path:    dir,
		Folders: folderStatus(outcome),
	})
}

// ListChantierPDFs liste les PDF d'un chantier
// @Summary List the PDFs of a chantier
// @Tags Storage
// @Produce json
// @Param chantier path string true "Chantier"
// @Success 200 {object} models.FileListResponse
// @Security BearerAuth
// @Router /api/v1/storage/chantiers/{chantier}/pdfs [get]
func (h *StorageHandlers) ListChantierPDFs(c *gin.Context) {
	chantier := c.MustGet("validated_chantier").(string)

	files, err := h.storageService.ListChantierPDFs(c.Request.Context(), chantier)
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []string{}
	}

	c.JSON(http.StatusOK, models.FileListResponse{
		Chantier: rapport.Sanitize(chantier),
		Files:    files,
		Count:    len(files),
	})
}
