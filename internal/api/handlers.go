package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chantier-rapports/internal/auth"
	"chantier-rapports/internal/rapports"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/validation"
	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"
)

const (
	serviceName = "chantier-rapports"
	Version     = "1.0.0"
)

// Pinger est implémenté par la base de données
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	rapportService rapports.RapportService
	storageService *storage.StorageService
	db             Pinger
	environment    string
	storageType    string
	startTime      time.Time
}

func NewHandlers(rapportService rapports.RapportService, storageService *storage.StorageService, db Pinger, environment, storageType string) *Handlers {
	return &Handlers{
		rapportService: rapportService,
		storageService: storageService,
		db:             db,
		environment:    environment,
		storageType:    storageType,
		startTime:      time.Now(),
	}
}

// Health vérifie le stockage et la base
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := models.HealthResponse{
		Status:      "healthy",
		Service:     serviceName,
		Version:     Version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Storage:     h.storageType,
	}

	status := http.StatusOK
	if err := h.storageService.Ping(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("health: storage unreachable")
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if h.db != nil {
		resp.Database = "healthy"
		if err := h.db.Ping(ctx); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("health: database unreachable")
			resp.Database = "unhealthy"
			if resp.Status == "healthy" {
				resp.Status = "degraded"
			}
		}
	}

	c.JSON(status, resp)
}

// NamingPreview dérive les noms d'un rapport sans rien écrire
// @Summary Preview derived names
// @Tags Naming
// @Produce json
// @Param chantier query string true "Chantier"
// @Param type query string true "Type de rapport"
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} models.NamingPreview
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/naming/preview [get]
func (h *Handlers) NamingPreview(c *gin.Context) {
	key := c.MustGet("validated_key").(rapport.Key)
	c.JSON(http.StatusOK, models.NewNamingPreview(key))
}

// ParseTitle décompose un titre affiché
// @Summary Parse a display title
// @Tags Naming
// @Accept json
// @Produce json
// @Param request body models.ParseTitleRequest true "Titre"
// @Success 200 {object} models.ParseTitleResponse
// @Router /api/v1/naming/parse [post]
func (h *Handlers) ParseTitle(c *gin.Context) {
	req := c.MustGet("validated_request").(models.ParseTitleRequest)

	title, ok := rapport.ParseTitle(req.Title)
	if !ok {
		c.JSON(http.StatusOK, models.ParseTitleResponse{Valid: false})
		return
	}
	c.JSON(http.StatusOK, models.ParseTitleResponse{Valid: true, Title: &title})
}

// CreateRapport crée la fiche d'un rapport
// @Summary Create a rapport
// @Tags Rapports
// @Accept json
// @Produce json
// @Param request body models.CreateRapportRequest true "Rapport"
// @Success 201 {object} models.RapportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports [post]
func (h *Handlers) CreateRapport(c *gin.Context) {
	req := c.MustGet("validated_request").(models.CreateRapportRequest)

	if req.Author == "" {
		if claims, ok := auth.GetClaims(c); ok {
			req.Author = claims.Name
		}
	}

	r, err := h.rapportService.CreateRapport(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r.ToResponse())
}

// GetRapport retourne une fiche
// @Summary Get a rapport
// @Tags Rapports
// @Produce json
// @Param id path string true "Rapport ID"
// @Success 200 {object} models.RapportResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id} [get]
func (h *Handlers) GetRapport(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)

	r, err := h.rapportService.GetRapport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, r.ToResponse())
}

// ListRapports liste les fiches avec filtres et pagination
// @Summary List rapports
// @Tags Rapports
// @Produce json
// @Param chantier query string false "Chantier"
// @Param type query string false "Type"
// @Param limit query int false "Limit" default(100)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.RapportListResponse
// @Security BearerAuth
// @Router /api/v1/rapports [get]
func (h *Handlers) ListRapports(c *gin.Context) {
	params := c.MustGet("validated_list_params").(validation.ListRapportsParams)

	list, total, err := h.rapportService.ListRapports(c.Request.Context(), rapports.RapportFilters{
		Chantier: params.Chantier,
		Type:     params.Type,
		Limit:    params.Pagination.Limit,
		Offset:   params.Pagination.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.RapportResponse, len(list))
	for i, r := range list {
		responses[i] = *r.ToResponse()
	}

	c.JSON(http.StatusOK, models.RapportListResponse{
		Rapports:   responses,
		Count:      len(responses),
		TotalCount: total,
		Pagination: models.NewPaginationInfo(params.Pagination.Limit, params.Pagination.Offset, total),
	})
}

// DeleteRapport supprime logiquement une fiche
// @Summary Delete a rapport
// @Description Les fichiers sont effacés par la purge périodique
// @Tags Rapports
// @Param id path string true "Rapport ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/rapports/{id} [delete]
func (h *Handlers) DeleteRapport(c *gin.Context) {
	id := c.MustGet("validated_rapport_id").(uuid.UUID)

	if err := h.rapportService.DeleteRapport(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
