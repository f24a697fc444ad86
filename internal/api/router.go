package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chantier-rapports/internal/auth"
	"chantier-rapports/internal/rapports"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/validation"
)

// RouterConfig regroupe les dépendances du routeur.
// RapportService nil : les routes /rapports ne sont pas montées.
// Tokens nil : authentification désactivée.
type RouterConfig struct {
	RapportService rapports.RapportService
	StorageService *storage.StorageService
	Validator      *validation.APIValidator
	Tokens         *auth.TokenManager
	DB             Pinger
	Logger         zerolog.Logger

	Environment   string
	StorageType   string
	AllowedOrigin string
	RateLimit     int
	Swagger       bool
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(SecurityHeadersMiddleware(cfg.AllowedOrigin))
	if cfg.RateLimit > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimit))
	}

	validator := cfg.Validator
	if validator == nil {
		validator = validation.NewAPIValidator(nil)
	}
	r.Use(validation.Middleware(validator))

	handlers := NewHandlers(cfg.RapportService, cfg.StorageService, cfg.DB, cfg.Environment, cfg.StorageType)
	storageHandlers := NewStorageHandlers(cfg.StorageService)
	archiveHandlers := NewArchiveHandlers(cfg.StorageService)

	r.GET("/health", handlers.Health)

	if cfg.Swagger {
		SetupSwagger(r, cfg.Environment)
	}

	read := auth.RequirePermission(auth.PermRapportsRead)
	write := auth.RequirePermission(auth.PermRapportsWrite)
	remove := auth.RequirePermission(auth.PermRapportsDelete)
	photos := auth.RequirePermission(auth.PermPhotosWrite)
	admin := auth.RequirePermission(auth.PermStorageAdmin)

	rapportID := validation.ValidateRapportIDParam("id")

	api := r.Group("/api/v1", auth.RequireAuth(cfg.Tokens))
	{
		naming := api.Group("/naming", read)
		naming.GET("/preview", validation.ValidateRequest(validation.ValidateNamingQuery), handlers.NamingPreview)
		naming.POST("/parse", validation.ValidateRequest(validation.ValidateParseTitleRequest), handlers.ParseTitle)

		if cfg.RapportService != nil {
			rg := api.Group("/rapports")
			rg.POST("", write, validation.ValidateRequest(validation.ValidateCreateRapportRequest), handlers.CreateRapport)
			rg.GET("", read, validation.ValidateRequest(validation.ValidateListRapportsParams), handlers.ListRapports)
			rg.GET("/:id", read, validation.ValidateRequest(rapportID), handlers.GetRapport)
			rg.DELETE("/:id", remove, validation.ValidateRequest(rapportID), handlers.DeleteRapport)

			rg.PUT("/:id/pdf", write, validation.ValidateRequest(rapportID, validation.ValidatePDFUpload), handlers.UploadPDF)
			rg.GET("/:id/pdf", read, validation.ValidateRequest(rapportID), handlers.DownloadPDF)
			rg.GET("/:id/pdf/url", read, validation.ValidateRequest(rapportID), handlers.PDFURL)

			rg.POST("/:id/photos", photos, validation.ValidateRequest(rapportID, validation.ValidatePhotoUpload), handlers.UploadPhotos)
			rg.GET("/:id/photos", read, validation.ValidateRequest(rapportID), handlers.ListPhotos)
			rg.GET("/:id/photos/:filename", read,
				validation.ValidateRequest(rapportID, validation.ValidatePhotoFilenameParam("filename")),
				handlers.DownloadPhoto)
		}

		sg := api.Group("/storage")
		sg.GET("/tree", admin, storageHandlers.Tree)
		sg.POST("/provision", admin, validation.ValidateRequest(validation.ValidateProvisionRequest), storageHandlers.Provision)

		chantier := validation.ValidateChantierParam("chantier")
		sg.GET("/chantiers/:chantier/pdfs", read, validation.ValidateRequest(chantier), storageHandlers.ListChantierPDFs)
		sg.GET("/chantiers/:chantier/archive", read,
			validation.ValidateRequest(chantier, ValidateArchiveParams),
			archiveHandlers.DownloadChantierArchive)
	}

	return r
}

// GetValidator helper pour récupérer le validator du contexte
func GetValidator(c *gin.Context) *validation.APIValidator {
	return validation.GetValidator(c)
}
