package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chantier-rapports/internal/rapports"
	"chantier-rapports/internal/storage"
	pkgstorage "chantier-rapports/pkg/storage"
)

// respondError convertit les erreurs des services en statut HTTP
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, rapports.ErrNotFound), errors.Is(err, pkgstorage.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, rapports.ErrNoPDF):
		status, message = http.StatusNotFound, "rapport has no pdf yet"
	case errors.Is(err, rapports.ErrAlreadyExists):
		status, message = http.StatusConflict, "a rapport with the same storage path already exists"
	case errors.Is(err, storage.ErrInvalidFilename):
		status, message = http.StatusBadRequest, "invalid filename"
	case errors.Is(err, pkgstorage.ErrUnauthorized):
		// Le backend de stockage refuse nos identifiants
		status, message = http.StatusBadGateway, "storage backend denied access"
	}

	logger := log.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	}

	c.JSON(status, gin.H{"error": message})
}

// logAborted trace une erreur survenue après l'envoi des en-têtes
func logAborted(c *gin.Context, err error) {
	log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("response aborted")
}
