// pkg/models/swagger.go
package models

import (
	"time"
)

// ErrorResponse représente une réponse d'erreur standard
// @Description Réponse d'erreur standard de l'API
type ErrorResponse struct {
	Error            string            `json:"error" example:"Validation failed"`
	Message          string            `json:"message,omitempty" example:"Detailed error message"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	Timestamp        time.Time         `json:"timestamp" example:"2025-01-17T10:30:00Z"`
	Path             string            `json:"path,omitempty" example:"/api/v1/rapports"`
	RequestID        string            `json:"request_id,omitempty" example:"req-123456"`
} // @name ErrorResponse

// ValidationError représente une erreur de validation spécifique
// @Description Détail d'une erreur de validation
type ValidationError struct {
	Field   string `json:"field" example:"chantier"`
	Value   string `json:"value" example:"###"`
	Message string `json:"message" example:"chantier must contain at least one letter or digit"`
	Code    string `json:"code" example:"INVALID_CHANTIER"`
} // @name ValidationError

// HealthResponse représente la réponse du health check
// @Description Statut de santé du service
type HealthResponse struct {
	Status      string    `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Service     string    `json:"service" example:"chantier-rapports"`
	Version     string    `json:"version" example:"1.0.0"`
	Timestamp   time.Time `json:"timestamp" example:"2025-01-17T10:30:00Z"`
	Uptime      string    `json:"uptime,omitempty" example:"24h30m15s"`
	Environment string    `json:"environment,omitempty" example:"development"`
	Storage     string    `json:"storage,omitempty" example:"garage"`
	Database    string    `json:"database,omitempty" example:"healthy"`
} // @name HealthResponse

// FolderStatus reprend le résultat du provisioning des dossiers
type FolderStatus struct {
	Status string   `json:"status" example:"ok" enums:"ok,degraded"`
	Reason string   `json:"reason,omitempty"`
	Failed []string `json:"failed,omitempty"`
} // @name FolderStatus

// PDFUploadResponse représente la réponse d'upload d'un PDF
// @Description Réponse après dépôt du PDF d'un rapport
type PDFUploadResponse struct {
	Message     string       `json:"message" example:"PDF uploaded successfully"`
	RapportID   string       `json:"rapport_id"`
	StoragePath string       `json:"storage_path"`
	URL         string       `json:"url"`
	Size        int64        `json:"size"`
	Folders     FolderStatus `json:"folders"`
} // @name PDFUploadResponse

// FileListResponse représente la liste de fichiers
// @Description Liste de fichiers dans le stockage
type FileListResponse struct {
	RapportID string   `json:"rapport_id,omitempty"`
	Chantier  string   `json:"chantier,omitempty"`
	Files     []string `json:"files"`
	Count     int      `json:"count" example:"3"`
} // @name FileListResponse

// TreeResponse représente l'arbre des dossiers
// @Description Fichiers du stockage groupés par dossier
type TreeResponse struct {
	Prefix string              `json:"prefix"`
	Tree   map[string][]string `json:"tree"`
	Count  int                 `json:"count"`
} // @name TreeResponse

// ProvisionResponse représente le résultat d'un provisioning explicite
type ProvisionResponse struct {
	Path    string       `json:"path"`
	Folders FolderStatus `json:"folders"`
} // @name ProvisionResponse
