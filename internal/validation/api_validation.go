// internal/validation/api_validation.go - Validation spécifique à l'API

package validation

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"

	"github.com/google/uuid"
)

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	validationService *ValidationService
	structs           *StructValidator
}

// PaginationParams contient les paramètres de pagination validés
type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListRapportsParams contient les filtres validés de la liste des rapports
type ListRapportsParams struct {
	Chantier   string           `json:"chantier,omitempty"`
	Type       string           `json:"type,omitempty"`
	Pagination PaginationParams `json:"pagination"`
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator(config *ValidationConfig) *APIValidator {
	return &APIValidator{
		validationService: NewValidationService(config),
		structs:           NewStructValidator(),
	}
}

// ValidateStruct applique les tags `validate` d'un payload
func (av *APIValidator) ValidateStruct(s interface{}) *ValidationResult {
	return av.structs.Validate(s)
}

// ValidateCreateRapportRequest valide une requête de création de rapport
func (av *APIValidator) ValidateCreateRapportRequest(req *models.CreateRapportRequest) *ValidationResult {
	result := av.structs.Validate(req)

	// Valider les métadonnées clé par clé
	for key, value := range req.Metadata {
		if len(key) > 100 {
			result.AddError("metadata", key,
				fmt.Sprintf("metadata key too long (max 100 characters): %s", key),
				"KEY_TOO_LONG")
		}
		if len(fmt.Sprintf("%v", value)) > 1000 {
			result.AddError("metadata", key,
				fmt.Sprintf("metadata value too long (max 1000 characters) for key: %s", key),
				"VALUE_TOO_LONG")
		}
	}

	return result
}

// ValidateNamingRequest valide les attributs de dérivation et retourne la clé
func (av *APIValidator) ValidateNamingRequest(req *models.NamingRequest) (rapport.Key, *ValidationResult) {
	result := av.structs.Validate(req)
	if !result.Valid {
		return rapport.Key{}, result
	}

	// La date est valide : vérifiée par le tag date_ymd
	date, _ := rapport.ParseDate(req.Date)
	return rapport.Key{Chantier: req.Chantier, Type: req.Type, Date: date}, result
}

// ValidateRapportIDParam valide un paramètre rapport_id depuis l'URL
func (av *APIValidator) ValidateRapportIDParam(rapportIDStr string) (uuid.UUID, *ValidationResult) {
	result := av.validationService.ValidateRapportID(rapportIDStr)

	if !result.Valid {
		return uuid.Nil, result
	}

	// Parse the UUID (we know it's valid from validation above)
	rapportID, _ := uuid.Parse(rapportIDStr)
	return rapportID, result
}

// ValidatePhotoFilenameParam valide un nom de photo depuis l'URL
func (av *APIValidator) ValidatePhotoFilenameParam(filename string) *ValidationResult {
	return av.validationService.ValidateFilename(filename, KindImage)
}

// ValidatePDFUpload valide le fichier PDF d'un formulaire multipart
func (av *APIValidator) ValidatePDFUpload(header *multipart.FileHeader) *ValidationResult {
	return av.validationService.ValidateFileHeader(header, KindPDF)
}

// ValidatePhotoUpload valide les photos d'un formulaire multipart
func (av *APIValidator) ValidatePhotoUpload(files []*multipart.FileHeader) *ValidationResult {
	return av.validationService.ValidatePhotos(files)
}

// ValidateProvisionRequest valide une demande de provisioning
func (av *APIValidator) ValidateProvisionRequest(req *models.ProvisionRequest) *ValidationResult {
	result := av.structs.Validate(req)
	if result.Valid {
		result.Merge(av.validationService.ValidateStoragePath(req.Path))
	}
	return result
}

// ValidateStoragePrefix valide un préfixe de listing, vide accepté
func (av *APIValidator) ValidateStoragePrefix(prefix string) *ValidationResult {
	if prefix == "" {
		return &ValidationResult{Valid: true}
	}
	result := av.validationService.ValidateStoragePath(prefix)
	for _, err := range result.Errors {
		err.Field = "prefix"
	}
	return result
}

// ValidateChantierParam valide un nom de chantier depuis l'URL
func (av *APIValidator) ValidateChantierParam(chantier string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(chantier) == "" {
		result.AddError("chantier", "", "chantier is required", "REQUIRED")
	} else if rapport.Sanitize(chantier) == "" {
		result.AddError("chantier", chantier,
			"chantier must contain at least one ASCII letter or digit", "INVALID_CHANTIER")
	}

	return result
}

// ValidatePaginationParams valide les paramètres de pagination avec valeurs par défaut
func (av *APIValidator) ValidatePaginationParams(limitStr, offsetStr string) (*PaginationParams, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	// Valeurs par défaut
	limit := 100
	offset := 0

	// Valider limit si fourni
	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err != nil {
			result.AddError("limit", limitStr, "limit must be a valid integer", "INVALID_LIMIT")
		} else if parsedLimit < 0 {
			result.AddError("limit", limitStr, "limit cannot be negative", "NEGATIVE_LIMIT")
		} else if parsedLimit > 1000 {
			result.AddError("limit", limitStr, "limit too large (max 1000)", "LIMIT_TOO_LARGE")
		} else {
			limit = parsedLimit
		}
	}

	// Valider offset si fourni
	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err != nil {
			result.AddError("offset", offsetStr, "offset must be a valid integer", "INVALID_OFFSET")
		} else if parsedOffset < 0 {
			result.AddError("offset", offsetStr, "offset cannot be negative", "NEGATIVE_OFFSET")
		} else {
			offset = parsedOffset
		}
	}

	pagination := &PaginationParams{
		Limit:  limit,
		Offset: offset,
	}

	return pagination, result
}

// ValidateListRapportsParams valide tous les paramètres de la liste des rapports
func (av *APIValidator) ValidateListRapportsParams(chantierParam, typeParam, limitParam, offsetParam string) (*ListRapportsParams, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if chantierParam != "" {
		result.Merge(av.ValidateChantierParam(chantierParam))
	}

	if typeParam != "" && rapport.Sanitize(typeParam) == "" {
		result.AddError("type", typeParam,
			"type must contain at least one ASCII letter or digit", "INVALID_TYPE")
	}

	// Valider la pagination
	pagination, paginationResult := av.ValidatePaginationParams(limitParam, offsetParam)
	result.Merge(paginationResult)

	params := &ListRapportsParams{
		Chantier:   chantierParam,
		Type:       typeParam,
		Pagination: *pagination,
	}

	return params, result
}
