// internal/validation/validation.go - Service de validation des entrées

package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationConfig contient la configuration de validation
type ValidationConfig struct {
	MaxPhotos         int             // Nombre max de photos par envoi
	MaxFilenameLength int             // Longueur max du nom de fichier
	MaxPathLength     int             // Longueur max d'un chemin de stockage
	AllowedMimeTypes  map[string]bool // Types MIME autorisés
}

// DefaultValidationConfig retourne une configuration par défaut sécurisée
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxPhotos:         20,  // 20 photos max
		MaxFilenameLength: 255, // 255 caractères max
		MaxPathLength:     500,
		AllowedMimeTypes: map[string]bool{
			"application/pdf":          true,
			"image/png":                true,
			"image/jpeg":               true,
			"image/gif":                true,
			"image/webp":               true,
			"application/octet-stream": true, // Clients mobiles
		},
	}
}

// ValidationService gère la validation des entrées
type ValidationService struct {
	config *ValidationConfig
}

// NewValidationService crée un nouveau service de validation
func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidationService{
		config: config,
	}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError ajoute une erreur de validation
func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// Merge ajoute les erreurs d'un autre résultat
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// ValidateRapportID valide un ID de rapport
func (vs *ValidationService) ValidateRapportID(rapportID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if rapportID == "" {
		result.AddError("rapport_id", "", "rapport ID is required", "REQUIRED")
		return result
	}

	// Vérifier que c'est un UUID valide
	if _, err := uuid.Parse(rapportID); err != nil {
		result.AddError("rapport_id", rapportID, "rapport ID must be a valid UUID", "INVALID_UUID")
	}

	return result
}

// ValidateFilename valide un nom de fichier de manière robuste
func (vs *ValidationService) ValidateFilename(filename string, kind FileKind) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if filename == "" {
		result.AddError("filename", "", "filename is required", "REQUIRED")
		return result
	}

	// Vérifier la longueur
	if len(filename) > vs.config.MaxFilenameLength {
		result.AddError("filename", filename,
			fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength),
			"TOO_LONG")
	}

	// Vérifier que c'est un UTF-8 valide
	if !utf8.ValidString(filename) {
		result.AddError("filename", filename, "filename must be valid UTF-8", "INVALID_ENCODING")
	}

	// Vérifier les caractères interdits
	forbiddenChars := []string{
		"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\x00",
	}

	for _, char := range forbiddenChars {
		if strings.Contains(filename, char) {
			result.AddError("filename", filename,
				fmt.Sprintf("filename contains forbidden character: %q", char),
				"FORBIDDEN_CHAR")
		}
	}

	if !IsValidExtension(filename, kind) {
		result.AddError("filename", filename,
			fmt.Sprintf("file extension %s not allowed for %s", filepath.Ext(filename), kind),
			"FORBIDDEN_EXTENSION")
	}

	return result
}

// ValidateFileHeader valide un header de fichier multipart
func (vs *ValidationService) ValidateFileHeader(header *multipart.FileHeader, kind FileKind) *ValidationResult {
	result := &ValidationResult{Valid: true}

	// Valider le nom de fichier
	result.Merge(vs.ValidateFilename(header.Filename, kind))

	// Vérifier la taille
	if !IsValidFileSize(header.Size, kind) {
		result.AddError("file_size", fmt.Sprintf("%d", header.Size),
			fmt.Sprintf("file too large (max %d bytes)", MaxFileSize(kind)),
			"FILE_TOO_LARGE")
	}

	if header.Size == 0 {
		result.AddError("file_size", "0", "file is empty", "EMPTY_FILE")
	}

	// Vérifier le type MIME si disponible
	if contentType := header.Header.Get("Content-Type"); contentType != "" {
		// Extraire le type principal (avant les paramètres)
		mainType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if !vs.config.AllowedMimeTypes[mainType] {
			result.AddError("content_type", contentType,
				fmt.Sprintf("content type %s not allowed", mainType),
				"FORBIDDEN_MIME_TYPE")
		}
	}

	return result
}

// ValidatePhotos valide un envoi de photos
func (vs *ValidationService) ValidatePhotos(files []*multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(files) == 0 {
		result.AddError("photos", "", "no photos provided", "NO_FILES")
		return result
	}

	if len(files) > vs.config.MaxPhotos {
		result.AddError("photos", fmt.Sprintf("%d files", len(files)),
			fmt.Sprintf("too many photos (max %d)", vs.config.MaxPhotos),
			"TOO_MANY_FILES")
	}

	for i, file := range files {
		fileResult := vs.ValidateFileHeader(file, KindImage)
		// Préfixer les erreurs avec l'index du fichier
		for _, err := range fileResult.Errors {
			err.Field = fmt.Sprintf("photos[%d].%s", i, err.Field)
		}
		result.Merge(fileResult)
	}

	return result
}

// ValidateStoragePath valide un chemin de dossier fourni par un client
func (vs *ValidationService) ValidateStoragePath(path string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(path) == "" {
		result.AddError("path", "", "path is required", "REQUIRED")
		return result
	}

	// Vérifier les caractères dangereux
	if strings.Contains(path, "..") {
		result.AddError("path", path, "path traversal not allowed", "PATH_TRAVERSAL")
	}

	if strings.ContainsAny(path, "\\\x00") {
		result.AddError("path", path, "path contains forbidden characters", "FORBIDDEN_CHAR")
	}

	// Vérifier la longueur
	if len(path) > vs.config.MaxPathLength {
		result.AddError("path", path,
			fmt.Sprintf("path too long (max %d characters)", vs.config.MaxPathLength),
			"PATH_TOO_LONG")
	}

	return result
}
