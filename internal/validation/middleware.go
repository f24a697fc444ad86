// internal/validation/middleware.go
package validation

import (
	"net/http"

	"chantier-rapports/pkg/models"

	"github.com/gin-gonic/gin"
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// Middleware place le validator dans le contexte gin
func Middleware(v *APIValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("validator", v)
		c.Next()
	}
}

// ValidateRequest est le middleware principal qui exécute une liste de validators
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation service unavailable"})
			c.Abort()
			return
		}

		// Exécuter toutes les validations dans l'ordre
		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":             "Validation failed",
					"validation_errors": result.Errors,
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// GetValidator helper pour récupérer le validator du contexte
func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get("validator"); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

func jsonError(field, message, code string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	result.AddError(field, "", message, code)
	return result
}

// ValidateRapportIDParam valide l'UUID d'un rapport et le stocke sous validated_rapport_id
func ValidateRapportIDParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		rapportID, result := v.ValidateRapportIDParam(c.Param(paramName))

		if result.Valid {
			c.Set("validated_rapport_id", rapportID)
		}

		return result
	}
}

// ValidateCreateRapportRequest parse et valide le corps d'une création
func ValidateCreateRapportRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	var req models.CreateRapportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return jsonError("json", "JSON parsing failed: "+err.Error(), "JSON_PARSE_ERROR")
	}

	result := v.ValidateCreateRapportRequest(&req)

	// Stocker pour le handler
	if result.Valid {
		c.Set("validated_request", req)
	}

	return result
}

// ValidateNamingQuery valide chantier/type/date depuis les query params
func ValidateNamingQuery(c *gin.Context, v *APIValidator) *ValidationResult {
	var req models.NamingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return jsonError("query", "query parsing failed: "+err.Error(), "QUERY_PARSE_ERROR")
	}

	key, result := v.ValidateNamingRequest(&req)
	if result.Valid {
		c.Set("validated_key", key)
	}

	return result
}

// ValidateParseTitleRequest valide le corps d'une décomposition de titre
func ValidateParseTitleRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	var req models.ParseTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return jsonError("json", "JSON parsing failed: "+err.Error(), "JSON_PARSE_ERROR")
	}

	result := v.ValidateStruct(&req)
	if result.Valid {
		c.Set("validated_request", req)
	}

	return result
}

// ValidateProvisionRequest valide le corps d'un provisioning explicite
func ValidateProvisionRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	var req models.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return jsonError("json", "JSON parsing failed: "+err.Error(), "JSON_PARSE_ERROR")
	}

	result := v.ValidateProvisionRequest(&req)
	if result.Valid {
		c.Set("validated_request", req)
	}

	return result
}

// ValidatePDFUpload valide le champ multipart "file"
func ValidatePDFUpload(c *gin.Context, v *APIValidator) *ValidationResult {
	header, err := c.FormFile("file")
	if err != nil {
		return jsonError("file", "No PDF provided: "+err.Error(), "NO_FILES")
	}

	result := v.ValidatePDFUpload(header)
	if result.Valid {
		c.Set("validated_file", header)
	}

	return result
}

// ValidatePhotoUpload valide le champ multipart "photos"
func ValidatePhotoUpload(c *gin.Context, v *APIValidator) *ValidationResult {
	form, err := c.MultipartForm()
	if err != nil {
		return jsonError("photos", "Failed to parse multipart form: "+err.Error(), "MULTIPART_PARSE_ERROR")
	}

	files := form.File["photos"]
	result := v.ValidatePhotoUpload(files)

	if result.Valid {
		c.Set("validated_files", files)
	}

	return result
}

// ValidatePhotoFilenameParam valide un nom de photo depuis l'URL
func ValidatePhotoFilenameParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		filename := c.Param(paramName)
		result := v.ValidatePhotoFilenameParam(filename)

		if result.Valid {
			c.Set("validated_filename", filename)
		}

		return result
	}
}

// ValidateChantierParam valide un nom de chantier depuis l'URL
func ValidateChantierParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		chantier := c.Param(paramName)
		result := v.ValidateChantierParam(chantier)

		if result.Valid {
			c.Set("validated_chantier", chantier)
		}

		return result
	}
}

// ValidateListRapportsParams valide les filtres et la pagination de la liste
func ValidateListRapportsParams(c *gin.Context, v *APIValidator) *ValidationResult {
	params, result := v.ValidateListRapportsParams(
		c.Query("chantier"), c.Query("type"), c.Query("limit"), c.Query("offset"))

	if result.Valid {
		c.Set("validated_list_params", *params)
	}

	return result
}
