package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"chantier-rapports/pkg/rapport"
)

// tags de validation personnalisés
const (
	notBlankTag    = "notblank"
	chantierTag    = "chantier"
	rapportTypeTag = "rapport_type"
	dateTag        = "date_ymd"
)

// codes d'erreur renvoyés pour chaque tag
var tagCodes = map[string]string{
	"required":     "REQUIRED",
	notBlankTag:    "REQUIRED",
	chantierTag:    "INVALID_CHANTIER",
	rapportTypeTag: "INVALID_TYPE",
	dateTag:        "INVALID_DATE",
	"max":          "TOO_LONG",
	"min":          "TOO_SHORT",
	"oneof":        "INVALID_VALUE",
}

// StructValidator valide les payloads décrits par des tags `validate`
type StructValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewStructValidator enregistre les traductions anglaises et les règles métier
func NewStructValidator() *StructValidator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	// Les erreurs utilisent les noms JSON des champs
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlankValidation)
	_ = v.RegisterValidation(chantierTag, sanitizedNotEmptyValidation)
	_ = v.RegisterValidation(rapportTypeTag, sanitizedNotEmptyValidation)
	_ = v.RegisterValidation(dateTag, dateValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, chantierTag, rapportTypeTag, dateTag} {
		_ = v.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}

	return &StructValidator{validate: v, translator: translator}
}

// Validate retourne un ValidationResult au format de l'API
func (sv *StructValidator) Validate(s interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	err := sv.validate.Struct(s)
	if err == nil {
		return result
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.AddError("body", "", err.Error(), "INVALID_PAYLOAD")
		return result
	}

	for _, fe := range fieldErrs {
		code, ok := tagCodes[fe.Tag()]
		if !ok {
			code = "INVALID_" + strings.ToUpper(fe.Tag())
		}
		result.AddError(fe.Field(), fmt.Sprintf("%v", fe.Value()), fe.Translate(sv.translator), code)
	}

	return result
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fmt.Sprintf("%s cannot be blank", fe.Field())
	case chantierTag:
		return "chantier must contain at least one ASCII letter or digit"
	case rapportTypeTag:
		return "type must contain at least one ASCII letter or digit"
	case dateTag:
		return fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", fe.Field())
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// Un segment vide après sanitization donnerait un chemin RAPPORT/PDF//...
func sanitizedNotEmptyValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return rapport.Sanitize(str) != ""
	}
	return false
}

func dateValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		date, err := rapport.ParseDate(str)
		return err == nil && rapport.CheckDate(date) == nil
	}
	return false
}
