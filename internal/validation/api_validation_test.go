package validation

import (
	"strings"
	"testing"
	"time"

	"chantier-rapports/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreateRapportRequest(t *testing.T) {
	v := NewAPIValidator(nil)

	valid := models.CreateRapportRequest{
		Chantier: "Résidence Les Pins #3",
		Type:     "intervention",
		Date:     "2024-12-05",
	}

	testCases := []struct {
		name   string
		mutate func(r *models.CreateRapportRequest)
		field  string
		code   string
	}{
		{"valid", func(r *models.CreateRapportRequest) {}, "", ""},
		{"missing chantier", func(r *models.CreateRapportRequest) { r.Chantier = "" }, "chantier", "REQUIRED"},
		{"blank chantier", func(r *models.CreateRapportRequest) { r.Chantier = "   " }, "chantier", "REQUIRED"},
		{"chantier without ascii", func(r *models.CreateRapportRequest) { r.Chantier = "###" }, "chantier", "INVALID_CHANTIER"},
		{"type without ascii", func(r *models.CreateRapportRequest) { r.Type = "é" }, "type", "INVALID_TYPE"},
		{"bad date", func(r *models.CreateRapportRequest) { r.Date = "05/12/2024" }, "date", "INVALID_DATE"},
		{"five digit year", func(r *models.CreateRapportRequest) { r.Date = "12345-01-02" }, "date", "INVALID_DATE"},
		{"long description", func(r *models.CreateRapportRequest) { r.Description = strings.Repeat("x", 5001) }, "description", "TOO_LONG"},
		{"long metadata key", func(r *models.CreateRapportRequest) {
			r.Metadata = map[string]interface{}{strings.Repeat("k", 101): "v"}
		}, "metadata", "KEY_TOO_LONG"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			result := v.ValidateCreateRapportRequest(&req)
			if tc.code == "" {
				assert.True(t, result.Valid, "%+v", result.Errors)
				return
			}

			require.False(t, result.Valid)
			assert.Equal(t, tc.field, result.Errors[0].Field)
			assert.Equal(t, tc.code, result.Errors[0].Code)
			assert.NotEmpty(t, result.Errors[0].Message)
		})
	}
}

func TestValidateNamingRequest(t *testing.T) {
	v := NewAPIValidator(nil)

	key, result := v.ValidateNamingRequest(&models.NamingRequest{
		Chantier: "Tour A", Type: "incident", Date: "2024-12-05",
	})
	require.True(t, result.Valid)
	assert.Equal(t, time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC), key.Date)
	assert.Equal(t, "RAPPORT/PDF/Tour_A/incident/Tour_A_incident_20241205.pdf", key.StoragePath())

	_, result = v.ValidateNamingRequest(&models.NamingRequest{Chantier: "Tour A", Type: "incident"})
	assert.False(t, result.Valid)
	assert.True(t, hasCode(result, "REQUIRED"))
}

func TestValidateRapportIDParam(t *testing.T) {
	v := NewAPIValidator(nil)

	id := uuid.New()
	parsed, result := v.ValidateRapportIDParam(id.String())
	assert.True(t, result.Valid)
	assert.Equal(t, id, parsed)

	_, result = v.ValidateRapportIDParam("not-a-uuid")
	assert.True(t, hasCode(result, "INVALID_UUID"))

	_, result = v.ValidateRapportIDParam("")
	assert.True(t, hasCode(result, "REQUIRED"))
}

func TestValidateListRapportsParams(t *testing.T) {
	v := NewAPIValidator(nil)

	params, result := v.ValidateListRapportsParams("Tour A", "incident", "", "")
	require.True(t, result.Valid)
	assert.Equal(t, 100, params.Pagination.Limit)
	assert.Equal(t, 0, params.Pagination.Offset)

	params, result = v.ValidateListRapportsParams("", "", "25", "50")
	require.True(t, result.Valid)
	assert.Equal(t, PaginationParams{Limit: 25, Offset: 50}, params.Pagination)

	_, result = v.ValidateListRapportsParams("###", "", "-1", "abc")
	assert.False(t, result.Valid)
	assert.True(t, hasCode(result, "INVALID_CHANTIER"))
	assert.True(t, hasCode(result, "NEGATIVE_LIMIT"))
	assert.True(t, hasCode(result, "INVALID_OFFSET"))

	_, result = v.ValidateListRapportsParams("", "", "5000", "")
	assert.True(t, hasCode(result, "LIMIT_TOO_LARGE"))
}

func TestValidateProvisionRequest(t *testing.T) {
	v := NewAPIValidator(nil)

	assert.True(t, v.ValidateProvisionRequest(&models.ProvisionRequest{Path: "RAPPORT/PDF/Tour_A"}).Valid)
	assert.True(t, hasCode(v.ValidateProvisionRequest(&models.ProvisionRequest{}), "REQUIRED"))
	assert.True(t, hasCode(v.ValidateProvisionRequest(&models.ProvisionRequest{Path: "../x"}), "PATH_TRAVERSAL"))
}

func TestValidateStoragePrefix(t *testing.T) {
	v := NewAPIValidator(nil)

	assert.True(t, v.ValidateStoragePrefix("").Valid)
	assert.True(t, v.ValidateStoragePrefix("RAPPORT/PDF/").Valid)

	result := v.ValidateStoragePrefix("RAPPORT/../etc")
	require.False(t, result.Valid)
	assert.Equal(t, "prefix", result.Errors[0].Field)
	assert.Equal(t, "PATH_TRAVERSAL", result.Errors[0].Code)
}
