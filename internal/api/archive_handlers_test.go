package api

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chantier-rapports/internal/auth"
)

func TestFilterFiles(t *testing.T) {
	testFiles := []string{
		"intervention/Tour_A_intervention_20241205.pdf",
		"intervention/Tour_A_intervention_20241206.pdf",
		"incident/Tour_A_incident_20241205.pdf",
		"visitechantier/Tour_A_visitechantier_20250110.pdf",
	}

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:     "no filters returns all files",
			expected: testFiles,
		},
		{
			name:    "include one type",
			include: []string{"intervention/*"},
			expected: []string{
				"intervention/Tour_A_intervention_20241205.pdf",
				"intervention/Tour_A_intervention_20241206.pdf",
			},
		},
		{
			name:    "exclude one type",
			exclude: []string{"intervention/*"},
			expected: []string{
				"incident/Tour_A_incident_20241205.pdf",
				"visitechantier/Tour_A_visitechantier_20250110.pdf",
			},
		},
		{
			name:    "include by date across types",
			include: []string{"*/*_20241205.pdf"},
			expected: []string{
				"intervention/Tour_A_intervention_20241205.pdf",
				"incident/Tour_A_incident_20241205.pdf",
			},
		},
		{
			name:     "include and exclude combined",
			include:  []string{"*/*_2024*.pdf"},
			exclude:  []string{"incident/*"},
			expected: []string{"intervention/Tour_A_intervention_20241205.pdf", "intervention/Tour_A_intervention_20241206.pdf"},
		},
		{
			name:     "star does not cross directories",
			include:  []string{"*.pdf"},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filterFiles(testFiles, tt.include, tt.exclude))
		})
	}
}

func TestSplitPatterns(t *testing.T) {
	assert.Nil(t, splitPatterns(""))
	assert.Equal(t, []string{"a/*", "b/*"}, splitPatterns(" a/* , ,b/* "))
}

func uploadPDF(t *testing.T, srv *testServer, typ, date, content string) {
	t.Helper()

	req := defaultRapport()
	req.Chantier = "Tour A"
	req.Type = typ
	req.Date = date
	created := createRapport(t, srv, req)

	body, ct := multipartBody(t, "file", map[string][]byte{"r.pdf": []byte(content)})
	w := srv.do(t, auth.RoleChefChantier, http.MethodPut, "/api/v1/rapports/"+created.ID.String()+"/pdf", body, ct)
	assertStatus(t, w, http.StatusCreated)
}

func TestChantierArchive(t *testing.T) {
	srv := newTestServer(t)
	uploadPDF(t, srv, "intervention", "2024-12-05", "%PDF one")
	uploadPDF(t, srv, "incident", "2024-12-06", "%PDF two")

	t.Run("zip", func(t *testing.T) {
		w := srv.do(t, auth.RoleLecteur, http.MethodGet, "/api/v1/storage/chantiers/Tour%20A/archive", nil, "")
		assertStatus(t, w, http.StatusOK)
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Equal(t, "2", w.Header().Get("X-Archive-Files-Count"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "Tour_A-rapports-")

		body := w.Body.Bytes()
		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		require.NoError(t, err)

		contents := map[string]string{}
		for _, f := range zr.File {
			rc, err := f.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			contents[f.Name] = string(data)
		}
		assert.Equal(t, map[string]string{
			"intervention/Tour_A_intervention_20241205.pdf": "%PDF one",
			"incident/Tour_A_incident_20241206.pdf":         "%PDF two",
		}, contents)
	})

	t.Run("tar.gz with filter", func(t *testing.T) {
		w := srv.do(t, auth.RoleLecteur, http.MethodGet,
			"/api/v1/storage/chantiers/Tour%20A/archive?format=tar&include=incident/*", nil, "")
		assertStatus(t, w, http.StatusOK)
		assert.Equal(t, "application/gzip", w.Header().Get("Content-Type"))

		gz, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		tr := tar.NewReader(gz)

		var names []string
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			names = append(names, hdr.Name)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"incident/Tour_A_incident_20241206.pdf"}, names)
	})

	t.Run("nothing matches", func(t *testing.T) {
		w := srv.do(t, auth.RoleLecteur, http.MethodGet,
			"/api/v1/storage/chantiers/Tour%20A/archive?include=reception/*", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown chantier", func(t *testing.T) {
		w := srv.do(t, auth.RoleLecteur, http.MethodGet, "/api/v1/storage/chantiers/Autre/archive", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestValidateArchiveParams(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
		code  string
	}{
		{name: "bad format", query: "format=rar", code: "INVALID_FORMAT"},
		{name: "bad compress", query: "compress=yes", code: "INVALID_BOOLEAN"},
		{name: "malformed pattern", query: "include=%5B", code: "INVALID_PATTERN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, auth.RoleLecteur, http.MethodGet, "/api/v1/storage/chantiers/Tour_A/archive?"+tt.query, nil, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}
