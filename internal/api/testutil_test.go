package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"chantier-rapports/internal/auth"
	"chantier-rapports/internal/database"
	"chantier-rapports/internal/rapports"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/memory"
	"chantier-rapports/internal/storage/provisioner"
	pkgstorage "chantier-rapports/pkg/storage"
)

var testRetry = provisioner.RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond, Multiplier: 2}

type testServer struct {
	router *gin.Engine
	tokens *auth.TokenManager
	store  pkgstorage.Storage
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithStore(t, memory.NewMemoryStorage())
}

func newTestServerWithStore(t *testing.T, store pkgstorage.Storage) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(sqlite.Open(":memory:"), "silent")
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	prov := provisioner.New(store, provisioner.Config{Retry: testRetry, Timeout: time.Second})
	storageService := storage.NewStorageService(store, prov, testRetry)
	rapportService := rapports.NewRapportService(rapports.NewRapportRepository(db.DB), storageService)

	tokens := auth.NewTokenManager("test-secret", time.Hour)

	router := SetupRouter(RouterConfig{
		RapportService: rapportService,
		StorageService: storageService,
		Tokens:         tokens,
		DB:             db,
		Logger:         zerolog.Nop(),
		Environment:    "test",
		StorageType:    pkgstorage.TypeMemory,
		Swagger:        true,
	})

	return &testServer{router: router, tokens: tokens, store: store}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	raw, err := s.tokens.IssueToken("user-"+role, "Test "+role, role)
	require.NoError(t, err)
	return raw
}

func (s *testServer) do(t *testing.T, role, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, role))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, role, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, role, method, target, body, "application/json")
}

// multipartBody construit un formulaire avec un ou plusieurs fichiers sous field
func multipartBody(t *testing.T, field string, files map[string][]byte) (io.Reader, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	require.Equal(t, code, w.Code, w.Body.String())
}

