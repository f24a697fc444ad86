package rapports

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"chantier-rapports/internal/database"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/memory"
	"chantier-rapports/internal/storage/provisioner"
	"chantier-rapports/pkg/models"
)

var fastRetry = provisioner.RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond, Multiplier: 2}

type testEnv struct {
	db      *database.DB
	store   *memory.Storage
	repo    RapportRepository
	service *rapportServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), "silent")
	require.NoError(t, err)

	// Une seule connexion : chaque connexion ":memory:" ouvre une base distincte
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	store := memory.NewMemoryStorage()
	prov := provisioner.New(store, provisioner.Config{Retry: fastRetry, Timeout: time.Second})
	storageService := storage.NewStorageService(store, prov, fastRetry)

	repo := NewRapportRepository(db.DB)
	svc := NewRapportService(repo, storageService).(*rapportServiceImpl)

	return &testEnv{db: db, store: store, repo: repo, service: svc}
}

func createRequest() *models.CreateRapportRequest {
	return &models.CreateRapportRequest{
		Chantier: "Résidence Les Pins #3",
		Type:     "intervention",
		Date:     "2024-12-05",
		Author:   "M. Durand",
		Metadata: map[string]interface{}{"lot": "gros oeuvre"},
	}
}

func TestCreateAndGetRapport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, models.StatusDraft, created.Status)

	got, err := env.service.GetRapport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-05", got.Date)
	assert.Equal(t, "gros oeuvre", got.Metadata["lot"])

	key, err := got.Key()
	require.NoError(t, err)
	assert.Equal(t, "RAPPORT/PDF/Rsidence_Les_Pins_3/intervention/Rsidence_Les_Pins_3_intervention_20241205.pdf", key.StoragePath())
}

func TestCreateRapportRejectsSamePath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)

	// Même chemin dérivé malgré une écriture différente
	dup := createRequest()
	dup.Chantier = "Résidence  Les Pins 3"
	_, err = env.service.CreateRapport(ctx, dup)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	other := createRequest()
	other.Type = "incident"
	_, err = env.service.CreateRapport(ctx, other)
	assert.NoError(t, err)
}

func TestCreateRapportConcurrentSamePath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.CreateRapport(ctx, createRequest())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyExists)
	}
	assert.Equal(t, 1, created)

	_, total, err := env.service.ListRapports(ctx, RapportFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestLivePathUniqueIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := &models.Rapport{Chantier: "Tour A", Type: "incident", Date: "2024-12-05"}
	require.NoError(t, env.db.WithContext(ctx).Create(first).Error)
	assert.Equal(t, "RAPPORT/PDF/Tour_A/incident/Tour_A_incident_20241205.pdf", first.PathKey)

	// Insertion directe, sans la vérification du repository
	second := &models.Rapport{Chantier: "Tour  A", Type: "incident", Date: "2024-12-05"}
	err := env.db.WithContext(ctx).Create(second).Error
	require.Error(t, err)
	assert.ErrorIs(t, translateError(err), ErrAlreadyExists)

	// Une fiche supprimée libère le chemin
	require.NoError(t, env.repo.SoftDelete(ctx, first.ID))
	assert.NoError(t, env.repo.Create(ctx, &models.Rapport{Chantier: "Tour A", Type: "incident", Date: "2024-12-05"}))
}

func TestGetRapportNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.GetRapport(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRapports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, date := range []string{"2024-12-01", "2024-12-02", "2024-12-03"} {
		req := createRequest()
		req.Date = date
		_, err := env.service.CreateRapport(ctx, req)
		require.NoError(t, err)
	}
	other := createRequest()
	other.Chantier = "Tour A"
	_, err := env.service.CreateRapport(ctx, other)
	require.NoError(t, err)

	rapports, total, err := env.service.ListRapports(ctx, RapportFilters{Chantier: "Résidence Les Pins #3", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rapports, 2)
	assert.Equal(t, "2024-12-03", rapports[0].Date)

	rapports, total, err = env.service.ListRapports(ctx, RapportFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, rapports, 4)
}

func TestAttachAndDownloadPDF(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)

	_, err = env.service.PDFURL(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNoPDF)

	result, err := env.service.AttachPDF(ctx, created.ID, []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.True(t, result.Folders.OK())
	assert.Equal(t, models.StatusFinal, result.Rapport.Status)
	assert.Equal(t, int64(13), result.Rapport.PDFSize)
	assert.NotEmpty(t, result.URL)

	_, reader, err := env.service.DownloadPDF(ctx, created.ID)
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(content))

	url, err := env.service.PDFURL(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, url, "Rsidence_Les_Pins_3_intervention_20241205.pdf")
}

func TestDownloadPDFMissingFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)

	_, _, err = env.service.DownloadPDF(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddPhotos(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)

	updated, result, err := env.service.AddPhotos(ctx, created.ID, []storage.PhotoUpload{
		{Name: "facade.jpg", Data: []byte("jpeg")},
		{Name: "toiture.png", Data: []byte("png")},
	})
	require.NoError(t, err)
	assert.Len(t, result.Uploaded, 2)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 2, updated.PhotoCount)

	photos, err := env.service.ListPhotos(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, photos, 2)

	reader, err := env.service.DownloadPhoto(ctx, created.ID, photos[0])
	require.NoError(t, err)
	reader.Close()

	_, err = env.service.DownloadPhoto(ctx, created.ID, "absente.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndPurge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.service.AttachPDF(ctx, created.ID, []byte("%PDF"))
	require.NoError(t, err)
	key, err := created.Key()
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteRapport(ctx, created.ID))
	assert.ErrorIs(t, env.service.DeleteRapport(ctx, created.ID), ErrNotFound)

	_, err = env.service.GetRapport(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Les fichiers restent tant que la purge n'est pas passée
	exists, err := env.store.Exists(ctx, key.StoragePath())
	require.NoError(t, err)
	assert.True(t, exists)

	purged, err := env.service.PurgeDeleted(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	env.service.now = func() time.Time { return database.Now().Add(48 * time.Hour) }
	purged, err = env.service.PurgeDeleted(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	exists, err = env.store.Exists(ctx, key.StoragePath())
	require.NoError(t, err)
	assert.False(t, exists)

	var count int64
	require.NoError(t, env.db.Unscoped().Model(&models.Rapport{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPurgeKeepsFilesOfRecreatedRapport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, env.service.DeleteRapport(ctx, first.ID))

	second, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)
	_, err = env.service.AttachPDF(ctx, second.ID, []byte("%PDF"))
	require.NoError(t, err)

	env.service.now = func() time.Time { return database.Now().Add(time.Hour) }
	purged, err := env.service.PurgeDeleted(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, reader, err := env.service.DownloadPDF(ctx, second.ID)
	require.NoError(t, err)
	reader.Close()
}

func TestCleanupServiceRunOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.service.CreateRapport(ctx, createRequest())
	require.NoError(t, err)
	require.NoError(t, env.service.DeleteRapport(ctx, created.ID))

	env.service.now = func() time.Time { return database.Now().Add(time.Hour) }
	cleanup := NewCleanupService(env.service, time.Hour, time.Minute)
	assert.Equal(t, int64(1), cleanup.RunOnce(ctx))
}

func TestCleanupServiceStops(t *testing.T) {
	env := newTestEnv(t)
	cleanup := NewCleanupService(env.service, 10*time.Millisecond, time.Hour)

	done := make(chan struct{})
	go func() {
		cleanup.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cleanup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup service did not stop")
	}
}
