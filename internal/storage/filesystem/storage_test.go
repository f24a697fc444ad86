package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chantier-rapports/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewFilesystemStorage(tempDir)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	t.Run("Upload and Download", func(t *testing.T) {
		testData := "%PDF-1.7 rapport"
		testPath := "RAPPORT/PDF/Tour_A/incident/Tour_A_incident_20241205.pdf"

		err := store.Upload(ctx, testPath, strings.NewReader(testData))
		assert.NoError(t, err)

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		reader, err := store.Download(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, testData, string(content))
	})

	t.Run("Upload overwrites existing file", func(t *testing.T) {
		testPath := "RAPPORT/overwrite.pdf"
		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("v1")))
		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("v2")))

		reader, err := store.Download(ctx, testPath)
		require.NoError(t, err)
		defer reader.Close()
		content, _ := io.ReadAll(reader)
		assert.Equal(t, "v2", string(content))
	})

	t.Run("List files", func(t *testing.T) {
		files := map[string]string{
			"list/PDF/chantier1/a.pdf":         "a",
			"list/PDF/chantier1/b.pdf":         "b",
			"list/PDF/chantier2/c.pdf":         "c",
			"list/PHOTOS/chantier1/photo_0.jpg": "d",
		}

		for path, content := range files {
			require.NoError(t, store.Upload(ctx, path, strings.NewReader(content)))
		}

		pdfFiles, err := store.List(ctx, "list/PDF/")
		assert.NoError(t, err)
		assert.Len(t, pdfFiles, 3)

		chantier1, err := store.List(ctx, "list/PDF/chantier1/")
		assert.NoError(t, err)
		assert.ElementsMatch(t, []string{"list/PDF/chantier1/a.pdf", "list/PDF/chantier1/b.pdf"}, chantier1)
	})

	t.Run("Delete file", func(t *testing.T) {
		testPath := "to-delete.pdf"

		require.NoError(t, store.Upload(ctx, testPath, strings.NewReader("delete me")))
		require.NoError(t, store.Delete(ctx, testPath))

		exists, err := store.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.False(t, exists)

		// Supprimer deux fois n'est pas une erreur
		assert.NoError(t, store.Delete(ctx, testPath))
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := store.Download(ctx, "non-existent.pdf")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		exists, err := store.Exists(ctx, "non-existent.pdf")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("EnsureDir is idempotent", func(t *testing.T) {
		dir := "RAPPORT/PDF/Nouveau/intervention"
		assert.NoError(t, store.EnsureDir(ctx, dir))
		assert.NoError(t, store.EnsureDir(ctx, dir))

		info, err := os.Stat(filepath.Join(tempDir, "RAPPORT", "PDF", "Nouveau", "intervention"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Path traversal rejected", func(t *testing.T) {
		err := store.Upload(ctx, "../outside.pdf", strings.NewReader("x"))
		assert.Error(t, err)

		err = store.EnsureDir(ctx, "RAPPORT/../../outside")
		assert.Error(t, err)
	})

	t.Run("GetURL returns relative path", func(t *testing.T) {
		url, err := store.GetURL(ctx, "/RAPPORT/x.pdf")
		assert.NoError(t, err)
		assert.Equal(t, "RAPPORT/x.pdf", url)
	})
}
