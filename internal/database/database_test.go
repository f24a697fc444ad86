package database

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"chantier-rapports/pkg/models"
)

func openTestDB(t *testing.T, level string) *DB {
	t.Helper()

	db, err := Open(sqlite.Open(":memory:"), level)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrateAndPing(t *testing.T) {
	db := openTestDB(t, "silent")
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Ping(ctx))
	assert.True(t, db.Migrator().HasTable(&models.Rapport{}))
}

func TestNowIsUTCMilliseconds(t *testing.T) {
	now := Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Equal(t, 0, now.Nanosecond()%int(time.Millisecond))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("warn"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
	assert.Equal(t, logger.Silent, gormLogLevel("info"))
}

func TestLogAdapterWritesSQL(t *testing.T) {
	var buf bytes.Buffer
	z := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := z.WithContext(context.Background())

	db := openTestDB(t, "debug")
	require.NoError(t, db.WithContext(ctx).AutoMigrate(&models.Rapport{}))

	buf.Reset()
	var rapports []models.Rapport
	require.NoError(t, db.WithContext(ctx).Find(&rapports).Error)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Contains(t, entry["sql"], "SELECT * FROM `rapports`")
	assert.Equal(t, "gorm query", entry["message"])
}

func TestLogAdapterSilent(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	db := openTestDB(t, "silent")
	require.NoError(t, db.WithContext(ctx).AutoMigrate(&models.Rapport{}))
	assert.Empty(t, buf.String())
}
