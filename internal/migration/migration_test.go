package migration

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestLatestMigrationVersion(t *testing.T) {
	v, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestMigrationsChecksum_Stable(t *testing.T) {
	a, err := MigrationsChecksum()
	require.NoError(t, err)
	b, err := MigrationsChecksum()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestParseMigrationVersion(t *testing.T) {
	v, ok := parseMigrationVersion("000012_add_index.up.sql")
	assert.True(t, ok)
	assert.Equal(t, uint(12), v)

	_, ok = parseMigrationVersion("init.up.sql")
	assert.False(t, ok)
}

func TestEmbeddedSchemaCoversModels(t *testing.T) {
	content, err := embeddedMigrations.ReadFile(migrationsDir + "/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(content)
	for _, column := range []string{
		"payment_reference", "payment_status", "payment_update_time", "payment_payer_email",
		"checkout_session_id", "dispatched_at", "received_at",
	} {
		assert.True(t, strings.Contains(sql, column), column)
	}
}

func TestApply_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Apply(context.Background(), "sqlite", db, zap.NewNop()))

	for _, table := range []string{"orders", "order_items", "order_events", "webhook_events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn("orders", "payment_payer_email"))

	// idempotent
	require.NoError(t, Apply(context.Background(), "sqlite", db, zap.NewNop()))
}
