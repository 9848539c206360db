package database

import (
	"path/filepath"
	"testing"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		dbType string
		name   string
	}{
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite-pure", "sqlite"},
		{"sqlserver", "sqlserver"},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBType: tt.dbType, DBHost: "localhost", DBDatabase: "builder"})
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{
		DBType:            "sqlite-pure",
		DBDatabase:        filepath.Join(t.TempDir(), "builder.db"),
		DBConnectionLimit: 5,
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	// Applying twice is a no-op
	require.NoError(t, Migrate(db))

	for _, model := range []interface{}{&models.GeneratedApp{}, &models.AppIteration{}, &models.App{}, &models.OrgApp{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
