// Package testutil holds database fixtures shared by package tests and the dev container launcher.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/database"
	"github.com/go4it/builder/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewSQLiteDB returns a migrated pure-Go SQLite database in a temp dir, closed with the test
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBType:            "sqlite-pure",
		DBDatabase:        filepath.Join(t.TempDir(), "builder.db"),
		DBConnectionLimit: 1,
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// GenerationOption tweaks a seeded generation
type GenerationOption func(*models.GeneratedApp)

// WithStatus sets the generation status
func WithStatus(status string) GenerationOption {
	return func(g *models.GeneratedApp) { g.Status = status }
}

// WithSourceDir sets the generation's workspace
func WithSourceDir(dir string) GenerationOption {
	return func(g *models.GeneratedApp) { g.SourceDir = &dir }
}

// WithPreview sets the store preview fields
func WithPreview(flyAppID string, expiresAt time.Time) GenerationOption {
	return func(g *models.GeneratedApp) {
		url := "https://" + flyAppID + ".fly.dev"
		g.PreviewFlyAppID = &flyAppID
		g.PreviewFlyURL = &url
		g.PreviewExpiresAt = &expiresAt
	}
}

// WithApp links the generation to a published app
func WithApp(appID string) GenerationOption {
	return func(g *models.GeneratedApp) { g.AppID = &appID }
}

// SeedGeneration inserts a PENDING generation owned by "user-1" unless options say otherwise
func SeedGeneration(t *testing.T, db *gorm.DB, opts ...GenerationOption) *models.GeneratedApp {
	t.Helper()
	gen := &models.GeneratedApp{
		ID:          uuid.NewString(),
		Prompt:      "A scheduling app for a dog grooming salon",
		Status:      models.GenerationPending,
		CreatedByID: "user-1",
	}
	for _, opt := range opts {
		opt(gen)
	}
	if err := db.Create(gen).Error; err != nil {
		t.Fatalf("Failed to seed generation: %v", err)
	}
	return gen
}

// SeedIteration inserts an iteration for a generation
func SeedIteration(t *testing.T, db *gorm.DB, generationID string, seq int, status string) *models.AppIteration {
	t.Helper()
	it := &models.AppIteration{
		ID:             uuid.NewString(),
		GeneratedAppID: generationID,
		SequenceNumber: seq,
		Prompt:         "Add online booking",
		Status:         status,
	}
	if err := db.Create(it).Error; err != nil {
		t.Fatalf("Failed to seed iteration: %v", err)
	}
	return it
}

// SeedApp inserts a published app
func SeedApp(t *testing.T, db *gorm.DB) *models.App {
	t.Helper()
	app := &models.App{ID: uuid.NewString(), Title: "Groomer", CreatedByID: "user-1"}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("Failed to seed app: %v", err)
	}
	return app
}

// SeedOrgApp inserts an org deployment of appID
func SeedOrgApp(t *testing.T, db *gorm.DB, appID, status string, flyAppID *string) *models.OrgApp {
	t.Helper()
	org := &models.OrgApp{
		ID:             uuid.NewString(),
		OrganizationID: "org-1",
		AppID:          appID,
		Status:         status,
		FlyAppID:       flyAppID,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("Failed to seed org app: %v", err)
	}
	return org
}
