package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/testutil"
	"github.com/go4it/builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimGeneration_ConcurrentClaimsFromPendingBothLand(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	gen := testutil.SeedGeneration(t, db)
	ctx := context.Background()

	// GENERATING is claimable too, so a restart racing the first claim is not a conflict
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = services.ClaimGeneration(ctx, db, gen.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	got, err := services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerating, got.Status)
}

func TestClaimGeneration_TerminalIsConflict(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	for _, status := range []string{models.GenerationRunning, models.GenerationFailed} {
		gen := testutil.SeedGeneration(t, db, testutil.WithStatus(status))
		_, err := services.ClaimGeneration(ctx, db, gen.ID)
		assert.ErrorIs(t, err, types.ErrConflict)

		got, err := services.GetGeneratedApp(ctx, db, gen.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
	}

	_, err := services.ClaimGeneration(ctx, db, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCompleteGeneration_WritesAppAndStatusTogether(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	gen := testutil.SeedGeneration(t, db, testutil.WithStatus(models.GenerationGenerating))

	app, err := services.CompleteGeneration(ctx, db, gen.ID, services.GenerationResult{
		Title:       "Groomer",
		Description: "Bookings",
		SourceDir:   "/ws/" + gen.ID,
	})
	require.NoError(t, err)

	got, err := services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.True(t, got.Succeeded())
	assert.Equal(t, app.ID, *got.AppID)
	assert.Equal(t, "/ws/"+gen.ID, *got.SourceDir)

	// Completing again fails and creates no second app
	_, err = services.CompleteGeneration(ctx, db, gen.ID, services.GenerationResult{Title: "Again"})
	assert.ErrorIs(t, err, types.ErrConflict)
	var count int64
	require.NoError(t, db.Model(&models.App{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkGenerationFailed_LeavesSucceededAlone(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	gen := testutil.SeedGeneration(t, db, testutil.WithStatus(models.GenerationRunning), testutil.WithApp("app-1"))

	require.NoError(t, services.MarkGenerationFailed(ctx, db, gen.ID, "late failure"))

	got, err := services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationRunning, got.Status)
	assert.Nil(t, got.Error)
}

func TestIterationLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	gen := testutil.SeedGeneration(t, db, testutil.WithStatus(models.GenerationRunning), testutil.WithSourceDir("/ws/x"), testutil.WithApp("app-1"))
	it := testutil.SeedIteration(t, db, gen.ID, 1, models.IterationPending)

	_, claimed, err := services.ClaimIteration(ctx, db, gen.ID, it.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IterationIterating, claimed.Status)

	_, _, err = services.ClaimIteration(ctx, db, gen.ID, it.ID)
	assert.ErrorIs(t, err, types.ErrConflict)

	require.NoError(t, services.CompleteIteration(ctx, db, gen.ID, it.ID))
	got, err := services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.IterationCount)

	// Terminal iterations are immutable
	require.NoError(t, services.MarkIterationFailed(ctx, db, it.ID, "nope"))
	var stored models.AppIteration
	require.NoError(t, db.Where("id = ?", it.ID).First(&stored).Error)
	assert.Equal(t, models.IterationComplete, stored.Status)
	assert.Nil(t, stored.Error)
}

func TestClaimIteration_RequiresSucceededGeneration(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	for _, status := range []string{models.GenerationFailed, models.GenerationGenerating} {
		gen := testutil.SeedGeneration(t, db, testutil.WithStatus(status), testutil.WithSourceDir("/ws/partial"))
		it := testutil.SeedIteration(t, db, gen.ID, 1, models.IterationPending)

		_, _, err := services.ClaimIteration(ctx, db, gen.ID, it.ID)
		assert.ErrorIs(t, err, types.ErrConflict)

		var stored models.AppIteration
		require.NoError(t, db.Where("id = ?", it.ID).First(&stored).Error)
		assert.Equal(t, models.IterationPending, stored.Status)
	}
}

func TestGetGeneratedAppForOwner(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	gen := testutil.SeedGeneration(t, db)

	got, err := services.GetGeneratedAppForOwner(ctx, db, gen.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, gen.ID, got.ID)

	_, err = services.GetGeneratedAppForOwner(ctx, db, gen.ID, "user-2")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestClaimDeploy(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	app := testutil.SeedApp(t, db)
	testutil.SeedGeneration(t, db, testutil.WithStatus(models.GenerationRunning), testutil.WithApp(app.ID), testutil.WithSourceDir("/ws/a"))
	org := testutil.SeedOrgApp(t, db, app.ID, models.OrgAppPreview, nil)

	target, err := services.ClaimDeploy(ctx, db, org.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgAppPreview, target.OrgApp.Status)
	assert.Equal(t, app.ID, *target.Generation.AppID)

	var stored models.OrgApp
	require.NoError(t, db.Where("id = ?", org.ID).First(&stored).Error)
	assert.Equal(t, models.OrgAppDeploying, stored.Status)
	require.NotNil(t, stored.DeployingFrom)
	assert.Equal(t, models.OrgAppPreview, *stored.DeployingFrom)

	// A record stuck in DEPLOYING is claimed again with the status it had before
	again, err := services.ClaimDeploy(ctx, db, org.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgAppPreview, again.OrgApp.Status)

	require.NoError(t, services.MarkDeployFailed(ctx, db, org.ID, "boom"))
	require.NoError(t, db.Where("id = ?", org.ID).First(&stored).Error)
	assert.Nil(t, stored.DeployingFrom)

	stuck := testutil.SeedOrgApp(t, db, app.ID, models.OrgAppDeploying, nil)
	reclaimed, err := services.ClaimDeploy(ctx, db, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrgAppPending, reclaimed.OrgApp.Status)

	orphan := testutil.SeedOrgApp(t, db, "no-such-app", models.OrgAppPending, nil)
	_, err = services.ClaimDeploy(ctx, db, orphan.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCompleteDeploy_ClearsOnlyMatchingStorePreview(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	expires := time.Now().UTC().Add(time.Hour)
	gen := testutil.SeedGeneration(t, db, testutil.WithPreview("p1", expires))
	app := testutil.SeedApp(t, db)
	org := testutil.SeedOrgApp(t, db, app.ID, models.OrgAppDeploying, nil)

	// A different Fly app does not consume the preview
	require.NoError(t, services.CompleteDeploy(ctx, db, org.ID, services.DeployOutcome{
		FlyAppID: "other", FlyURL: "https://other.fly.dev", Status: models.OrgAppRunning, ConsumedGenerationID: gen.ID,
	}))
	got, err := services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PreviewFlyAppID)

	require.NoError(t, services.CompleteDeploy(ctx, db, org.ID, services.DeployOutcome{
		FlyAppID: "p1", FlyURL: "https://p1.fly.dev", Status: models.OrgAppRunning, DeployedVersion: 2, ConsumedGenerationID: gen.ID,
	}))
	got, err = services.GetGeneratedApp(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PreviewFlyAppID)
	assert.Nil(t, got.PreviewFlyURL)
	assert.Nil(t, got.PreviewExpiresAt)

	var stored models.OrgApp
	require.NoError(t, db.Where("id = ?", org.ID).First(&stored).Error)
	assert.Equal(t, models.OrgAppRunning, stored.Status)
	assert.Equal(t, 2, stored.DeployedVersion)
}

func TestPreviewQueries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := testutil.SeedGeneration(t, db, testutil.WithPreview("old", now.Add(-time.Hour)))
	testutil.SeedGeneration(t, db, testutil.WithPreview("new", now.Add(time.Hour)))
	testutil.SeedGeneration(t, db)

	gens, err := services.ListExpiredPreviews(ctx, db, now)
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, expired.ID, gens[0].ID)

	active, err := services.StorePreviewActive(ctx, db, "new", now)
	require.NoError(t, err)
	assert.True(t, active)
	active, err = services.StorePreviewActive(ctx, db, "old", now)
	require.NoError(t, err)
	assert.False(t, active)

	fly := "old"
	app := testutil.SeedApp(t, db)
	org := testutil.SeedOrgApp(t, db, app.ID, models.OrgAppPreview, &fly)
	inUse, err := services.FlyAppInUse(ctx, db, "old")
	require.NoError(t, err)
	assert.True(t, inUse)

	require.NoError(t, db.Model(org).Update("preview_expires_at", now.Add(-time.Minute)).Error)
	orgs, err := services.ListExpiredOrgPreviews(ctx, db, now)
	require.NoError(t, err)
	require.Len(t, orgs, 1)

	require.NoError(t, services.StopOrgApp(ctx, db, org.ID))
	inUse, err = services.FlyAppInUse(ctx, db, "old")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestHealthCheck(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		DBType:           "sqlite-pure",
		GeneratorCommand: "sh",
		WorkspaceRoot:    t.TempDir(),
	}

	result := services.HealthCheck(cfg, db)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Generator)
	assert.Equal(t, "disabled", result.Fly)
	assert.Equal(t, "ok", result.Workspace)

	cfg.FlyEnabled = true
	cfg.FlyCommand = "fly-binary-that-does-not-exist"
	result = services.HealthCheck(cfg, db)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "missing", result.Fly)
	assert.Contains(t, result.ErrorMessage, "fly check failed")
}
