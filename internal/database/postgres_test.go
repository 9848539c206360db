package database_test

import (
	"context"
	"testing"

	"github.com/go4it/builder/internal/database"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/testutil"
	"github.com/go4it/builder/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAndClaim_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	if !testutil.DockerAvailable(ctx) {
		t.Skip("docker is not available")
	}

	pg, err := testutil.StartPostgres(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { pg.Terminate(context.Background()) })

	db, err := database.Connect(pg.Config())
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Migrate(db))

	businessContext, err := models.NewJSON(map[string]int{"employees": 4})
	require.NoError(t, err)
	gen := &models.GeneratedApp{
		ID:              uuid.NewString(),
		Prompt:          "Inventory for a bike shop",
		BusinessContext: businessContext,
		Status:          models.GenerationPending,
		CreatedByID:     "user-1",
	}
	require.NoError(t, db.Create(gen).Error)

	claimed, err := services.ClaimGeneration(ctx, db, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationGenerating, claimed.Status)
	assert.JSONEq(t, `{"employees":4}`, string(claimed.BusinessContext.JSON))

	_, err = services.CompleteGeneration(ctx, db, gen.ID, services.GenerationResult{Title: "Bikes", SourceDir: "/ws/bikes"})
	require.NoError(t, err)

	_, err = services.ClaimGeneration(ctx, db, gen.ID)
	assert.ErrorIs(t, err, types.ErrConflict)
}
