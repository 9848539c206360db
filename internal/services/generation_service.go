// generation_service.go
//
// GO4IT builder: background generation, preview and deployment service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of go4it-builder.
// go4it-builder is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// go4it-builder is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with go4it-builder.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GenerationResult carries the outputs of a successful generation pipeline
type GenerationResult struct {
	Title       string
	Description string
	SourceDir   string
	Screenshot  *string
}

// quiet returns a session that skips GORM's query log for hot-path lookups
func quiet(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// GetGeneratedApp loads a generation by id
func GetGeneratedApp(ctx context.Context, db *gorm.DB, id string) (*models.GeneratedApp, error) {
	var gen models.GeneratedApp
	if err := quiet(ctx, db).Where("id = ?", id).First(&gen).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("generation %s: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	return &gen, nil
}

// GetGeneratedAppForOwner loads a generation and its iterations, visible only to its creator.
// A generation owned by somebody else is reported as not found.
func GetGeneratedAppForOwner(ctx context.Context, db *gorm.DB, id, ownerID string) (*models.GeneratedApp, error) {
	var gen models.GeneratedApp
	err := quiet(ctx, db).
		Preload("Iterations", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_number ASC")
		}).
		Where("id = ? AND created_by_id = ?", id, ownerID).
		First(&gen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("generation %s: %w", id, types.ErrNotFound)
		}
		return nil, err
	}
	return &gen, nil
}

// ClaimGeneration moves a generation into GENERATING with a guarded update.
// Only PENDING or GENERATING records can be claimed; anything else is a conflict.
func ClaimGeneration(ctx context.Context, db *gorm.DB, id string) (*models.GeneratedApp, error) {
	res := db.WithContext(ctx).Model(&models.GeneratedApp{}).
		Where("id = ? AND status IN ?", id, []string{models.GenerationPending, models.GenerationGenerating}).
		Updates(map[string]interface{}{
			"status": models.GenerationGenerating,
			"error":  nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	gen, err := GetGeneratedApp(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("generation %s is %s: %w", id, gen.Status, types.ErrConflict)
	}
	return gen, nil
}

// MarkGenerationFailed records a terminal failure. Records that already succeeded are left alone.
func MarkGenerationFailed(ctx context.Context, db *gorm.DB, id, message string) error {
	return db.WithContext(ctx).Model(&models.GeneratedApp{}).
		Where("id = ? AND status <> ?", id, models.GenerationRunning).
		Updates(map[string]interface{}{
			"status": models.GenerationFailed,
			"error":  message,
		}).Error
}

// SetSourceDir records the workspace path as soon as it exists so cleanup can find it
func SetSourceDir(ctx context.Context, db *gorm.DB, id, dir string) error {
	return db.WithContext(ctx).Model(&models.GeneratedApp{}).
		Where("id = ?", id).
		Update("source_dir", dir).Error
}

// CompleteGeneration publishes the App and marks the generation RUNNING in one transaction,
// so a non-nil AppID always means the whole pipeline finished.
func CompleteGeneration(ctx context.Context, db *gorm.DB, id string, result GenerationResult) (*models.App, error) {
	var app models.App

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gen models.GeneratedApp
		if err := tx.Where("id = ?", id).First(&gen).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("generation %s: %w", id, types.ErrNotFound)
			}
			return err
		}

		app = models.App{
			ID:          uuid.NewString(),
			Title:       result.Title,
			Description: result.Description,
			CreatedByID: gen.CreatedByID,
			Screenshot:  result.Screenshot,
		}
		if err := tx.Create(&app).Error; err != nil {
			return err
		}

		res := tx.Model(&models.GeneratedApp{}).
			Where("id = ? AND status = ?", id, models.GenerationGenerating).
			Updates(map[string]interface{}{
				"status":      models.GenerationRunning,
				"app_id":      app.ID,
				"title":       result.Title,
				"description": result.Description,
				"source_dir":  result.SourceDir,
				"screenshot":  result.Screenshot,
				"error":       nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("generation %s left GENERATING before completion: %w", id, types.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &app, nil
}

// ClaimIteration validates an iteration request and moves the iteration into ITERATING
func ClaimIteration(ctx context.Context, db *gorm.DB, generationID, iterationID string) (*models.GeneratedApp, *models.AppIteration, error) {
	gen, err := GetGeneratedApp(ctx, db, generationID)
	if err != nil {
		return nil, nil, err
	}
	if gen.SourceDir == nil || *gen.SourceDir == "" {
		return nil, nil, fmt.Errorf("generation %s has no source directory: %w", generationID, types.ErrNotFound)
	}
	// The workspace path is recorded before the generator runs, so only a finished generation has usable source
	if !gen.Succeeded() {
		return nil, nil, fmt.Errorf("generation %s is %s: %w", generationID, gen.Status, types.ErrConflict)
	}

	res := db.WithContext(ctx).Model(&models.AppIteration{}).
		Where("id = ? AND generated_app_id = ? AND status = ?", iterationID, generationID, models.IterationPending).
		Updates(map[string]interface{}{
			"status": models.IterationIterating,
			"error":  nil,
		})
	if res.Error != nil {
		return nil, nil, res.Error
	}

	var iteration models.AppIteration
	if err := quiet(ctx, db).Where("id = ? AND generated_app_id = ?", iterationID, generationID).First(&iteration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("iteration %s: %w", iterationID, types.ErrNotFound)
		}
		return nil, nil, err
	}
	if res.RowsAffected == 0 {
		return nil, nil, fmt.Errorf("iteration %s is %s: %w", iterationID, iteration.Status, types.ErrConflict)
	}

	return gen, &iteration, nil
}

// CompleteIteration marks the iteration COMPLETE and bumps the generation's iteration count
func CompleteIteration(ctx context.Context, db *gorm.DB, generationID, iterationID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.AppIteration{}).
			Where("id = ? AND status = ?", iterationID, models.IterationIterating).
			Update("status", models.IterationComplete)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("iteration %s left ITERATING before completion: %w", iterationID, types.ErrConflict)
		}

		return tx.Model(&models.GeneratedApp{}).
			Where("id = ?", generationID).
			Update("iteration_count", gorm.Expr("iteration_count + ?", 1)).Error
	})
}

// MarkIterationFailed records a terminal iteration failure
func MarkIterationFailed(ctx context.Context, db *gorm.DB, iterationID, message string) error {
	return db.WithContext(ctx).Model(&models.AppIteration{}).
		Where("id = ? AND status <> ?", iterationID, models.IterationComplete).
		Updates(map[string]interface{}{
			"status": models.IterationFailed,
			"error":  message,
		}).Error
}
