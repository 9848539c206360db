// deployment_service.go
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
	"log"
	"time"

	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// DeployTarget is everything a deployment job needs, captured before the status changes
type DeployTarget struct {
	OrgApp     models.OrgApp
	Generation models.GeneratedApp
}

// DeployOutcome is what a finished deployment writes back
type DeployOutcome struct {
	FlyAppID         string
	FlyURL           string
	Status           string
	DeployedVersion  int
	PreviewExpiresAt *time.Time
	// ConsumedGenerationID is set when the org took over the generation's store preview app
	ConsumedGenerationID string
}

// RecordPreview stores the preview deployment of a generation
func RecordPreview(ctx context.Context, db *gorm.DB, id, flyAppID, flyURL string, expiresAt time.Time) error {
	return db.WithContext(ctx).Model(&models.GeneratedApp{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"preview_fly_app_id": flyAppID,
			"preview_fly_url":    flyURL,
			"preview_expires_at": expiresAt,
		}).Error
}

// ClearPreview forgets a generation's preview app
func ClearPreview(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Model(&models.GeneratedApp{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"preview_fly_app_id": nil,
			"preview_fly_url":    nil,
			"preview_expires_at": nil,
		}).Error
}

// ClaimDeploy loads an org app with its source generation and moves it to DEPLOYING.
// The returned OrgApp keeps the status it had before the claim. A record already in
// DEPLOYING was left behind by a process that died mid-deploy and is claimed again with
// its earlier status, so callers must hold the org app's job key while claiming.
func ClaimDeploy(ctx context.Context, db *gorm.DB, orgAppID string) (*DeployTarget, error) {
	var target DeployTarget

	if err := quiet(ctx, db).Where("id = ?", orgAppID).First(&target.OrgApp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("org app %s: %w", orgAppID, types.ErrNotFound)
		}
		return nil, err
	}

	if err := quiet(ctx, db).Where("app_id = ?", target.OrgApp.AppID).First(&target.Generation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no generation for app %s: %w", target.OrgApp.AppID, types.ErrNotFound)
		}
		return nil, err
	}
	if target.Generation.SourceDir == nil || *target.Generation.SourceDir == "" {
		return nil, fmt.Errorf("generation %s has no source directory: %w", target.Generation.ID, types.ErrNotFound)
	}

	prior := target.OrgApp.Status
	if prior == models.OrgAppDeploying {
		prior = models.OrgAppPending
		if from := target.OrgApp.DeployingFrom; from != nil && *from != "" {
			prior = *from
		}
		log.Printf("Reclaiming org app %s left in DEPLOYING (was %s)", orgAppID, prior)
	}

	res := db.WithContext(ctx).Model(&models.OrgApp{}).
		Where("id = ? AND status = ?", orgAppID, target.OrgApp.Status).
		Updates(map[string]interface{}{
			"status":         models.OrgAppDeploying,
			"deploying_from": prior,
			"error":          nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("org app %s changed while claiming: %w", orgAppID, types.ErrConflict)
	}

	target.OrgApp.Status = prior
	target.OrgApp.DeployingFrom = &prior
	return &target, nil
}

// CompleteDeploy records a finished deployment. When the org consumed the store preview,
// the generation's preview fields are cleared in the same transaction so the reaper
// never destroys an app the org now owns.
func CompleteDeploy(ctx context.Context, db *gorm.DB, orgAppID string, outcome DeployOutcome) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrgApp{}).
			Where("id = ?", orgAppID).
			Updates(map[string]interface{}{
				"status":             outcome.Status,
				"fly_app_id":         outcome.FlyAppID,
				"fly_url":            outcome.FlyURL,
				"deployed_version":   outcome.DeployedVersion,
				"preview_expires_at": outcome.PreviewExpiresAt,
				"deploying_from":     nil,
				"error":              nil,
			}).Error; err != nil {
			return err
		}

		if outcome.ConsumedGenerationID == "" {
			return nil
		}
		return tx.Model(&models.GeneratedApp{}).
			Where("id = ? AND preview_fly_app_id = ?", outcome.ConsumedGenerationID, outcome.FlyAppID).
			Updates(map[string]interface{}{
				"preview_fly_app_id": nil,
				"preview_fly_url":    nil,
				"preview_expires_at": nil,
			}).Error
	})
}

// MarkDeployFailed records a failed deployment
func MarkDeployFailed(ctx context.Context, db *gorm.DB, orgAppID, message string) error {
	return db.WithContext(ctx).Model(&models.OrgApp{}).
		Where("id = ?", orgAppID).
		Updates(map[string]interface{}{
			"status":         models.OrgAppFailed,
			"deploying_from": nil,
			"error":          message,
		}).Error
}

// ListExpiredPreviews returns generations whose store preview has expired
func ListExpiredPreviews(ctx context.Context, db *gorm.DB, now time.Time) ([]models.GeneratedApp, error) {
	var gens []models.GeneratedApp
	err := quiet(ctx, db).
		Clauses(hints.CommentBefore("select", "builder:preview-reaper")).
		Where("preview_fly_app_id IS NOT NULL AND preview_expires_at IS NOT NULL AND preview_expires_at <= ?", now).
		Find(&gens).Error
	return gens, err
}

// ListExpiredOrgPreviews returns org apps whose preview launch has expired
func ListExpiredOrgPreviews(ctx context.Context, db *gorm.DB, now time.Time) ([]models.OrgApp, error) {
	var apps []models.OrgApp
	err := quiet(ctx, db).
		Clauses(hints.CommentBefore("select", "builder:preview-reaper")).
		Where("status = ? AND preview_expires_at IS NOT NULL AND preview_expires_at <= ?", models.OrgAppPreview, now).
		Find(&apps).Error
	return apps, err
}

// FlyAppInUse reports whether any org app is running on the given Fly app
func FlyAppInUse(ctx context.Context, db *gorm.DB, flyAppID string) (bool, error) {
	var count int64
	err := quiet(ctx, db).Model(&models.OrgApp{}).
		Where("fly_app_id = ? AND status <> ?", flyAppID, models.OrgAppStopped).
		Count(&count).Error
	return count > 0, err
}

// StopOrgApp marks an org app STOPPED after its Fly app has been destroyed
func StopOrgApp(ctx context.Context, db *gorm.DB, orgAppID string) error {
	return db.WithContext(ctx).Model(&models.OrgApp{}).
		Where("id = ? AND status = ?", orgAppID, models.OrgAppPreview).
		Updates(map[string]interface{}{
			"status":             models.OrgAppStopped,
			"fly_app_id":         nil,
			"fly_url":            nil,
			"preview_expires_at": nil,
		}).Error
}

// StorePreviewActive reports whether a generation still advertises flyAppID as an unexpired store preview
func StorePreviewActive(ctx context.Context, db *gorm.DB, flyAppID string, now time.Time) (bool, error) {
	var count int64
	err := quiet(ctx, db).Model(&models.GeneratedApp{}).
		Clauses(hints.CommentBefore("select", "builder:preview-reaper")).
		Where("preview_fly_app_id = ? AND preview_expires_at > ?", flyAppID, now).
		Count(&count).Error
	return count > 0, err
}
