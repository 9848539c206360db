package builder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go4it/builder/internal/deploy"
	"github.com/go4it/builder/internal/jobs"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
)

// DeployRequest deploys an organization's app
type DeployRequest struct {
	OrgAppID string `json:"orgAppId"`
	// Preview deploys as an expiring preview instead of going live
	Preview bool `json:"preview"`
}

// Validate checks the required fields
func (r DeployRequest) Validate() error {
	if strings.TrimSpace(r.OrgAppID) == "" {
		return fmt.Errorf("orgAppId is required: %w", types.ErrInvalidInput)
	}
	return nil
}

// deployKey keeps deploy jobs apart from generation jobs in the registry
func deployKey(orgAppID string) string {
	return "deploy:" + orgAppID
}

// StartDeploy claims the org app and deploys it in the background
func (b *Builder) StartDeploy(ctx context.Context, req DeployRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if b.deployer == nil {
		return ErrDeployDisabled
	}
	key := deployKey(req.OrgAppID)
	if b.jobs.IsActive(key) {
		return fmt.Errorf("org app %s is already deploying: %w", req.OrgAppID, types.ErrConflict)
	}

	var target *services.DeployTarget
	claim := func() error {
		var err error
		target, err = services.ClaimDeploy(ctx, b.db, req.OrgAppID)
		return err
	}
	_, err := b.jobs.StartClaimed(key, jobs.KindDeploy, claim, func(ctx context.Context) error {
		return b.runDeploy(ctx, target, req.Preview)
	})
	if errors.Is(err, jobs.ErrActive) {
		return fmt.Errorf("org app %s is already deploying: %w", req.OrgAppID, types.ErrConflict)
	}
	if err != nil {
		return err
	}

	log.Printf("Deployment of org app %s started", req.OrgAppID)
	return nil
}

func (b *Builder) runDeploy(ctx context.Context, target *services.DeployTarget, preview bool) error {
	org := target.OrgApp
	gen := target.Generation

	flags := deploy.ResolveDeployFlags(org.Status, org.FlyAppID, gen.PreviewFlyAppID)

	outcome, err := b.deployOrgApp(ctx, target, flags, preview)
	if err == nil {
		err = context.Cause(ctx)
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()

	if err == nil {
		if err = services.CompleteDeploy(pctx, b.db, org.ID, *outcome); err == nil {
			log.Printf("Org app %s is %s at %s", org.ID, outcome.Status, outcome.FlyURL)
			return nil
		}
	}

	msg := failureMessage(ctx, err)
	if perr := services.MarkDeployFailed(pctx, b.db, org.ID, msg); perr != nil {
		log.Printf("Failed to record failed deployment of %s: %v", org.ID, perr)
	}
	log.Printf("Deployment of org app %s failed: %s", org.ID, msg)
	return err
}

func (b *Builder) deployOrgApp(ctx context.Context, target *services.DeployTarget, flags deploy.DeployFlags, preview bool) (*services.DeployOutcome, error) {
	dir := *target.Generation.SourceDir

	logFile, err := openLog(dir, "deploy-"+target.OrgApp.ID+".log")
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	dep, err := b.deployer.Deploy(ctx, flags.ExistingFlyAppID, "org", target.OrgApp.ID, dir, logFile)
	if err != nil {
		return nil, err
	}

	outcome := &services.DeployOutcome{
		FlyAppID:        dep.AppName,
		FlyURL:          dep.URL,
		Status:          models.OrgAppRunning,
		DeployedVersion: target.Generation.IterationCount,
	}
	if preview {
		expires := b.now().Add(b.previewTTL)
		outcome.Status = models.OrgAppPreview
		outcome.PreviewExpiresAt = &expires
	} else if flags.ConsumingStorePreview {
		outcome.ConsumedGenerationID = target.Generation.ID
	}
	return outcome, nil
}
