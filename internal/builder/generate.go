package builder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go4it/builder/internal/events"
	"github.com/go4it/builder/internal/generator"
	"github.com/go4it/builder/internal/jobs"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
)

// GenerateRequest starts (or restarts) a generation
type GenerateRequest struct {
	GenerationID    string                 `json:"generationId"`
	Prompt          string                 `json:"prompt"`
	BusinessContext map[string]interface{} `json:"businessContext,omitempty"`
}

// Validate checks the required fields
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.GenerationID) == "" {
		return fmt.Errorf("generationId is required: %w", types.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required: %w", types.ErrInvalidInput)
	}
	return nil
}

// StartGeneration claims the generation and runs the pipeline in the background.
// It returns once the job is started; the outcome is written to the GeneratedApp record.
func (b *Builder) StartGeneration(ctx context.Context, req GenerateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if b.jobs.IsActive(req.GenerationID) {
		return fmt.Errorf("generation %s is already running: %w", req.GenerationID, types.ErrConflict)
	}

	gen, err := services.GetGeneratedApp(ctx, b.db, req.GenerationID)
	if err != nil {
		return err
	}
	if !gen.Startable() {
		return fmt.Errorf("generation %s is %s: %w", gen.ID, gen.Status, types.ErrConflict)
	}

	// The key is held while claiming, so a 409 never rewrites a record another job owns
	claim := func() error {
		_, err := services.ClaimGeneration(ctx, b.db, req.GenerationID)
		return err
	}
	_, err = b.jobs.StartClaimed(req.GenerationID, jobs.KindGenerate, claim, func(ctx context.Context) error {
		return b.runGeneration(ctx, req)
	})
	if errors.Is(err, jobs.ErrActive) {
		return fmt.Errorf("generation %s is already running: %w", req.GenerationID, types.ErrConflict)
	}
	if err != nil {
		return err
	}

	log.Printf("Generation %s started", req.GenerationID)
	b.publish(events.Event{Type: events.TypeStatus, GenerationID: req.GenerationID, Status: models.GenerationGenerating})
	return nil
}

func (b *Builder) runGeneration(ctx context.Context, req GenerateRequest) error {
	id := req.GenerationID

	result, err := b.generate(ctx, req)
	if err == nil {
		// A cancel that raced the last step still wins
		err = context.Cause(ctx)
	}
	if err == nil {
		pctx, cancel := persistContext(ctx)
		defer cancel()
		var app *models.App
		if app, err = services.CompleteGeneration(pctx, b.db, id, *result); err == nil {
			log.Printf("Generation %s complete, app %s", id, app.ID)
			b.publish(events.Event{Type: events.TypeCompleted, GenerationID: id, Status: models.GenerationRunning, Message: app.ID})
			return nil
		}
	}

	b.failGeneration(ctx, id, err)
	return err
}

func (b *Builder) generate(ctx context.Context, req GenerateRequest) (*services.GenerationResult, error) {
	id := req.GenerationID

	dir, err := b.workspaces.Create(id)
	if err != nil {
		return nil, err
	}
	if err := services.SetSourceDir(ctx, b.db, id, dir); err != nil {
		return nil, err
	}

	b.progress(id, "running generator")
	manifest, err := b.generator.Generate(ctx, generator.Request{
		GenerationID:    id,
		Prompt:          req.Prompt,
		BusinessContext: req.BusinessContext,
		Workspace:       dir,
	})
	if err != nil {
		return nil, err
	}

	result := &services.GenerationResult{
		Title:       manifest.Title,
		Description: manifest.Description,
		SourceDir:   dir,
	}

	previewURL, err := b.deployPreview(ctx, id, dir)
	if err != nil {
		return nil, err
	}

	if previewURL != "" && b.capturer != nil {
		b.progress(id, "capturing screenshot")
		shot, err := b.capturer.Capture(ctx, previewURL)
		if err != nil {
			log.Printf("Screenshot for %s failed: %v", id, err)
		} else {
			result.Screenshot = &shot
		}
	}

	return result, nil
}

// deployPreview deploys (or redeploys) the generation's store preview and returns its URL.
// It is a no-op without a deployer.
func (b *Builder) deployPreview(ctx context.Context, id, dir string) (string, error) {
	if b.deployer == nil {
		return "", nil
	}

	gen, err := services.GetGeneratedApp(ctx, b.db, id)
	if err != nil {
		return "", err
	}
	existing := ""
	if gen.PreviewFlyAppID != nil {
		existing = *gen.PreviewFlyAppID
	}

	logFile, err := openLog(dir, "deploy.log")
	if err != nil {
		return "", err
	}
	defer logFile.Close()

	b.progress(id, "deploying preview")
	dep, err := b.deployer.Deploy(ctx, existing, "preview", id, dir, logFile)
	if err != nil {
		return "", err
	}

	if err := services.RecordPreview(ctx, b.db, id, dep.AppName, dep.URL, b.now().Add(b.previewTTL)); err != nil {
		return "", err
	}
	log.Printf("Preview for %s deployed to %s", id, dep.URL)
	return dep.URL, nil
}

func (b *Builder) failGeneration(ctx context.Context, id string, err error) {
	msg := failureMessage(ctx, err)

	pctx, cancel := persistContext(ctx)
	defer cancel()
	if perr := services.MarkGenerationFailed(pctx, b.db, id, msg); perr != nil {
		log.Printf("Failed to record failure of generation %s: %v", id, perr)
	}
	log.Printf("Generation %s failed: %s", id, msg)
	b.publish(events.Event{Type: events.TypeFailed, GenerationID: id, Status: models.GenerationFailed, Message: msg})
}

func (b *Builder) progress(id, message string) {
	b.publish(events.Event{Type: events.TypeProgress, GenerationID: id, Message: message})
}
