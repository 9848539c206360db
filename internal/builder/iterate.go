package builder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go4it/builder/internal/events"
	"github.com/go4it/builder/internal/generator"
	"github.com/go4it/builder/internal/jobs"
	"github.com/go4it/builder/internal/models"
	"github.com/go4it/builder/internal/services"
	"github.com/go4it/builder/internal/types"
)

// IterateRequest asks for a modification of an existing generation
type IterateRequest struct {
	GenerationID string `json:"generationId"`
	IterationID  string `json:"iterationId"`
	Prompt       string `json:"prompt"`
}

// Validate checks the required fields
func (r IterateRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.GenerationID) == "":
		return fmt.Errorf("generationId is required: %w", types.ErrInvalidInput)
	case strings.TrimSpace(r.IterationID) == "":
		return fmt.Errorf("iterationId is required: %w", types.ErrInvalidInput)
	case strings.TrimSpace(r.Prompt) == "":
		return fmt.Errorf("prompt is required: %w", types.ErrInvalidInput)
	}
	return nil
}

// StartIteration claims the iteration and runs it in the generation's workspace.
// The job is tracked under the generation id so it can be cancelled the same way.
func (b *Builder) StartIteration(ctx context.Context, req IterateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if b.jobs.IsActive(req.GenerationID) {
		return fmt.Errorf("generation %s has a running job: %w", req.GenerationID, types.ErrConflict)
	}

	var (
		gen       *models.GeneratedApp
		iteration *models.AppIteration
	)
	claim := func() error {
		var err error
		gen, iteration, err = services.ClaimIteration(ctx, b.db, req.GenerationID, req.IterationID)
		return err
	}
	_, err := b.jobs.StartClaimed(req.GenerationID, jobs.KindIterate, claim, func(ctx context.Context) error {
		return b.runIteration(ctx, gen, iteration, req.Prompt)
	})
	if errors.Is(err, jobs.ErrActive) {
		return fmt.Errorf("generation %s has a running job: %w", req.GenerationID, types.ErrConflict)
	}
	if err != nil {
		return err
	}

	log.Printf("Iteration %d of %s started", iteration.SequenceNumber, gen.ID)
	b.publish(events.Event{Type: events.TypeStatus, GenerationID: gen.ID, IterationID: iteration.ID, Status: models.IterationIterating})
	return nil
}

func (b *Builder) runIteration(ctx context.Context, gen *models.GeneratedApp, iteration *models.AppIteration, prompt string) error {
	err := b.iterate(ctx, gen, iteration, prompt)
	if err == nil {
		err = context.Cause(ctx)
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()

	if err == nil {
		if err = services.CompleteIteration(pctx, b.db, gen.ID, iteration.ID); err == nil {
			log.Printf("Iteration %d of %s complete", iteration.SequenceNumber, gen.ID)
			b.publish(events.Event{Type: events.TypeCompleted, GenerationID: gen.ID, IterationID: iteration.ID, Status: models.IterationComplete})
			return nil
		}
	}

	msg := failureMessage(ctx, err)
	if perr := services.MarkIterationFailed(pctx, b.db, iteration.ID, msg); perr != nil {
		log.Printf("Failed to record failure of iteration %s: %v", iteration.ID, perr)
	}
	log.Printf("Iteration %d of %s failed: %s", iteration.SequenceNumber, gen.ID, msg)
	b.publish(events.Event{Type: events.TypeFailed, GenerationID: gen.ID, IterationID: iteration.ID, Status: models.IterationFailed, Message: msg})
	return err
}

func (b *Builder) iterate(ctx context.Context, gen *models.GeneratedApp, iteration *models.AppIteration, prompt string) error {
	dir := *gen.SourceDir
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("workspace %s is missing", dir)
	}

	b.progress(gen.ID, fmt.Sprintf("running iteration %d", iteration.SequenceNumber))
	err := b.generator.Iterate(ctx, generator.Request{
		GenerationID:   gen.ID,
		IterationID:    iteration.ID,
		SequenceNumber: iteration.SequenceNumber,
		Prompt:         prompt,
		Workspace:      dir,
	})
	if err != nil {
		return err
	}

	// Only an existing store preview is refreshed; iterations never create one
	if gen.PreviewFlyAppID == nil || *gen.PreviewFlyAppID == "" {
		return nil
	}
	_, err = b.deployPreview(ctx, gen.ID, dir)
	return err
}
