// builder.go
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

// Package builder runs the generation, iteration and deployment pipelines in the
// background and keeps their database records in step with what happened.
package builder

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go4it/builder/internal/deploy"
	"github.com/go4it/builder/internal/events"
	"github.com/go4it/builder/internal/generator"
	"github.com/go4it/builder/internal/jobs"
	"github.com/go4it/builder/internal/workspace"
	"gorm.io/gorm"
)

// ErrDeployDisabled is returned for deployment requests when Fly is not configured
var ErrDeployDisabled = errors.New("fly deployments are disabled")

// CodeGenerator runs the coding CLI; *generator.Generator satisfies it
type CodeGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Manifest, error)
	Iterate(ctx context.Context, req generator.Request) error
}

// Deployer ships a workspace to Fly; *deploy.Fly satisfies it
type Deployer interface {
	Deploy(ctx context.Context, appName, prefix, id, sourceDir string, log io.Writer) (*deploy.Deployment, error)
	Destroy(ctx context.Context, appName string) error
}

// Capturer screenshots a URL; *screenshot.Capturer satisfies it
type Capturer interface {
	Capture(ctx context.Context, url string) (string, error)
}

// Options wires a Builder. Deployer and Capturer are optional.
type Options struct {
	DB         *gorm.DB
	Jobs       *jobs.Registry
	Workspaces *workspace.Manager
	Generator  CodeGenerator
	Deployer   Deployer
	Capturer   Capturer
	Events     events.Bus
	PreviewTTL time.Duration
}

// Builder orchestrates background jobs
type Builder struct {
	db         *gorm.DB
	jobs       *jobs.Registry
	workspaces *workspace.Manager
	generator  CodeGenerator
	deployer   Deployer
	capturer   Capturer
	events     events.Bus
	previewTTL time.Duration
	startedAt  time.Time

	now func() time.Time
}

// New returns a Builder. An in-memory event bus is used when none is given.
func New(opts Options) *Builder {
	if opts.Jobs == nil {
		opts.Jobs = jobs.NewRegistry()
	}
	if opts.Events == nil {
		opts.Events = events.NewMemoryBus()
	}
	if opts.PreviewTTL <= 0 {
		opts.PreviewTTL = 24 * time.Hour
	}
	return &Builder{
		db:         opts.DB,
		jobs:       opts.Jobs,
		workspaces: opts.Workspaces,
		generator:  opts.Generator,
		deployer:   opts.Deployer,
		capturer:   opts.Capturer,
		events:     opts.Events,
		previewTTL: opts.PreviewTTL,
		startedAt:  time.Now(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Jobs exposes the job registry
func (b *Builder) Jobs() *jobs.Registry {
	return b.jobs
}

// Events exposes the event bus
func (b *Builder) Events() events.Bus {
	return b.events
}

// DeployEnabled reports whether a Fly deployer is configured
func (b *Builder) DeployEnabled() bool {
	return b.deployer != nil
}

// ActiveJobs is the number of tracked background jobs
func (b *Builder) ActiveJobs() int {
	return b.jobs.Active()
}

// Uptime is the time since the Builder was created
func (b *Builder) Uptime() time.Duration {
	return time.Since(b.startedAt)
}

// Cancel stops the job running for a generation. It reports false when nothing was tracked.
func (b *Builder) Cancel(generationID string) bool {
	return b.jobs.Cancel(generationID)
}

// CleanupWorkspace deletes a generation's workspace and reports whether one existed
func (b *Builder) CleanupWorkspace(generationID string) (bool, error) {
	deleted, err := b.workspaces.Remove(generationID)
	if err != nil {
		return false, err
	}
	if deleted {
		log.Printf("Removed workspace for %s", generationID)
	}
	return deleted, nil
}

// Shutdown cancels all running jobs and waits for them to record their outcome
func (b *Builder) Shutdown(ctx context.Context) error {
	return b.jobs.Shutdown(ctx)
}

func (b *Builder) publish(ev events.Event) {
	if ev.Time.IsZero() {
		ev.Time = b.now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.events.Publish(ctx, ev); err != nil {
		log.Printf("Failed to publish %s event for %s: %v", ev.Type, ev.GenerationID, err)
	}
}

// failureMessage turns a pipeline error into the message stored on the record
func failureMessage(ctx context.Context, err error) string {
	if errors.Is(context.Cause(ctx), jobs.ErrCancelled) {
		return jobs.ErrCancelled.Error()
	}
	return err.Error()
}

// persistContext outlives job cancellation so failures can still be recorded
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
}

// openLog appends to a log file in the workspace's meta directory
func openLog(dir, name string) (*os.File, error) {
	metaDir := filepath.Join(dir, workspace.MetaDir)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(metaDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
