// fly.go
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

// Package deploy ships generated apps to Fly.io and decides how an org deployment
// reuses existing Fly apps.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go4it/builder/internal/runtime"
	"github.com/google/uuid"
)

// Runner executes a process; *runtime.ExecRuntime satisfies it
type Runner interface {
	Run(ctx context.Context, opts runtime.Options) (runtime.Result, error)
}

// Deployment is a Fly app serving a build
type Deployment struct {
	AppName string
	URL     string
}

// FlyConfig holds flyctl settings
type FlyConfig struct {
	Command     string
	APIToken    string
	Org         string
	Region      string
	Timeout     time.Duration
	GracePeriod time.Duration
}

// Fly deploys through the flyctl CLI
type Fly struct {
	runner Runner
	cfg    FlyConfig
}

// NewFly returns a flyctl client
func NewFly(runner Runner, cfg FlyConfig) *Fly {
	if cfg.Command == "" {
		cfg.Command = "fly"
	}
	return &Fly{runner: runner, cfg: cfg}
}

// AppName derives a Fly app name for a build. Fly names are global, so a short
// random suffix keeps them unique across environments.
func AppName(prefix, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToLower(fmt.Sprintf("go4it-%s-%s-%s", prefix, short, suffix))
}

// URL is the public address of a Fly app
func URL(appName string) string {
	return "https://" + appName + ".fly.dev"
}

// Deploy ships sourceDir to appName. An empty appName creates a new app named after prefix and id.
func (f *Fly) Deploy(ctx context.Context, appName, prefix, id, sourceDir string, log io.Writer) (*Deployment, error) {
	if sourceDir == "" {
		return nil, errors.New("source directory is required")
	}

	if appName == "" {
		appName = AppName(prefix, id)
		args := []string{"apps", "create", appName}
		if f.cfg.Org != "" {
			args = append(args, "--org", f.cfg.Org)
		}
		if err := f.run(ctx, "", log, args...); err != nil {
			return nil, fmt.Errorf("fly apps create %s: %w", appName, err)
		}
	}

	args := []string{"deploy", sourceDir, "--app", appName, "--remote-only", "--yes"}
	if f.cfg.Region != "" {
		args = append(args, "--region", f.cfg.Region)
	}
	if err := f.run(ctx, sourceDir, log, args...); err != nil {
		return nil, fmt.Errorf("fly deploy %s: %w", appName, err)
	}

	return &Deployment{AppName: appName, URL: URL(appName)}, nil
}

// Destroy removes a Fly app and everything running on it
func (f *Fly) Destroy(ctx context.Context, appName string) error {
	if appName == "" {
		return errors.New("app name is required")
	}
	if err := f.run(ctx, "", nil, "apps", "destroy", appName, "--yes"); err != nil {
		return fmt.Errorf("fly apps destroy %s: %w", appName, err)
	}
	return nil
}

func (f *Fly) run(ctx context.Context, dir string, log io.Writer, args ...string) error {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, f.cfg.Timeout, fmt.Errorf("fly timed out after %s", f.cfg.Timeout))
		defer cancel()
	}

	env := map[string]string{}
	if f.cfg.APIToken != "" {
		env["FLY_API_TOKEN"] = f.cfg.APIToken
	}

	_, err := f.runner.Run(ctx, runtime.Options{
		Command:     append([]string{f.cfg.Command}, args...),
		Dir:         dir,
		Env:         env,
		Output:      log,
		GracePeriod: f.cfg.GracePeriod,
	})
	return err
}
