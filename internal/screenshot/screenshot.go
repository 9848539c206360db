// screenshot.go
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

// Package screenshot renders a deployed preview in headless Chrome and returns it as a PNG data URI.
package screenshot

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// ErrTimeout is wrapped by every failure to load the page in time
var ErrTimeout = errors.New("screenshot timed out")

// Options configures a Capturer
type Options struct {
	// ExecPath overrides Chrome discovery
	ExecPath    string
	Timeout     time.Duration
	SettleDelay time.Duration
	MaxBrowsers int64
	Width       int
	Height      int
}

// Capturer takes full-page screenshots, one isolated browser per capture
type Capturer struct {
	opts Options
	sem  *semaphore.Weighted

	// onBrowser is called with the browser PID once it is running
	onBrowser func(pid int)
}

// New returns a Capturer with defaults filled in
func New(opts Options) *Capturer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.MaxBrowsers < 1 {
		opts.MaxBrowsers = 1
	}
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 800
	}
	return &Capturer{opts: opts, sem: semaphore.NewWeighted(opts.MaxBrowsers)}
}

// Capture loads url, waits for the network to go idle plus the settle delay and
// returns "data:image/png;base64,...". The browser is torn down before Capture returns.
func (c *Capturer) Capture(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for a browser slot: %w", ErrTimeout)
	}
	defer c.sem.Release(1)

	userDataDir, err := os.MkdirTemp("", "go4it-chrome-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(userDataDir)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(userDataDir),
		chromedp.WindowSize(c.opts.Width, c.opts.Height),
		chromedp.Flag("hide-scrollbars", true),
	)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// First Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		return "", fmt.Errorf("failed to start browser: %w", err)
	}
	if c.onBrowser != nil {
		if b := chromedp.FromContext(browserCtx).Browser; b != nil && b.Process() != nil {
			c.onBrowser(b.Process().Pid)
		}
	}

	idle := c.watchNetworkIdle(browserCtx)

	var buf []byte
	err = chromedp.Run(browserCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(context.Context) error {
			idle.arm()
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle.ch:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.Sleep(c.opts.SettleDelay),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", url, ErrTimeout)
		}
		if len(buf) == 0 {
			return "", fmt.Errorf("%s: %v: %w", url, err, ErrTimeout)
		}
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf), nil
}

// idleWatch fires once the page navigated after arm() reports networkIdle
type idleWatch struct {
	mu     sync.Mutex
	armed  bool
	inited bool
	once   sync.Once
	ch     chan struct{}
}

func (w *idleWatch) arm() {
	w.mu.Lock()
	w.armed = true
	w.mu.Unlock()
}

func (c *Capturer) watchNetworkIdle(ctx context.Context) *idleWatch {
	w := &idleWatch{ch: make(chan struct{})}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		switch {
		case !w.armed:
		case e.Name == "init":
			w.inited = true
		case e.Name == "networkIdle" && w.inited:
			w.once.Do(func() { close(w.ch) })
		}
	})
	return w
}
