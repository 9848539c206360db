//go:build !windows

package screenshot

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findChrome(t *testing.T) string {
	t.Helper()
	if path := os.Getenv("CHROME_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome binary available")
	return ""
}

func processGone(pid int) bool {
	err := syscall.Kill(pid, 0)
	return errors.Is(err, syscall.ESRCH)
}

func TestCapture_ReturnsPNGDataURI(t *testing.T) {
	chrome := findChrome(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body style="background:#09f"><h1>Preview</h1></body></html>`))
	}))
	defer srv.Close()

	c := New(Options{ExecPath: chrome, Timeout: 30 * time.Second, SettleDelay: 100 * time.Millisecond})
	var pid int
	c.onBrowser = func(p int) { pid = p }

	uri, err := c.Capture(context.Background(), srv.URL)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(raw[:4]))

	require.NotZero(t, pid)
	assert.Eventually(t, func() bool { return processGone(pid) }, 5*time.Second, 100*time.Millisecond)
}

func TestCapture_UnreachableURLTimesOut(t *testing.T) {
	chrome := findChrome(t)

	c := New(Options{ExecPath: chrome, Timeout: 5 * time.Second})
	var pid int
	c.onBrowser = func(p int) { pid = p }

	_, err := c.Capture(context.Background(), "http://127.0.0.1:1/")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	if pid != 0 {
		assert.Eventually(t, func() bool { return processGone(pid) }, 5*time.Second, 100*time.Millisecond)
	}
}

func TestCapture_WaitsForBrowserSlot(t *testing.T) {
	c := New(Options{MaxBrowsers: 1, Timeout: 100 * time.Millisecond})
	require.NoError(t, c.sem.Acquire(context.Background(), 1))
	defer c.sem.Release(1)

	launched := false
	c.onBrowser = func(int) { launched = true }

	_, err := c.Capture(context.Background(), "http://example.invalid/")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, launched)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{SettleDelay: -time.Second})
	assert.Equal(t, 30*time.Second, c.opts.Timeout)
	assert.Equal(t, time.Duration(0), c.opts.SettleDelay)
	assert.Equal(t, int64(1), c.opts.MaxBrowsers)
	assert.Equal(t, 1280, c.opts.Width)
}
