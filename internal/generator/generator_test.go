package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go4it/builder/internal/runtime"
	"github.com/go4it/builder/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner captures the options it was called with
type recordingRunner struct {
	opts runtime.Options
	err  error
}

func (r *recordingRunner) Run(ctx context.Context, opts runtime.Options) (runtime.Result, error) {
	r.opts = opts
	return runtime.Result{}, r.err
}

func TestGenerate_PassesPromptAndEnv(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	g := New(runner, "claude", []string{"--print"}, time.Minute, time.Second)

	manifest, err := g.Generate(context.Background(), Request{
		GenerationID:    "gen-1",
		Prompt:          "A CRM for plumbers",
		BusinessContext: map[string]interface{}{"industry": "plumbing"},
		Workspace:       dir,
	})
	require.NoError(t, err)

	require.Len(t, runner.opts.Command, 3)
	assert.Equal(t, "claude", runner.opts.Command[0])
	assert.Equal(t, "--print", runner.opts.Command[1])
	assert.Contains(t, runner.opts.Command[2], "A CRM for plumbers")
	assert.Contains(t, runner.opts.Command[2], `"industry": "plumbing"`)
	assert.Equal(t, dir, runner.opts.Dir)
	assert.Equal(t, "gen-1", runner.opts.Env["GO4IT_GENERATION_ID"])

	prompt, err := os.ReadFile(filepath.Join(dir, workspace.MetaDir, "PROMPT.md"))
	require.NoError(t, err)
	assert.Equal(t, runner.opts.Command[2], string(prompt))

	// No manifest written: falls back to the prompt
	assert.Equal(t, "A CRM for plumbers", manifest.Title)
}

func TestGenerate_WithRealProcess(t *testing.T) {
	dir := t.TempDir()
	script := `printf '{"title":"Plumb CRM","description":"Jobs and invoices"}' > ` + ManifestFile + `; echo generated`
	g := New(runtime.NewExecRuntime(nil), "sh", []string{"-c", script, "generator"}, time.Minute, time.Second)

	manifest, err := g.Generate(context.Background(), Request{GenerationID: "gen-2", Prompt: "CRM", Workspace: dir})
	require.NoError(t, err)
	assert.Equal(t, "Plumb CRM", manifest.Title)
	assert.Equal(t, "Jobs and invoices", manifest.Description)

	logData, err := os.ReadFile(filepath.Join(dir, workspace.MetaDir, "generate.log"))
	require.NoError(t, err)
	assert.Equal(t, "generated\n", string(logData))
}

func TestGenerate_Timeout(t *testing.T) {
	g := New(runtime.NewExecRuntime(nil), "sh", []string{"-c", "sleep 5", "generator"}, 100*time.Millisecond, 100*time.Millisecond)

	_, err := g.Generate(context.Background(), Request{GenerationID: "gen-3", Prompt: "slow", Workspace: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestIterate_UsesSequenceLog(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	g := New(runner, "claude", nil, 0, time.Second)

	err := g.Iterate(context.Background(), Request{
		GenerationID:   "gen-1",
		IterationID:    "it-1",
		SequenceNumber: 2,
		Prompt:         "Add a dark mode",
		Workspace:      dir,
	})
	require.NoError(t, err)

	assert.Contains(t, runner.opts.Command[1], "iteration 2")
	assert.Contains(t, runner.opts.Command[1], "Add a dark mode")
	assert.Equal(t, "it-1", runner.opts.Env["GO4IT_ITERATION_ID"])
	assert.FileExists(t, filepath.Join(dir, workspace.MetaDir, "iterate-2.log"))
}

func TestReadManifest_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{"), 0o644))

	_, err := ReadManifest(dir, "prompt")
	assert.ErrorContains(t, err, "invalid go4it.json")
}

func TestTitleFromPrompt(t *testing.T) {
	assert.Equal(t, "Untitled app", TitleFromPrompt("   "))
	assert.Equal(t, "Booking tool", TitleFromPrompt("Booking tool\nwith reminders"))

	long := strings.Repeat("word ", 30)
	title := TitleFromPrompt(long)
	assert.True(t, strings.HasSuffix(title, "…"))
	assert.LessOrEqual(t, len([]rune(title)), maxTitleLength+1)
}
