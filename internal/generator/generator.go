// Package generator drives the AI coding CLI that writes and modifies app source.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/go4it/builder/internal/runtime"
	"github.com/go4it/builder/internal/workspace"
)

// ManifestFile is written by the CLI at the workspace root to describe the app
const ManifestFile = "go4it.json"

const maxTitleLength = 60

// Runner executes a process; *runtime.ExecRuntime satisfies it
type Runner interface {
	Run(ctx context.Context, opts runtime.Options) (runtime.Result, error)
}

// Request is one generation or iteration run
type Request struct {
	GenerationID    string
	Prompt          string
	BusinessContext map[string]interface{}
	Workspace       string

	// Set for iterations
	IterationID    string
	SequenceNumber int
}

// Manifest is the app metadata produced by a generation
type Manifest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Generator runs the coding CLI inside a workspace
type Generator struct {
	runner      Runner
	command     string
	args        []string
	timeout     time.Duration
	gracePeriod time.Duration
}

// New returns a Generator invoking command with args; the composed prompt is appended last
func New(runner Runner, command string, args []string, timeout, gracePeriod time.Duration) *Generator {
	return &Generator{
		runner:      runner,
		command:     command,
		args:        args,
		timeout:     timeout,
		gracePeriod: gracePeriod,
	}
}

// Generate creates a new app in req.Workspace and returns its manifest
func (g *Generator) Generate(ctx context.Context, req Request) (*Manifest, error) {
	prompt, err := render(generateTemplate, req)
	if err != nil {
		return nil, err
	}
	if err := g.run(ctx, req, prompt, "generate.log"); err != nil {
		return nil, err
	}
	return ReadManifest(req.Workspace, req.Prompt)
}

// Iterate modifies the existing app in req.Workspace
func (g *Generator) Iterate(ctx context.Context, req Request) error {
	prompt, err := render(iterateTemplate, req)
	if err != nil {
		return err
	}
	return g.run(ctx, req, prompt, fmt.Sprintf("iterate-%d.log", req.SequenceNumber))
}

func (g *Generator) run(ctx context.Context, req Request, prompt, logName string) error {
	metaDir := filepath.Join(req.Workspace, workspace.MetaDir)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(metaDir, "PROMPT.md"), []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}

	logFile, err := os.OpenFile(filepath.Join(metaDir, logName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer logFile.Close()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, g.timeout, fmt.Errorf("generation timed out after %s", g.timeout))
		defer cancel()
	}

	command := append([]string{g.command}, g.args...)
	command = append(command, prompt)

	env := map[string]string{
		"GO4IT_GENERATION_ID": req.GenerationID,
		"GO4IT_WORKSPACE":     req.Workspace,
	}
	if req.IterationID != "" {
		env["GO4IT_ITERATION_ID"] = req.IterationID
	}

	_, err = g.runner.Run(ctx, runtime.Options{
		Command:     command,
		Dir:         req.Workspace,
		Env:         env,
		Output:      logFile,
		GracePeriod: g.gracePeriod,
	})
	return err
}

// ReadManifest loads go4it.json from dir, deriving a title from the prompt when the
// file is missing or incomplete
func ReadManifest(dir, prompt string) (*Manifest, error) {
	manifest := &Manifest{}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, manifest); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
		}
	}

	manifest.Title = strings.TrimSpace(manifest.Title)
	if manifest.Title == "" {
		manifest.Title = TitleFromPrompt(prompt)
	}
	manifest.Description = strings.TrimSpace(manifest.Description)
	if manifest.Description == "" {
		manifest.Description = strings.TrimSpace(prompt)
	}
	return manifest, nil
}

// TitleFromPrompt uses the prompt's first line, cut to a word boundary
func TitleFromPrompt(prompt string) string {
	line := strings.TrimSpace(prompt)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if utf8.RuneCountInString(line) <= maxTitleLength {
		if line == "" {
			return "Untitled app"
		}
		return line
	}
	runes := []rune(line)[:maxTitleLength]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > maxTitleLength/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}

func render(tmpl *template.Template, req Request) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
