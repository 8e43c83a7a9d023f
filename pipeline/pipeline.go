// Package pipeline owns the end-to-end run: concept in, final video path
// out. Recoverable failures are absorbed inside the stages; only the fatal
// conditions — zero scenes, zero clips, no encoder — surface here as typed
// errors.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	script "explainer-pipeline/01_script"
	scenes "explainer-pipeline/02_scenes"
	audio "explainer-pipeline/03_audio"
	visuals "explainer-pipeline/04_visuals"
	clips "explainer-pipeline/05_clips"
	render "explainer-pipeline/06_render"
	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

// Run states, in forward order. Failed is reachable from Parsing and
// Assembling, or from any unexpected stage error.
const (
	StateIdle       = "idle"
	StateScripting  = "scripting"
	StateParsing    = "parsing"
	StateRendering  = "rendering"
	StateAssembling = "assembling"
	StateDone       = "done"
	StateFailed     = "failed"
)

// ScriptSource produces raw script text for a concept; it never fails.
type ScriptSource interface {
	Generate(ctx context.Context, concept string) string
}

// ParseFunc converts script text to ordered scenes.
type ParseFunc func(string) []types.Scene

// SceneAssembler renders and concatenates scenes into the final video.
type SceneAssembler interface {
	Run(ctx context.Context, sceneList []types.Scene, workDir string, report *types.RunReport) (string, error)
}

// Generator runs the whole pipeline for one concept per call. Calls are
// independent; only the configuration is shared across runs.
type Generator struct {
	cfg       *config.Config
	scripter  ScriptSource
	parse     ParseFunc
	assembler SceneAssembler
}

// New wires a Generator from the concrete stage implementations.
func New(ctx context.Context, cfg *config.Config) *Generator {
	enc := clips.NewFFmpeg(cfg)
	asm := render.New(cfg,
		audio.New(ctx, cfg),
		visuals.New(cfg),
		clips.NewBuilder(cfg, enc),
		enc,
	)
	return NewWithComponents(cfg, script.New(cfg), scenes.Parse, asm)
}

// NewWithComponents wires a Generator from explicit collaborators.
func NewWithComponents(cfg *config.Config, src ScriptSource, parse ParseFunc, asm SceneAssembler) *Generator {
	return &Generator{cfg: cfg, scripter: src, parse: parse, assembler: asm}
}

// GenerateVideo runs the pipeline for a concept and returns the final video
// path. The report is always returned, also on failure. The run-scoped work
// directory is removed best-effort on both paths.
func (g *Generator) GenerateVideo(ctx context.Context, concept string) (string, *types.RunReport, error) {
	started := time.Now()
	report := &types.RunReport{
		RunID:     uuid.NewString()[:8],
		Concept:   concept,
		State:     StateIdle,
		StartedAt: started.UTC().Format(time.RFC3339),
	}
	defer func() {
		report.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		report.ElapsedSec = time.Since(started).Seconds()
	}()

	slog.Info("starting video generation", "stage", "pipeline",
		"run", report.RunID, "concept", concept)

	if !g.cfg.Capabilities.FFmpeg {
		return "", report, g.fail(report, ErrEncoderUnavailable)
	}
	if err := g.cfg.EnsureDirectories(); err != nil {
		return "", report, g.fail(report, err)
	}

	workDir := filepath.Join(g.cfg.Paths.Work, report.RunID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", report, g.fail(report, fmt.Errorf("create work dir: %w", err))
	}
	defer func() {
		// Best effort; a leftover work dir is never worth failing a run over.
		_ = os.RemoveAll(workDir)
	}()

	report.State = StateScripting
	scriptText := g.scripter.Generate(ctx, concept)

	report.State = StateParsing
	sceneList := g.parse(scriptText)
	report.ScenesParsed = len(sceneList)
	if len(sceneList) == 0 {
		return "", report, g.fail(report, fmt.Errorf("%w: concept %q", ErrNoScenes, concept))
	}

	report.State = StateRendering
	outFile, err := g.assembler.Run(ctx, sceneList, workDir, report)
	if err != nil {
		return "", report, g.fail(report, err)
	}

	report.State = StateAssembling
	// Boundary double-check: success means a file a player can open.
	if _, err := os.Stat(outFile); err != nil {
		return "", report, g.fail(report, fmt.Errorf("output file missing after assembly: %w", err))
	}

	report.State = StateDone
	report.OutputFile = outFile
	slog.Info("video generation complete", "stage", "pipeline",
		"run", report.RunID, "file", outFile,
		"scenes", report.ScenesParsed, "clips", report.ClipsBuilt, "partial", report.Partial)
	return outFile, report, nil
}

func (g *Generator) fail(report *types.RunReport, err error) error {
	report.State = StateFailed
	report.Error = err.Error()
	slog.Error("video generation failed", "stage", "pipeline",
		"run", report.RunID, "err", err)
	return err
}
