// Package render walks the parsed scenes in order, drives the narration,
// visual and clip stages for each one, and concatenates the surviving clips
// into the final video. A scene that loses its image or clip is skipped;
// losing some scenes degrades the run, losing all of them fails it.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	clips "explainer-pipeline/05_clips"
	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

// ErrNoClips reports that no scene produced a usable clip, leaving nothing
// to assemble. It is fatal to the run.
var ErrNoClips = errors.New("no scene clips were built")

// Narrator produces a narration audio asset for a speech line.
type Narrator interface {
	Generate(ctx context.Context, text, dest string) bool
}

// Visualizer produces an image asset for a scene.
type Visualizer interface {
	Create(ctx context.Context, scene types.Scene, index int, outDir string) (string, bool)
}

// ClipBuilder combines one scene's image and audio into a timed clip.
type ClipBuilder interface {
	Build(ctx context.Context, imageFile, audioFile string, index int, workDir string) (*types.Clip, bool)
}

// Assembler owns the per-scene loop and final concatenation.
type Assembler struct {
	cfg        *config.Config
	narrator   Narrator
	visualizer Visualizer
	builder    ClipBuilder
	encoder    clips.Encoder
}

// New wires an Assembler from its stage collaborators.
func New(cfg *config.Config, n Narrator, v Visualizer, b ClipBuilder, e clips.Encoder) *Assembler {
	return &Assembler{cfg: cfg, narrator: n, visualizer: v, builder: b, encoder: e}
}

// Run processes scenes strictly in order and writes the final video to the
// configured output name. Intermediate assets are removed best-effort on
// both success and failure. The report is updated in place.
func (a *Assembler) Run(ctx context.Context, sceneList []types.Scene, workDir string, report *types.RunReport) (string, error) {
	var built []types.Clip
	var intermediates []string

	defer func() {
		for _, f := range intermediates {
			_ = os.Remove(f)
		}
	}()

	for i, scene := range sceneList {
		slog.Info("processing scene", "stage", "render", "scene", i+1, "title", scene.Title)

		audioFile := filepath.Join(workDir, fmt.Sprintf("scene_%d.mp3", i+1))
		if a.narrator.Generate(ctx, scene.Speech, audioFile) {
			intermediates = append(intermediates, audioFile)
		} else {
			slog.Warn("no narration audio, clip will use default duration",
				"stage", "render", "scene", i+1)
			audioFile = ""
		}

		imageFile, ok := a.visualizer.Create(ctx, scene, i, workDir)
		if !ok {
			slog.Warn("scene dropped: no image", "stage", "render", "scene", i+1)
			report.Dropped = append(report.Dropped, i+1)
			continue
		}
		intermediates = append(intermediates, imageFile)

		clip, ok := a.builder.Build(ctx, imageFile, audioFile, i, workDir)
		if !ok {
			slog.Warn("scene dropped: clip build failed", "stage", "render", "scene", i+1)
			report.Dropped = append(report.Dropped, i+1)
			continue
		}
		intermediates = append(intermediates,
			clip.File,
			filepath.Join(workDir, fmt.Sprintf("frame_%03d.png", i)),
		)
		built = append(built, *clip)
	}

	report.ClipsBuilt = len(built)
	slog.Info("scene processing done", "stage", "render",
		"built", len(built), "total", len(sceneList))

	if len(built) == 0 {
		return "", fmt.Errorf("%w (out of %d scenes)", ErrNoClips, len(sceneList))
	}
	if len(built) < len(sceneList) {
		report.Partial = true
		slog.Warn("partial run: continuing with surviving clips",
			"stage", "render", "built", len(built), "parsed", len(sceneList))
	}

	outFile := filepath.Join(a.cfg.Paths.Output, a.cfg.Video.OutputName)
	if err := a.encoder.Concat(ctx, built, outFile); err != nil {
		return "", fmt.Errorf("assemble final video: %w", err)
	}

	slog.Info("final video written", "stage", "render", "file", outFile, "clips", len(built))
	return outFile, nil
}
