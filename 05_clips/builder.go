// Package clips builds per-scene video clips: the scene image normalized to
// the frame size, held for the narration's measured duration, with the audio
// attached. Encoding itself is delegated to the Encoder collaborator.
package clips

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

// Builder assembles one clip per scene.
type Builder struct {
	cfg *config.Config
	enc Encoder
}

// NewBuilder creates a clip Builder on top of an encoder.
func NewBuilder(cfg *config.Config, enc Encoder) *Builder {
	return &Builder{cfg: cfg, enc: enc}
}

// Build renders the clip for one scene. Duration comes from the audio asset
// when it exists and is measurable, else the configured default. Not-ok
// means the scene cannot be represented and is dropped from assembly.
func (b *Builder) Build(ctx context.Context, imageFile, audioFile string, index int, workDir string) (*types.Clip, bool) {
	normalized := filepath.Join(workDir, fmt.Sprintf("frame_%03d.png", index))
	if err := NormalizeImage(b.cfg, imageFile, normalized); err != nil {
		slog.Error("image normalization failed", "stage", "clips", "scene", index+1, "err", err)
		return nil, false
	}

	duration := b.cfg.Video.DefaultSceneSec
	hasAudio := false
	if audioFile != "" {
		if _, err := os.Stat(audioFile); err == nil {
			hasAudio = true
			if dur, err := b.enc.Probe(ctx, audioFile); err == nil && dur > 0 {
				duration = dur
			} else if err != nil {
				slog.Warn("audio probe failed, using default duration",
					"stage", "clips", "scene", index+1, "err", err)
			}
		}
	}

	outFile := filepath.Join(workDir, fmt.Sprintf("clip_%03d.mp4", index))
	audioArg := ""
	if hasAudio {
		audioArg = audioFile
	}
	if err := b.enc.RenderScene(ctx, normalized, audioArg, duration, outFile); err != nil {
		slog.Error("clip render failed", "stage", "clips", "scene", index+1, "err", err)
		return nil, false
	}

	slog.Info("scene clip built", "stage", "clips", "scene", index+1, "sec", duration, "audio", hasAudio)
	return &types.Clip{
		Index:       index,
		File:        outFile,
		DurationSec: duration,
		HasAudio:    hasAudio,
	}, true
}

// NormalizeImage decodes src and rescales it to exactly the configured frame
// dimensions with a high-quality filter, writing the result as PNG.
func NormalizeImage(cfg *config.Config, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image %s: %w", src, err)
	}

	out := image.NewRGBA(image.Rect(0, 0, cfg.Video.Width, cfg.Video.Height))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	dstF, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer dstF.Close()

	if err := png.Encode(dstF, out); err != nil {
		return fmt.Errorf("encode normalized image: %w", err)
	}
	return nil
}
