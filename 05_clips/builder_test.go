package clips_test

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	clips "explainer-pipeline/05_clips"
	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestNormalizeImageResizesToFrame(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	writeTestPNG(t, src, 320, 200)

	if err := clips.NormalizeImage(cfg, src, dst); err != nil {
		t.Fatalf("NormalizeImage: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != cfg.Video.Width || b.Dy() != cfg.Video.Height {
		t.Fatalf("normalized image is %dx%d, want %dx%d", b.Dx(), b.Dy(), cfg.Video.Width, cfg.Video.Height)
	}
}

func TestNormalizeImageRejectsGarbage(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := clips.NormalizeImage(cfg, src, filepath.Join(dir, "dst.png")); err == nil {
		t.Fatal("expected decode error")
	}
}

// fakeEncoder records calls without touching ffmpeg.
type fakeEncoder struct {
	probeSec  float64
	probeErr  error
	renderErr error

	renderedAudio    string
	renderedDuration float64
}

func (f *fakeEncoder) Probe(ctx context.Context, file string) (float64, error) {
	return f.probeSec, f.probeErr
}

func (f *fakeEncoder) RenderScene(ctx context.Context, imageFile, audioFile string, durationSec float64, outFile string) error {
	f.renderedAudio = audioFile
	f.renderedDuration = durationSec
	if f.renderErr != nil {
		return f.renderErr
	}
	return os.WriteFile(outFile, []byte("mp4"), 0o644)
}

func (f *fakeEncoder) Concat(ctx context.Context, list []types.Clip, outFile string) error {
	return nil
}

func TestBuildUsesMeasuredAudioDuration(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	img := filepath.Join(dir, "scene.png")
	aud := filepath.Join(dir, "scene.mp3")
	writeTestPNG(t, img, 100, 100)
	if err := os.WriteFile(aud, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}

	enc := &fakeEncoder{probeSec: 7.5}
	b := clips.NewBuilder(cfg, enc)

	clip, ok := b.Build(context.Background(), img, aud, 0, dir)
	if !ok {
		t.Fatal("expected build to succeed")
	}
	if clip.DurationSec != 7.5 || !clip.HasAudio {
		t.Fatalf("clip = %+v, want measured duration with audio", clip)
	}
	if enc.renderedAudio != aud {
		t.Fatalf("audio not passed to encoder: %q", enc.renderedAudio)
	}
}

func TestBuildFallsBackToDefaultDuration(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	img := filepath.Join(dir, "scene.png")
	writeTestPNG(t, img, 100, 100)

	enc := &fakeEncoder{}
	b := clips.NewBuilder(cfg, enc)

	clip, ok := b.Build(context.Background(), img, filepath.Join(dir, "missing.mp3"), 1, dir)
	if !ok {
		t.Fatal("expected build to succeed")
	}
	if clip.DurationSec != cfg.Video.DefaultSceneSec || clip.HasAudio {
		t.Fatalf("clip = %+v, want default duration without audio", clip)
	}
	if enc.renderedAudio != "" {
		t.Fatalf("no audio should reach the encoder, got %q", enc.renderedAudio)
	}
}

func TestBuildFailsWhenRenderFails(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	img := filepath.Join(dir, "scene.png")
	writeTestPNG(t, img, 100, 100)

	enc := &fakeEncoder{renderErr: fmt.Errorf("encoder exploded")}
	b := clips.NewBuilder(cfg, enc)

	if _, ok := b.Build(context.Background(), img, "", 2, dir); ok {
		t.Fatal("expected build failure when the encoder fails")
	}
}
