package pipeline_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"explainer-pipeline/config"
	"explainer-pipeline/pipeline"
)

// TestGenerateVideoAllServicesDown runs the real stack with every external
// service pointed at an unreachable address: the script, narration and image
// stages must all fall back locally and still produce a five-clip video.
func TestGenerateVideoAllServicesDown(t *testing.T) {
	if testing.Short() {
		t.Skip("encodes real video")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.Output = filepath.Join(base, "out")
	cfg.Paths.Work = filepath.Join(base, "work")
	cfg.Script.URL = "http://127.0.0.1:1/chat"
	cfg.Script.TimeoutSec = 1
	cfg.Visual.URL = "http://127.0.0.1:1/text2img"
	cfg.Visual.TimeoutSec = 1
	cfg.Credentials = config.Credentials{OpenRouterKey: "x", DeepAIKey: "x"}
	// no TTS credentials: narration uses the silent fallback
	cfg.Capabilities = config.Capabilities{FFmpeg: true, FFprobe: true}

	ctx := context.Background()
	g := pipeline.New(ctx, cfg)

	out, report, err := g.GenerateVideo(ctx, "Gravity")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if report.ScenesParsed != 5 || report.ClipsBuilt != 5 || report.Partial {
		t.Fatalf("report = %+v, want 5 fallback clips", report)
	}
	if out == "" {
		t.Fatal("no output path")
	}
}
