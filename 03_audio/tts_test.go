package audio_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	audio "explainer-pipeline/03_audio"
	"explainer-pipeline/config"
)

func TestSilentDurationFormula(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		text string
		want float64
	}{
		{"", 3.0},
		{"short", 3.0},
		{strings.Repeat("x", 30), 3.0},
		{strings.Repeat("x", 31), 3.1},
		{strings.Repeat("x", 100), 10.0},
	}
	for _, c := range cases {
		got := audio.SilentDuration(cfg, c.text)
		if diff := got - c.want; diff > 0.0001 || diff < -0.0001 {
			t.Fatalf("SilentDuration(%d chars): got %v want %v", len(c.text), got, c.want)
		}
	}
}

func TestGenerateFallsBackToSilence(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	cfg := config.Default()
	cfg.Capabilities = config.Capabilities{FFmpeg: true}

	s := audio.New(context.Background(), cfg)
	dest := filepath.Join(t.TempDir(), "scene_1.mp3")

	if ok := s.Generate(context.Background(), "A narration line.", dest); !ok {
		t.Fatal("expected silent fallback to succeed")
	}
	fi, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("silent track not written: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatal("silent track is empty")
	}
}

func TestGenerateFailsWithoutAnyCapability(t *testing.T) {
	cfg := config.Default()
	cfg.Capabilities = config.Capabilities{}

	s := audio.New(context.Background(), cfg)
	dest := filepath.Join(t.TempDir(), "scene_1.mp3")

	if ok := s.Generate(context.Background(), "text", dest); ok {
		t.Fatal("expected failure with no TTS and no ffmpeg")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err: %v", err)
	}
}
