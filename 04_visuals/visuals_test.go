package visuals_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	visuals "explainer-pipeline/04_visuals"
	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

var testScene = types.Scene{
	Title:  "Introduction to Gravity",
	Speech: "Let's explore how gravity works step by step.",
	Visual: "A student looking at a blackboard with educational content.",
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRenderTextCardMatchesFrameSize(t *testing.T) {
	cfg := config.Default()
	out := filepath.Join(t.TempDir(), "card.png")

	if err := visuals.RenderTextCard(cfg, testScene, out); err != nil {
		t.Fatalf("RenderTextCard: %v", err)
	}

	img := decodePNG(t, out)
	b := img.Bounds()
	if b.Dx() != cfg.Video.Width || b.Dy() != cfg.Video.Height {
		t.Fatalf("card is %dx%d, want %dx%d", b.Dx(), b.Dy(), cfg.Video.Width, cfg.Video.Height)
	}
}

func TestRenderTextCardHandlesEmptyFields(t *testing.T) {
	cfg := config.Default()
	out := filepath.Join(t.TempDir(), "card.png")

	if err := visuals.RenderTextCard(cfg, types.Scene{Title: "T", Speech: "s"}, out); err != nil {
		t.Fatalf("RenderTextCard with empty visual: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("card not written: %v", err)
	}
}

func TestCreateDownloadsRemoteImage(t *testing.T) {
	// image host serving a real PNG larger than the sanity threshold
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatal(err)
	}
	imgHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer imgHost.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("api-key"); got != "deepai-test" {
			t.Errorf("missing api-key header, got %q", got)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("text") == "" {
			t.Errorf("expected form-encoded text prompt, err=%v form=%v", err, r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"output_url": imgHost.URL + "/img.png"})
	}))
	defer api.Close()

	cfg := config.Default()
	cfg.Visual.URL = api.URL
	cfg.Credentials.DeepAIKey = "deepai-test"

	g := visuals.New(cfg)
	dir := t.TempDir()
	path, ok := g.Create(context.Background(), testScene, 0, dir)
	if !ok {
		t.Fatal("expected remote image to succeed")
	}
	if path != filepath.Join(dir, "scene_1.png") {
		t.Fatalf("unexpected image path %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, buf.Bytes()) {
		t.Fatalf("downloaded bytes differ (err=%v)", err)
	}
}

func TestCreateFallsBackToTextCard(t *testing.T) {
	cfg := config.Default()
	cfg.Visual.URL = "http://127.0.0.1:1/never"
	cfg.Credentials.DeepAIKey = "x"

	g := visuals.New(cfg)
	for i := 0; i < 2; i++ {
		path, ok := g.Create(context.Background(), testScene, i, t.TempDir())
		if !ok {
			t.Fatalf("scene %d: expected text-card fallback to succeed", i)
		}
		img := decodePNG(t, path)
		if img.Bounds().Dx() != cfg.Video.Width {
			t.Fatalf("scene %d: fallback not frame sized", i)
		}
	}
}

func TestCreateFallsBackWhenResponseHasNoURL(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"err":"quota exceeded"}`)
	}))
	defer api.Close()

	cfg := config.Default()
	cfg.Visual.URL = api.URL

	g := visuals.New(cfg)
	path, ok := g.Create(context.Background(), testScene, 2, t.TempDir())
	if !ok {
		t.Fatal("expected fallback to succeed")
	}
	if filepath.Base(path) != "scene_3.png" {
		t.Fatalf("image should be named by scene index, got %q", path)
	}
}
