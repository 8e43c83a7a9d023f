// Package visuals produces one image per scene: an AI-generated picture from
// the scene's visual description when the image service cooperates, or a
// locally rendered text card when it does not.
package visuals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

// Generator creates scene images via the DeepAI text2img service.
type Generator struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a visual Generator with the configured request timeout.
func New(cfg *config.Config) *Generator {
	timeout := time.Duration(cfg.Visual.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Generator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Create produces an image file for the scene under outDir. It reports ok
// only when an image exists on disk: remote generation first, local text
// card second. Not-ok means the scene has no visual and will be dropped.
func (g *Generator) Create(ctx context.Context, scene types.Scene, index int, outDir string) (string, bool) {
	prompt := strings.TrimSpace(scene.Visual)
	if prompt == "" {
		prompt = "Educational illustration"
	}
	outFile := filepath.Join(outDir, fmt.Sprintf("scene_%d.png", index+1))

	err := g.remoteImage(ctx, prompt, outFile)
	if err == nil {
		slog.Info("scene image generated", "stage", "visuals", "scene", index+1, "file", outFile)
		return outFile, true
	}
	slog.Warn("image service failed, rendering text card",
		"stage", "visuals", "scene", index+1, "err", err)

	if err := RenderTextCard(g.cfg, scene, outFile); err != nil {
		slog.Error("text card render failed", "stage", "visuals", "scene", index+1, "err", err)
		return "", false
	}
	slog.Info("fallback text card rendered", "stage", "visuals", "scene", index+1, "file", outFile)
	return outFile, true
}

type text2imgResponse struct {
	OutputURL string `json:"output_url"`
}

// remoteImage posts the prompt to the image service and downloads the
// resulting picture. Any error leaves the caller to fall back locally.
func (g *Generator) remoteImage(ctx context.Context, prompt, outFile string) error {
	form := url.Values{"text": {prompt}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Visual.URL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("api-key", g.cfg.Credentials.DeepAIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image service HTTP %d", resp.StatusCode)
	}

	var parsed text2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("parse image response: %w", err)
	}
	if parsed.OutputURL == "" {
		return fmt.Errorf("image response carries no output_url")
	}
	return g.downloadImage(ctx, parsed.OutputURL, outFile)
}

func (g *Generator) downloadImage(ctx context.Context, imageURL, outFile string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	// An error page instead of image bytes shows up as a tiny body.
	if len(data) < 100 {
		return fmt.Errorf("image body too small (%d bytes)", len(data))
	}
	return os.WriteFile(outFile, data, 0o644)
}
