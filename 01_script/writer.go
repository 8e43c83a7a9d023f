// Package script asks a chat-completion service to write a five-scene
// explainer script for a concept. The service is allowed to fail: any error
// is absorbed locally and a deterministic fallback script takes its place,
// so the pipeline never stalls on this stage.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"explainer-pipeline/config"
)

const promptTemplate = `Generate a 5-scene explanation of the concept '%s' for students in clear, simple English.
Make sure the information is accurate and factually correct.
Each scene should contain:
- A short scene title
- One narration line (as speech)
- A brief description of what the visual should include

Format:
**Scene 1: Title Here**
**Speech:** "Narration text here"
**Visual:** Visual description here

**Scene 2: Title Here**
**Speech:** "Narration text here"
**Visual:** Visual description here

Continue for all 5 scenes.`

// Writer requests scripts from an OpenRouter-compatible endpoint.
type Writer struct {
	cfg        *config.Config
	httpClient *http.Client
}

// New creates a script Writer with the configured request timeout.
func New(cfg *config.Config) *Writer {
	timeout := time.Duration(cfg.Script.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Writer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns raw script text for the concept. It never returns an
// error: any failure along the request path is logged and the deterministic
// fallback script is returned instead.
func (w *Writer) Generate(ctx context.Context, concept string) string {
	text, err := w.request(ctx, concept)
	if err != nil {
		slog.Warn("script service failed, using fallback script",
			"stage", "script", "concept", concept, "err", err)
		return Fallback(concept)
	}
	slog.Info("script generated", "stage", "script", "chars", len(text))
	return text
}

func (w *Writer) request(ctx context.Context, concept string) (string, error) {
	if w.cfg.Credentials.OpenRouterKey == "" {
		return "", fmt.Errorf("OPENROUTER_API_KEY not set")
	}

	reqBody := chatRequest{
		Model: w.cfg.Script.Model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, concept)},
		},
		Temperature: w.cfg.Script.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.Script.URL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.Credentials.OpenRouterKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("script request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("script service HTTP %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("script service error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("script service returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("script service returned empty content")
	}
	return content, nil
}

// Fallback builds the deterministic five-scene script for a concept. It is
// pure template substitution with no network dependency, and its grammar is
// the same one the prompt asks the service for.
func Fallback(concept string) string {
	return fmt.Sprintf(`**Scene 1: Introduction to %[1]s**
**Speech:** "Let's explore how %[1]s works step by step."
**Visual:** A student looking at a blackboard with educational content.

**Scene 2: Understanding the Basics**
**Speech:** "First, we need to understand the fundamental principles."
**Visual:** A clear diagram showing the basic concept.

**Scene 3: Step-by-Step Process**
**Speech:** "Now let's break down the process into manageable steps."
**Visual:** A flowchart showing the sequential steps.

**Scene 4: Practical Application**
**Speech:** "Here's how we apply this concept in real situations."
**Visual:** A practical example or demonstration.

**Scene 5: Summary and Conclusion**
**Speech:** "Let's review what we've learned about %[1]s."
**Visual:** A summary graphic with key points highlighted.`, concept)
}
