// Package audio turns a scene's narration line into an audio file. The
// primary path is Google Cloud Text-to-Speech; when that is unavailable the
// stage substitutes a silent track sized to the narration length, so a
// missing voice never stops the pipeline.
package audio

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"explainer-pipeline/config"
)

// Synthesizer generates narration audio for scenes.
type Synthesizer struct {
	cfg *config.Config
	tts *texttospeech.Service
}

// New creates a Synthesizer. The TTS client is only constructed when the
// startup capability check found usable Google credentials; a failed client
// construction downgrades the stage to fallback-only and is not an error.
func New(ctx context.Context, cfg *config.Config) *Synthesizer {
	s := &Synthesizer{cfg: cfg}

	if cfg.Capabilities.TTS {
		creds, err := google.FindDefaultCredentials(ctx, texttospeech.CloudPlatformScope)
		if err == nil {
			s.tts, err = texttospeech.NewService(ctx, option.WithCredentials(creds))
		}
		if err != nil {
			slog.Warn("TTS client unavailable, narration will use silent fallback",
				"stage", "audio", "err", err)
			s.tts = nil
		}
	}
	return s
}

// Generate writes narration audio for text to dest. It reports true whenever
// some playable audio asset was produced, via TTS or the silent fallback.
// False means no audio capability exists at all; the caller proceeds with a
// default scene duration.
func (s *Synthesizer) Generate(ctx context.Context, text, dest string) bool {
	if s.tts != nil {
		err := s.synthesize(ctx, text, dest)
		if err == nil {
			slog.Info("narration synthesized", "stage", "audio", "file", dest)
			return true
		}
		slog.Warn("TTS failed, writing silent track", "stage", "audio", "err", err)
	}
	return s.writeSilent(ctx, text, dest)
}

func (s *Synthesizer) synthesize(ctx context.Context, text, dest string) error {
	if s.cfg.Audio.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Audio.TimeoutSec)*time.Second)
		defer cancel()
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: s.cfg.Audio.LanguageCode,
			SsmlGender:   s.cfg.Audio.VoiceGender,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: s.cfg.Audio.Encoding,
		},
	}

	resp, err := s.tts.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("synthesize speech: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return fmt.Errorf("decode audio content: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty audio content")
	}
	return os.WriteFile(dest, data, 0o644)
}

// writeSilent renders a silent MP3 whose duration tracks the narration
// length with a floor, so the scene still holds on screen long enough to
// read. Requires the ffmpeg capability.
func (s *Synthesizer) writeSilent(ctx context.Context, text, dest string) bool {
	if !s.cfg.Capabilities.FFmpeg {
		slog.Error("no audio capability available", "stage", "audio")
		return false
	}

	dur := SilentDuration(s.cfg, text)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", s.cfg.Audio.SampleRate),
		"-t", fmt.Sprintf("%.3f", dur),
		"-c:a", "libmp3lame",
		"-q:a", "9",
		dest,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Error("silent track render failed", "stage", "audio", "err", err,
			"output", string(out))
		return false
	}

	slog.Info("silent narration written", "stage", "audio", "file", dest, "sec", dur)
	return true
}

// SilentDuration is the silent-fallback length for a narration line:
// proportional to text length with a configured floor.
func SilentDuration(cfg *config.Config, text string) float64 {
	dur := cfg.Video.SilentSecPerChar * float64(len(text))
	if dur < cfg.Video.SilentFloorSec {
		dur = cfg.Video.SilentFloorSec
	}
	return dur
}
