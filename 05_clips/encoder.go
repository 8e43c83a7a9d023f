package clips

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

// Encoder is the external video-encoding collaborator: it measures media,
// renders one scene clip from a still image plus optional audio, and
// concatenates finished clips. The pipeline treats it as opaque.
type Encoder interface {
	Probe(ctx context.Context, file string) (float64, error)
	RenderScene(ctx context.Context, imageFile, audioFile string, durationSec float64, outFile string) error
	Concat(ctx context.Context, list []types.Clip, outFile string) error
}

// FFmpeg drives the ffmpeg and ffprobe binaries.
type FFmpeg struct {
	cfg *config.Config
}

// NewFFmpeg returns the ffmpeg-backed encoder.
func NewFFmpeg(cfg *config.Config) *FFmpeg {
	return &FFmpeg{cfg: cfg}
}

// Available reports whether the encoder can run at all.
func (f *FFmpeg) Available() bool {
	return f.cfg.Capabilities.FFmpeg
}

// Probe returns a media file's duration in seconds via ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, file string) (float64, error) {
	if !f.cfg.Capabilities.FFprobe {
		return 0, fmt.Errorf("ffprobe not available")
	}
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", file, err)
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", out, err)
	}
	return dur, nil
}

// RenderScene encodes one clip: the still image held for durationSec with
// the audio track attached. When audioFile is empty a silent track is
// generated so every clip carries a uniform audio stream for concatenation.
func (f *FFmpeg) RenderScene(ctx context.Context, imageFile, audioFile string, durationSec float64, outFile string) error {
	if !f.cfg.Capabilities.FFmpeg {
		return fmt.Errorf("ffmpeg not available")
	}

	args := []string{"-y", "-loop", "1", "-i", imageFile}
	if audioFile != "" {
		args = append(args, "-i", audioFile)
	} else {
		args = append(args, "-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", f.cfg.Audio.SampleRate))
	}
	args = append(args,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-vf", f.composeFilter(),
		"-r", fmt.Sprintf("%d", f.cfg.Video.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg render scene: %w: %s", err, tail(string(out)))
	}
	return nil
}

// Concat joins the clips, in the given order, into one output video. The
// scale/pad filter letterboxes any stray clip back to the frame size even
// though rendered clips are already normalized.
func (f *FFmpeg) Concat(ctx context.Context, list []types.Clip, outFile string) error {
	if !f.cfg.Capabilities.FFmpeg {
		return fmt.Errorf("ffmpeg not available")
	}
	if len(list) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	listFile := filepath.Join(filepath.Dir(outFile), "concat_list.txt")
	var lines []string
	for _, c := range list {
		abs, err := filepath.Abs(c.File)
		if err != nil {
			abs = c.File
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listFile)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-vf", f.composeFilter(),
		"-r", fmt.Sprintf("%d", f.cfg.Video.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(string(out)))
	}
	return nil
}

func (f *FFmpeg) composeFilter() string {
	w, h := f.cfg.Video.Width, f.cfg.Video.Height
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		w, h, w, h,
	)
}

// tail keeps the last chunk of ffmpeg's stderr for error context.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 400 {
		s = s[len(s)-400:]
	}
	return s
}
