package config

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/oauth2/google"
	texttospeech "google.golang.org/api/texttospeech/v1"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Script Script `yaml:"script"`
	Audio  Audio  `yaml:"audio"`
	Visual Visual `yaml:"visual"`
	Video  Video  `yaml:"video"`
	Paths  Paths  `yaml:"paths"`

	// Credentials come from the environment, never from the YAML file.
	Credentials Credentials `yaml:"-"`

	// Capabilities are resolved once at startup; the pipeline branches on
	// these flags, never on runtime discovery.
	Capabilities Capabilities `yaml:"-"`
}

type Script struct {
	URL         string  `yaml:"url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

type Audio struct {
	LanguageCode string `yaml:"language_code"`
	VoiceGender  string `yaml:"voice_gender"`
	Encoding     string `yaml:"encoding"`
	SampleRate   int    `yaml:"sample_rate"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

type Visual struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type Video struct {
	Width               int     `yaml:"width"`
	Height              int     `yaml:"height"`
	FPS                 int     `yaml:"fps"`
	DefaultSceneSec     float64 `yaml:"default_scene_sec"`
	OutputName          string  `yaml:"output_name"`
	SilentFloorSec      float64 `yaml:"silent_floor_sec"`
	SilentSecPerChar    float64 `yaml:"silent_sec_per_char"`
}

type Paths struct {
	Output string `yaml:"output"`
	Work   string `yaml:"work"`
	DB     string `yaml:"db"`
}

type Credentials struct {
	OpenRouterKey string
	DeepAIKey     string
}

type Capabilities struct {
	TTS     bool
	FFmpeg  bool
	FFprobe bool
}

// Default returns the built-in configuration, matching the original service
// defaults so an empty config file still produces a working pipeline.
func Default() *Config {
	return &Config{
		Script: Script{
			URL:         "https://openrouter.ai/api/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			TimeoutSec:  30,
		},
		Audio: Audio{
			LanguageCode: "en-US",
			VoiceGender:  "FEMALE",
			Encoding:     "MP3",
			SampleRate:   24000,
			TimeoutSec:   30,
		},
		Visual: Visual{
			URL:        "https://api.deepai.org/api/text2img",
			TimeoutSec: 60,
		},
		Video: Video{
			Width:            900,
			Height:           600,
			FPS:              24,
			DefaultSceneSec:  4.0,
			OutputName:       "final_explainer_video.mp4",
			SilentFloorSec:   3.0,
			SilentSecPerChar: 0.1,
		},
		Paths: Paths{
			Output: "output",
			Work:   "output/work",
			DB:     "output/runs.db",
		},
	}
}

// Load reads the YAML config at path, overlaying the defaults. A missing file
// is not an error; the defaults apply as-is. Credentials are always read from
// the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults apply
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.Credentials = Credentials{
		OpenRouterKey: os.Getenv("OPENROUTER_API_KEY"),
		DeepAIKey:     os.Getenv("DEEPAI_API_KEY"),
	}

	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Video.DefaultSceneSec <= 0 {
		cfg.Video.DefaultSceneSec = 4.0
	}
	return cfg, nil
}

// DetectCapabilities probes the environment exactly once: encoder binaries on
// PATH and Google Cloud credentials for TTS. The result travels with the
// config so every later branch is a pure function of explicit state.
func DetectCapabilities(ctx context.Context, cfg *Config) Capabilities {
	caps := Capabilities{}

	if _, err := exec.LookPath("ffmpeg"); err == nil {
		caps.FFmpeg = true
	}
	if _, err := exec.LookPath("ffprobe"); err == nil {
		caps.FFprobe = true
	}
	if _, err := google.FindDefaultCredentials(ctx, texttospeech.CloudPlatformScope); err == nil {
		caps.TTS = true
	}

	return caps
}

// EnsureDirectories creates the output and work directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.Output, c.Paths.Work} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}
