package pipeline

import (
	"errors"

	render "explainer-pipeline/06_render"
)

// Fatal run errors. Everything else the pipeline encounters is absorbed by a
// stage-local fallback and never reaches the caller.
var (
	// ErrNoScenes means the parser found nothing usable in the script text.
	ErrNoScenes = errors.New("no scenes parsed from script")

	// ErrNoClips means every scene was dropped before assembly.
	ErrNoClips = render.ErrNoClips

	// ErrEncoderUnavailable means the video-encoding collaborator is missing.
	ErrEncoderUnavailable = errors.New("video encoder unavailable: ffmpeg not found")
)
