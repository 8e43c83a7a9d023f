package types

// Scene is the atomic unit of a generated video: one title, one narration
// line, one visual description. Scenes are created by the parser and are
// read-only downstream.
type Scene struct {
	Title  string `json:"title"`
	Speech string `json:"speech"`
	Visual string `json:"visual"`
}

// Clip is one scene's rendered image plus synchronized audio, ready for
// concatenation. Index preserves the scene's original position.
type Clip struct {
	Index       int     `json:"index"`
	File        string  `json:"file"`
	DurationSec float64 `json:"duration_sec"`
	HasAudio    bool    `json:"has_audio"`
}

// RunReport tracks the outcome of one pipeline run.
type RunReport struct {
	RunID        string  `json:"run_id"`
	Concept      string  `json:"concept"`
	State        string  `json:"state"`
	ScenesParsed int     `json:"scenes_parsed"`
	ClipsBuilt   int     `json:"clips_built"`
	Partial      bool    `json:"partial"`
	Dropped      []int   `json:"dropped_scenes,omitempty"`
	OutputFile   string  `json:"output_file,omitempty"`
	Error        string  `json:"error,omitempty"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  string  `json:"completed_at"`
	ElapsedSec   float64 `json:"elapsed_sec"`
}
