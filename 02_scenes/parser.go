// Package scenes converts raw LLM script text into an ordered list of
// validated scenes. The grammar matches what the script prompt asks for
// (markdown-emphasis scene headings) but tolerates the formatting drift
// chat models produce in practice.
package scenes

import (
	"log/slog"
	"regexp"
	"strings"

	"explainer-pipeline/types"
)

// sceneHeading marks a scene boundary: **Scene 3: Photosynthesis**
// Plain "Scene 3: Photosynthesis" headings (no emphasis) are accepted too.
var sceneHeading = regexp.MustCompile(`(?m)^\s*(?:\*\*)?Scene\s*(\d+)\s*:\s*(.*?)(?:\*\*)?\s*$`)

// fieldMarker matches the field labels with or without the surrounding
// markdown emphasis. Title appears as a field in the plain block layout
// ("Scene 2:" on its own line, "Title:" below it).
var fieldMarker = regexp.MustCompile(`(?:\*\*)?(Title|Speech|Visual)\s*:(?:\*\*)?`)

// Parse splits script text into scene blocks and extracts the title, speech
// and visual fields from each. A block yields a scene only when both title
// and speech are non-empty after trimming; malformed blocks are dropped
// without error. Order follows the script text.
func Parse(script string) []types.Scene {
	headings := sceneHeading.FindAllStringSubmatchIndex(script, -1)

	var accepted []types.Scene
	dropped := 0

	for i, h := range headings {
		title := strings.TrimSpace(script[h[4]:h[5]])
		title = strings.TrimSuffix(title, "**")
		title = strings.TrimSpace(title)

		blockEnd := len(script)
		if i+1 < len(headings) {
			blockEnd = headings[i+1][0]
		}
		block := script[h[1]:blockEnd]

		fieldTitle, speech, visual := extractFields(block)
		if title == "" {
			title = fieldTitle
		}

		if title == "" || speech == "" {
			dropped++
			continue
		}
		accepted = append(accepted, types.Scene{
			Title:  title,
			Speech: speech,
			Visual: visual,
		})
	}

	slog.Info("parsed scenes", "stage", "scenes", "accepted", len(accepted), "dropped", dropped)
	return accepted
}

// extractFields walks the ordered field markers inside one scene block. Each
// field runs from its marker to the next marker or the end of the block, so
// no field can swallow content that belongs to a neighbouring field.
func extractFields(block string) (title, speech, visual string) {
	markers := fieldMarker.FindAllStringSubmatchIndex(block, -1)

	for i, m := range markers {
		name := block[m[2]:m[3]]
		start := m[1]
		end := len(block)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		value := cleanField(block[start:end])

		switch name {
		case "Title":
			if title == "" {
				title = value
			}
		case "Speech":
			if speech == "" {
				speech = value
			}
		case "Visual":
			if visual == "" {
				visual = value
			}
		}
	}
	return title, speech, visual
}

// cleanField trims whitespace, trailing section separators and optional
// surrounding quotes from a field value.
func cleanField(s string) string {
	s = strings.TrimSpace(s)

	// Drop a trailing "---" separator line if the model emitted one.
	if idx := strings.Index(s, "\n---"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "---"))

	// A field quoted by the model keeps only the quoted content.
	if len(s) >= 2 && s[0] == '"' {
		if close := strings.IndexByte(s[1:], '"'); close >= 0 {
			s = s[1 : close+1]
		}
	}
	return strings.TrimSpace(s)
}
