package visuals

import (
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"explainer-pipeline/config"
	"explainer-pipeline/types"
)

const (
	wrapWidth      = 50
	lineSpacingPx  = 30
	titleBaselineY = 110
	bodyStartY     = 250
)

// candidate font paths, checked in order. The renderer degrades to the
// built-in bitmap face when none of these resolve.
var fontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/Library/Fonts/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// RenderTextCard draws the local fallback image for a scene: a solid
// background with the scene title centered near the top and the word-wrapped
// visual description below it, sized exactly to the configured video frame.
func RenderTextCard(cfg *config.Config, scene types.Scene, outFile string) error {
	dc := gg.NewContext(cfg.Video.Width, cfg.Video.Height)

	// steel blue background, white text
	dc.SetRGB255(70, 130, 180)
	dc.Clear()
	dc.SetRGB255(255, 255, 255)

	centerX := float64(cfg.Video.Width) / 2

	dc.SetFontFace(loadFace(48))
	title := scene.Title
	if title == "" {
		title = "Scene"
	}
	dc.DrawStringAnchored(title, centerX, titleBaselineY, 0.5, 0.5)

	dc.SetFontFace(loadFace(24))
	visual := scene.Visual
	if visual == "" {
		visual = "Visual description"
	}
	for i, line := range wrapText(visual, wrapWidth) {
		y := float64(bodyStartY + i*lineSpacingPx)
		dc.DrawStringAnchored(line, centerX, y, 0.5, 0.5)
	}

	if err := dc.SavePNG(outFile); err != nil {
		return fmt.Errorf("save text card: %w", err)
	}
	return nil
}

// loadFace resolves a truetype face at the given size, falling back to the
// built-in bitmap face when no system font is found.
func loadFace(points float64) font.Face {
	for _, path := range fontCandidates {
		if face, err := gg.LoadFontFace(path, points); err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

// wrapText greedily wraps words so no line exceeds width characters. A
// single word longer than the width gets its own line.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	return append(lines, line)
}
