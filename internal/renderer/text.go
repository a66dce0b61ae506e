package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/bassista/go_graphview/internal/logger"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	textPadding    = 20
	textLineHeight = 16
	// maxTextLines keeps the placeholder canvas bounded for very large sources.
	maxTextLines = 400
)

// TextBackend draws the diagram source as plain text on a dark canvas.
// It needs no browser and is meant for development and smoke tests.
type TextBackend struct {
	opts Options
}

func NewTextBackend(opts Options) *TextBackend {
	opts.defaults()
	return &TextBackend{opts: opts}
}

func (t *TextBackend) Name() string { return "text" }

func (t *TextBackend) Close() error { return nil }

// Render draws job.Source line by line. The canvas grows to fit the text.
func (t *TextBackend) Render(ctx context.Context, job Job) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(job.Source, "\r\n", "\n"), "\n")
	if len(lines) > maxTextLines {
		lines = append(lines[:maxTextLines], fmt.Sprintf("... (%d more lines)", len(lines)-maxTextLines))
	}

	face := basicfont.Face7x13
	measure := &font.Drawer{Face: face}
	width := 0
	for _, line := range lines {
		if w := measure.MeasureString(line).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * textPadding
	height := len(lines)*textLineHeight + 2*textPadding
	if width < 200 {
		width = 200
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: parseHexColor(t.opts.Background)}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}),
		Face: face,
	}
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.Dot = fixed.P(textPadding, textPadding+(i+1)*textLineHeight-3)
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	logger.WithComponent("renderer").WithField("job", job.ID).Debugf("text backend drew %d lines", len(lines))
	return buf.Bytes(), nil
}

// parseHexColor accepts #rgb or #rrggbb and falls back to the default dark background.
func parseHexColor(s string) color.RGBA {
	c := color.RGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err == nil {
			c = color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xff}
		}
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "%2x%2x%2x", &r, &g, &b); err == nil {
			c = color.RGBA{R: r, G: g, B: b, A: 0xff}
		}
	}
	return c
}
