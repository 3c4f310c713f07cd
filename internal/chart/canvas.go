// Package chart rasterizes already aggregated report views into PNG images.
//
// Rendering is configured entirely through Options; nothing here reads global
// state, so charts for concurrent runs can be drawn side by side. Text is
// drawn with the basic 7x13 bitmap face, which only covers ASCII, so callers
// pass ASCII labels (see stores.Directory.Label).
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// ErrEmpty is returned when there is nothing to plot.
	ErrEmpty = errors.New("chart has no data")

	// ErrTooSmall is returned when the canvas cannot fit the plot.
	ErrTooSmall = errors.New("chart canvas too small")
)

// Default canvas size.
const (
	DefaultWidth  = 1200
	DefaultHeight = 600
)

// Options control the canvas of one chart.
type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var (
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	grey  = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}
)

const (
	glyphWidth  = 7
	glyphHeight = 13
	margin      = 12
)

type canvas struct {
	img  *image.RGBA
	face font.Face
}

func newCanvas(opts Options) *canvas {
	w, h := opts.size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)
	return &canvas{img: img, face: basicfont.Face7x13}
}

func (c *canvas) bounds() image.Rectangle {
	return c.img.Bounds()
}

func (c *canvas) fill(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func (c *canvas) textWidth(s string) int {
	return font.MeasureString(c.face, s).Round()
}

// text draws s with its baseline starting at (x, y).
func (c *canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// centered draws s centered on (cx, cy).
func (c *canvas) centered(cx, cy int, s string, col color.Color) {
	c.text(cx-c.textWidth(s)/2, cy+glyphHeight/2-2, s, col)
}

func (c *canvas) title(s string) {
	if s != "" {
		c.centered(c.bounds().Dx()/2, margin+glyphHeight/2, s, black)
	}
}

// line draws a segment of the given thickness.
func (c *canvas) line(x0, y0, x1, y1, thickness int, col color.Color) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy), 1)
	half := thickness / 2
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		c.fill(image.Rect(x-half, y-half, x-half+thickness, y-half+thickness), col)
	}
}

func (c *canvas) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func longest(c *canvas, labels []string) int {
	w := 0
	for _, l := range labels {
		w = max(w, c.textWidth(l))
	}
	return w
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// palette is a qualitative palette for series and bars.
var palette = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
	{0xe3, 0x77, 0xc2, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff},
	{0xbc, 0xbd, 0x22, 0xff},
	{0x17, 0xbe, 0xcf, 0xff},
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}
