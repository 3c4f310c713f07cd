package chart

import (
	"fmt"
	"image"
	"image/color"
)

// Grid is a labelled matrix of values.
type Grid struct {
	Title     string
	RowLabels []string
	ColLabels []string
	Values    [][]float64
}

func (g Grid) validate() error {
	if len(g.RowLabels) == 0 || len(g.ColLabels) == 0 {
		return ErrEmpty
	}
	if len(g.Values) != len(g.RowLabels) {
		return fmt.Errorf("grid has %d rows but %d row labels", len(g.Values), len(g.RowLabels))
	}
	for i, row := range g.Values {
		if len(row) != len(g.ColLabels) {
			return fmt.Errorf("grid row %d has %d cells but %d column labels", i, len(row), len(g.ColLabels))
		}
	}
	return nil
}

func (g Grid) bounds() (lo, hi float64) {
	first := true
	for _, row := range g.Values {
		for _, v := range row {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

// ylOrRd are the stops of the yellow-orange-red sequential scale.
var ylOrRd = []color.RGBA{
	{0xff, 0xff, 0xcc, 0xff},
	{0xff, 0xed, 0xa0, 0xff},
	{0xfe, 0xd9, 0x76, 0xff},
	{0xfe, 0xb2, 0x4c, 0xff},
	{0xfd, 0x8d, 0x3c, 0xff},
	{0xfc, 0x4e, 0x2a, 0xff},
	{0xe3, 0x1a, 0x1c, 0xff},
	{0xbd, 0x00, 0x26, 0xff},
	{0x80, 0x00, 0x26, 0xff},
}

// scaleColor maps t in [0, 1] onto the YlOrRd scale.
func scaleColor(t float64) color.RGBA {
	switch {
	case t <= 0:
		return ylOrRd[0]
	case t >= 1:
		return ylOrRd[len(ylOrRd)-1]
	}
	pos := t * float64(len(ylOrRd)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := ylOrRd[i], ylOrRd[i+1]
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// Heatmap renders g as an annotated YlOrRd heatmap with a scale bar.
func Heatmap(g Grid, opts Options) ([]byte, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}

	c := newCanvas(opts)
	b := c.bounds()
	const barWidth = 16

	left := margin + longest(c, g.RowLabels) + margin
	top := margin*2 + glyphHeight
	right := b.Dx() - margin*3 - barWidth - c.textWidth("000000")
	bottom := b.Dy() - margin*2 - glyphHeight

	cols, rows := len(g.ColLabels), len(g.RowLabels)
	if right-left < cols || bottom-top < rows {
		return nil, ErrTooSmall
	}
	cellW := (right - left) / cols
	cellH := (bottom - top) / rows

	lo, hi := g.bounds()
	norm := func(v float64) float64 {
		if hi == lo {
			return 0
		}
		return (v - lo) / (hi - lo)
	}

	c.title(g.Title)
	for i, label := range g.RowLabels {
		cy := top + i*cellH + cellH/2
		c.text(left-margin-c.textWidth(label), cy+glyphHeight/2-2, label, black)
		for j, v := range g.Values[i] {
			x0, y0 := left+j*cellW, top+i*cellH
			t := norm(v)
			c.fill(image.Rect(x0, y0, x0+cellW, y0+cellH), scaleColor(t))
			if cellW >= c.textWidth(formatValue(v)) && cellH >= glyphHeight {
				ink := black
				if t > 0.6 {
					ink = white
				}
				c.centered(x0+cellW/2, y0+cellH/2, formatValue(v), ink)
			}
		}
	}
	for j, label := range g.ColLabels {
		c.centered(left+j*cellW+cellW/2, top+rows*cellH+margin, label, black)
	}

	// scale bar, high values on top
	barX := left + cols*cellW + margin*2
	barH := rows * cellH
	for y := 0; y < barH; y++ {
		t := 1 - float64(y)/float64(max(barH-1, 1))
		c.fill(image.Rect(barX, top+y, barX+barWidth, top+y+1), scaleColor(t))
	}
	c.text(barX+barWidth+4, top+glyphHeight-2, formatValue(hi), black)
	c.text(barX+barWidth+4, top+barH, formatValue(lo), black)

	return c.encode()
}
