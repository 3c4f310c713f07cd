package chart

import (
	"fmt"
	"image"
)

// Series is one plotted line.
type Series struct {
	Label  string
	Values []float64
}

// LineData is a set of series sharing one x axis.
type LineData struct {
	Title   string
	XLabels []string
	Series  []Series
}

const ticks = 5

// axes draws the y axis with ticks from 0 to top and the x baseline, and
// returns the scale mapping a value to a y pixel.
func (c *canvas) axes(plot image.Rectangle, top float64) func(float64) int {
	c.line(plot.Min.X, plot.Min.Y, plot.Min.X, plot.Max.Y, 1, black)
	c.line(plot.Min.X, plot.Max.Y, plot.Max.X, plot.Max.Y, 1, black)

	scale := func(v float64) int {
		return plot.Max.Y - int(v/top*float64(plot.Dy()))
	}
	for i := 0; i <= ticks; i++ {
		v := top * float64(i) / ticks
		y := scale(v)
		if i > 0 {
			c.line(plot.Min.X+1, y, plot.Max.X, y, 1, grey)
		}
		label := formatValue(v)
		c.text(plot.Min.X-margin/2-c.textWidth(label), y+glyphHeight/2-2, label, black)
	}
	return scale
}

func peak(values ...[]float64) float64 {
	top := 0.0
	for _, vs := range values {
		for _, v := range vs {
			top = max(top, v)
		}
	}
	if top <= 0 {
		return 1
	}
	return top
}

// Lines renders one line per series with a legend on the right.
func Lines(d LineData, opts Options) ([]byte, error) {
	if len(d.XLabels) == 0 || len(d.Series) == 0 {
		return nil, ErrEmpty
	}
	all := make([][]float64, len(d.Series))
	labels := make([]string, len(d.Series))
	for i, s := range d.Series {
		if len(s.Values) != len(d.XLabels) {
			return nil, fmt.Errorf("series %q has %d values for %d x labels", s.Label, len(s.Values), len(d.XLabels))
		}
		all[i] = s.Values
		labels[i] = s.Label
	}

	c := newCanvas(opts)
	b := c.bounds()
	top := peak(all...)
	legendW := longest(c, labels) + margin*3
	plot := image.Rect(
		margin*2+c.textWidth(formatValue(top)),
		margin*3+glyphHeight,
		b.Dx()-legendW-margin,
		b.Dy()-margin*2-glyphHeight,
	)
	if plot.Dx() < len(d.XLabels) || plot.Dy() < ticks {
		return nil, ErrTooSmall
	}

	c.title(d.Title)
	scale := c.axes(plot, top)

	step := plot.Dx() / max(len(d.XLabels), 1)
	x := func(i int) int { return plot.Min.X + step*i + step/2 }
	for i, label := range d.XLabels {
		c.centered(x(i), plot.Max.Y+margin, label, black)
	}

	for si, s := range d.Series {
		col := seriesColor(si)
		for i := range s.Values {
			if i > 0 {
				c.line(x(i-1), scale(s.Values[i-1]), x(i), scale(s.Values[i]), 2, col)
			}
			c.fill(image.Rect(x(i)-2, scale(s.Values[i])-2, x(i)+3, scale(s.Values[i])+3), col)
		}

		ly := plot.Min.Y + si*(glyphHeight+4)
		lx := plot.Max.X + margin
		c.fill(image.Rect(lx, ly+3, lx+margin, ly+glyphHeight-3), col)
		c.text(lx+margin+4, ly+glyphHeight-2, s.Label, black)
	}

	return c.encode()
}

// Bars renders a vertical bar chart with the value above each bar.
func Bars(title string, labels []string, values []float64, opts Options) ([]byte, error) {
	if len(labels) == 0 {
		return nil, ErrEmpty
	}
	if len(values) != len(labels) {
		return nil, fmt.Errorf("bar chart has %d values for %d labels", len(values), len(labels))
	}

	c := newCanvas(opts)
	b := c.bounds()
	top := peak(values) * 1.1
	plot := image.Rect(
		margin*2+c.textWidth(formatValue(top)),
		margin*3+glyphHeight,
		b.Dx()-margin*2,
		b.Dy()-margin*2-glyphHeight,
	)
	if plot.Dx() < len(labels)*2 || plot.Dy() < ticks {
		return nil, ErrTooSmall
	}

	c.title(title)
	scale := c.axes(plot, top)

	step := plot.Dx() / len(labels)
	barW := max(step*2/3, 1)
	for i, v := range values {
		x0 := plot.Min.X + step*i + (step-barW)/2
		y := scale(v)
		c.fill(image.Rect(x0, y, x0+barW, plot.Max.Y), seriesColor(0))
		c.centered(x0+barW/2, y-margin/2-2, formatValue(v), black)
		c.centered(x0+barW/2, plot.Max.Y+margin, labels[i], black)
	}

	return c.encode()
}
