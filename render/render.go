// Package render draws waveforms, spectrograms and track trajectories to
// PNG files with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RyanBlaney/sonido-phonetics/logging"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

var ErrNothingToPlot = errors.New("render: nothing to plot")

// Options controls figure size and the spectrogram colour range.
type Options struct {
	Width  vg.Length
	Height vg.Length
	Title  string
	// DynamicRange is how far below the peak (dB) the spectrogram palette
	// reaches; quieter cells are drawn white.
	DynamicRange float64
}

// DefaultOptions returns a 10x4 inch figure with a 70 dB range.
func DefaultOptions() Options {
	return Options{
		Width:        10 * vg.Inch,
		Height:       4 * vg.Inch,
		DynamicRange: 70,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.DynamicRange <= 0 {
		o.DynamicRange = d.DynamicRange
	}
	return o
}

// Series is one named track with its differences.
type Series struct {
	Name        string
	Values      trajectory.TimeSeries
	Differences trajectory.DifferenceSeries
}

// definedXYs keeps the finite, non-zero points of s. Zero stands for an
// undefined value once substitution has run.
func definedXYs(s []trajectory.Point) plotter.XYs {
	xys := make(plotter.XYs, 0, len(s))
	for _, p := range s {
		if p.Value == 0 || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: p.Time, Y: p.Value})
	}
	return xys
}

// finiteXYs keeps every finite point of s, zeros included.
func finiteXYs(s []trajectory.Point) plotter.XYs {
	xys := make(plotter.XYs, 0, len(s))
	for _, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: p.Time, Y: p.Value})
	}
	return xys
}

func newLine(xys plotter.XYs, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = vg.Points(1)
	return line, nil
}

// save writes a single plot.
func save(p *plot.Plot, path string, opts Options) error {
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	logging.Debug("Figure written", logging.Fields{
		"component": "render",
		"path":      path,
	})
	return nil
}

// saveStack draws plots as rows of one image, each row opts.Height tall.
func saveStack(path string, opts Options, plots ...*plot.Plot) error {
	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(opts.Width, opts.Height*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(plots),
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: 2 * vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range plots {
		rows[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("render: write %s: %w", path, err)
	}
	logging.Debug("Figure written", logging.Fields{
		"component": "render",
		"path":      path,
		"panels":    len(plots),
	})
	return nil
}
