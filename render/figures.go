package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/RyanBlaney/sonido-phonetics/acoustic"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

// maxWaveformPoints bounds the number of vertices in a waveform line.
const maxWaveformPoints = 20000

// Waveform plots amplitude against time.
func Waveform(path string, s *acoustic.Sound, opts Options) error {
	opts = opts.withDefaults()
	if s == nil || len(s.Samples()) == 0 {
		return ErrNothingToPlot
	}

	samples, xs := s.Samples(), s.Xs()
	stride := max(1, len(samples)/maxWaveformPoints)
	pts := make(plotter.XYs, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		pts = append(pts, plotter.XY{X: xs[i], Y: samples[i]})
	}

	p := plot.New()
	p.Title.Text = titleOr(opts.Title, "Waveform")
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"
	p.X.Min, p.X.Max = s.Start(), s.End()

	line, err := newLine(pts, color.Black)
	if err != nil {
		return fmt.Errorf("render: waveform: %w", err)
	}
	p.Add(line)
	return save(p, path, opts)
}

// Spectrogram plots sg in grey levels, white below the dynamic range.
func Spectrogram(path string, sg *acoustic.Spectrogram, opts Options) error {
	opts = opts.withDefaults()
	p, err := spectrogramPlot(sg, opts)
	if err != nil {
		return err
	}
	p.Title.Text = titleOr(opts.Title, "Spectrogram")
	return save(p, path, opts)
}

// Tracks overlays every series on the spectrogram and adds an intensity
// panel underneath when intensity is non-empty. A nil spectrogram leaves the
// background blank.
func Tracks(path string, sg *acoustic.Spectrogram, tracks []Series, intensity trajectory.TimeSeries, opts Options) error {
	opts = opts.withDefaults()
	if len(tracks) == 0 && sg == nil {
		return ErrNothingToPlot
	}

	var top *plot.Plot
	if sg != nil {
		p, err := spectrogramPlot(sg, opts)
		if err != nil {
			return err
		}
		top = p
	} else {
		top = plot.New()
		top.X.Label.Text = "Time (s)"
		top.Y.Label.Text = "Frequency (Hz)"
	}
	top.Title.Text = titleOr(opts.Title, "Tracks")
	top.Legend.Top = true

	for i, s := range tracks {
		xys := definedXYs(s.Values)
		if len(xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("render: %s: %w", s.Name, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		top.Add(sc)
		top.Legend.Add(s.Name, sc)
	}

	if len(intensity) == 0 {
		return save(top, path, opts)
	}

	bottom := plot.New()
	bottom.X.Label.Text = "Time (s)"
	bottom.Y.Label.Text = "Intensity (dB)"
	if xys := finiteXYs(intensity); len(xys) > 0 {
		line, err := newLine(xys, color.RGBA{R: 200, G: 120, A: 255})
		if err != nil {
			return fmt.Errorf("render: intensity: %w", err)
		}
		bottom.Add(line)
	}
	bottom.X.Min, bottom.X.Max = top.X.Min, top.X.Max
	return saveStack(path, opts, top, bottom)
}

// DifferenceGrid draws one panel per series: the values as a line over
// vertical bands coloured by each difference, scaled by the largest
// absolute difference of that series.
func DifferenceGrid(path string, tracks []Series, opts Options) error {
	opts = opts.withDefaults()
	if len(tracks) == 0 {
		return ErrNothingToPlot
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	pal := cmap.Palette(255)

	panels := make([]*plot.Plot, len(tracks))
	for i, s := range tracks {
		p := plot.New()
		p.Title.Text = s.Name
		p.Y.Label.Text = "Hz"
		if i == len(tracks)-1 {
			p.X.Label.Text = "Time (s)"
		}

		xys := finiteXYs(s.Values)
		lo, hi := yBounds(xys)
		if bands := newDifferenceBands(s.Differences, lo, hi); bands != nil {
			hm := plotter.NewHeatMap(bands, pal)
			hm.Min, hm.Max = -1, 1
			p.Add(hm)
		}
		if len(xys) > 0 {
			line, err := newLine(xys, color.Black)
			if err != nil {
				return fmt.Errorf("render: %s: %w", s.Name, err)
			}
			p.Add(line)
		}
		panels[i] = p
	}

	perPanel := opts
	perPanel.Height = max(opts.Height/2, 1.5*vg.Inch)
	return saveStack(path, perPanel, panels...)
}

// RawAndDifferences draws a series above its differences.
func RawAndDifferences(path string, s Series, opts Options) error {
	opts = opts.withDefaults()
	raw, diffs := finiteXYs(s.Values), finiteXYs(s.Differences)
	if len(raw) == 0 && len(diffs) == 0 {
		return ErrNothingToPlot
	}

	top := plot.New()
	top.Title.Text = titleOr(opts.Title, s.Name)
	top.Y.Label.Text = "Hz"
	bottom := plot.New()
	bottom.X.Label.Text = "Time (s)"
	bottom.Y.Label.Text = "Δ Hz"

	for _, panel := range []struct {
		p   *plot.Plot
		xys plotter.XYs
		c   color.Color
	}{
		{top, raw, plotutil.Color(0)},
		{bottom, diffs, plotutil.Color(1)},
	} {
		if len(panel.xys) == 0 {
			continue
		}
		line, err := newLine(panel.xys, panel.c)
		if err != nil {
			return fmt.Errorf("render: %s: %w", s.Name, err)
		}
		panel.p.Add(line)
	}
	bottom.Add(plotter.NewGrid())

	return saveStack(path, opts, top, bottom)
}

func spectrogramPlot(sg *acoustic.Spectrogram, opts Options) (*plot.Plot, error) {
	if sg == nil || sg.FrameCount() == 0 || sg.BinCount() == 0 {
		return nil, ErrNothingToPlot
	}
	hi := sg.MaxDB()
	grid := &spectrogramGrid{
		db:    sg.DB(),
		times: sg.Times,
		freqs: sg.Freqs,
		lo:    hi - opts.DynamicRange,
		hi:    hi,
	}

	hm := plotter.NewHeatMap(grid, binaryPalette(64))
	hm.Min, hm.Max = grid.lo, grid.hi
	hm.Rasterized = true

	p := plot.New()
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Frequency (Hz)"
	p.Add(hm)
	p.X.Min = sg.Times[0] - sg.TimeStep/2
	p.X.Max = sg.Times[len(sg.Times)-1] + sg.TimeStep/2
	p.Y.Min = 0
	p.Y.Max = sg.Freqs[len(sg.Freqs)-1]
	return p, nil
}

// spectrogramGrid exposes a dB grid to plotter.HeatMap, clamped to lo..hi.
type spectrogramGrid struct {
	db     [][]float64
	times  []float64
	freqs  []float64
	lo, hi float64
}

func (g *spectrogramGrid) Dims() (c, r int) { return len(g.times), len(g.freqs) }
func (g *spectrogramGrid) X(c int) float64  { return g.times[c] }
func (g *spectrogramGrid) Y(r int) float64  { return g.freqs[r] }
func (g *spectrogramGrid) Min() float64     { return g.lo }
func (g *spectrogramGrid) Max() float64     { return g.hi }

func (g *spectrogramGrid) Z(c, r int) float64 {
	return math.Max(g.lo, math.Min(g.hi, g.db[c][r]))
}

// differenceBands is a two-row grid spanning lo..hi with one column per
// difference.
type differenceBands struct {
	diffs  trajectory.DifferenceSeries
	scale  float64
	lo, hi float64
}

// newDifferenceBands returns nil when there is nothing to colour.
func newDifferenceBands(d trajectory.DifferenceSeries, lo, hi float64) *differenceBands {
	scale := d.MaxAbs()
	if len(d) < 2 || scale == 0 {
		return nil
	}
	return &differenceBands{diffs: d, scale: scale, lo: lo, hi: hi}
}

func (b *differenceBands) Dims() (c, r int) { return len(b.diffs), 2 }
func (b *differenceBands) X(c int) float64  { return b.diffs[c].Time }
func (b *differenceBands) Min() float64     { return -1 }
func (b *differenceBands) Max() float64     { return 1 }

func (b *differenceBands) Y(r int) float64 {
	if r == 0 {
		return b.lo
	}
	return b.hi
}

func (b *differenceBands) Z(c, _ int) float64 {
	return b.diffs[c].Value / b.scale
}

// binaryPalette runs from white to black.
type binaryPalette int

func (n binaryPalette) Colors() []color.Color {
	count := max(int(n), 2)
	colors := make([]color.Color, count)
	for i := range colors {
		v := uint8(255 - 255*i/(count-1))
		colors[i] = color.Gray{Y: v}
	}
	return colors
}

var _ palette.Palette = binaryPalette(0)

func yBounds(xys plotter.XYs) (lo, hi float64) {
	if len(xys) == 0 {
		return 0, 1
	}
	_, _, lo, hi = plotter.XYRange(xys)
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}
