package acoustic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// frameGrid is a regular grid of analysis frames centred in a sound.
type frameGrid struct {
	t1 float64 // centre of the first frame
	dt float64 // time step
	n  int
}

// newFrameGrid lays out floor((duration-window)/step)+1 frames of the given
// window length, centred in the sound.
func newFrameGrid(s *Sound, window, step float64) (frameGrid, error) {
	if window <= 0 || step <= 0 {
		return frameGrid{}, fmt.Errorf("acoustic: window %g s and step %g s must be positive", window, step)
	}
	dur := s.Duration()
	if window > dur {
		return frameGrid{}, fmt.Errorf("%w: %.4f s < %.4f s", ErrSoundTooShort, dur, window)
	}

	// small tolerance so that exact multiples are not lost to rounding
	n := int(math.Floor((dur-window)/step+1e-9)) + 1
	t1 := s.start + (dur-float64(n-1)*step)/2
	return frameGrid{t1: t1, dt: step, n: n}, nil
}

func (g frameGrid) time(i int) float64 {
	return g.t1 + float64(i)*g.dt
}

// Contour holds one value per frame of a regular grid. NaN marks frames where
// the quantity is undefined. It satisfies trajectory.Contour.
type Contour struct {
	grid   frameGrid
	values []float64
}

func newContour(grid frameGrid) *Contour {
	return &Contour{grid: grid, values: make([]float64, grid.n)}
}

// FrameCount returns the number of frames.
func (c *Contour) FrameCount() int { return c.grid.n }

// TimeStep returns the spacing of frame centres in seconds.
func (c *Contour) TimeStep() float64 { return c.grid.dt }

// TimeOfFrame returns the centre of frame i (0-based).
func (c *Contour) TimeOfFrame(i int) float64 { return c.grid.time(i) }

// Timestamps returns the centre of every frame.
func (c *Contour) Timestamps() []float64 {
	ts := make([]float64, c.grid.n)
	for i := range ts {
		ts[i] = c.grid.time(i)
	}
	return ts
}

// Values returns the per-frame values. Callers must not modify them.
func (c *Contour) Values() []float64 { return c.values }

// ValueAtTime interpolates linearly between the two frames around t. Times
// within half a step outside the first or last frame take that frame's value;
// anything further out is NaN, as is an interpolation touching an undefined
// frame.
func (c *Contour) ValueAtTime(t float64) float64 {
	if c.grid.n == 0 || math.IsNaN(t) {
		return math.NaN()
	}

	pos := (t - c.grid.t1) / c.grid.dt
	last := float64(c.grid.n - 1)
	switch {
	case pos < -0.5 || pos > last+0.5:
		return math.NaN()
	case pos <= 0:
		return c.values[0]
	case pos >= last:
		return c.values[c.grid.n-1]
	}

	i := int(math.Floor(pos))
	frac := pos - float64(i)
	if frac < 1e-9 {
		return c.values[i]
	}
	if 1-frac < 1e-9 {
		return c.values[i+1]
	}
	return c.values[i] + frac*(c.values[i+1]-c.values[i])
}

// Range returns the smallest and largest defined values, or NaNs when no
// frame is defined.
func (c *Contour) Range() (float64, float64) {
	defined := make([]float64, 0, len(c.values))
	for _, v := range c.values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(defined), floats.Max(defined)
}
