// Package report prints and persists analysis results.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

// WriteText prints, for every track, its mean value and its trend with the
// net change:
//
//	F1: 133
//	Rising: 66
func WriteText(w io.Writer, summaries []trajectory.TrackSummary) error {
	for _, s := range summaries {
		if _, err := fmt.Fprintf(w, "%s: %s\n%s: %s\n", s.Name, formatValue(s.Mean), s.Trend, formatValue(s.NetChange)); err != nil {
			return fmt.Errorf("report: write text: %w", err)
		}
	}
	return nil
}

// WriteValues prints the tracks as tab-separated columns, one row per time
// of the first track. Tracks sampled on other times are read at the nearest
// point.
func WriteValues(w io.Writer, names []string, tracks []trajectory.TimeSeries) error {
	if len(names) != len(tracks) {
		return fmt.Errorf("report: %d names for %d tracks", len(names), len(tracks))
	}
	if len(tracks) == 0 {
		return nil
	}

	header := append([]string{"time"}, names...)
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return fmt.Errorf("report: write values: %w", err)
	}

	cols := make([]string, len(tracks)+1)
	cursors := make([]int, len(tracks))
	for _, p := range tracks[0] {
		cols[0] = strconv.FormatFloat(p.Time, 'f', 6, 64)
		for i, s := range tracks {
			cols[i+1] = formatValue(nearest(s, p.Time, &cursors[i]))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cols, "\t")); err != nil {
			return fmt.Errorf("report: write values: %w", err)
		}
	}
	return nil
}

// nearest advances *cursor through s (whose times increase) to the point
// closest to t.
func nearest(s trajectory.TimeSeries, t float64, cursor *int) float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	i := *cursor
	for i+1 < len(s) && math.Abs(s[i+1].Time-t) <= math.Abs(s[i].Time-t) {
		i++
	}
	*cursor = i
	return s[i].Value
}

// formatValue rounds to two decimals and drops trailing zeros.
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "undefined"
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
