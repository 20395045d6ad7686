package report

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-phonetics/analysis"
	"github.com/RyanBlaney/sonido-phonetics/analysis/config"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

func TestWriteText(t *testing.T) {
	summaries := []trajectory.TrackSummary{
		{Track: trajectory.F1, Name: "F1", Mean: 133.004, NetChange: 66, Trend: trajectory.Rising},
		{Track: trajectory.F2, Name: "F2", Mean: 1500.456, NetChange: -0.001, Trend: trajectory.Flat},
		{Track: trajectory.Pitch, Name: "F0", Mean: math.NaN(), NetChange: math.NaN(), Trend: trajectory.Flat},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summaries); err != nil {
		t.Fatal(err)
	}
	want := "F1: 133\nRising: 66\nF2: 1500.46\nFlat: 0\nF0: undefined\nFlat: undefined\n"
	if buf.String() != want {
		t.Errorf("got\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteValues(t *testing.T) {
	f0 := trajectory.TimeSeries{{Time: 0.01, Value: 100}, {Time: 0.02, Value: 110}, {Time: 0.03, Value: math.NaN()}}
	f1 := trajectory.TimeSeries{{Time: 0.009, Value: 500}, {Time: 0.0205, Value: 520}, {Time: 0.031, Value: 540}}

	var buf bytes.Buffer
	if err := WriteValues(&buf, []string{"F0", "F1"}, []trajectory.TimeSeries{f0, f1}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"time\tF0\tF1",
		"0.010000\t100\t500",
		"0.020000\t110\t520",
		"0.030000\tundefined\t540",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	if err := WriteValues(&buf, []string{"F0"}, nil); err == nil {
		t.Error("expected name/track mismatch error")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, "": FormatJSON} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected error for csv")
	}
}

func sampleResult() *analysis.Result {
	series := trajectory.TimeSeries{{Time: 0.1, Value: 120}, {Time: 0.2, Value: math.NaN()}, {Time: 0.3, Value: 140}}
	diffs, _ := trajectory.Difference(series)
	summary, _ := trajectory.Summarize(trajectory.Pitch, series, 5)
	return &analysis.Result{
		Path:      "speech.wav",
		Preset:    config.PresetCoarse,
		Duration:  0.4,
		To:        0.4,
		Generated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Tracks: []analysis.Track{{
			Index:       trajectory.Pitch,
			Name:        "F0",
			Series:      series,
			Differences: diffs,
			Summary:     summary,
		}},
		Intensity: trajectory.TimeSeries{{Time: 0.1, Value: 62}, {Time: 0.2, Value: 64}},
	}
}

func TestPersistJSON(t *testing.T) {
	root := t.TempDir()
	dir, err := Persist(root, NewBundle(sampleResult(), config.DefaultAnalysisConfig()), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(dir), "session_") || filepath.Dir(dir) != root {
		t.Errorf("session dir = %s", dir)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatal(err)
	}
	var summary struct {
		SessionID string `json:"session_id"`
		Summaries []struct {
			Name      string   `json:"name"`
			Mean      *float64 `json:"mean"`
			NetChange *float64 `json:"net_change"`
			Trend     string   `json:"trend"`
		} `json:"summaries"`
		Config map[string]any `json:"config"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("summary.json: %v\n%s", err, raw)
	}
	if summary.SessionID != filepath.Base(dir) {
		t.Errorf("session id = %q", summary.SessionID)
	}
	if len(summary.Summaries) != 1 {
		t.Fatalf("summaries = %+v", summary.Summaries)
	}
	s := summary.Summaries[0]
	if s.Name != "F0" || s.Trend != "Rising" || s.Mean == nil || *s.Mean != 130 || *s.NetChange != 20 {
		t.Errorf("summary = %+v", s)
	}
	if summary.Config["preset"] != "coarse" {
		t.Errorf("config = %v", summary.Config)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "tracks.json"))
	if err != nil {
		t.Fatal(err)
	}
	var tracks struct {
		Tracks []struct {
			Series []struct {
				T float64  `json:"t"`
				V *float64 `json:"v"`
			} `json:"series"`
			Differences []struct {
				V *float64 `json:"v"`
			} `json:"differences"`
		} `json:"tracks"`
		Intensity []struct{} `json:"intensity"`
	}
	if err := json.Unmarshal(raw, &tracks); err != nil {
		t.Fatalf("tracks.json: %v\n%s", err, raw)
	}
	pts := tracks.Tracks[0].Series
	if len(pts) != 3 || pts[1].V != nil || *pts[2].V != 140 {
		t.Errorf("series = %s", raw)
	}
	if d := tracks.Tracks[0].Differences; len(d) != 2 || d[0].V != nil {
		t.Errorf("undefined difference not null: %s", raw)
	}
	if len(tracks.Intensity) != 2 {
		t.Errorf("intensity = %d points", len(tracks.Intensity))
	}
}

func TestPersistYAML(t *testing.T) {
	dir, err := Persist(t.TempDir(), NewBundle(sampleResult(), nil), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "summary.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("summary.yaml: %v\n%s", err, raw)
	}
	if doc["audio_path"] != "speech.wav" || doc["preset"] != "coarse" {
		t.Errorf("doc = %v", doc)
	}
	if _, ok := doc["config"]; ok {
		t.Error("nil config should be omitted")
	}
	if !strings.Contains(string(raw), "trend: Rising") {
		t.Errorf("trend not written as text:\n%s", raw)
	}
	if _, err := os.Stat(filepath.Join(dir, "tracks.json")); err != nil {
		t.Error(err)
	}
}
