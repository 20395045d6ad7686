package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-phonetics/analysis"
	"github.com/RyanBlaney/sonido-phonetics/analysis/config"
	"github.com/RyanBlaney/sonido-phonetics/logging"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
)

// Format selects the encoding of the summary file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", s)
	}
}

// Bundle is the persisted description of one run.
type Bundle struct {
	SessionID   string                    `json:"session_id" yaml:"session_id"`
	AudioPath   string                    `json:"audio_path" yaml:"audio_path"`
	GeneratedAt time.Time                 `json:"generated_at" yaml:"generated_at"`
	Preset      config.Preset             `json:"preset" yaml:"preset"`
	Duration    float64                   `json:"duration" yaml:"duration"`
	From        float64                   `json:"from" yaml:"from"`
	To          float64                   `json:"to" yaml:"to"`
	Summaries   []trajectory.TrackSummary `json:"summaries" yaml:"summaries"`
	Config      *config.AnalysisConfig    `json:"config,omitempty" yaml:"config,omitempty"`

	tracks    []analysis.Track
	intensity trajectory.TimeSeries
}

// NewBundle collects what Persist writes from an analysis result.
func NewBundle(res *analysis.Result, cfg *config.AnalysisConfig) *Bundle {
	return &Bundle{
		AudioPath:   res.Path,
		GeneratedAt: res.Generated,
		Preset:      res.Preset,
		Duration:    res.Duration,
		From:        res.From,
		To:          res.To,
		Summaries:   res.Summaries(),
		Config:      cfg,
		tracks:      res.Tracks,
		intensity:   res.Intensity,
	}
}

// Persist creates root/session_YYYYMMDD-HHMMSS and writes summary.json or
// summary.yaml plus tracks.json. It returns the session directory.
func Persist(root string, bundle *Bundle, format Format) (string, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "report",
		"function":  "Persist",
	})

	sid, dir, err := mkSessionDir(root)
	if err != nil {
		return "", fmt.Errorf("report: create session dir: %w", err)
	}
	bundle.SessionID = sid

	switch format {
	case FormatYAML:
		err = writeYAML(filepath.Join(dir, "summary.yaml"), bundle)
	case FormatJSON, "":
		err = writeJSON(filepath.Join(dir, "summary.json"), jsonBundle(bundle))
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("report: write summary: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "tracks.json"), trackRecords(bundle)); err != nil {
		return "", fmt.Errorf("report: write tracks: %w", err)
	}

	logger.Info("Report persisted", logging.Fields{
		"session": sid,
		"dir":     dir,
		"format":  format,
	})
	return dir, nil
}

func mkSessionDir(outputsRoot string) (string, string, error) {
	ts := time.Now().Format("20060102-150405")
	sid := "session_" + ts
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// number encodes NaN and infinities as JSON null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

type summaryRecord struct {
	Track     trajectory.TrackIndex `json:"track"`
	Name      string                `json:"name"`
	Mean      number                `json:"mean"`
	First     number                `json:"first"`
	Last      number                `json:"last"`
	NetChange number                `json:"net_change"`
	JND       number                `json:"jnd"`
	Trend     trajectory.Trend      `json:"trend"`
	Points    int                   `json:"points"`
}

type pointRecord struct {
	T number `json:"t"`
	V number `json:"v"`
}

type trackRecord struct {
	Track       trajectory.TrackIndex `json:"track"`
	Name        string                `json:"name"`
	Series      []pointRecord         `json:"series"`
	Differences []pointRecord         `json:"differences"`
}

type tracksFile struct {
	Tracks    []trackRecord `json:"tracks"`
	Intensity []pointRecord `json:"intensity"`
}

func jsonBundle(b *Bundle) any {
	summaries := make([]summaryRecord, len(b.Summaries))
	for i, s := range b.Summaries {
		summaries[i] = summaryRecord{
			Track:     s.Track,
			Name:      s.Name,
			Mean:      number(s.Mean),
			First:     number(s.First),
			Last:      number(s.Last),
			NetChange: number(s.NetChange),
			JND:       number(s.JND),
			Trend:     s.Trend,
			Points:    s.Points,
		}
	}
	return struct {
		SessionID   string                 `json:"session_id"`
		AudioPath   string                 `json:"audio_path"`
		GeneratedAt time.Time              `json:"generated_at"`
		Preset      config.Preset          `json:"preset"`
		Duration    float64                `json:"duration"`
		From        float64                `json:"from"`
		To          float64                `json:"to"`
		Summaries   []summaryRecord        `json:"summaries"`
		Config      *config.AnalysisConfig `json:"config,omitempty"`
	}{b.SessionID, b.AudioPath, b.GeneratedAt, b.Preset, b.Duration, b.From, b.To, summaries, b.Config}
}

func points(s []trajectory.Point) []pointRecord {
	out := make([]pointRecord, len(s))
	for i, p := range s {
		out[i] = pointRecord{T: number(p.Time), V: number(p.Value)}
	}
	return out
}

func trackRecords(b *Bundle) tracksFile {
	out := tracksFile{
		Tracks:    make([]trackRecord, len(b.tracks)),
		Intensity: points(b.intensity),
	}
	for i, t := range b.tracks {
		out.Tracks[i] = trackRecord{
			Track:       t.Index,
			Name:        t.Name,
			Series:      points(t.Series),
			Differences: points(t.Differences),
		}
	}
	return out
}
