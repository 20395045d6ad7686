package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-phonetics/analysis"
	"github.com/RyanBlaney/sonido-phonetics/analysis/config"
	"github.com/RyanBlaney/sonido-phonetics/logging"
	"github.com/RyanBlaney/sonido-phonetics/render"
	"github.com/RyanBlaney/sonido-phonetics/report"
	"github.com/RyanBlaney/sonido-phonetics/trajectory"
	"github.com/RyanBlaney/sonido-phonetics/transcode"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	raw        bool
	v          *viper.Viper
}

// overrides maps command-line flags to configuration keys. Only flags the
// user actually set are applied, so presets keep their own values otherwise.
var overrides = map[string]string{
	"preset":          "preset",
	"tracks":          "tracks",
	"intensity-floor": "intensity_floor",
	"from":            "from",
	"to":              "to",
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "phonetrack",
		Short:         "Pitch and formant trajectory analysis for WAV recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := logging.ParseLevel(a.logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", a.logLevel)
			}
			logging.SetLevel(level)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "info", "debug, info, warn or error")
	pf.String("preset", string(config.PresetCoarse), "analysis preset: fine, coarse or assignment")
	pf.StringSlice("tracks", nil, "tracks to extract, e.g. F0,F1,F2 (default all)")
	pf.Float64("intensity-floor", 0, "zero track values quieter than this many dB")
	pf.BoolVar(&a.raw, "raw", false, "keep undefined values instead of substituting 0")
	pf.Float64("from", 0, "start of the analysed window (s)")
	pf.Float64("to", 0, "end of the analysed window (s); 0 means end of file")

	root.AddCommand(
		a.analyzeCmd(),
		a.waveformCmd(),
		a.spectrogramCmd(),
		a.tracksCmd(),
		a.valuesCmd(),
		a.clipCmd(),
		a.configCmd(),
	)
	return root
}

// loadConfig merges file, environment and changed flags into a validated
// configuration.
func (a *app) loadConfig(cmd *cobra.Command) (*config.AnalysisConfig, error) {
	flags := cmd.Flags()
	for name, key := range overrides {
		if !flags.Changed(name) {
			continue
		}
		var (
			value any
			err   error
		)
		switch name {
		case "preset":
			value, err = flags.GetString(name)
		case "tracks":
			value, err = flags.GetStringSlice(name)
		default:
			value, err = flags.GetFloat64(name)
		}
		if err != nil {
			return nil, err
		}
		a.v.Set(key, value)
	}

	cfg, err := config.LoadWith(a.v, a.configPath)
	if err != nil {
		return nil, err
	}
	if a.raw {
		cfg.SubstituteUndefined = false
		cfg.NullUndefinedDifferences = false
	}
	return cfg, nil
}

func (a *app) analyzer(cmd *cobra.Command) (*analysis.Analyzer, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyzer(cfg)
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		out    string
		format string
		plots  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Print the mean and trend of every track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			an, err := a.analyzer(cmd)
			if err != nil {
				return err
			}
			res, err := an.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := report.WriteText(cmd.OutOrStdout(), res.Summaries()); err != nil {
				return err
			}
			if out == "" {
				return nil
			}

			dir, err := report.Persist(out, report.NewBundle(res, an.Config()), f)
			if err != nil {
				return err
			}
			if plots {
				if err := writePlots(cmd, an.Config(), res, dir); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "results written to %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "directory for a session_* results folder")
	cmd.Flags().StringVar(&format, "format", "json", "summary format: json or yaml")
	cmd.Flags().BoolVar(&plots, "plots", false, "also draw figures into the results folder")
	return cmd
}

// writePlots draws the track overlay, the difference grid and one
// raw/difference figure per track into dir.
func writePlots(cmd *cobra.Command, cfg *config.AnalysisConfig, res *analysis.Result, dir string) error {
	opts := render.DefaultOptions()
	opts.DynamicRange = cfg.DynamicRange

	sg, err := res.Sound.ToSpectrogram(cmd.Context(), cfg.Spectrogram)
	if err != nil {
		return err
	}
	series := renderSeries(res)
	if err := render.Tracks(filepath.Join(dir, "tracks.png"), sg, series, res.Intensity, opts); err != nil {
		return err
	}
	if err := render.DifferenceGrid(filepath.Join(dir, "differences.png"), series, opts); err != nil {
		return err
	}
	for _, s := range series {
		path := filepath.Join(dir, "raw_diff_"+strings.ToLower(s.Name)+".png")
		err := render.RawAndDifferences(path, s, opts)
		if errors.Is(err, render.ErrNothingToPlot) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func renderSeries(res *analysis.Result) []render.Series {
	out := make([]render.Series, len(res.Tracks))
	for i, t := range res.Tracks {
		out[i] = render.Series{Name: t.Name, Values: t.Series, Differences: t.Differences}
	}
	return out
}

// plotCmd builds the single-figure commands, which share --out.
func (a *app) plotCmd(use, short, suffix string, draw func(cmd *cobra.Command, an *analysis.Analyzer, path, out string) error) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   use + " <file.wav>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyzer(cmd)
			if err != nil {
				return err
			}
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_" + suffix + ".png"
			}
			if err := draw(cmd, an, args[0], out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output PNG (default <input>_"+suffix+".png)")
	return cmd
}

func plotOptions(an *analysis.Analyzer, title string) render.Options {
	opts := render.DefaultOptions()
	opts.DynamicRange = an.Config().DynamicRange
	opts.Title = title
	return opts
}

func (a *app) waveformCmd() *cobra.Command {
	return a.plotCmd("waveform", "Plot the waveform", "waveform",
		func(cmd *cobra.Command, an *analysis.Analyzer, path, out string) error {
			sound, err := an.LoadSound(path)
			if err != nil {
				return err
			}
			return render.Waveform(out, sound, plotOptions(an, filepath.Base(path)))
		})
}

func (a *app) spectrogramCmd() *cobra.Command {
	return a.plotCmd("spectrogram", "Plot the spectrogram", "spectrogram",
		func(cmd *cobra.Command, an *analysis.Analyzer, path, out string) error {
			sound, err := an.LoadSound(path)
			if err != nil {
				return err
			}
			sg, err := sound.ToSpectrogram(cmd.Context(), an.Config().Spectrogram)
			if err != nil {
				return err
			}
			return render.Spectrogram(out, sg, plotOptions(an, filepath.Base(path)))
		})
}

func (a *app) tracksCmd() *cobra.Command {
	return a.plotCmd("tracks", "Plot the tracks over the spectrogram with intensity below", "tracks",
		func(cmd *cobra.Command, an *analysis.Analyzer, path, out string) error {
			res, err := an.Analyze(cmd.Context(), path)
			if err != nil {
				return err
			}
			sg, err := res.Sound.ToSpectrogram(cmd.Context(), an.Config().Spectrogram)
			if err != nil {
				return err
			}
			return render.Tracks(out, sg, renderSeries(res), res.Intensity, plotOptions(an, filepath.Base(path)))
		})
}

func (a *app) valuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "values <file.wav>",
		Short: "Print every track value as tab-separated columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyzer(cmd)
			if err != nil {
				return err
			}
			res, err := an.Analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			names := make([]string, 0, len(res.Tracks)+1)
			columns := make([]trajectory.TimeSeries, 0, len(res.Tracks)+1)
			for _, t := range res.Tracks {
				names = append(names, t.Name)
				columns = append(columns, t.Series)
			}
			names = append(names, "dB")
			columns = append(columns, res.Intensity)
			return report.WriteValues(cmd.OutOrStdout(), names, columns)
		},
	}
}

func (a *app) clipCmd() *cobra.Command {
	var (
		out      string
		bitDepth int
	)
	cmd := &cobra.Command{
		Use:   "clip <file.wav>",
		Short: "Save the --from/--to window as a new WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("clip: --out is required")
			}
			an, err := a.analyzer(cmd)
			if err != nil {
				return err
			}
			sound, err := an.LoadSound(args[0])
			if err != nil {
				return err
			}
			if err := transcode.EncodeFile(out, sound.AudioData(), bitDepth); err != nil {
				return err
			}
			logging.Info("Clip written", logging.Fields{
				"component": "cli",
				"path":      out,
				"from":      sound.Start(),
				"to":        sound.End(),
			})
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output WAV file")
	cmd.Flags().IntVar(&bitDepth, "bit-depth", 16, "output bit depth: 16, 24 or 32")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return cfg.Dump(cmd.OutOrStdout())
		},
	}
}

func init() {
	// stdout carries reports only
	logging.SetGlobalLogger(logging.NewDefaultLoggerWithWriters(os.Stderr, os.Stderr))
}
