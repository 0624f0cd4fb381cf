package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/horizon/engine"
)

type scanFlags struct {
	topic             string
	outputDir         string
	pollInterval      time.Duration
	maxCycles         int
	debugDR           bool
	cacheDir          string
	noCache           bool
	refreshCache      bool
	noScenarioScoring bool
	drFile            string
	skipWebSearch     bool
}

func scanCMD(g *globalFlags) *cobra.Command {
	f := &scanFlags{}
	var scan = &cobra.Command{
		Use:   "scan",
		Short: "Run a full horizon scan for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()
			f.apply(cmd, rt)

			ctx := cmd.Context()
			rt.serveMetrics(ctx)

			eng, closeFn, err := engine.Build(ctx, rt.cfg, rt.log, rt.metrics)
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := eng.Scan(ctx, engine.Options{
				Topic:             f.topic,
				OutputDir:         f.outputDir,
				NoCache:           f.noCache,
				RefreshCache:      f.refreshCache,
				NoScenarioScoring: f.noScenarioScoring,
				SkipWebSearch:     f.skipWebSearch,
				ReportFile:        f.drFile,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Scan complete: %d signals, %d scenarios\nResults: %s\n",
				out.Report.Summary.TotalSignals, out.Report.Summary.TotalScenarios, out.Files.Results)
			return err
		},
	}
	fl := scan.Flags()
	fl.StringVar(&f.topic, "topic", "", "the topic to research")
	fl.StringVar(&f.outputDir, "output-dir", "", "directory to save output files (default general.output_dir)")
	fl.DurationVar(&f.pollInterval, "poll-interval", 0, "wait between job status checks")
	fl.IntVar(&f.maxCycles, "max-cycles", 0, "maximum job status checks before giving up")
	fl.BoolVar(&f.debugDR, "debug-dr", false, "write the raw completed job to the debug file")
	fl.StringVar(&f.cacheDir, "cache-dir", "", "directory of the file cache")
	fl.BoolVar(&f.noCache, "no-cache", false, "neither read nor write cached artifacts")
	fl.BoolVar(&f.refreshCache, "refresh-cache", false, "ignore cached artifacts and overwrite them")
	fl.BoolVar(&f.noScenarioScoring, "no-scenario-scoring", false, "skip scenario scoring")
	fl.StringVar(&f.drFile, "dr-file", "", "load an existing research report instead of generating one")
	fl.BoolVar(&f.skipWebSearch, "skip-web-search", false, "skip signal searches")
	_ = scan.MarkFlagRequired("topic")
	return scan
}

// apply lets explicitly set flags override configuration.
func (f *scanFlags) apply(cmd *cobra.Command, rt *app) {
	fl := cmd.Flags()
	if fl.Changed("poll-interval") {
		rt.cfg.Polling.Interval = f.pollInterval
	}
	if fl.Changed("max-cycles") {
		rt.cfg.Polling.MaxCycles = f.maxCycles
	}
	if fl.Changed("debug-dr") {
		rt.cfg.Polling.Debug = f.debugDR
	}
	if fl.Changed("cache-dir") {
		rt.cfg.Cache.Dir = f.cacheDir
	}
	if f.noCache {
		rt.cfg.Cache.Backend = "none"
	}
	if f.outputDir == "" {
		f.outputDir = rt.cfg.General.OutputDir
	}
	rt.cfg.Polling = rt.cfg.Polling.Normalize()
}
