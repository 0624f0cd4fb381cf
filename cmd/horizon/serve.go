package main

import (
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/horizon/engine"
	srv "github.com/mohammad-safakhou/horizon/internal/server"
)

func serveCMD(g *globalFlags) *cobra.Command {
	var serveAddr string
	var outputDir string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()
			if serveAddr == "" {
				serveAddr = rt.cfg.Server.Address
			}
			if outputDir == "" {
				outputDir = rt.cfg.General.OutputDir
			}

			ctx := cmd.Context()
			eng, closeFn, err := engine.Build(ctx, rt.cfg, rt.log, rt.metrics)
			if err != nil {
				return err
			}
			defer closeFn()

			return srv.Run(ctx, serveAddr, srv.Deps{
				Scanner:   eng,
				Scorer:    eng.Scorer,
				Searcher:  eng.Searcher,
				Index:     eng.Index,
				Metrics:   rt.metrics,
				Log:       rt.log,
				OutputDir: outputDir,
			})
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address)")
	serve.Flags().StringVar(&outputDir, "output-dir", "", "directory for scan artifacts")
	return serve
}
