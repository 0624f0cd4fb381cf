package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/horizon/internal/index"
)

func signalsCMD(g *globalFlags) *cobra.Command {
	var query string
	var limit int
	var signals = &cobra.Command{
		Use:   "signals",
		Short: "Query signals indexed by earlier scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			idx, err := index.Open(rt.cfg.Index.Dir)
			if err != nil {
				return err
			}
			defer idx.Close()

			hits, err := idx.Search(query, limit)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(hits, "", "  ")
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
	signals.Flags().StringVarP(&query, "query", "q", "", "query string; empty lists recent signals")
	signals.Flags().IntVarP(&limit, "limit", "k", 10, "maximum hits")
	return signals
}
