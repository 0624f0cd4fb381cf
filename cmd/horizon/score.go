package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/horizon/engine"
	"github.com/mohammad-safakhou/horizon/internal/jobs"
	"github.com/mohammad-safakhou/horizon/internal/scenario"
	"github.com/mohammad-safakhou/horizon/models"
	"github.com/mohammad-safakhou/horizon/provider"
)

func scoreCMD(g *globalFlags) *cobra.Command {
	var drFile string
	var score = &cobra.Command{
		Use:   "score",
		Short: "Extract and score the scenarios of an existing report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := g.setup(cmd)
			if err != nil {
				return err
			}
			defer rt.log.Sync()

			raw, err := os.ReadFile(drFile)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			svc, err := provider.NewProvider(rt.cfg.LLM)
			if err != nil {
				return err
			}
			poller := jobs.NewPoller(svc, jobs.Config{Model: rt.cfg.LLM.Model, Polling: rt.cfg.Polling},
				jobs.WithLogger(rt.log), jobs.WithMetrics(rt.metrics))

			scenarios := scenario.Extract(string(raw))
			rt.log.Event("scenarios_extracted", "count", len(scenarios))
			scorer := scenario.NewScorer(poller, rt.log, rt.metrics)
			scores, err := engine.ScoreScenarios(cmd.Context(), scorer, scenarios, rt.log, rt.metrics)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(struct {
				Scenarios []models.Scenario      `json:"scenarios"`
				Scores    []models.ScenarioScore `json:"scenario_scores"`
			}{scenarios, scores}, "", "  ")
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
	score.Flags().StringVar(&drFile, "dr-file", "", "research report to score")
	_ = score.MarkFlagRequired("dr-file")
	return score
}
