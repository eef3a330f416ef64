package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/health-score/internal/analysis"
	"github.com/sells-group/health-score/internal/model"
)

var (
	analyzeClientID string
	analyzeAgencyID string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a health analysis for one client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalysis(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		resp := env.Orchestrator.RunAnalysis(ctx, analysis.Request{
			ClientID:    analyzeClientID,
			AgencyID:    analyzeAgencyID,
			TriggeredBy: model.TriggerManual,
		})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode response")
		}
		if !resp.Success {
			return eris.Errorf("analysis failed: %s", resp.Error)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeClientID, "client", "", "client account id (required)")
	analyzeCmd.Flags().StringVar(&analyzeAgencyID, "agency", "", "agency id the client must belong to")
	_ = analyzeCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(analyzeCmd)
}
