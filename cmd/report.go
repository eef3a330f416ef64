package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/report"
	"github.com/sells-group/health-score/internal/store"
)

var (
	reportAgencyID string
	reportOut      string
	reportDays     int
	reportLimit    int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export health score history and open alerts to XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close() //nolint:errcheck

		in, err := loadReport(ctx, st, reportAgencyID, reportDays, reportLimit, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := report.Save(reportOut, in); err != nil {
			return err
		}

		zap.L().Info("report written",
			zap.String("path", reportOut),
			zap.Int("runs", len(in.Runs)),
			zap.Int("alerts", len(in.Alerts)),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportAgencyID, "agency", "", "only include this agency")
	reportCmd.Flags().StringVar(&reportOut, "out", "health-report.xlsx", "output file")
	reportCmd.Flags().IntVar(&reportDays, "days", 90, "include runs from the last N days (0 = all)")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 1000, "max runs to include")
	rootCmd.AddCommand(reportCmd)
}

// reportSource is the store subset the report reads.
type reportSource interface {
	ListAnalysisRuns(ctx context.Context, filter store.RunFilter) ([]model.AnalysisRun, error)
	ListUnreadAlerts(ctx context.Context, agencyID string) ([]model.Alert, error)
	ListActiveClients(ctx context.Context, agencyID string) ([]model.ClientAccount, error)
}

func loadReport(ctx context.Context, src reportSource, agencyID string, days, limit int, now time.Time) (report.Input, error) {
	filter := store.RunFilter{AgencyID: agencyID, Limit: limit}
	if days > 0 {
		filter.Since = now.AddDate(0, 0, -days)
	}

	runs, err := src.ListAnalysisRuns(ctx, filter)
	if err != nil {
		return report.Input{}, eris.Wrap(err, "list analysis runs")
	}
	alerts, err := src.ListUnreadAlerts(ctx, agencyID)
	if err != nil {
		return report.Input{}, eris.Wrap(err, "list unread alerts")
	}
	clients, err := src.ListActiveClients(ctx, agencyID)
	if err != nil {
		return report.Input{}, eris.Wrap(err, "list clients")
	}

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return report.Input{Runs: runs, Alerts: alerts, ClientNames: names}, nil
}
