package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/health-score/internal/analysis"
	"github.com/sells-group/health-score/internal/model"
)

var (
	batchAgencyID string
	batchLimit    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run scheduled analyses for all active clients",
	Long:  "Lists the active clients of an agency (or of every agency when --agency is empty) and analyzes each one with bounded concurrency.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalysis(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		clients, err := env.Store.ListActiveClients(ctx, batchAgencyID)
		if err != nil {
			return eris.Wrap(err, "list active clients")
		}

		summary := processBatch(ctx, clients, batchLimit, cfg.Batch.MaxConcurrentClients, env.Orchestrator)
		if summary.Failed > 0 {
			return eris.Errorf("batch: %d of %d analyses failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchAgencyID, "agency", "", "only analyze clients of this agency")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of clients to analyze (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// analysisRunner runs one analysis. *analysis.Orchestrator satisfies it.
type analysisRunner interface {
	RunAnalysis(ctx context.Context, req analysis.Request) analysis.Response
}

// batchSummary counts batch outcomes.
type batchSummary struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
}

// processBatch applies limit, then analyzes clients concurrently. One
// client's failure never stops the others.
func processBatch(ctx context.Context, clients []model.ClientAccount, limit, concurrency int, runner analysisRunner) batchSummary {
	if len(clients) == 0 {
		zap.L().Info("no active clients found")
		return batchSummary{}
	}
	if limit > 0 && len(clients) > limit {
		clients = clients[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("clients", len(clients)),
		zap.Int("concurrency", concurrency),
	)

	var completed, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, c := range clients {
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			resp := runner.RunAnalysis(gctx, analysis.Request{
				ClientID:    c.ID,
				AgencyID:    c.AgencyID,
				TriggeredBy: model.TriggerScheduled,
			})
			switch {
			case resp.Skipped:
				skipped.Add(1)
			case resp.Success:
				completed.Add(1)
			default:
				failed.Add(1)
				zap.L().Warn("batch: analysis failed",
					zap.String("client_id", c.ID),
					zap.String("error", resp.Error),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := batchSummary{
		Total:     len(clients),
		Completed: int(completed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	zap.L().Info("batch complete",
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary
}
