package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abandonsearch/place-rater/internal/clock"
	"github.com/abandonsearch/place-rater/internal/ledger"
	"github.com/abandonsearch/place-rater/internal/pipeline"
	"github.com/abandonsearch/place-rater/internal/places"
	"github.com/abandonsearch/place-rater/internal/pool"
	"github.com/abandonsearch/place-rater/internal/rating"
	"github.com/abandonsearch/place-rater/internal/resilience"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rate every place not yet in the output file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyPathFlags()
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		input, err := places.Load(cfg.Input)
		if err != nil {
			return err
		}
		zap.L().Info("loaded places", zap.Int("count", len(input)), zap.String("input", cfg.Input))

		artifacts, err := initArtifacts(ctx, cfg)
		if err != nil {
			return err
		}
		defer artifacts.Close()

		router, closeClients, err := initRouter(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeClients()

		clk := clock.Real{}
		p, err := pool.New(cfg.Pool,
			pool.WithClock(clk),
			pool.WithMaxWait(cfg.Policy.MaxWait()),
		)
		if err != nil {
			return eris.Wrap(err, "build backend pool")
		}

		retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.BaseSleepMs,
			cfg.Retry.MaxBackoffMs, cfg.Retry.JitterFraction)
		exec := rating.NewExecutor(router, retry, clk)
		orch := rating.NewOrchestrator(p, exec, artifacts, clk, rating.Policy{
			Cooldown:     cfg.Policy.Cooldown(),
			EmptyPause:   cfg.Policy.EmptyPause(),
			FailurePause: cfg.Policy.FailurePause(),
		})

		out := ledger.Load(cfg.Output)
		runner := pipeline.New(input, out, artifacts, orch, clk)

		sum, err := runner.Run(ctx)
		if sum != nil {
			printSummary(cmd, sum)
		}
		if err != nil {
			if ctx.Err() != nil {
				zap.L().Warn("run interrupted; re-run to continue", zap.Int("saved", out.Len()))
			}
			return err
		}
		return nil
	},
}

func printSummary(cmd *cobra.Command, sum *pipeline.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Places:           %d\n", sum.Total)
	fmt.Fprintf(w, "Already saved:    %d\n", sum.PreviouslyDone)
	fmt.Fprintf(w, "Replayed:         %d\n", sum.Replayed)
	fmt.Fprintf(w, "Processed:        %d (live %d, recovered %d, empty %d)\n",
		sum.Processed, sum.Live, sum.Recovered, sum.Sentinel)
	if sum.SaveFailures > 0 {
		fmt.Fprintf(w, "Save failures:    %d\n", sum.SaveFailures)
	}
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "input JSON list of places (default from config, data.json)")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON list (default from config, data-modified.json)")
	rootCmd.AddCommand(runCmd)
}
