package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/brandboard/internal/probe"
	"github.com/okian/brandboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultViewers      = 20
	defaultRounds       = 5
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 100 * time.Millisecond
	defaultPollTimeout  = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg        probe.Config
		logFormat  string
		runTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dashprobe",
		Short: "Exercise a running brand dashboard and verify its views",
		Long: `dashprobe loads every place dashboard at weekly and monthly granularity,
then runs concurrent viewers through the select-and-poll flow. Every view
is checked: cumulative totals never decrease, the last bucket matches the
impression counts, and attribute counts never exceed them.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.OutOrStdout(), logFormat); err != nil {
				return err
			}
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			l := logger.Get().Named("probe")
			report, err := probe.Run(ctx, &cfg, l)
			if report != nil {
				report.Log(ctx, l)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Places, "places", 0, "Places to probe (0 = all)")
	f.IntVar(&cfg.Viewers, "viewers", defaultViewers, "Concurrent simulated viewers")
	f.IntVar(&cfg.Rounds, "rounds", defaultRounds, "Selections per viewer")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Concurrent dashboard workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollInterval, "poll-interval", defaultPollInterval, "Delay between selection polls")
	f.DurationVar(&cfg.PollTimeout, "poll-timeout", defaultPollTimeout, "Give up on a selection after this long")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "Abort the whole run after this long")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every violation")
	f.StringVar(&logFormat, "log-format", logger.FormatText, "Log format: text or json")
	return cmd
}
