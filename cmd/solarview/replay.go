package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"solarview/internal/config"
	"solarview/internal/logging"
	"solarview/internal/sim"
)

var (
	replayInput      string
	replaySpeed      float64
	replaySink       string
	replayConfigPath string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a placement log file",
	Long:  "replay feeds placement frames from a JSONL log back into a sink.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := config.Load(replayConfigPath, "")
		if err != nil {
			return err
		}
		sinks, err := newWriters(cfg, replaySink, "")
		if err != nil {
			return err
		}
		defer sinks.Close()
		logger := logging.NewFromEnv(sinks.logOut)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		n, err := sim.ReplayLogFile(ctx, replayInput, sinks.writer, replaySpeed)
		logger.Info("replay finished", "input", replayInput, "frames", n)
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to placement log file")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	replayCmd.Flags().StringVar(&replaySink, "sink", sinkJSON, "Placement sink: auto, tui or json")
	replayCmd.Flags().StringVar(&replayConfigPath, "config", "", "Viewer configuration used for body colors")
	replayCmd.MarkFlagRequired("input")
}
