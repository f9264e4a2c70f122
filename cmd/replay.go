// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/ridelog"
	"github.com/openvelo/turbostat/pkg/telemetry"
	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var (
	replaySpeed  float64
	replayFormat string
	replayDB     string
	replayQuiet  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Replay a recorded capture file",
	Long: `Feed a capture file recorded with 'monitor --record' back through the
decoder and snapshot aggregator, as if the traffic were live.

By default records are replayed with their original timing; --speed scales
it (0 = as fast as possible). The final snapshot is printed the same way
the monitor command prints it.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Float64VarP(&replaySpeed, "speed", "s", 0, "Timing scale: 1 = real time, 2 = double speed, 0 = no delay")
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Summary format: text, json, or yaml")
	replayCmd.Flags().StringVar(&replayDB, "db", "", "Write decoded samples to a SQLite ride database")
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Suppress per-message output")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	reader, err := ridelog.OpenCapture(args[0])
	if err != nil {
		return err
	}
	defer reader.Close()

	var store *ridelog.Store
	if replayDB != "" {
		store, err = ridelog.OpenStore(replayDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	monitor := telemetry.NewMonitor()
	monitor.OnUpdate(func(msg *turbohmi.Message, snap *telemetry.Snapshot) {
		if !replayQuiet {
			fmt.Println(turbohmi.FormatMessage(msg))
		}
		if store != nil {
			if err := store.InsertMessage(context.Background(), msg); err != nil {
				logrus.WithError(err).Warn("failed to persist sample")
			}
		}
	})
	monitor.Start()
	defer monitor.Stop()

	var prev time.Time
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if replaySpeed > 0 && !prev.IsZero() {
			gap := rec.Timestamp.Sub(prev)
			if gap > 0 {
				time.Sleep(time.Duration(float64(gap) / replaySpeed))
			}
		}
		prev = rec.Timestamp

		monitor.HandleNotification(rec.Data)
	}
	monitor.Stop()

	fmt.Println()
	if err := printSnapshot(monitor.Snapshot(), replayFormat); err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(monitor.Statistics().String())
	return nil
}
