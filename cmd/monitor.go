// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openvelo/turbostat/pkg/ridelog"
	"github.com/openvelo/turbostat/pkg/telemetry"
	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var (
	monitorDuration time.Duration
	monitorFormat   string
	monitorRecord   string
	monitorDB       string
	monitorQuiet    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor live telemetry from the bike",
	Long: `Continuously decode notifications and aggregate them into a ride snapshot.

Each decoded message is printed as it arrives (unless --quiet). When the
session ends (Ctrl+C or --duration) the final snapshot and session
statistics are printed in the chosen format.

Optionally records raw traffic to a capture file (--record, replayable with
the replay command) and decoded samples to a SQLite ride database (--db).`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVarP(&monitorDuration, "duration", "d", 0, "Stop after this long (0 = until Ctrl+C)")
	monitorCmd.Flags().StringVarP(&monitorFormat, "format", "f", "text", "Summary format: text, json, or yaml")
	monitorCmd.Flags().StringVar(&monitorRecord, "record", "", "Write raw notifications to a capture file")
	monitorCmd.Flags().StringVar(&monitorDB, "db", "", "Write decoded samples to a SQLite ride database")
	monitorCmd.Flags().BoolVarP(&monitorQuiet, "quiet", "q", false, "Suppress per-message output")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport()
	if err != nil {
		return err
	}
	defer conn.Close()

	var capture *ridelog.CaptureWriter
	if monitorRecord != "" {
		capture, err = ridelog.NewCaptureWriter(monitorRecord)
		if err != nil {
			return err
		}
		defer capture.Close()
	}

	var store *ridelog.Store
	if monitorDB != "" {
		store, err = ridelog.OpenStore(monitorDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	fmt.Printf("Turbostat - Live Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	monitor := telemetry.NewMonitor()
	monitor.OnUpdate(func(msg *turbohmi.Message, snap *telemetry.Snapshot) {
		if !monitorQuiet {
			fmt.Println(turbohmi.FormatMessage(msg))
		}
		for _, verr := range turbohmi.ValidateMessage(msg) {
			fmt.Printf("  WARNING: %s\n", verr.Message)
		}
		if store != nil {
			if err := store.InsertMessage(context.Background(), msg); err != nil {
				logrus.WithError(err).Warn("failed to persist sample")
			}
		}
	})
	monitor.Start()
	defer monitor.Stop()

	// Reader goroutine feeds the monitor; the transport delivers serially.
	readErr := make(chan error, 1)
	go func() {
		for {
			data, err := conn.ReadNotification()
			if err != nil {
				readErr <- err
				return
			}
			if capture != nil {
				if err := capture.Write(data); err != nil {
					logrus.WithError(err).Warn("failed to record notification")
				}
			}
			monitor.HandleNotification(data)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var timeout <-chan time.Time
	if monitorDuration > 0 {
		timer := time.NewTimer(monitorDuration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-interrupt:
		fmt.Println("\nStopping...")
	case <-timeout:
	case err := <-readErr:
		if err != ErrConnectionClosed {
			logrus.WithError(err).Error("read failed")
		}
	}
	monitor.Stop()

	fmt.Println()
	if err := printSnapshot(monitor.Snapshot(), monitorFormat); err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(monitor.Statistics().String())
	return nil
}

// printSnapshot renders a snapshot export in the requested format.
func printSnapshot(snap *telemetry.Snapshot, format string) error {
	export := snap.Export()

	switch format {
	case "json":
		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(export)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	case "text":
		printSnapshotText(snap)
	default:
		return fmt.Errorf("unknown format %q (use text, json, or yaml)", format)
	}
	return nil
}

func printSnapshotText(snap *telemetry.Snapshot) {
	export := snap.Export()

	sections := []string{"battery", "battery2", "motor", "settings"}
	for _, name := range sections {
		section, ok := export[name].(map[string]any)
		if !ok || len(section) == 0 {
			continue
		}
		fmt.Printf("=== %s ===\n", name)
		for _, def := range sortedKeys(section) {
			fmt.Printf("  %-24s %v\n", def, section[def])
		}
	}
	fmt.Printf("=== session ===\n")
	fmt.Printf("  %-24s %d\n", "messages", snap.MessageCount)
	fmt.Printf("  %-24s %d\n", "unrouted", len(snap.Unrouted))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
