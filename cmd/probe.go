// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var (
	probeWait     time.Duration
	probeInterval time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Request every known field once and report what answers",
	Long: `Walk the full field registry, sending a read request for each field, then
collect replies for a settling window. Prints every value received and
lists fields that never answered.

Useful as a connectivity check and for discovering which fields a given
bike model actually implements.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeWait, "wait", 2*time.Second, "How long to collect replies after the last request")
	probeCmd.Flags().DurationVar(&probeInterval, "interval", 50*time.Millisecond, "Delay between requests")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenTransport()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Turbostat - Field Probe\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	defs := turbohmi.Fields()
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Sender != defs[j].Sender {
			return defs[i].Sender < defs[j].Sender
		}
		return defs[i].Channel < defs[j].Channel
	})

	// Collect replies concurrently while requests go out; the bike
	// answers as it pleases, not strictly in request order.
	var mu sync.Mutex
	results := make(map[string]*turbohmi.Message)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			data, err := conn.ReadNotification()
			if err != nil {
				return
			}
			msg, err := turbohmi.Decode(data)
			if err != nil {
				logrus.WithError(err).Debug("discarding undecodable reply")
				continue
			}
			if msg.Known() {
				mu.Lock()
				results[msg.Name] = msg
				mu.Unlock()
			}
		}
	}()

	for _, def := range defs {
		if err := conn.WriteRequest(turbohmi.EncodeRequest(def.Sender, def.Channel)); err != nil {
			return fmt.Errorf("request for %s failed: %v", def.Name, err)
		}
		time.Sleep(probeInterval)
	}

	select {
	case <-done:
	case <-time.After(probeWait):
	}
	conn.Close()

	var missing []string
	answered := 0
	mu.Lock()
	defer mu.Unlock()
	for _, def := range defs {
		if msg, ok := results[def.Name]; ok {
			fmt.Printf("  %-28s = %s\n", def.Name, turbohmi.FormatValue(msg))
			answered++
		} else {
			missing = append(missing, def.Name)
		}
	}

	fmt.Printf("\n%d of %d fields answered\n", answered, len(defs))
	if len(missing) > 0 {
		fmt.Println("No reply from:")
		for _, name := range missing {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}
