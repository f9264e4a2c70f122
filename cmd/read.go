// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var readTimeout time.Duration

var readCmd = &cobra.Command{
	Use:   "read <field> [<field>...]",
	Short: "Request one or more fields and print their values",
	Long: `Send a read request for each named field and wait for the bike's reply.

Field names match the fields command, e.g.:

  turbostat read battery_charge_percent battery_voltage

Notifications for other fields arriving while waiting are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().DurationVarP(&readTimeout, "timeout", "t", 3*time.Second, "Per-field reply timeout")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	// Validate all names before touching the transport.
	for _, name := range args {
		if _, ok := turbohmi.FieldByName(name); !ok {
			return fmt.Errorf("unknown field %q (see the fields command)", name)
		}
	}

	conn, _, err := OpenTransport()
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, name := range args {
		msg, err := requestField(conn, name, readTimeout)
		if err != nil {
			fmt.Printf("%-28s   ERROR: %v\n", name, err)
			continue
		}
		fmt.Printf("%-28s = %s\n", name, turbohmi.FormatValue(msg))
	}
	return nil
}

// requestField sends one read request and waits for the matching reply.
// Replies for other fields are logged and skipped; a device answering on
// an unexpected channel usually means stale traffic, not failure.
func requestField(conn Transport, name string, timeout time.Duration) (*turbohmi.Message, error) {
	req, err := turbohmi.RequestFor(name)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteRequest(req); err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		data, err := conn.ReadNotification()
		if err != nil {
			return nil, err
		}
		msg, err := turbohmi.Decode(data)
		if err != nil {
			logrus.WithError(err).Debug("discarding undecodable reply")
			continue
		}
		if msg.Sender == req[0] && msg.Channel == req[1] {
			return msg, nil
		}
		logrus.WithFields(logrus.Fields{
			"expected": name,
			"got":      turbohmi.SenderName(msg.Sender),
			"channel":  fmt.Sprintf("0x%02X", msg.Channel),
		}).Warn("reply for a different field, still waiting")
	}
	return nil, fmt.Errorf("no reply within %s", timeout)
}
