// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <hex> [<hex>...]",
	Short: "Decode notification buffers given as hex",
	Long: `Decode one or more notification buffers offline. Each argument is a hex
string, with or without spaces:

  turbostat decode 000500 "01 02 fa 00"

With no arguments, reads one hex buffer per line from stdin.

Prints the decoded field, value, and unit for each buffer.`,
	Args: cobra.ArbitraryArgs,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			args = append(args, line)
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %v", err)
		}
	}

	for _, arg := range args {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == ':' {
				return -1
			}
			return r
		}, arg)

		data, err := hex.DecodeString(cleaned)
		if err != nil {
			return fmt.Errorf("invalid hex %q: %v", arg, err)
		}

		msg, err := turbohmi.Decode(data)
		if err != nil {
			fmt.Printf("%-16s  ERROR: %v\n", turbohmi.FormatHex(data), err)
			continue
		}

		if msg.Known() {
			fmt.Printf("%-16s  %-28s = %s\n",
				turbohmi.FormatHex(data), msg.Name, turbohmi.FormatValue(msg))
		} else {
			fmt.Printf("%-16s  unknown field %s ch=0x%02X raw=%d\n",
				turbohmi.FormatHex(data), turbohmi.SenderName(msg.Sender), msg.Channel, msg.Raw)
		}

		for _, verr := range turbohmi.ValidateMessage(msg) {
			fmt.Printf("%-16s  WARNING: %s\n", "", verr.Message)
		}
	}
	return nil
}
