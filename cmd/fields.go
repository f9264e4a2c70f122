// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

var fieldsBLE bool

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List every known telemetry field",
	Long: `Print the full field registry: for each (sender, channel) pair the field
name, payload width in bytes, and unit. Useful for picking field names for
the read command.

With --ble, also print the bike's GATT layout (service and characteristic
UUIDs) for configuring a notification bridge.`,
	RunE: runFields,
}

func init() {
	fieldsCmd.Flags().BoolVar(&fieldsBLE, "ble", false, "Also print BLE service and characteristic UUIDs")
	rootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	fmt.Print(turbohmi.FormatFieldList())

	if fieldsBLE {
		fmt.Println("\nBLE services")
		fmt.Printf("  %s  data notify\n", turbohmi.ServiceDataNotify)
		fmt.Printf("  %s  request read\n", turbohmi.ServiceDataRequest)
		fmt.Printf("  %s  write\n", turbohmi.ServiceDataWrite)
		fmt.Println("\nBLE characteristics")
		fmt.Printf("  %s  telemetry notifications\n", turbohmi.CharNotify)
		fmt.Printf("  %s  request write (2-byte requests)\n", turbohmi.CharRequestWrite)
		fmt.Printf("  %s  request read (last response)\n", turbohmi.CharRequestRead)
		fmt.Printf("  %s  commands\n", turbohmi.CharWrite)
	}
	return nil
}
