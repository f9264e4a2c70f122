// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo
//
// Turbostat - Turbo e-bike telemetry monitor
//
// A CLI tool for decoding and monitoring Specialized Turbo e-bike
// telemetry over a serial or WebSocket notification bridge.

package main

import (
	"os"

	"github.com/openvelo/turbostat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
