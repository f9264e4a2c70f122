// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import (
	"fmt"
	"sort"
	"strings"
)

// FormatMessage formats a decoded message into a single human-readable line.
func FormatMessage(m *Message) string {
	timestamp := m.Timestamp.Format("15:04:05.000")

	if !m.Known() {
		return fmt.Sprintf("[%s] %s ch=0x%02X raw=%d (unknown field)",
			timestamp, SenderName(m.Sender), m.Channel, m.Raw)
	}

	line := fmt.Sprintf("[%s] %-28s = %8s", timestamp, m.Name, m.Value.String())
	if m.Unit != "" {
		line += " " + m.Unit
	}
	return line
}

// FormatValue renders a field value with its unit, without the timestamp
// or field-name columns.
func FormatValue(m *Message) string {
	if m.Unit == "" {
		return m.Value.String()
	}
	return m.Value.String() + " " + m.Unit
}

// FormatHex renders raw message bytes as space-separated hex pairs.
func FormatHex(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// FormatFieldList returns a table of every registered field, grouped by
// sender and ordered by channel. Used by the fields subcommand.
func FormatFieldList() string {
	defs := Fields()
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Sender != defs[j].Sender {
			return defs[i].Sender < defs[j].Sender
		}
		return defs[i].Channel < defs[j].Channel
	})

	var sb strings.Builder
	var lastSender uint8 = 0xFF
	for _, def := range defs {
		if def.Sender != lastSender {
			if lastSender != 0xFF {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%s (0x%02X)\n", SenderName(def.Sender), def.Sender)
			lastSender = def.Sender
		}
		unit := def.Unit
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(&sb, "  0x%02X  %-28s width=%d  %s\n", def.Channel, def.Name, def.Width, unit)
	}
	return sb.String()
}
