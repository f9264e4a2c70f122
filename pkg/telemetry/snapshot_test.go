// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package telemetry

import (
	"math"
	"testing"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// rideSession is a realistic 18-message notification burst captured from a
// bike shortly after connect.
var rideSession = [][]byte{
	{0x00, 0x00, 0xc2, 0x01}, // capacity 500 Wh
	{0x00, 0x01, 0xe4, 0x00}, // remaining 253 Wh
	{0x00, 0x02, 0x64},       // health 100 %
	{0x00, 0x03, 0x13},       // temp 19 C
	{0x00, 0x04, 0x0d},       // 13 charge cycles
	{0x00, 0x05, 0x50},       // 36.0 V
	{0x00, 0x06, 0x00},       // 0 A
	{0x00, 0x0c, 0x34},       // 52 % charge
	{0x01, 0x00, 0xc8, 0x00}, // rider power 200 W
	{0x01, 0x01, 0x2c, 0x03}, // cadence 81.2
	{0x01, 0x02, 0xfa, 0x00}, // speed 25.0
	{0x01, 0x05, 0x02, 0x00}, // assist TRAIL
	{0x01, 0x07, 0x19},       // motor temp 25 C
	{0x01, 0x0c, 0x64},       // motor power 100 W
	{0x02, 0x00, 0xfc, 0x08}, // wheel circumference 2300 mm
	{0x02, 0x03, 0x0a},       // assist level 1 at 10 %
	{0x02, 0x04, 0x14},       // assist level 2 at 20 %
	{0x02, 0x05, 0x32},       // assist level 3 at 50 %
}

func applyAll(t *testing.T, s *Snapshot, buffers [][]byte) {
	t.Helper()
	for _, data := range buffers {
		msg, err := turbohmi.Decode(data)
		if err != nil {
			t.Fatalf("Decode(% 02x) failed: %v", data, err)
		}
		s.Apply(msg)
	}
}

func wantFloat(t *testing.T, m map[string]any, key string, expected float64) {
	t.Helper()
	raw, ok := m[key]
	if !ok {
		t.Errorf("export is missing %q", key)
		return
	}
	v, ok := raw.(float64)
	if !ok {
		t.Errorf("%q = %T, want float64", key, raw)
		return
	}
	if math.Abs(v-expected) > 1e-9 {
		t.Errorf("%q = %v, want %v", key, v, expected)
	}
}

// ============================================================
// Snapshot Tests
// ============================================================

func TestSnapshot_RideSession(t *testing.T) {
	s := NewSnapshot()
	applyAll(t, s, rideSession)

	if s.MessageCount != 18 {
		t.Errorf("MessageCount = %d, want 18", s.MessageCount)
	}
	if len(s.Unrouted) != 0 {
		t.Fatalf("unrouted = %d messages, want 0", len(s.Unrouted))
	}
	if s.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set after apply")
	}

	export := s.Export()

	battery, ok := export["battery"].(map[string]any)
	if !ok {
		t.Fatal("export is missing battery section")
	}
	wantFloat(t, battery, "capacity_wh", 500)
	wantFloat(t, battery, "remaining_wh", 253)
	wantFloat(t, battery, "health", 100)
	wantFloat(t, battery, "temp", 19)
	wantFloat(t, battery, "charge_cycles", 13)
	wantFloat(t, battery, "voltage", 36.0)
	wantFloat(t, battery, "current", 0)
	wantFloat(t, battery, "charge_percent", 52)

	motor, ok := export["motor"].(map[string]any)
	if !ok {
		t.Fatal("export is missing motor section")
	}
	wantFloat(t, motor, "rider_power", 200)
	wantFloat(t, motor, "cadence", 81.2)
	wantFloat(t, motor, "speed", 25.0)
	wantFloat(t, motor, "temp", 25)
	wantFloat(t, motor, "power", 100)
	if motor["assist_level"] != "TRAIL" {
		t.Errorf("assist_level = %v, want TRAIL", motor["assist_level"])
	}

	settings, ok := export["settings"].(map[string]any)
	if !ok {
		t.Fatal("export is missing settings section")
	}
	wantFloat(t, settings, "wheel_circumference", 2300)
	wantFloat(t, settings, "assist_lev1_pct", 10)
	wantFloat(t, settings, "assist_lev2_pct", 20)
	wantFloat(t, settings, "assist_lev3_pct", 50)

	if export["message_count"] != uint64(18) {
		t.Errorf("message_count = %v, want 18", export["message_count"])
	}
	if _, present := export["battery2"]; present {
		t.Error("battery2 section should be absent until it reports")
	}
}

func TestSnapshot_UnknownSenderUnrouted(t *testing.T) {
	s := NewSnapshot()
	msg, err := turbohmi.Decode([]byte{0x03, 0x00, 0x01})
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(msg)

	if s.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", s.MessageCount)
	}
	if len(s.Unrouted) != 1 {
		t.Fatalf("sender 0x03 should land in unrouted")
	}
	if s.Unrouted[0].Sender != turbohmi.SenderUnknown03 {
		t.Errorf("unrouted sender = 0x%02X", s.Unrouted[0].Sender)
	}
}

func TestSnapshot_UnmodeledChannelUnrouted(t *testing.T) {
	// Recognized sender but a channel the sub-state does not model. The
	// double-check keeps the message accounted for.
	s := NewSnapshot()
	msg, err := turbohmi.Decode([]byte{0x00, 0x7F, 0x01})
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(msg)

	if len(s.Unrouted) != 1 {
		t.Error("unmodeled battery channel should land in unrouted")
	}
}

func TestSnapshot_AccountingInvariant(t *testing.T) {
	s := NewSnapshot()
	buffers := append([][]byte{}, rideSession...)
	buffers = append(buffers,
		[]byte{0x03, 0x01, 0xff},
		[]byte{0x03, 0x02, 0xff},
	)
	applyAll(t, s, buffers)

	n := uint64(len(buffers))
	if s.MessageCount != n {
		t.Errorf("MessageCount = %d, want %d", s.MessageCount, n)
	}
	routed := n - uint64(len(s.Unrouted))
	if routed != 18 {
		t.Errorf("routed = %d, want 18", routed)
	}
}

func TestSnapshot_Battery2Section(t *testing.T) {
	s := NewSnapshot()
	msg, err := turbohmi.Decode([]byte{0x04, 0x0c, 0x50})
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(msg)

	export := s.Export()
	b2, ok := export["battery2"].(map[string]any)
	if !ok {
		t.Fatal("battery2 section should appear once it reports")
	}
	wantFloat(t, b2, "charge_percent", 80)
}

func TestSnapshot_FieldNeverReverts(t *testing.T) {
	s := NewSnapshot()
	applyAll(t, s, [][]byte{
		{0x00, 0x0c, 0x34},
		{0x00, 0x0c, 0x30},
	})
	battery := s.Export()["battery"].(map[string]any)
	wantFloat(t, battery, "charge_percent", 48)
}

func TestSnapshot_AssistRawPassthrough(t *testing.T) {
	s := NewSnapshot()
	msg, err := turbohmi.Decode([]byte{0x01, 0x05, 0x07, 0x00})
	if err != nil {
		t.Fatal(err)
	}
	s.Apply(msg)

	motor := s.Export()["motor"].(map[string]any)
	if motor["assist_level"] != float64(7) {
		t.Errorf("unknown assist raw exported as %v, want 7", motor["assist_level"])
	}
}
