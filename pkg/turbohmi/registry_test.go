// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import "testing"

// ============================================================
// Registry Tests
// ============================================================

func TestRegistry_EntryCount(t *testing.T) {
	if n := len(Fields()); n != 31 {
		t.Errorf("registry has %d fields, want 31", n)
	}
}

func TestRegistry_UniqueNames(t *testing.T) {
	seen := map[string]Key{}
	for _, def := range Fields() {
		key := Key{def.Sender, def.Channel}
		if prev, dup := seen[def.Name]; dup {
			t.Errorf("name %q registered at both %v and %v", def.Name, prev, key)
		}
		seen[def.Name] = key
	}
}

func TestRegistry_WidthBounds(t *testing.T) {
	for _, def := range Fields() {
		if def.Width < 1 || def.Width > 4 {
			t.Errorf("%s has width %d, want 1..4", def.Name, def.Width)
		}
		if def.Convert == nil {
			t.Errorf("%s has no conversion function", def.Name)
		}
	}
}

func TestRegistry_Battery2MirrorsBattery(t *testing.T) {
	// The second battery reuses the channel map of the first one.
	for _, def := range Fields() {
		if def.Sender != SenderBattery {
			continue
		}
		mirror, ok := Lookup(SenderBattery2, def.Channel)
		if !ok {
			t.Errorf("battery channel 0x%02X has no second-battery mirror", def.Channel)
			continue
		}
		if mirror.Width != def.Width {
			t.Errorf("battery2 channel 0x%02X width %d, battery width %d",
				def.Channel, mirror.Width, def.Width)
		}
		if mirror.Unit != def.Unit {
			t.Errorf("battery2 channel 0x%02X unit %q, battery unit %q",
				def.Channel, mirror.Unit, def.Unit)
		}
	}
}

func TestLookup_UnknownSender(t *testing.T) {
	if _, ok := Lookup(SenderUnknown03, 0x00); ok {
		t.Error("sender 0x03 should have no registered fields")
	}
	if _, ok := Lookup(0x7F, 0x00); ok {
		t.Error("unregistered sender should not resolve")
	}
}

// ============================================================
// Conversion Tests
// ============================================================

func TestConvWattHours_Rounding(t *testing.T) {
	tests := []struct {
		raw      uint64
		expected float64
	}{
		{0, 0},
		{450, 500},   // 499.995 rounds up
		{228, 253},   // 253.33 rounds down
		{1, 1},       // 1.1111 rounds down
		{5, 6},       // 5.5555 rounds up
	}
	for _, tt := range tests {
		got := convWattHours(tt.raw).Float()
		if got != tt.expected {
			t.Errorf("convWattHours(%d) = %v, want %v", tt.raw, got, tt.expected)
		}
	}
}

func TestConvVoltage_Offset(t *testing.T) {
	if got := convVoltage(0).Float(); got != 20.0 {
		t.Errorf("convVoltage(0) = %v, want 20.0", got)
	}
	if got := convVoltage(100).Float(); got != 40.0 {
		t.Errorf("convVoltage(100) = %v, want 40.0", got)
	}
}

func TestConvAcceleration_Centered(t *testing.T) {
	if got := convAcceleration(3000).Float(); got != 0 {
		t.Errorf("convAcceleration(3000) = %v, want 0", got)
	}
	if got := convAcceleration(2940).Float(); got != -1.0 {
		t.Errorf("convAcceleration(2940) = %v, want -1.0", got)
	}
}

func TestConvAssist_Boundary(t *testing.T) {
	for raw := uint64(0); raw <= 3; raw++ {
		v := convAssist(raw)
		level, ok := v.Level()
		if !ok {
			t.Errorf("convAssist(%d) should be symbolic", raw)
			continue
		}
		if uint64(level) != raw {
			t.Errorf("convAssist(%d) = level %d", raw, level)
		}
	}
	if convAssist(4).IsLevel() {
		t.Error("convAssist(4) should stay numeric")
	}
}

// ============================================================
// Value Tests
// ============================================================

func TestValue_Export(t *testing.T) {
	if got := NumberValue(25.5).Export(); got != 25.5 {
		t.Errorf("number export = %v, want 25.5", got)
	}
	if got := LevelValue(AssistEco).Export(); got != "ECO" {
		t.Errorf("level export = %v, want ECO", got)
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{NumberValue(500), "500"},
		{NumberValue(36.0), "36"},
		{NumberValue(25.5), "25.5"},
		{LevelValue(AssistTurbo), "TURBO"},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.expected {
			t.Errorf("String() = %q, want %q", got, tt.expected)
		}
	}
}
