// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import (
	"errors"
	"math"
	"testing"
)

// ============================================================
// Decode Tests
// ============================================================

func TestDecode_TooShort(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0x00}, {0x00, 0x0C}} {
		_, err := Decode(data)
		if err == nil {
			t.Errorf("Decode(%v) should fail, message is below minimum size", data)
			continue
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("Decode(%v) error should be *FormatError, got %T", data, err)
		} else if fe.Length != len(data) {
			t.Errorf("FormatError.Length = %d, want %d", fe.Length, len(data))
		}
	}
}

func TestDecode_ConversionVectors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		field    string
		unit     string
		expected float64
	}{
		{
			name:     "battery capacity 450 raw to 500 Wh",
			data:     []byte{0x00, 0x00, 0xc2, 0x01},
			field:    "battery_capacity_wh",
			unit:     "Wh",
			expected: 500,
		},
		{
			name:     "battery voltage 80 raw to 36.0 V",
			data:     []byte{0x00, 0x05, 0x50},
			field:    "battery_voltage",
			unit:     "V",
			expected: 36.0,
		},
		{
			name:     "motor speed 250 raw to 25.0 km/h",
			data:     []byte{0x01, 0x02, 0xfa, 0x00},
			field:    "speed",
			unit:     "km/h",
			expected: 25.0,
		},
		{
			name:     "acceleration 4000 raw to about 16.667",
			data:     []byte{0x02, 0x07, 0xa0, 0x0f},
			field:    "acceleration",
			unit:     "%",
			expected: (4000.0 - 3000.0) / 60.0,
		},
		{
			name:     "second battery charge percent passthrough",
			data:     []byte{0x04, 0x0c, 0x50},
			field:    "battery2_charge_percent",
			unit:     "%",
			expected: 80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if msg.Name != tt.field {
				t.Errorf("Name = %q, want %q", msg.Name, tt.field)
			}
			if msg.Unit != tt.unit {
				t.Errorf("Unit = %q, want %q", msg.Unit, tt.unit)
			}
			if msg.Value.IsLevel() {
				t.Fatalf("value should be numeric, got assist level")
			}
			if math.Abs(msg.Value.Float()-tt.expected) > 1e-9 {
				t.Errorf("Value = %v, want %v", msg.Value.Float(), tt.expected)
			}
		})
	}
}

func TestDecode_AssistLevel(t *testing.T) {
	msg, err := Decode([]byte{0x01, 0x05, 0x02, 0x00})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Name != "assist_level" {
		t.Fatalf("Name = %q, want assist_level", msg.Name)
	}
	level, ok := msg.Value.Level()
	if !ok {
		t.Fatalf("assist value should be symbolic")
	}
	if level != AssistTrail {
		t.Errorf("level = %v, want TRAIL", level)
	}
	if level.String() != "TRAIL" {
		t.Errorf("level name = %q, want TRAIL", level.String())
	}
}

func TestDecode_AssistLevelOutOfRange(t *testing.T) {
	// Raw values above the known assist range stay numeric.
	msg, err := Decode([]byte{0x01, 0x05, 0x09, 0x00})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Value.IsLevel() {
		t.Fatalf("out-of-range assist raw should decode as a number")
	}
	if msg.Value.Float() != 9 {
		t.Errorf("Value = %v, want 9", msg.Value.Float())
	}
}

func TestDecode_DeclaredWidthWins(t *testing.T) {
	// battery_charge_percent is a one-byte field. Trailing bytes on the
	// wire must not change the decoded value.
	short, err := Decode([]byte{0x00, 0x0c, 0x34})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	long, err := Decode([]byte{0x00, 0x0c, 0x34, 0xff, 0xff})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if short.Value.Float() != long.Value.Float() {
		t.Errorf("padded decode %v differs from short decode %v",
			long.Value.Float(), short.Value.Float())
	}
	if short.Value.Float() != 52 {
		t.Errorf("Value = %v, want 52", short.Value.Float())
	}
	if long.Raw != 0x34 {
		t.Errorf("Raw = %d, want 0x34", long.Raw)
	}
}

func TestDecode_WidthClampedToPayload(t *testing.T) {
	// speed declares two bytes but a single payload byte still decodes.
	msg, err := Decode([]byte{0x01, 0x02, 0xfa})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Value.Float() != 25.0 {
		t.Errorf("Value = %v, want 25.0", msg.Value.Float())
	}
}

func TestDecode_UnknownField(t *testing.T) {
	msg, err := Decode([]byte{0x03, 0x42, 0x01, 0x02})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Known() {
		t.Fatalf("sender 0x03 has no registered fields")
	}
	if msg.Raw != 0x0201 {
		t.Errorf("Raw = 0x%X, want 0x0201 (all payload bytes, little-endian)", msg.Raw)
	}
}

func TestDecode_OdometerMeters(t *testing.T) {
	msg, err := Decode([]byte{0x01, 0x04, 0x10, 0x27, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Name != "odometer" {
		t.Fatalf("Name = %q, want odometer", msg.Name)
	}
	if msg.Value.Float() != 10.0 {
		t.Errorf("Value = %v km, want 10.0", msg.Value.Float())
	}
}

// ============================================================
// Request Encoding Tests
// ============================================================

func TestEncodeRequest_RoundTrip(t *testing.T) {
	for _, def := range Fields() {
		req := EncodeRequest(def.Sender, def.Channel)
		if len(req) != 2 {
			t.Fatalf("request for %s should be 2 bytes, got %d", def.Name, len(req))
		}
		if req[0] != def.Sender || req[1] != def.Channel {
			t.Errorf("request for %s = % 02x, want [%02x %02x]",
				def.Name, req, def.Sender, def.Channel)
		}

		// A response echoing the request header routes back to the
		// same field.
		payload := make([]byte, def.Width)
		msg, err := Decode(append(req, payload...))
		if err != nil {
			t.Fatalf("Decode of synthesized %s response failed: %v", def.Name, err)
		}
		if msg.Name != def.Name {
			t.Errorf("round trip landed on %q, want %q", msg.Name, def.Name)
		}
	}
}

func TestRequestFor_ByName(t *testing.T) {
	req, err := RequestFor("battery_voltage")
	if err != nil {
		t.Fatalf("RequestFor failed: %v", err)
	}
	if req[0] != SenderBattery || req[1] != BatteryVoltage {
		t.Errorf("request = % 02x, want [00 05]", req)
	}

	if _, err := RequestFor("no_such_field"); err == nil {
		t.Error("RequestFor should fail for unregistered names")
	}
}
