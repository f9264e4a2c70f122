// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import "math"

// ConvertFunc maps a raw little-endian payload integer to a human-unit value.
// Conversion functions are pure and total over their declared width.
type ConvertFunc func(raw uint64) Value

// FieldDef describes a single protocol field: where it lives on the wire,
// how wide its payload is, and how to convert the raw integer.
type FieldDef struct {
	Sender  uint8
	Channel uint8
	Name    string
	Unit    string
	Width   int // payload bytes after the 2-byte header (1-4)
	Convert ConvertFunc
}

// Key identifies a field by its wire header.
type Key struct {
	Sender  uint8
	Channel uint8
}

// Conversion functions. Names describe the scaling, not the field, since
// several fields share one.
func convIdentity(raw uint64) Value { return NumberValue(float64(raw)) }

func convWattHours(raw uint64) Value {
	return NumberValue(math.Round(float64(raw) * 1.1111))
}

func convVoltage(raw uint64) Value { return NumberValue(float64(raw)/5.0 + 20.0) }
func convCurrent(raw uint64) Value { return NumberValue(float64(raw) / 5.0) }
func convTenths(raw uint64) Value  { return NumberValue(float64(raw) / 10.0) }
func convMeters(raw uint64) Value  { return NumberValue(float64(raw) / 1000.0) }

func convAcceleration(raw uint64) Value {
	return NumberValue((float64(raw) - 3000.0) / 60.0)
}

// convAssist maps the four known levels to their symbolic names and passes
// anything else through as a raw integer.
func convAssist(raw uint64) Value {
	if raw <= uint64(AssistTurbo) {
		return LevelValue(AssistLevel(raw))
	}
	return NumberValue(float64(raw))
}

// fieldDefs is the full registry, one explicit entry per field. The secondary
// battery (sender 0x04) mirrors the primary battery channels with renamed
// fields; its entries are written out rather than cloned at startup so the
// whole table is auditable in one place. Read-only after initialization, safe
// for concurrent lookups.
var fieldDefs = map[Key]*FieldDef{
	// Battery fields (sender 0x00)
	{SenderBattery, BatteryCapacity}:      {SenderBattery, BatteryCapacity, "battery_capacity_wh", "Wh", 2, convWattHours},
	{SenderBattery, BatteryRemaining}:     {SenderBattery, BatteryRemaining, "battery_remaining_wh", "Wh", 2, convWattHours},
	{SenderBattery, BatteryHealth}:        {SenderBattery, BatteryHealth, "battery_health", "%", 1, convIdentity},
	{SenderBattery, BatteryTemp}:          {SenderBattery, BatteryTemp, "battery_temp", "°C", 1, convIdentity},
	{SenderBattery, BatteryChargeCycles}:  {SenderBattery, BatteryChargeCycles, "battery_charge_cycles", "cycles", 2, convIdentity},
	{SenderBattery, BatteryVoltage}:       {SenderBattery, BatteryVoltage, "battery_voltage", "V", 1, convVoltage},
	{SenderBattery, BatteryCurrent}:       {SenderBattery, BatteryCurrent, "battery_current", "A", 1, convCurrent},
	{SenderBattery, BatteryChargePercent}: {SenderBattery, BatteryChargePercent, "battery_charge_percent", "%", 1, convIdentity},

	// Motor / rider fields (sender 0x01)
	{SenderMotor, MotorRiderPower}:  {SenderMotor, MotorRiderPower, "rider_power", "W", 2, convIdentity},
	{SenderMotor, MotorCadence}:     {SenderMotor, MotorCadence, "cadence", "RPM", 2, convTenths},
	{SenderMotor, MotorSpeed}:       {SenderMotor, MotorSpeed, "speed", "km/h", 2, convTenths},
	{SenderMotor, MotorOdometer}:    {SenderMotor, MotorOdometer, "odometer", "km", 4, convMeters},
	{SenderMotor, MotorAssistLevel}: {SenderMotor, MotorAssistLevel, "assist_level", "", 2, convAssist},
	{SenderMotor, MotorTemp}:        {SenderMotor, MotorTemp, "motor_temp", "°C", 1, convIdentity},
	{SenderMotor, MotorPower}:       {SenderMotor, MotorPower, "motor_power", "W", 2, convIdentity},
	{SenderMotor, MotorPeakAssist}:  {SenderMotor, MotorPeakAssist, "peak_assist", "", 3, convIdentity}, // 3 bytes: ECO%, TRAIL%, TURBO%
	{SenderMotor, MotorShuttle}:     {SenderMotor, MotorShuttle, "shuttle", "", 1, convIdentity},

	// Bike settings fields (sender 0x02)
	{SenderBikeSettings, SettingsWheelCircumference}: {SenderBikeSettings, SettingsWheelCircumference, "wheel_circumference", "mm", 2, convIdentity},
	{SenderBikeSettings, SettingsAssistLev1}:         {SenderBikeSettings, SettingsAssistLev1, "assist_lev1_pct", "%", 1, convIdentity},
	{SenderBikeSettings, SettingsAssistLev2}:         {SenderBikeSettings, SettingsAssistLev2, "assist_lev2_pct", "%", 1, convIdentity},
	{SenderBikeSettings, SettingsAssistLev3}:         {SenderBikeSettings, SettingsAssistLev3, "assist_lev3_pct", "%", 1, convIdentity},
	{SenderBikeSettings, SettingsFakeChannel}:        {SenderBikeSettings, SettingsFakeChannel, "fake_channel", "", 1, convIdentity},
	{SenderBikeSettings, SettingsAcceleration}:       {SenderBikeSettings, SettingsAcceleration, "acceleration", "%", 2, convAcceleration},

	// Secondary battery fields (sender 0x04), same channels as the primary
	{SenderBattery2, BatteryCapacity}:      {SenderBattery2, BatteryCapacity, "battery2_capacity_wh", "Wh", 2, convWattHours},
	{SenderBattery2, BatteryRemaining}:     {SenderBattery2, BatteryRemaining, "battery2_remaining_wh", "Wh", 2, convWattHours},
	{SenderBattery2, BatteryHealth}:        {SenderBattery2, BatteryHealth, "battery2_health", "%", 1, convIdentity},
	{SenderBattery2, BatteryTemp}:          {SenderBattery2, BatteryTemp, "battery2_temp", "°C", 1, convIdentity},
	{SenderBattery2, BatteryChargeCycles}:  {SenderBattery2, BatteryChargeCycles, "battery2_charge_cycles", "cycles", 2, convIdentity},
	{SenderBattery2, BatteryVoltage}:       {SenderBattery2, BatteryVoltage, "battery2_voltage", "V", 1, convVoltage},
	{SenderBattery2, BatteryCurrent}:       {SenderBattery2, BatteryCurrent, "battery2_current", "A", 1, convCurrent},
	{SenderBattery2, BatteryChargePercent}: {SenderBattery2, BatteryChargePercent, "battery2_charge_percent", "%", 1, convIdentity},
}

// Lookup returns the field definition for a (sender, channel) pair. An absent
// entry is a normal outcome signaling an unknown field, not a fault.
func Lookup(sender, channel uint8) (*FieldDef, bool) {
	def, ok := fieldDefs[Key{sender, channel}]
	return def, ok
}

// Fields returns every registered field definition. Order is unspecified.
func Fields() []*FieldDef {
	out := make([]*FieldDef, 0, len(fieldDefs))
	for _, v := range fieldDefs {
		out = append(out, v)
	}
	return out
}

// FieldByName returns the field definition with the given registry name.
func FieldByName(name string) (*FieldDef, bool) {
	for _, def := range fieldDefs {
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}
