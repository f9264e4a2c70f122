// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

// Package telemetry aggregates decoded bike messages into a live state
// snapshot and drives monitoring sessions over a notification transport.
package telemetry

import (
	"time"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// BatteryState holds the most recent readings from a battery subsystem.
// Nil fields have never been reported.
type BatteryState struct {
	CapacityWh    *float64
	RemainingWh   *float64
	Health        *float64
	Temp          *float64
	ChargeCycles  *float64
	Voltage       *float64
	Current       *float64
	ChargePercent *float64
}

// Set stores a converted value under its battery channel. Returns false if
// the channel is not modeled here.
func (b *BatteryState) Set(channel uint8, value turbohmi.Value) bool {
	v := value.Float()
	switch channel {
	case turbohmi.BatteryCapacity:
		b.CapacityWh = &v
	case turbohmi.BatteryRemaining:
		b.RemainingWh = &v
	case turbohmi.BatteryHealth:
		b.Health = &v
	case turbohmi.BatteryTemp:
		b.Temp = &v
	case turbohmi.BatteryChargeCycles:
		b.ChargeCycles = &v
	case turbohmi.BatteryVoltage:
		b.Voltage = &v
	case turbohmi.BatteryCurrent:
		b.Current = &v
	case turbohmi.BatteryChargePercent:
		b.ChargePercent = &v
	default:
		return false
	}
	return true
}

// Export returns the set fields as a map, omitting fields never reported.
func (b *BatteryState) Export() map[string]any {
	out := map[string]any{}
	put := func(key string, v *float64) {
		if v != nil {
			out[key] = *v
		}
	}
	put("capacity_wh", b.CapacityWh)
	put("remaining_wh", b.RemainingWh)
	put("health", b.Health)
	put("temp", b.Temp)
	put("charge_cycles", b.ChargeCycles)
	put("voltage", b.Voltage)
	put("current", b.Current)
	put("charge_percent", b.ChargePercent)
	return out
}

// MotorState holds the most recent drive and rider readings.
type MotorState struct {
	RiderPower *float64
	Cadence    *float64
	Speed      *float64
	Odometer   *float64
	Assist     *turbohmi.Value
	Temp       *float64
	Power      *float64
	PeakAssist *float64
	Shuttle    *float64
}

// Set stores a converted value under its motor channel. Returns false if
// the channel is not modeled here.
func (m *MotorState) Set(channel uint8, value turbohmi.Value) bool {
	v := value.Float()
	switch channel {
	case turbohmi.MotorRiderPower:
		m.RiderPower = &v
	case turbohmi.MotorCadence:
		m.Cadence = &v
	case turbohmi.MotorSpeed:
		m.Speed = &v
	case turbohmi.MotorOdometer:
		m.Odometer = &v
	case turbohmi.MotorAssistLevel:
		m.Assist = &value
	case turbohmi.MotorTemp:
		m.Temp = &v
	case turbohmi.MotorPower:
		m.Power = &v
	case turbohmi.MotorPeakAssist:
		m.PeakAssist = &v
	case turbohmi.MotorShuttle:
		m.Shuttle = &v
	default:
		return false
	}
	return true
}

// Export returns the set fields as a map. The assist level is exported by
// its symbolic name when known, otherwise by its raw integer.
func (m *MotorState) Export() map[string]any {
	out := map[string]any{}
	put := func(key string, v *float64) {
		if v != nil {
			out[key] = *v
		}
	}
	put("rider_power", m.RiderPower)
	put("cadence", m.Cadence)
	put("speed", m.Speed)
	put("odometer", m.Odometer)
	if m.Assist != nil {
		out["assist_level"] = m.Assist.Export()
	}
	put("temp", m.Temp)
	put("power", m.Power)
	put("peak_assist", m.PeakAssist)
	put("shuttle", m.Shuttle)
	return out
}

// SettingsState holds the most recent bike configuration readings.
type SettingsState struct {
	WheelCircumference *float64
	AssistLev1Pct      *float64
	AssistLev2Pct      *float64
	AssistLev3Pct      *float64
	FakeChannel        *float64
	Acceleration       *float64
}

// Set stores a converted value under its settings channel. Returns false
// if the channel is not modeled here.
func (s *SettingsState) Set(channel uint8, value turbohmi.Value) bool {
	v := value.Float()
	switch channel {
	case turbohmi.SettingsWheelCircumference:
		s.WheelCircumference = &v
	case turbohmi.SettingsAssistLev1:
		s.AssistLev1Pct = &v
	case turbohmi.SettingsAssistLev2:
		s.AssistLev2Pct = &v
	case turbohmi.SettingsAssistLev3:
		s.AssistLev3Pct = &v
	case turbohmi.SettingsFakeChannel:
		s.FakeChannel = &v
	case turbohmi.SettingsAcceleration:
		s.Acceleration = &v
	default:
		return false
	}
	return true
}

// Export returns the set fields as a map.
func (s *SettingsState) Export() map[string]any {
	out := map[string]any{}
	put := func(key string, v *float64) {
		if v != nil {
			out[key] = *v
		}
	}
	put("wheel_circumference", s.WheelCircumference)
	put("assist_lev1_pct", s.AssistLev1Pct)
	put("assist_lev2_pct", s.AssistLev2Pct)
	put("assist_lev3_pct", s.AssistLev3Pct)
	put("fake_channel", s.FakeChannel)
	put("acceleration", s.Acceleration)
	return out
}

// Snapshot is the live aggregate of everything the bike has reported
// during a session. It is mutated from a single delivery path; concurrent
// feeders must serialize their calls to Apply.
type Snapshot struct {
	Battery     BatteryState
	Battery2    BatteryState
	Motor       MotorState
	Settings    SettingsState
	Unrouted     []*turbohmi.Message
	MessageCount uint64
	LastUpdated  time.Time
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// Apply routes a decoded message into the matching sub-state. Messages
// that no sub-state claims are recorded in Unrouted so that every applied
// message is accounted for.
func (s *Snapshot) Apply(m *turbohmi.Message) {
	s.MessageCount++
	s.LastUpdated = time.Now()

	routed := false
	switch m.Sender {
	case turbohmi.SenderBattery:
		routed = s.Battery.Set(m.Channel, m.Value)
	case turbohmi.SenderBattery2:
		routed = s.Battery2.Set(m.Channel, m.Value)
	case turbohmi.SenderMotor:
		routed = s.Motor.Set(m.Channel, m.Value)
	case turbohmi.SenderBikeSettings:
		routed = s.Settings.Set(m.Channel, m.Value)
	}
	if !routed {
		s.Unrouted = append(s.Unrouted, m)
	}
}

// Export returns a serializable view of the snapshot. Sub-state sections
// contain only fields that have been reported; the second battery and
// settings sections appear only once they have content.
func (s *Snapshot) Export() map[string]any {
	out := map[string]any{
		"battery":       s.Battery.Export(),
		"motor":         s.Motor.Export(),
		"message_count": s.MessageCount,
	}
	if b2 := s.Battery2.Export(); len(b2) > 0 {
		out["battery2"] = b2
	}
	if cfg := s.Settings.Export(); len(cfg) > 0 {
		out["settings"] = cfg
	}
	if len(s.Unrouted) > 0 {
		out["unrouted_count"] = len(s.Unrouted)
	}
	return out
}
