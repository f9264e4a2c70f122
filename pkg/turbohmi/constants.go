// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

// Package turbohmi implements the Specialized Turbo BLE telemetry protocol
// (Gen 2, "TURBOHMI2017").
//
// The wire format is a compact tagged binary message: a 2-byte header
// (sender tag, channel tag) followed by a little-endian unsigned payload of
// 1-4 bytes. This package provides the field registry, message decoding,
// request encoding, anomaly validation, and the byte-stuffed framing used by
// serial UART bridges.
//
// Field layouts were originally mapped out by the Sepp62/LevoEsp32Ble project.
package turbohmi

// Sender tags identify which onboard subsystem produced a message.
const (
	SenderBattery      = 0x00
	SenderMotor        = 0x01 // Motor / rider data
	SenderBikeSettings = 0x02
	SenderUnknown03    = 0x03
	SenderBattery2     = 0x04 // Secondary / range-extender battery
)

// Channels for SenderBattery (0x00) and SenderBattery2 (0x04).
const (
	BatteryCapacity      = 0x00
	BatteryRemaining     = 0x01
	BatteryHealth        = 0x02
	BatteryTemp          = 0x03
	BatteryChargeCycles  = 0x04
	BatteryVoltage       = 0x05
	BatteryCurrent       = 0x06
	BatteryChargePercent = 0x0C
)

// Channels for SenderMotor (0x01).
const (
	MotorRiderPower  = 0x00
	MotorCadence     = 0x01
	MotorSpeed       = 0x02
	MotorOdometer    = 0x04
	MotorAssistLevel = 0x05
	MotorTemp        = 0x07
	MotorPower       = 0x0C
	MotorPeakAssist  = 0x10
	MotorShuttle     = 0x15
)

// Channels for SenderBikeSettings (0x02).
const (
	SettingsWheelCircumference = 0x00
	SettingsAssistLev1         = 0x03
	SettingsAssistLev2         = 0x04
	SettingsAssistLev3         = 0x05
	SettingsFakeChannel        = 0x06
	SettingsAcceleration       = 0x07
)

// Message size limits. A message is the 2-byte header plus 1-4 payload bytes.
const (
	MinMessageSize  = 3
	MaxPayloadWidth = 4
)

// AssistLevel represents the rider-assistance mode reported (or set) on
// MotorAssistLevel.
type AssistLevel uint8

// Assist level values.
const (
	AssistOff   AssistLevel = 0
	AssistEco   AssistLevel = 1
	AssistTrail AssistLevel = 2
	AssistTurbo AssistLevel = 3
)

// String returns the symbolic name for an assist level.
func (a AssistLevel) String() string {
	switch a {
	case AssistOff:
		return "OFF"
	case AssistEco:
		return "ECO"
	case AssistTrail:
		return "TRAIL"
	case AssistTurbo:
		return "TURBO"
	default:
		return "UNKNOWN"
	}
}

// Serial bridge framing bytes. UART bridges wrap each notification in a
// byte-stuffed frame; WebSocket gateways deliver one notification per binary
// message and never use these.
const (
	FrameStart = 0x7E
	FrameEnd   = 0x7F
	FrameEsc   = 0x7D
	FrameXor   = 0x20
)

// Frame size limits
const (
	MaxFramePayload = 64
	MaxFrameSize    = MaxFramePayload + 4 // length + payload + 2 CRC bytes, pre-stuffing
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Deframer states (internal)
const (
	stateIdle = iota
	stateLength
	statePayload
	stateCRC1
	stateCRC2
)

// SenderName returns the human-readable name for a sender tag.
func SenderName(sender uint8) string {
	switch sender {
	case SenderBattery:
		return "BATTERY"
	case SenderMotor:
		return "MOTOR"
	case SenderBikeSettings:
		return "BIKE_SETTINGS"
	case SenderBattery2:
		return "BATTERY_2"
	default:
		return "UNKNOWN"
	}
}
