// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import "fmt"

// AnomalyType represents different types of telemetry anomalies
type AnomalyType int

const (
	AnomalyInvalidSpeed AnomalyType = iota
	AnomalyInvalidTemp
	AnomalyInvalidCharge
	AnomalyInvalidVoltage
	AnomalyInvalidCadence
	AnomalyShortMessage
)

// ValidationError represents a telemetry validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateMessage checks a decoded message for physically implausible
// values. Returns a slice of validation errors (empty if the message is
// plausible). Unknown fields are never flagged.
func ValidateMessage(m *Message) []ValidationError {
	if !m.Known() {
		return nil
	}

	errors := []ValidationError{}

	switch {
	case m.Name == "speed":
		if v := m.Value.Float(); v > 120 {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidSpeed,
				Message: fmt.Sprintf("Implausible speed=%.1f km/h (max 120)", v),
				Details: map[string]interface{}{"speed": v, "max": 120},
			})
		}

	case m.Name == "cadence":
		if v := m.Value.Float(); v > 250 {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidCadence,
				Message: fmt.Sprintf("Implausible cadence=%.1f rpm (max 250)", v),
				Details: map[string]interface{}{"cadence": v, "max": 250},
			})
		}

	case m.Name == "battery_temp" || m.Name == "motor_temp" || m.Name == "battery2_temp":
		if v := m.Value.Float(); v < -40 || v > 120 {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidTemp,
				Message: fmt.Sprintf("Implausible %s=%.0f C (valid -40..120)", m.Name, v),
				Details: map[string]interface{}{"field": m.Name, "temp": v},
			})
		}

	case m.Name == "battery_charge_percent" || m.Name == "battery2_charge_percent":
		if v := m.Value.Float(); v > 100 {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidCharge,
				Message: fmt.Sprintf("Charge percent=%.0f exceeds 100", v),
				Details: map[string]interface{}{"field": m.Name, "percent": v},
			})
		}

	case m.Name == "battery_voltage" || m.Name == "battery2_voltage":
		if v := m.Value.Float(); v < 20 || v > 60 {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidVoltage,
				Message: fmt.Sprintf("Implausible %s=%.1f V (valid 20..60)", m.Name, v),
				Details: map[string]interface{}{"field": m.Name, "voltage": v},
			})
		}
	}

	return errors
}
