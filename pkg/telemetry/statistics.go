// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package telemetry

import (
	"fmt"
	"time"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// Statistics tracks message counters and anomaly rates for a session
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalMessages   uint64
	ValidMessages   uint64
	FormatErrors    uint64
	UnknownFields   uint64
	AnomalousValues uint64
	InvalidSpeed    uint64
	InvalidTemp     uint64
	InvalidCharge   uint64
	InvalidVoltage  uint64
	DroppedMessages uint64 // delivery queue overflows, not lost data

	// Rates (calculated)
	MessageRate float64 // messages/sec
	ErrorRate   float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update updates statistics based on a message and its errors
func (s *Statistics) Update(msg *turbohmi.Message, decodeErr error, validationErrors []turbohmi.ValidationError) {
	s.TotalMessages++

	if decodeErr != nil {
		s.FormatErrors++
		return
	}

	if msg != nil && !msg.Known() {
		s.UnknownFields++
	}

	if len(validationErrors) > 0 {
		for _, err := range validationErrors {
			switch err.Type {
			case turbohmi.AnomalyInvalidSpeed, turbohmi.AnomalyInvalidCadence:
				s.InvalidSpeed++
			case turbohmi.AnomalyInvalidTemp:
				s.InvalidTemp++
			case turbohmi.AnomalyInvalidCharge:
				s.InvalidCharge++
			case turbohmi.AnomalyInvalidVoltage:
				s.InvalidVoltage++
			}
			s.AnomalousValues++
		}
	} else {
		s.ValidMessages++
	}

	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates message and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.MessageRate = float64(s.TotalMessages) / elapsed
		errorCount := s.FormatErrors + s.AnomalousValues
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, formatErrorPercent, unknownPercent, anomalousPercent float64
	if s.TotalMessages > 0 {
		validPercent = float64(s.ValidMessages) * 100.0 / float64(s.TotalMessages)
		formatErrorPercent = float64(s.FormatErrors) * 100.0 / float64(s.TotalMessages)
		unknownPercent = float64(s.UnknownFields) * 100.0 / float64(s.TotalMessages)
		anomalousPercent = float64(s.AnomalousValues) * 100.0 / float64(s.TotalMessages)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Messages:  %8d\n", s.TotalMessages)
	result += fmt.Sprintf("Valid Messages:  %8d (%.1f%%)\n", s.ValidMessages, validPercent)

	if s.FormatErrors > 0 {
		result += fmt.Sprintf("Format Errors:   %8d (%.1f%%)\n", s.FormatErrors, formatErrorPercent)
	}
	if s.UnknownFields > 0 {
		result += fmt.Sprintf("Unknown Fields:  %8d (%.1f%%)\n", s.UnknownFields, unknownPercent)
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d (%.1f%%)\n", s.AnomalousValues, anomalousPercent)
		if s.InvalidSpeed > 0 {
			result += fmt.Sprintf("  Invalid Speed:    %5d\n", s.InvalidSpeed)
		}
		if s.InvalidTemp > 0 {
			result += fmt.Sprintf("  Invalid Temp:     %5d\n", s.InvalidTemp)
		}
		if s.InvalidCharge > 0 {
			result += fmt.Sprintf("  Invalid Charge:   %5d\n", s.InvalidCharge)
		}
		if s.InvalidVoltage > 0 {
			result += fmt.Sprintf("  Invalid Voltage:  %5d\n", s.InvalidVoltage)
		}
	}

	if s.DroppedMessages > 0 {
		result += fmt.Sprintf("Queue Drops:     %8d\n", s.DroppedMessages)
	}
	result += fmt.Sprintf("Message Rate:    %8.1f msgs/sec\n", s.MessageRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.TotalMessages = 0
	s.ValidMessages = 0
	s.FormatErrors = 0
	s.UnknownFields = 0
	s.AnomalousValues = 0
	s.InvalidSpeed = 0
	s.InvalidTemp = 0
	s.InvalidCharge = 0
	s.InvalidVoltage = 0
	s.DroppedMessages = 0
	s.MessageRate = 0
	s.ErrorRate = 0
}
