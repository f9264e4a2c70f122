// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import (
	"fmt"
	"time"
)

// Message is a decoded BLE notification or read-response. It is constructed
// fresh per inbound buffer and never mutated afterwards.
type Message struct {
	Sender    uint8
	Channel   uint8
	Raw       uint64 // little-endian payload integer
	Value     Value
	Name      string // empty if the field is not in the registry
	Unit      string
	Timestamp time.Time
}

// Known reports whether the message matched a registry field.
func (m *Message) Known() bool { return m.Name != "" }

// FormatError reports an inbound buffer too short to carry the 2-byte header
// plus at least one payload byte. It is fatal to the single decode call only.
type FormatError struct {
	Length int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("message too short (%d bytes, need at least %d)", e.Length, MinMessageSize)
}

// Decode parses a raw notification buffer.
//
// Format: [sender: 1B] [channel: 1B] [payload: 1-4B little-endian]
//
// For registered fields the registry-declared width is authoritative:
// trailing bytes beyond it are ignored. Unknown (sender, channel) pairs
// degrade gracefully to a raw integer passthrough over all remaining bytes
// rather than erroring.
func Decode(data []byte) (*Message, error) {
	if len(data) < MinMessageSize {
		return nil, &FormatError{Length: len(data)}
	}

	sender := data[0]
	channel := data[1]
	payload := data[2:]

	def, ok := Lookup(sender, channel)
	if !ok {
		raw := uintLE(payload, len(payload))
		return &Message{
			Sender:    sender,
			Channel:   channel,
			Raw:       raw,
			Value:     NumberValue(float64(raw)),
			Timestamp: time.Now(),
		}, nil
	}

	width := def.Width
	if width > len(payload) {
		width = len(payload)
	}
	raw := uintLE(payload, width)
	return &Message{
		Sender:    sender,
		Channel:   channel,
		Raw:       raw,
		Value:     def.Convert(raw),
		Name:      def.Name,
		Unit:      def.Unit,
		Timestamp: time.Now(),
	}, nil
}

// EncodeRequest builds the 2-byte query payload written to the request
// characteristic. The response arrives as a regular notification buffer.
func EncodeRequest(sender, channel uint8) []byte {
	return []byte{sender, channel}
}

// RequestFor builds the request buffer for a field by registry name.
func RequestFor(name string) ([]byte, error) {
	def, ok := FieldByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", name)
	}
	return EncodeRequest(def.Sender, def.Channel), nil
}

// uintLE extracts a little-endian unsigned integer of size bytes from the
// front of data.
func uintLE(data []byte, size int) uint64 {
	var v uint64
	for i := 0; i < size && i < len(data); i++ {
		v |= uint64(data[i]) << (i * 8)
	}
	return v
}
