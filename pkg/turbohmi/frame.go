// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import "fmt"

// Deframer implements the serial bridge framing decoder state machine.
//
// UART bridges cannot rely on BLE's per-notification framing, so each
// notification travels as:
//
//	[START] [length: 1B] [payload: length bytes] [CRC-16 hi] [CRC-16 lo] [END]
//
// with START/END/ESC occurrences in the body escaped as ESC + (byte XOR 0x20).
// The CRC covers length byte plus payload, pre-stuffing. Feed bytes with
// DecodeByte; completed payloads are the raw notification buffers handed to
// the message codec.
type Deframer struct {
	state      int
	length     uint8
	payload    []byte
	crc        uint16
	escapeNext bool
}

// NewDeframer creates a new serial frame decoder.
func NewDeframer() *Deframer {
	return &Deframer{state: stateIdle}
}

// Reset returns the deframer to idle, discarding any partial frame.
func (d *Deframer) Reset() {
	d.state = stateIdle
	d.length = 0
	d.payload = nil
	d.crc = 0
	d.escapeNext = false
}

// DecodeByte processes a single byte through the deframer state machine.
// Returns a completed notification buffer, or nil if the frame is incomplete.
// Returns an error if framing fails; the deframer resynchronizes on the next
// START byte.
func (d *Deframer) DecodeByte(b byte) ([]byte, error) {
	// Handle byte stuffing
	if b == FrameEsc && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}

	originalB := b
	if d.escapeNext {
		b ^= FrameXor
		d.escapeNext = false
	}

	// Handle framing bytes
	if originalB == FrameStart && !d.escapeNext {
		d.Reset()
		d.state = stateLength
		return nil, nil
	}

	if originalB == FrameEnd && !d.escapeNext {
		if d.state == stateCRC2 {
			payload := d.payload
			calculated := CalculateCRC(append([]byte{d.length}, payload...))
			received := d.crc
			d.Reset()
			if received != calculated {
				return nil, fmt.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", calculated, received)
			}
			return payload, nil
		}
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("unexpected END byte in state %d", state)
	}

	switch d.state {
	case stateIdle:
		// Waiting for START byte
		return nil, nil

	case stateLength:
		if b == 0 || b > MaxFramePayload {
			d.Reset()
			return nil, fmt.Errorf("invalid frame length: %d (max %d)", b, MaxFramePayload)
		}
		d.length = b
		d.payload = make([]byte, 0, b)
		d.state = statePayload
		return nil, nil

	case statePayload:
		d.payload = append(d.payload, b)
		if len(d.payload) >= int(d.length) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.crc |= uint16(b)
		// Wait for END byte
		return nil, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// EncodeFrame wraps a notification or request buffer in the serial bridge
// frame format, including byte stuffing and CRC.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) == 0 || len(payload) > MaxFramePayload {
		return nil, fmt.Errorf("invalid frame payload size: %d (max %d)", len(payload), MaxFramePayload)
	}

	data := make([]byte, 0, len(payload)+3)
	data = append(data, uint8(len(payload)))
	data = append(data, payload...)

	crc := CalculateCRC(data)
	data = append(data, byte(crc>>8), byte(crc&0xFF))

	stuffed := stuffBytes(data)

	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, FrameStart)
	frame = append(frame, stuffed...)
	frame = append(frame, FrameEnd)
	return frame, nil
}

// stuffBytes escapes START/END/ESC occurrences as ESC + (byte XOR FrameXor).
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == FrameStart || b == FrameEnd || b == FrameEsc {
			result = append(result, FrameEsc, b^FrameXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}
