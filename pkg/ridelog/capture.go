// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

// Package ridelog records raw notification traffic for later replay and
// persists decoded samples to a ride database.
package ridelog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CaptureRecord is one raw notification as received from the bike.
type CaptureRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Data      []byte    `cbor:"2,keyasint"`
}

// CaptureWriter appends notification records to a capture file as a CBOR
// sequence.
type CaptureWriter struct {
	f   *os.File
	enc *cbor.Encoder
}

// NewCaptureWriter creates or truncates a capture file.
func NewCaptureWriter(path string) (*CaptureWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	return &CaptureWriter{f: f, enc: cbor.NewEncoder(f)}, nil
}

// Write appends one notification buffer with the current time.
func (w *CaptureWriter) Write(data []byte) error {
	return w.WriteAt(time.Now(), data)
}

// WriteAt appends one notification buffer with an explicit timestamp.
func (w *CaptureWriter) WriteAt(ts time.Time, data []byte) error {
	rec := CaptureRecord{Timestamp: ts, Data: data}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode capture record: %w", err)
	}
	return nil
}

// Close flushes and closes the capture file.
func (w *CaptureWriter) Close() error {
	return w.f.Close()
}

// CaptureReader iterates the records of a capture file.
type CaptureReader struct {
	f   *os.File
	dec *cbor.Decoder
}

// OpenCapture opens an existing capture file for reading.
func OpenCapture(path string) (*CaptureReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	return &CaptureReader{f: f, dec: cbor.NewDecoder(f)}, nil
}

// Next returns the next record, or io.EOF at end of file.
func (r *CaptureReader) Next() (*CaptureRecord, error) {
	var rec CaptureRecord
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return &rec, nil
}

// Close closes the capture file.
func (r *CaptureReader) Close() error {
	return r.f.Close()
}
