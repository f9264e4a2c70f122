// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package ridelog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// ============================================================
// Capture File Tests
// ============================================================

func TestCapture_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ride.cap")

	records := [][]byte{
		{0x00, 0x05, 0x50},
		{0x01, 0x02, 0xfa, 0x00},
		{0x03, 0xff, 0x00},
	}

	w, err := NewCaptureWriter(path)
	if err != nil {
		t.Fatalf("NewCaptureWriter failed: %v", err)
	}
	base := time.Date(2026, 4, 12, 9, 30, 0, 0, time.UTC)
	for i, data := range records {
		if err := w.WriteAt(base.Add(time.Duration(i)*time.Second), data); err != nil {
			t.Fatalf("WriteAt failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := OpenCapture(path)
	if err != nil {
		t.Fatalf("OpenCapture failed: %v", err)
	}
	defer r.Close()

	for i, want := range records {
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("Next failed at record %d: %v", i, err)
		}
		if !bytes.Equal(rec.Data, want) {
			t.Errorf("record %d data = % 02x, want % 02x", i, rec.Data, want)
		}
		if !rec.Timestamp.Equal(base.Add(time.Duration(i) * time.Second)) {
			t.Errorf("record %d timestamp = %v", i, rec.Timestamp)
		}
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last record, got %v", err)
	}
}

// ============================================================
// Ride Database Tests
// ============================================================

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertDecoded(t *testing.T, store *Store, data []byte) {
	t.Helper()
	msg, err := turbohmi.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := store.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
}

func TestStore_InsertAndCount(t *testing.T) {
	store := openTestStore(t)

	insertDecoded(t, store, []byte{0x00, 0x05, 0x50})
	insertDecoded(t, store, []byte{0x00, 0x0c, 0x34})
	insertDecoded(t, store, []byte{0x03, 0x01, 0xff}) // unknown fields persist too

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestStore_LatestPerField(t *testing.T) {
	store := openTestStore(t)

	insertDecoded(t, store, []byte{0x00, 0x0c, 0x34}) // 52 %
	insertDecoded(t, store, []byte{0x00, 0x0c, 0x30}) // then 48 %
	insertDecoded(t, store, []byte{0x00, 0x05, 0x50}) // 36 V

	latest, err := store.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("Latest returned %d samples, want 2", len(latest))
	}

	byField := map[string]Sample{}
	for _, s := range latest {
		byField[s.Field] = s
	}
	if got := byField["battery_charge_percent"].Value; got != "48" {
		t.Errorf("latest charge percent = %q, want 48", got)
	}
	if got := byField["battery_voltage"].Value; got != "36" {
		t.Errorf("latest voltage = %q, want 36", got)
	}
}

func TestStore_History(t *testing.T) {
	store := openTestStore(t)

	for _, raw := range []byte{0x34, 0x33, 0x32} {
		insertDecoded(t, store, []byte{0x00, 0x0c, raw})
	}

	history, err := store.History(context.Background(), "battery_charge_percent", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History returned %d samples, want 3", len(history))
	}
	if history[0].Value != "52" || history[2].Value != "50" {
		t.Errorf("history should be oldest first, got %q .. %q",
			history[0].Value, history[2].Value)
	}
}
