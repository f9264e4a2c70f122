// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import (
	"bytes"
	"fmt"
)

// UUID base: 000000xx-3731-3032-494d-484f42525554. The lower twelve bytes
// spell "7102IMHOBRUT" — "TURBOHMI2017" backwards.
const uuidBase = "0000%04x-3731-3032-494d-484f42525554"

// UUID expands a 16-bit short UUID into the full 128-bit Specialized UUID.
func UUID(short uint16) string {
	return fmt.Sprintf(uuidBase, short)
}

// Service UUIDs
var (
	ServiceDataNotify  = UUID(0x0003) // Notification data service
	ServiceDataRequest = UUID(0x0001) // Request-read service
	ServiceDataWrite   = UUID(0x0002) // Write command service
)

// Characteristic UUIDs
var (
	CharNotify       = UUID(0x0013) // READ, NOTIFY - bike pushes telemetry here
	CharRequestWrite = UUID(0x0021) // WRITE - send a 2-byte request here
	CharRequestRead  = UUID(0x0011) // READ - response to the last request
	CharWrite        = UUID(0x0012) // WRITE - commands (assist level, settings)
)

// NordicCompanyID is the Nordic Semiconductor BLE company identifier carried
// in the bike's manufacturer advertising data.
const NordicCompanyID = 0x0059

// AdvertisingMagic is the magic string embedded in the manufacturer data
// payload of a Specialized Turbo advertisement.
var AdvertisingMagic = []byte("TURBOHMI")

// IsTurboAdvertisement reports whether BLE manufacturer data belongs to a
// Specialized Turbo bike. Gateways and scanners use this to filter
// advertisements before bridging a connection; the company ID prefix is
// assumed to be already stripped by the scanner.
func IsTurboAdvertisement(manufacturerData map[uint16][]byte) bool {
	payload, ok := manufacturerData[NordicCompanyID]
	if !ok {
		return false
	}
	return bytes.Contains(payload, AdvertisingMagic)
}
