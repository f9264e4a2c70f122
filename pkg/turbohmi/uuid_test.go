// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import "testing"

func TestUUID_Expansion(t *testing.T) {
	if got := UUID(0x0013); got != "00000013-3731-3032-494d-484f42525554" {
		t.Errorf("UUID(0x0013) = %q", got)
	}
	if CharNotify != UUID(0x0013) {
		t.Errorf("CharNotify = %q", CharNotify)
	}
}

func TestIsTurboAdvertisement(t *testing.T) {
	tests := []struct {
		name     string
		data     map[uint16][]byte
		expected bool
	}{
		{
			name:     "magic present",
			data:     map[uint16][]byte{NordicCompanyID: []byte("xxTURBOHMIyy")},
			expected: true,
		},
		{
			name:     "wrong company",
			data:     map[uint16][]byte{0x004C: []byte("TURBOHMI")},
			expected: false,
		},
		{
			name:     "no magic",
			data:     map[uint16][]byte{NordicCompanyID: []byte("nRF Connect")},
			expected: false,
		},
		{
			name:     "empty",
			data:     map[uint16][]byte{},
			expected: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTurboAdvertisement(tt.data); got != tt.expected {
				t.Errorf("IsTurboAdvertisement = %v, want %v", got, tt.expected)
			}
		})
	}
}
