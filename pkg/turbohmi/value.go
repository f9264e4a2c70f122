// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OpenVelo

package turbohmi

import (
	"fmt"
	"strconv"
)

// Value is the converted payload of a message: either a plain number or a
// named assist level. Consumers switch on IsLevel rather than sniffing a
// dynamic type.
type Value struct {
	num     float64
	level   AssistLevel
	isLevel bool
}

// NumberValue wraps a plain numeric reading.
func NumberValue(f float64) Value {
	return Value{num: f}
}

// LevelValue wraps a recognized assist level.
func LevelValue(l AssistLevel) Value {
	return Value{level: l, isLevel: true}
}

// IsLevel reports whether the value is a named assist level.
func (v Value) IsLevel() bool { return v.isLevel }

// Level returns the assist level and whether the value holds one.
func (v Value) Level() (AssistLevel, bool) {
	return v.level, v.isLevel
}

// Float returns the numeric value. For assist levels it returns the level's
// wire ordinal.
func (v Value) Float() float64 {
	if v.isLevel {
		return float64(v.level)
	}
	return v.num
}

// Export returns the value in serializable form: the level name string for a
// known assist level, a float64 otherwise.
func (v Value) Export() any {
	if v.isLevel {
		return v.level.String()
	}
	return v.num
}

// String formats the value for display. Whole numbers render without a
// decimal point.
func (v Value) String() string {
	if v.isLevel {
		return v.level.String()
	}
	if v.num == float64(int64(v.num)) {
		return strconv.FormatInt(int64(v.num), 10)
	}
	return fmt.Sprintf("%g", v.num)
}
