// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import "math"

// Clamp bounds v to [lo, hi], NaN maps to lo
func Clamp(v float64, lo float64, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// GuardedDiv computes num / max(floor, den), non finite results map to 0
func GuardedDiv(num float64, den float64, floor float64) float64 {
	d := den
	if math.IsNaN(d) || d < floor {
		d = floor
	}
	res := num / d
	if math.IsNaN(res) || math.IsInf(res, 0) {
		return 0
	}
	return res
}

// Finite replaces NaN and infinite values with 0
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// IsFinite reports whether every value is neither NaN nor infinite
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
