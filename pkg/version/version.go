// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package version parses and compares the loosely shaped version strings
// reported by delivery tooling: Kubernetes API servers ("v1.32.1+k3s1",
// "1.28.0-gke.1337000"), compose plugins ("2.27.0"), and user-supplied
// minimum-version gates ("1.28"). Versions carry a precision so a gate
// written as "1.28" accepts every 1.28.x release.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmpty        = errors.New("version string is empty")
	ErrTooManyParts = errors.New("version has more than 3 components")
	ErrNotNumeric   = errors.New("version component is not numeric")
	ErrNegative     = errors.New("version component is negative")
)

// Version is a dotted version number with 1 to 3 significant components.
// Precision records how many components the source string carried; suffix
// metadata such as "+k3s1" or "-gke.1337000" is preserved in Extras but
// ignored by all comparisons.
type Version struct {
	Major int `json:"major,omitempty" yaml:"major,omitempty"`
	Minor int `json:"minor,omitempty" yaml:"minor,omitempty"`
	Patch int `json:"patch,omitempty" yaml:"patch,omitempty"`

	// Precision indicates how many components are significant (1, 2, or 3)
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Extras stores trailing metadata like "+k3s1" or "-eks-3025e55"
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// New creates a fully specified Version (precision 3).
// Use Parse when the number of components is not known up front.
func New(major, minor, patch int) Version {
	return Version{
		Major:     major,
		Minor:     minor,
		Patch:     patch,
		Precision: 3,
	}
}

// String renders the version at its own precision. Extras are not included,
// so the output is always re-parseable.
func (v Version) String() string {
	switch v.Precision {
	case 1:
		return strconv.Itoa(v.Major)
	case 2:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

// Parse parses a version string into a Version.
// Accepted shapes: "1", "1.28", "1.28.3", an optional "v" prefix, and
// trailing build or distribution metadata after '-' or '+' ("1.32.1+k3s1").
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, ErrEmpty
	}
	s = strings.TrimPrefix(s, "v")

	var v Version
	core := s
	// A '-' or '+' only starts metadata when it follows a digit, so "-1"
	// still fails as a negative component instead of parsing as extras.
	for i := 1; i < len(s); i++ {
		if (s[i] == '-' || s[i] == '+') && s[i-1] >= '0' && s[i-1] <= '9' {
			core, v.Extras = s[:i], s[i:]
			break
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return Version{}, ErrTooManyParts
	}

	dst := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNotNumeric, part)
		}
		if n < 0 {
			return Version{}, fmt.Errorf("%w: %d", ErrNegative, n)
		}
		*dst[i] = n
	}

	v.Precision = len(parts)
	return v, nil
}

// MustParse parses a version string and panics on failure.
// Reserve it for hardcoded strings and test data; runtime input goes
// through Parse.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("version.MustParse: %v", err))
	}
	return v
}

// AtLeast reports whether v satisfies the minimum min, comparing only the
// components min specifies. A gate of "1.28" accepts any 1.28.x version,
// while "1.28.3" requires patch 3 or newer.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	if min.Precision == 1 {
		return true
	}
	if v.Minor != min.Minor {
		return v.Minor > min.Minor
	}
	if min.Precision == 2 {
		return true
	}
	return v.Patch >= min.Patch
}

// Equals reports whether all numeric components match, ignoring precision
// and extras.
func (v Version) Equals(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor && v.Patch == other.Patch
}

// Compare returns -1, 0, or 1 ordering v against other.
// Comparison stops at the lower of the two precisions, so "1.28"
// compares equal to "1.28.3". Useful for sorting.
func (v Version) Compare(other Version) int {
	precision := v.Precision
	if other.Precision < precision {
		precision = other.Precision
	}

	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if precision <= 1 {
		return 0
	}

	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	if precision == 2 {
		return 0
	}

	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// IsValid returns true if all components are non-negative and precision
// is 1, 2, or 3.
func (v Version) IsValid() bool {
	if v.Major < 0 || v.Minor < 0 || v.Patch < 0 {
		return false
	}
	return v.Precision >= 1 && v.Precision <= 3
}
