package model

import (
	"fmt"
	"strings"
)

// SystemTag identifies a physiological system the engine models.
type SystemTag string

// System tags.
const (
	SystemCNS       SystemTag = "cns"
	SystemMuscular  SystemTag = "muscular"
	SystemSpinal    SystemTag = "spinal"
	SystemReadiness SystemTag = "readiness"
)

// BatterySystems are the three systems that carry a battery.
var BatterySystems = []SystemTag{SystemCNS, SystemMuscular, SystemSpinal} //nolint:gochecknoglobals // fixed ordering used for deterministic output

// AllSystems lists every system a prediction may target, in report order.
var AllSystems = []SystemTag{SystemCNS, SystemMuscular, SystemSpinal, SystemReadiness} //nolint:gochecknoglobals // fixed ordering used for deterministic output

// Valid reports whether s is a known system tag.
func (s SystemTag) Valid() bool {
	switch s {
	case SystemCNS, SystemMuscular, SystemSpinal, SystemReadiness:
		return true
	}
	return false
}

// HasBattery reports whether s is one of the battery systems.
func (s SystemTag) HasBattery() bool {
	return s == SystemCNS || s == SystemMuscular || s == SystemSpinal
}

// Label returns the display name used in audit and verdict text.
func (s SystemTag) Label() string {
	switch s {
	case SystemCNS:
		return "SNC"
	case SystemMuscular:
		return "Muscular"
	case SystemSpinal:
		return "Espinal"
	case SystemReadiness:
		return "Disposición"
	}
	return string(s)
}

// ParseSystem parses a system tag case-insensitively.
func ParseSystem(v string) (SystemTag, error) {
	s := SystemTag(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSystem, v)
	}
	return s, nil
}
