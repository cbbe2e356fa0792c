// Package minima defines per-training-level weather minima.
//
// A Policy is built once at startup (see config.Config.Policy) and passed to
// the safety evaluator. It is read-only after construction and safe for
// concurrent use.
package minima

import (
	"fmt"
	"strings"
)

// TrainingLevel is a pilot's certification tier.
type TrainingLevel string

// Known training levels, ordered from least to most capable.
const (
	StudentPilot    TrainingLevel = "STUDENT_PILOT"
	PrivatePilot    TrainingLevel = "PRIVATE_PILOT"
	InstrumentRated TrainingLevel = "INSTRUMENT_RATED"
)

// Levels returns all training levels from least to most capable.
func Levels() []TrainingLevel {
	return []TrainingLevel{StudentPilot, PrivatePilot, InstrumentRated}
}

// ParseTrainingLevel accepts the canonical name case-insensitively.
func ParseTrainingLevel(s string) (TrainingLevel, error) {
	lvl := TrainingLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !lvl.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTrainingLevel, s)
	}
	return lvl, nil
}

// IsValid reports whether l is a known level.
func (l TrainingLevel) IsValid() bool {
	switch l {
	case StudentPilot, PrivatePilot, InstrumentRated:
		return true
	default:
		return false
	}
}

// Label returns a human-readable name, e.g. "student pilot".
func (l TrainingLevel) Label() string {
	return strings.ToLower(strings.ReplaceAll(string(l), "_", " "))
}

func (l TrainingLevel) String() string { return string(l) }

// Thresholds is the set of limits for one training level.
type Thresholds struct {
	// MinVisibilitySM is the minimum visibility in statute miles.
	MinVisibilitySM float64
	// MinCeilingFt is the minimum ceiling in feet AGL. Only a limited
	// ceiling is compared against it.
	MinCeilingFt float64
	// MaxWindKt is the maximum tolerated wind speed in knots.
	MaxWindKt float64
	// ThunderstormsDisqualify makes any thunderstorm a hard no-go.
	ThunderstormsDisqualify bool
	// IcingDisqualify makes any icing a hard no-go.
	IcingDisqualify bool
}

// Policy maps every training level to its thresholds.
type Policy struct {
	levels map[TrainingLevel]Thresholds
}

// NewPolicy validates the table and returns a read-only Policy.
//
// Every known level must be present, values must be non-negative, and minima
// may only loosen as capability increases: visibility and ceiling minima
// never grow and the wind maximum never shrinks. Icing and thunderstorms
// must disqualify every level.
func NewPolicy(table map[TrainingLevel]Thresholds) (*Policy, error) {
	levels := make(map[TrainingLevel]Thresholds, len(table))
	for lvl, th := range table {
		if !lvl.IsValid() {
			return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidPolicy, lvl)
		}
		if th.MinVisibilitySM < 0 || th.MinCeilingFt < 0 || th.MaxWindKt < 0 {
			return nil, fmt.Errorf("%w: negative threshold for %s", ErrInvalidPolicy, lvl)
		}
		if !th.IcingDisqualify {
			return nil, fmt.Errorf("%w: icing must disqualify %s", ErrInvalidPolicy, lvl)
		}
		if !th.ThunderstormsDisqualify {
			return nil, fmt.Errorf("%w: thunderstorms must disqualify %s", ErrInvalidPolicy, lvl)
		}
		levels[lvl] = th
	}

	ordered := Levels()
	for _, lvl := range ordered {
		if _, ok := levels[lvl]; !ok {
			return nil, fmt.Errorf("%w: missing level %s", ErrInvalidPolicy, lvl)
		}
	}
	for i := 1; i < len(ordered); i++ {
		lower, higher := levels[ordered[i-1]], levels[ordered[i]]
		switch {
		case higher.MinVisibilitySM > lower.MinVisibilitySM:
			return nil, fmt.Errorf("%w: %s visibility minimum exceeds %s", ErrInvalidPolicy, ordered[i], ordered[i-1])
		case higher.MinCeilingFt > lower.MinCeilingFt:
			return nil, fmt.Errorf("%w: %s ceiling minimum exceeds %s", ErrInvalidPolicy, ordered[i], ordered[i-1])
		case higher.MaxWindKt < lower.MaxWindKt:
			return nil, fmt.Errorf("%w: %s wind maximum below %s", ErrInvalidPolicy, ordered[i], ordered[i-1])
		}
	}

	return &Policy{levels: levels}, nil
}

// DefaultTable returns the built-in thresholds. Callers may modify the
// returned map; it is a fresh copy.
func DefaultTable() map[TrainingLevel]Thresholds {
	return map[TrainingLevel]Thresholds{
		StudentPilot: {
			MinVisibilitySM:         5,
			MinCeilingFt:            3000,
			MaxWindKt:               12,
			ThunderstormsDisqualify: true,
			IcingDisqualify:         true,
		},
		PrivatePilot: {
			MinVisibilitySM:         3,
			MinCeilingFt:            1000,
			MaxWindKt:               20,
			ThunderstormsDisqualify: true,
			IcingDisqualify:         true,
		},
		InstrumentRated: {
			MinVisibilitySM:         1,
			MinCeilingFt:            500,
			MaxWindKt:               25,
			ThunderstormsDisqualify: true,
			IcingDisqualify:         true,
		},
	}
}

// DefaultPolicy returns a Policy built from DefaultTable.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultTable())
	if err != nil {
		panic("minima: default table is invalid: " + err.Error())
	}
	return p
}

// Thresholds returns the limits for level.
func (p *Policy) Thresholds(level TrainingLevel) (Thresholds, error) {
	th, ok := p.levels[level]
	if !ok {
		return Thresholds{}, fmt.Errorf("%w: %q", ErrInvalidTrainingLevel, level)
	}
	return th, nil
}
