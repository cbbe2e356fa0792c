// Package safety decides whether weather conditions are flyable for a pilot's
// training level.
package safety

import (
	"fmt"
	"strings"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/minima"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/weather"
)

// Violation is a machine-readable rule failure.
type Violation string

// Known violation codes.
const (
	VisibilityBelowMinimum Violation = "VISIBILITY_BELOW_MINIMUM"
	CeilingBelowMinimum    Violation = "CEILING_BELOW_MINIMUM"
	WindExceedsMaximum     Violation = "WIND_EXCEEDS_MAXIMUM"
	ThunderstormsPresent   Violation = "THUNDERSTORMS_PRESENT"
	IcingPresent           Violation = "ICING_PRESENT"
)

// Verdict is the result of evaluating one Conditions sample.
type Verdict struct {
	Safe        bool                 `json:"isSafe"`
	Violations  []Violation          `json:"violations"`
	Reason      string               `json:"reason"`
	Level       minima.TrainingLevel `json:"trainingLevel"`
	EvaluatedAt time.Time            `json:"evaluatedAt"`
}

// Has reports whether v lists code.
func (v Verdict) Has(code Violation) bool {
	for _, got := range v.Violations {
		if got == code {
			return true
		}
	}
	return false
}

// Evaluator applies a minima policy to weather samples.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	policy *minima.Policy
}

// NewEvaluator returns an Evaluator bound to policy.
func NewEvaluator(policy *minima.Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Thresholds exposes the minima applied to level.
func (e *Evaluator) Thresholds(level minima.TrainingLevel) (minima.Thresholds, error) {
	return e.policy.Thresholds(level)
}

// Evaluate returns the verdict for c at level. The result depends only on
// the arguments; EvaluatedAt is the sample time, not the wall clock.
func (e *Evaluator) Evaluate(c weather.Conditions, level minima.TrainingLevel) (Verdict, error) {
	th, err := e.policy.Thresholds(level)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{Level: level, EvaluatedAt: c.Time()}

	// Hard flags short-circuit; icing first since it grounds every level.
	switch {
	case c.Icing() && th.IcingDisqualify:
		return v.unsafe([]Violation{IcingPresent}, []string{
			fmt.Sprintf("Icing conditions reported; no %s flight permitted", level.Label()),
		}), nil
	case c.Thunderstorms() && th.ThunderstormsDisqualify:
		return v.unsafe([]Violation{ThunderstormsPresent}, []string{
			fmt.Sprintf("Thunderstorms reported; no %s flight permitted", level.Label()),
		}), nil
	}

	var (
		codes   []Violation
		reasons []string
	)
	if c.VisibilitySM() < th.MinVisibilitySM {
		codes = append(codes, VisibilityBelowMinimum)
		reasons = append(reasons, fmt.Sprintf("Visibility %.1f SM is below the %.1f SM minimum", c.VisibilitySM(), th.MinVisibilitySM))
	}
	if c.Ceiling().Below(th.MinCeilingFt) {
		codes = append(codes, CeilingBelowMinimum)
		reasons = append(reasons, fmt.Sprintf("Ceiling %s is below the %.0f ft minimum", c.Ceiling(), th.MinCeilingFt))
	}
	if c.WindSpeedKt() > th.MaxWindKt {
		codes = append(codes, WindExceedsMaximum)
		reasons = append(reasons, fmt.Sprintf("Wind %.0f kt exceeds the %.0f kt maximum", c.WindSpeedKt(), th.MaxWindKt))
	}

	if len(codes) == 0 {
		v.Safe = true
		v.Violations = []Violation{}
		v.Reason = fmt.Sprintf("Conditions are within %s minima", level.Label())
		return v, nil
	}
	return v.unsafe(codes, reasons), nil
}

func (v Verdict) unsafe(codes []Violation, reasons []string) Verdict {
	v.Safe = false
	v.Violations = codes
	v.Reason = strings.Join(reasons, "; ")
	return v
}

// Combine merges verdicts for the legs of one flight (departure first). The
// result is safe only if every input is safe; violations are de-duplicated
// in first-seen order and unsafe reasons are prefixed with their label.
// labels and verdicts must have the same length.
func Combine(labels []string, verdicts []Verdict) Verdict {
	if len(verdicts) == 1 {
		return verdicts[0]
	}

	out := Verdict{Safe: true, Violations: []Violation{}}
	seen := make(map[Violation]bool)
	var reasons []string
	for i, v := range verdicts {
		if i == 0 || v.EvaluatedAt.After(out.EvaluatedAt) {
			out.EvaluatedAt = v.EvaluatedAt
		}
		out.Level = v.Level
		if v.Safe {
			continue
		}
		out.Safe = false
		for _, code := range v.Violations {
			if !seen[code] {
				seen[code] = true
				out.Violations = append(out.Violations, code)
			}
		}
		reasons = append(reasons, labels[i]+": "+v.Reason)
	}
	if out.Safe {
		out.Reason = fmt.Sprintf("Conditions are within %s minima at all locations", out.Level.Label())
	} else {
		out.Reason = strings.Join(reasons, "; ")
	}
	return out
}
