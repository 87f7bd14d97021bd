package calc

import (
	"regexp"
	"strconv"
)

// Conversion factors applied inline by detectors so handlers always receive
// canonical-unit inputs.
const (
	litersPerMinToGPM = 0.264172
	barToPSI          = 14.5038
	kPaToPSI          = 0.145038
)

// valuePattern extracts one numeric capture and applies a unit conversion.
type valuePattern struct {
	re     *regexp.Regexp
	factor float64
}

// InputSpec describes how one calculator input is pulled from free text.
// Patterns are tried in order; the first match wins.
type InputSpec struct {
	Name     string
	Patterns []valuePattern
	Required bool
	Default  *float64
}

// Detector is a regex-based extractor pairing a calculator with the message
// shapes that trigger it. Detection is best-effort: a missing required input
// means the calculator silently skips this message.
type Detector struct {
	Triggers []*regexp.Regexp
	Inputs   []InputSpec
	// AnyOf lists input names of which at least one must be present.
	AnyOf []string
}

// Extract pulls the calculator's inputs out of a message. The second return
// is false when the detector does not fire.
func (d *Detector) Extract(message string) (map[string]float64, bool) {
	if len(d.Triggers) > 0 {
		fired := false
		for _, trigger := range d.Triggers {
			if trigger.MatchString(message) {
				fired = true
				break
			}
		}
		if !fired {
			return nil, false
		}
	}

	inputs := make(map[string]float64)
	for _, spec := range d.Inputs {
		value, ok := extractValue(spec.Patterns, message)
		if ok {
			inputs[spec.Name] = value
			continue
		}
		if spec.Default != nil {
			inputs[spec.Name] = *spec.Default
			continue
		}
		if spec.Required {
			return nil, false
		}
	}

	if len(d.AnyOf) > 0 {
		satisfied := false
		for _, name := range d.AnyOf {
			if _, ok := inputs[name]; ok {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return nil, false
		}
	}

	return inputs, true
}

func extractValue(patterns []valuePattern, message string) (float64, bool) {
	for _, pattern := range patterns {
		match := pattern.re.FindStringSubmatch(message)
		if len(match) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		return value * pattern.factor, true
	}
	return 0, false
}

func pat(expr string, factor float64) valuePattern {
	return valuePattern{re: regexp.MustCompile(expr), factor: factor}
}
