package calc

import (
	"context"
	"fmt"
	"math"
	"regexp"
)

const numberExpr = `([-+]?\d*\.?\d+)`

// newCvFromFlow builds the valve flow coefficient calculator:
// Cv = Q / sqrt(SG x dP).
func newCvFromFlow() Calculator {
	descriptor := Descriptor{
		ID:          "cv_from_flow",
		Label:       "Valve Flow Coefficient (Cv)",
		Description: "Computes the required valve flow coefficient from flow rate, pressure drop, and specific gravity.",
		InputSchema: Schema{Fields: []Field{
			{Name: "flow_gpm", Label: "Flow rate", Unit: "gpm", Required: true, Min: floatPtr(0)},
			{Name: "delta_p_psi", Label: "Pressure drop", Unit: "psi", Required: true, Min: floatPtr(0)},
			{Name: "specific_gravity", Label: "Specific gravity", Required: true, Min: floatPtr(0.01)},
		}},
		OutputSchema: Schema{Fields: []Field{
			{Name: "cv_required", Label: "Required Cv"},
		}},
		AppliesTo: []string{"valves", "flow_control"},
		Handler: func(_ context.Context, in map[string]float64) (map[string]float64, error) {
			product := in["specific_gravity"] * in["delta_p_psi"]
			if product <= 0 {
				return nil, fmt.Errorf("%w: specific gravity and pressure drop must be positive", ErrInvalidInput)
			}
			return map[string]float64{"cv_required": in["flow_gpm"] / math.Sqrt(product)}, nil
		},
	}

	detector := &Detector{
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcv\b|flow coefficient`),
		},
		Inputs: []InputSpec{
			{
				Name:     "flow_gpm",
				Required: true,
				Patterns: []valuePattern{
					pat(`(?i)`+numberExpr+`\s*gpm\b`, 1),
					pat(`(?i)`+numberExpr+`\s*l\s*/\s*min\b`, litersPerMinToGPM),
					pat(`(?i)`+numberExpr+`\s*lpm\b`, litersPerMinToGPM),
				},
			},
			{
				Name:     "delta_p_psi",
				Required: true,
				Patterns: []valuePattern{
					pat(`(?i)`+numberExpr+`\s*psid?\b`, 1),
					pat(`(?i)`+numberExpr+`\s*bar\b`, barToPSI),
					pat(`(?i)`+numberExpr+`\s*kpa\b`, kPaToPSI),
				},
			},
			{
				Name:    "specific_gravity",
				Default: floatPtr(1.0),
				Patterns: []valuePattern{
					pat(`(?i)(?:\bsg\b|specific gravity)\s*(?:of|=|:)?\s*`+numberExpr, 1),
				},
			},
		},
	}

	return Calculator{Descriptor: descriptor, Detector: detector}
}

// newBoltTorque builds the bolt torque calculator: T = K x D(m) x F(N).
// Diameter and tension arrive in mm and kN and are converted before
// multiplying.
func newBoltTorque() Calculator {
	descriptor := Descriptor{
		ID:          "bolt_torque",
		Label:       "Bolt Tightening Torque",
		Description: "Computes tightening torque from nominal diameter, target tension, and nut factor.",
		InputSchema: Schema{Fields: []Field{
			{Name: "diameter_mm", Label: "Nominal diameter", Unit: "mm", Required: true, Min: floatPtr(0)},
			{Name: "tension_kn", Label: "Target tension", Unit: "kN", Required: true, Min: floatPtr(0)},
			{Name: "k_factor", Label: "Nut factor", Required: true, Min: floatPtr(0.01), Max: floatPtr(1)},
		}},
		OutputSchema: Schema{Fields: []Field{
			{Name: "torque_nm", Label: "Tightening torque", Unit: "N·m"},
		}},
		AppliesTo: []string{"fasteners", "assembly"},
		Handler: func(_ context.Context, in map[string]float64) (map[string]float64, error) {
			diameterM := in["diameter_mm"] / 1000
			tensionN := in["tension_kn"] * 1000
			return map[string]float64{"torque_nm": in["k_factor"] * diameterM * tensionN}, nil
		},
	}

	detector := &Detector{
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)torque`),
		},
		Inputs: []InputSpec{
			{
				Name:     "diameter_mm",
				Required: true,
				Patterns: []valuePattern{
					pat(`(?i)\bm(\d{1,2}(?:\.\d+)?)\b`, 1),
					pat(`(?i)`+numberExpr+`\s*mm\b`, 1),
				},
			},
			{
				Name:     "tension_kn",
				Required: true,
				Patterns: []valuePattern{
					pat(`(?i)`+numberExpr+`\s*kn\b`, 1),
				},
			},
			{
				Name:    "k_factor",
				Default: floatPtr(0.2),
				Patterns: []valuePattern{
					pat(`(?i)\bk(?:[ -]?factor)?\s*(?:of|=|:)?\s*(0?\.\d+)`, 1),
				},
			},
		},
	}

	return Calculator{Descriptor: descriptor, Detector: detector}
}

// newTempConvert builds the bidirectional temperature converter.
func newTempConvert() Calculator {
	descriptor := Descriptor{
		ID:          "temp_convert",
		Label:       "Temperature Conversion",
		Description: "Converts between Celsius and Fahrenheit.",
		InputSchema: Schema{Fields: []Field{
			{Name: "celsius", Label: "Temperature", Unit: "°C"},
			{Name: "fahrenheit", Label: "Temperature", Unit: "°F"},
		}},
		OutputSchema: Schema{Fields: []Field{
			{Name: "celsius", Label: "Temperature", Unit: "°C"},
			{Name: "fahrenheit", Label: "Temperature", Unit: "°F"},
		}},
		AppliesTo: []string{"general"},
		Handler: func(_ context.Context, in map[string]float64) (map[string]float64, error) {
			if c, ok := in["celsius"]; ok {
				return map[string]float64{"celsius": c, "fahrenheit": c*9/5 + 32}, nil
			}
			if f, ok := in["fahrenheit"]; ok {
				return map[string]float64{"celsius": (f - 32) * 5 / 9, "fahrenheit": f}, nil
			}
			return nil, fmt.Errorf("%w: need a celsius or fahrenheit value", ErrInvalidInput)
		},
	}

	detector := &Detector{
		Triggers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)convert|what is|in (?:celsius|fahrenheit|°\s*[cf])`),
		},
		Inputs: []InputSpec{
			{
				Name: "celsius",
				Patterns: []valuePattern{
					pat(`(?i)`+numberExpr+`\s*(?:°\s*c\b|degrees\s+c(?:elsius)?\b|celsius)`, 1),
				},
			},
			{
				Name: "fahrenheit",
				Patterns: []valuePattern{
					pat(`(?i)`+numberExpr+`\s*(?:°\s*f\b|degrees\s+f(?:ahrenheit)?\b|fahrenheit)`, 1),
				},
			},
		},
		AnyOf: []string{"celsius", "fahrenheit"},
	}

	return Calculator{Descriptor: descriptor, Detector: detector}
}
