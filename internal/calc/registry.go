// Package calc declares formula calculators with paired free-text detectors
// and executes every calculator whose detector fires on a message.
package calc

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput indicates a calculator input failed schema validation.
var ErrInvalidInput = errors.New("invalid calculator input")

// Handler is a pure function from validated numeric inputs to outputs.
// Handlers always receive canonical-unit inputs; detectors convert upstream.
type Handler func(ctx context.Context, inputs map[string]float64) (map[string]float64, error)

// Field describes one schema field.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Unit     string   `json:"unit,omitempty"`
	Required bool     `json:"required"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Schema describes a calculator's input or output shape.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Validate checks inputs against the schema. Required fields must be present
// and bounded fields must fall inside their bounds.
func (s Schema) Validate(inputs map[string]float64) error {
	for _, field := range s.Fields {
		value, present := inputs[field.Name]
		if !present {
			if field.Required {
				return fmt.Errorf("%w: missing required field %q", ErrInvalidInput, field.Name)
			}
			continue
		}
		if field.Min != nil && value < *field.Min {
			return fmt.Errorf("%w: field %q below minimum %v", ErrInvalidInput, field.Name, *field.Min)
		}
		if field.Max != nil && value > *field.Max {
			return fmt.Errorf("%w: field %q above maximum %v", ErrInvalidInput, field.Name, *field.Max)
		}
	}
	return nil
}

// Descriptor declares one formula calculator.
type Descriptor struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Description  string   `json:"description"`
	InputSchema  Schema   `json:"inputSchema"`
	OutputSchema Schema   `json:"outputSchema"`
	AppliesTo    []string `json:"appliesTo"`
	Handler      Handler  `json:"-"`
}

// Calculator pairs a descriptor with its detector in one record, so an id
// can never exist in one table but not the other.
type Calculator struct {
	Descriptor Descriptor
	Detector   *Detector
}

// Registry holds the static calculator set. It is built once at startup and
// read-only thereafter.
type Registry struct {
	calculators []Calculator
	byID        map[string]int
}

// NewRegistry builds a registry with the reference calculators registered.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]int)}
	r.register(newCvFromFlow())
	r.register(newBoltTorque())
	r.register(newTempConvert())
	return r
}

func (r *Registry) register(c Calculator) {
	r.byID[c.Descriptor.ID] = len(r.calculators)
	r.calculators = append(r.calculators, c)
}

// All returns the registered calculators in declaration order.
func (r *Registry) All() []Calculator {
	return r.calculators
}

// Get looks up a calculator by id.
func (r *Registry) Get(id string) (Calculator, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Calculator{}, false
	}
	return r.calculators[idx], true
}

// Descriptors returns the descriptor list for API surfaces.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.calculators))
	for i, c := range r.calculators {
		out[i] = c.Descriptor
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
