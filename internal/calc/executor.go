package calc

import (
	"context"
	"fmt"

	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
)

// Result is the output of one successfully executed calculator.
type Result struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	Inputs      map[string]float64 `json:"inputs"`
	Outputs     map[string]float64 `json:"outputs"`
	Description string             `json:"description"`
}

// Executor runs every registered calculator whose detector fires on a
// message. A failing calculator is logged and omitted; it never aborts the
// batch.
type Executor struct {
	registry *Registry
	logger   *observability.Logger
}

// NewExecutor creates an executor over a registry.
func NewExecutor(registry *Registry, logger *observability.Logger) *Executor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Executor{registry: registry, logger: logger}
}

// Run detects and executes calculators against a free-text message,
// returning one result per calculator that both detected inputs and
// executed successfully.
func (e *Executor) Run(ctx context.Context, message string) []Result {
	results := make([]Result, 0)

	for _, calculator := range e.registry.All() {
		descriptor := calculator.Descriptor

		inputs, fired := calculator.Detector.Extract(message)
		if !fired {
			continue
		}

		if err := descriptor.InputSchema.Validate(inputs); err != nil {
			e.logger.Warn().
				Str("calculator", descriptor.ID).
				Err(err).
				Msg("Calculator input validation failed")
			continue
		}

		outputs, err := e.invoke(ctx, descriptor, inputs)
		if err != nil {
			e.logger.Warn().
				Str("calculator", descriptor.ID).
				Err(err).
				Msg("Calculator execution failed")
			continue
		}

		results = append(results, Result{
			ID:          descriptor.ID,
			Label:       descriptor.Label,
			Inputs:      inputs,
			Outputs:     outputs,
			Description: descriptor.Description,
		})
	}

	return results
}

// invoke calls the handler, converting panics into errors so one bad
// calculator cannot take down the batch.
func (e *Executor) invoke(ctx context.Context, descriptor Descriptor, inputs map[string]float64) (outputs map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("calculator %s panicked: %v", descriptor.ID, r)
		}
	}()
	return descriptor.Handler(ctx, inputs)
}
