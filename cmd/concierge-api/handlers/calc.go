package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ojieame12/concierge-clean-sub002/internal/calc"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
)

// CalcHandler handles calculator listing and execution requests.
type CalcHandler struct {
	logger   *observability.Logger
	registry *calc.Registry
	executor *calc.Executor
}

// NewCalcHandler creates a new calculator handler.
func NewCalcHandler(logger *observability.Logger, registry *calc.Registry, executor *calc.Executor) *CalcHandler {
	return &CalcHandler{
		logger:   logger,
		registry: registry,
		executor: executor,
	}
}

// RunCalculatorsRequestDTO represents the execution request.
type RunCalculatorsRequestDTO struct {
	Message string `json:"message"`
}

// RunCalculatorsResponseDTO represents the execution response.
type RunCalculatorsResponseDTO struct {
	Results []calc.Result `json:"results"`
}

// List handles GET /calculators.
func (h *CalcHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"calculators": h.registry.Descriptors(),
	})
}

// Run handles POST /calculators/run.
func (h *CalcHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunCalculatorsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required", "")
		return
	}

	results := h.executor.Run(r.Context(), req.Message)

	writeJSON(w, http.StatusOK, RunCalculatorsResponseDTO{Results: results})
}
