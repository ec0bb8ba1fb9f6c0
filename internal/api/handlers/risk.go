package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agridash/internal/core"
	"agridash/internal/risk"
	"agridash/internal/types"
)

// WeatherProviderInterface is the weather surface the risk handler needs.
type WeatherProviderInterface interface {
	Current(ctx context.Context, lat, lon float64) (types.WeatherObservation, error)
}

// RiskMetrics records risk evaluation outcomes.
type RiskMetrics interface {
	RecordRiskEvaluation(crop string, band string)
}

// RiskHandler serves risk assessments. The assessment route fetches live
// weather for a location and runs the rule table; the evaluate route runs the
// rule table on caller-supplied readings, which is what field agents use to
// answer "what if it rains tomorrow".
type RiskHandler struct {
	weather WeatherProviderInterface
	metrics RiskMetrics
	logger  *slog.Logger
}

// NewRiskHandler creates a RiskHandler. metrics may be nil.
func NewRiskHandler(weather WeatherProviderInterface, metrics RiskMetrics, logger *slog.Logger) *RiskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskHandler{weather: weather, metrics: metrics, logger: logger}
}

// RegisterRoutes mounts the risk endpoints onto the mux.
func (h *RiskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/assessment", h.HandleAssessment)
	r.Post("/evaluate", h.HandleEvaluate)
}

// assessmentResponse pairs the report with the observation it was computed
// from, so the dashboard can show both without a second request.
type assessmentResponse struct {
	Report  types.RiskReport         `json:"report"`
	Weather types.WeatherObservation `json:"weather"`
}

// HandleAssessment handles GET /v1/risk/assessment?crop=rice&lat=..&lon=..
func (h *RiskHandler) HandleAssessment(w http.ResponseWriter, r *http.Request) {
	cropStr := r.URL.Query().Get("crop")
	if cropStr == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"crop query parameter is required",
			nil,
		))
		return
	}
	crop := types.ParseCrop(cropStr)

	lat, lon, err := parseCoordinates(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	obs, err := h.weather.Current(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	report := risk.Assess(crop, obs)
	h.record(report)
	core.JSON(w, r, http.StatusOK, assessmentResponse{Report: report, Weather: obs})
}

// evaluateRequest is the payload for a caller-supplied evaluation.
type evaluateRequest struct {
	Crop            string  `json:"crop"`
	TemperatureC    float64 `json:"temperature_c"`
	HumidityPct     float64 `json:"relative_humidity_pct"`
	PrecipitationMM float64 `json:"precipitation_mm_per_hour"`
}

// HandleEvaluate handles POST /v1/risk/evaluate. The readings are taken
// as-is: out-of-range values simply trigger no rules.
func (h *RiskHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.Crop == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"crop is required",
			nil,
		))
		return
	}

	report := risk.Assess(types.ParseCrop(req.Crop), types.WeatherObservation{
		TemperatureC:    req.TemperatureC,
		HumidityPct:     req.HumidityPct,
		PrecipitationMM: req.PrecipitationMM,
	})
	h.record(report)
	core.JSON(w, r, http.StatusOK, report)
}

func (h *RiskHandler) record(report types.RiskReport) {
	if h.metrics != nil {
		h.metrics.RecordRiskEvaluation(string(report.Crop), string(report.Band))
	}
}
