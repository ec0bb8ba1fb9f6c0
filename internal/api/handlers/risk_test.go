package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agridash/internal/types"
)

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) Current(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(types.WeatherObservation), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func riskRouter(weather WeatherProviderInterface) *chi.Mux {
	h := NewRiskHandler(weather, nil, testLogger())
	r := chi.NewRouter()
	r.Route("/v1/risk", h.RegisterRoutes)
	return r
}

func TestRiskHandler_Assessment_Success(t *testing.T) {
	weather := new(mockWeather)
	weather.On("Current", mock.Anything, -6.2, 106.8).Return(types.WeatherObservation{
		TemperatureC:    27,
		HumidityPct:     75,
		PrecipitationMM: 0,
		ObservedAt:      time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/assessment?crop=rice&lat=-6.2&lon=106.8", nil)
	rec := httptest.NewRecorder()
	riskRouter(weather).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Report  types.RiskReport         `json:"report"`
		Weather types.WeatherObservation `json:"weather"`
	}
	decodeEnvelope(t, rec, &body)

	assert.Equal(t, types.CropRice, body.Report.Crop)
	require.Len(t, body.Report.Factors, 1)
	assert.Equal(t, "Brown planthopper", body.Report.Factors[0].Name)
	assert.Equal(t, types.BandMedium, body.Report.Band)
	assert.InDelta(t, 27.0, body.Weather.TemperatureC, 1e-9)
}

func TestRiskHandler_Assessment_MissingCrop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/risk/assessment?lat=0&lon=0", nil)
	rec := httptest.NewRecorder()
	riskRouter(new(mockWeather)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), errorCode(t, rec))
}

func TestRiskHandler_Assessment_BadCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  types.ErrorCode
	}{
		{"missing lat", "crop=rice&lon=106.8", types.ErrCodeValidationMissingField},
		{"lat out of range", "crop=rice&lat=91&lon=106.8", types.ErrCodeValidationInvalidLat},
		{"lon not a number", "crop=rice&lat=-6.2&lon=east", types.ErrCodeValidationInvalidLon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/risk/assessment?"+tt.query, nil)
			rec := httptest.NewRecorder()
			riskRouter(new(mockWeather)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tt.code), errorCode(t, rec))
		})
	}
}

func TestRiskHandler_Assessment_WeatherUnavailable(t *testing.T) {
	weather := new(mockWeather)
	weather.On("Current", mock.Anything, mock.Anything, mock.Anything).
		Return(types.WeatherObservation{}, types.NewAppError(types.ErrCodeUpstreamWeather, "provider down", nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/risk/assessment?crop=rice&lat=-6.2&lon=106.8", nil)
	rec := httptest.NewRecorder()
	riskRouter(weather).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(types.ErrCodeUpstreamWeather), errorCode(t, rec))
}

func TestRiskHandler_Evaluate_Success(t *testing.T) {
	payload := `{"crop":"rice","temperature_c":29,"relative_humidity_pct":90,"precipitation_mm_per_hour":3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/evaluate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	riskRouter(new(mockWeather)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report types.RiskReport
	decodeEnvelope(t, rec, &report)

	require.Len(t, report.Factors, 3)
	assert.Equal(t, "Blast/leaf fungus", report.Factors[0].Name)
	assert.InDelta(t, 1.0, report.Composite, 1e-9)
	assert.Equal(t, types.BandHigh, report.Band)
}

func TestRiskHandler_Evaluate_UnknownCropIsLowRisk(t *testing.T) {
	payload := `{"crop":"durian","temperature_c":29,"relative_humidity_pct":90,"precipitation_mm_per_hour":3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/evaluate", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	riskRouter(new(mockWeather)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report types.RiskReport
	decodeEnvelope(t, rec, &report)
	assert.Empty(t, report.Factors)
	assert.Equal(t, types.BandLow, report.Band)
	assert.Equal(t, "Low", report.Headline.Name)
}

func TestRiskHandler_Evaluate_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/evaluate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	riskRouter(new(mockWeather)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiskHandler_Evaluate_MissingCrop(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/risk/evaluate", strings.NewReader(`{"temperature_c":29}`))
	rec := httptest.NewRecorder()
	riskRouter(new(mockWeather)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), errorCode(t, rec))
}

// --- WeatherHandler ---

func weatherRouter(service WeatherServiceInterface, sites []types.Site) *chi.Mux {
	h := NewWeatherHandler(service, sites, testLogger())
	r := chi.NewRouter()
	r.Route("/v1/weather", h.RegisterRoutes)
	return r
}

func TestWeatherHandler_Current(t *testing.T) {
	weather := new(mockWeather)
	weather.On("Current", mock.Anything, -6.2, 106.8).Return(types.WeatherObservation{
		TemperatureC: 31.5,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?lat=-6.2&lon=106.8", nil)
	rec := httptest.NewRecorder()
	weatherRouter(weather, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var obs types.WeatherObservation
	decodeEnvelope(t, rec, &obs)
	assert.InDelta(t, 31.5, obs.TemperatureC, 1e-9)
}

func TestWeatherHandler_Sites(t *testing.T) {
	sites := []types.Site{{Name: "demo-paddy", Lat: -6.2, Lon: 106.8, Crop: types.CropRice}}

	req := httptest.NewRequest(http.MethodGet, "/v1/weather/sites", nil)
	rec := httptest.NewRecorder()
	weatherRouter(new(mockWeather), sites).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []types.Site
	decodeEnvelope(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "demo-paddy", got[0].Name)
}
