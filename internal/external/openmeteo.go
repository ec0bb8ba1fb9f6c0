package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"agridash/internal/types"
)

// OpenMeteoClient fetches current weather from the Open-Meteo API. The API
// requires no key, so credentials are not part of the configuration.
type OpenMeteoClient struct {
	base    *BaseClient
	baseURL string
}

// NewOpenMeteoClient creates a client against the given base URL (the
// production endpoint or an httptest server).
func NewOpenMeteoClient(baseURL, userAgent string, timeout time.Duration, opts ...BaseClientOption) *OpenMeteoClient {
	httpClient := &http.Client{Timeout: timeout}
	return &OpenMeteoClient{
		base: NewBaseClient(
			httpClient,
			"open-meteo",
			DefaultRetryPolicy(),
			userAgent,
			types.ErrCodeUpstreamWeather,
			opts...,
		),
		baseURL: baseURL,
	}
}

type openMeteoResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
}

// CurrentWeather fetches the current observation for the given coordinates.
func (c *OpenMeteoClient) CurrentWeather(ctx context.Context, lat, lon float64) (types.WeatherObservation, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", lat))
	params.Set("longitude", fmt.Sprintf("%.4f", lon))
	params.Set("current", "temperature_2m,relative_humidity_2m,precipitation")
	params.Set("temperature_unit", "celsius")
	params.Set("precipitation_unit", "mm")
	params.Set("timezone", "UTC")

	reqURL := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.WeatherObservation{}, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to build weather request",
			err,
		)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return types.WeatherObservation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.WeatherObservation{}, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("weather provider returned %d", resp.StatusCode),
			nil,
		)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.WeatherObservation{}, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"failed to decode weather response",
			err,
		)
	}

	observedAt := time.Now().UTC()
	if body.Current.Time != "" {
		// Open-Meteo returns ISO8601 without a zone suffix when timezone=UTC.
		if t, err := time.Parse("2006-01-02T15:04", body.Current.Time); err == nil {
			observedAt = t.UTC()
		} else if t, err := time.Parse(time.RFC3339, body.Current.Time); err == nil {
			observedAt = t.UTC()
		}
	}

	return types.WeatherObservation{
		TemperatureC:    body.Current.Temperature,
		HumidityPct:     body.Current.Humidity,
		PrecipitationMM: body.Current.Precipitation,
		ObservedAt:      observedAt,
	}, nil
}
