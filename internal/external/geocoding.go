package external

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"skycast/internal/types"
)

// openMeteoGeocodingBase is the default Open-Meteo geocoding host.
const openMeteoGeocodingBase = "https://geocoding-api.open-meteo.com"

// maxResponseBytes bounds how much of an upstream body is decoded.
const maxResponseBytes = 1 << 20

// OpenMeteoGeocoderConfig holds the configuration for an OpenMeteoGeocoder.
type OpenMeteoGeocoderConfig struct {
	BaseURL string // defaults to openMeteoGeocodingBase
	Logger  *slog.Logger
}

// OpenMeteoGeocoder implements Geocoder against the Open-Meteo geocoding API.
// It asks for exactly one match and uses it.
type OpenMeteoGeocoder struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewOpenMeteoGeocoder creates an OpenMeteoGeocoder that sends through base.
func NewOpenMeteoGeocoder(base *BaseClient, cfg OpenMeteoGeocoderConfig) *OpenMeteoGeocoder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openMeteoGeocodingBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenMeteoGeocoder{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// geocodeResponse is the boundary schema of /v1/search. Results is absent
// when nothing matches.
type geocodeResponse struct {
	Results []geocodeMatch `json:"results"`
}

// geocodeMatch marks required fields as pointers so absence is detectable.
type geocodeMatch struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Country   string   `json:"country"`
}

func (m geocodeMatch) valid() bool {
	return m.Name != nil && m.Latitude != nil && m.Longitude != nil
}

// Resolve returns the first match for city.
//
// Error mapping:
//   - blank input -> types.ErrCodeValidationEmptyQuery, no request made
//   - empty or absent result list -> types.ErrCodeNotFoundCity
//   - transport, status or decoding failure -> types.ErrCodeUpstreamGeocode
func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, city string) (*types.GeoResult, error) {
	name := strings.TrimSpace(city)
	if name == "" {
		return nil, types.NewAppError(types.ErrCodeValidationEmptyQuery, types.MsgEmptyQuery, nil)
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, geocodeError("failed to build geocoding request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.base.Do(req)
	if err != nil {
		return nil, geocodeError("geocoding request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, geocodeError("geocoding request rejected", statusError("open-meteo geocoding", resp))
	}

	var body geocodeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, geocodeError("malformed geocoding response", err)
	}

	if len(body.Results) == 0 {
		g.logger.InfoContext(ctx, "geocoding returned no match", "query", name)
		return nil, types.NewAppError(types.ErrCodeNotFoundCity, types.MsgCityNotFound, nil).
			WithDetails(map[string]any{"query": name})
	}

	match := body.Results[0]
	if !match.valid() {
		return nil, geocodeError("malformed geocoding response", errMissingFields)
	}

	return &types.GeoResult{
		Latitude:     *match.Latitude,
		Longitude:    *match.Longitude,
		ResolvedName: *match.Name,
		Country:      match.Country,
	}, nil
}

func geocodeError(message string, err error) *types.AppError {
	return types.NewAppError(types.ErrCodeUpstreamGeocode, message, err)
}
