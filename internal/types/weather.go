package types

import (
	"fmt"
	"time"
)

// PlaceholderHumidityPercent is reported for every current reading. The
// forecast endpoint is not asked for humidity; this is a known limitation.
const PlaceholderHumidityPercent = 60

// HourlyDisplayLimit is the number of hourly points kept for display.
const HourlyDisplayLimit = 8

// HourlyLabelLayout formats an hourly point's local time of day.
const HourlyLabelLayout = "15:04"

// Mode selects which forecast variant a search fetches.
type Mode string

const (
	ModeCurrent Mode = "current"
	ModeHourly  Mode = "hourly"
)

// ParseMode converts s to a Mode. An empty string selects ModeCurrent.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCurrent:
		return ModeCurrent, nil
	case ModeHourly:
		return ModeHourly, nil
	default:
		return "", NewAppError(ErrCodeValidationInvalidMode,
			fmt.Sprintf("mode must be %q or %q", ModeCurrent, ModeHourly), nil)
	}
}

// GeoResult is the single resolved match for a city query.
type GeoResult struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ResolvedName string  `json:"resolved_name"`
	Country      string  `json:"country"`
}

// HourlyPoint is one entry of the hourly temperature series.
// Time is already shifted by the location's UTC offset and carries no zone.
type HourlyPoint struct {
	TimestampLocal     string    `json:"timestamp_local"`
	Time               time.Time `json:"time"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
}

// CurrentReading is a single current-weather snapshot.
type CurrentReading struct {
	TemperatureCelsius float64 `json:"temperature_celsius"`
	WeatherCode        int     `json:"weather_code"`
	HumidityPercent    int     `json:"humidity_percent"`
}

// Gradient identifies the display background for a condition.
type Gradient string

const (
	GradientClear   Gradient = "clear"
	GradientCloudy  Gradient = "cloudy"
	GradientRain    Gradient = "rain"
	GradientSnow    Gradient = "snow"
	GradientStorm   Gradient = "storm"
	GradientFog     Gradient = "fog"
	GradientNeutral Gradient = "neutral"
)

var gradientClasses = map[Gradient]string{
	GradientClear:   "from-blue-400 to-yellow-300",
	GradientCloudy:  "from-gray-300 to-gray-500",
	GradientRain:    "from-blue-600 to-gray-800",
	GradientSnow:    "from-blue-200 to-white",
	GradientStorm:   "from-gray-700 to-black",
	GradientFog:     "from-gray-400 to-gray-600",
	GradientNeutral: "from-slate-300 to-slate-600",
}

// CSSClasses returns the tailwind gradient stops used by web front ends.
// Unknown gradients render as neutral.
func (g Gradient) CSSClasses() string {
	if c, ok := gradientClasses[g]; ok {
		return c
	}
	return gradientClasses[GradientNeutral]
}

// ConditionTheme is the display bundle derived from a weather code.
type ConditionTheme struct {
	Label              string   `json:"label"`
	BackgroundGradient Gradient `json:"background_gradient"`
	Icon               string   `json:"icon"`
	Message            string   `json:"message"`
}

// WeatherViewModel is the display-ready result of a successful search.
// Exactly one of HourlySeries and Current is set. Theme is set only for
// current readings.
type WeatherViewModel struct {
	City         string          `json:"city"`
	Country      string          `json:"country"`
	Mode         Mode            `json:"mode"`
	HourlySeries []HourlyPoint   `json:"hourly_series,omitempty"`
	Current      *CurrentReading `json:"current,omitempty"`
	Theme        *ConditionTheme `json:"theme,omitempty"`
}
