// Package conditions maps Open-Meteo weather codes to display themes.
// Classification is a pure table lookup with a single fallback entry.
package conditions

import (
	"sort"

	"skycast/internal/types"
)

// UnknownLabel is returned for codes missing from the table.
const UnknownLabel = "Unknown"

var labels = map[int]string{
	0:  "Clear",
	1:  "Mainly Clear",
	2:  "Partly Cloudy",
	3:  "Cloudy",
	45: "Foggy",
	48: "Rime Fog",
	51: "Light Drizzle",
	61: "Rainy",
	71: "Snowy",
	80: "Showers",
	95: "Thunderstorm",
}

type bundle struct {
	gradient types.Gradient
	icon     string
	message  string
}

var (
	sunny  = bundle{types.GradientClear, "☀️", "A perfect sunny day! Grab your sunglasses 😎"}
	cloudy = bundle{types.GradientCloudy, "⛅", "A bit cloudy, but still beautiful outside 🌤️"}
	rain   = bundle{types.GradientRain, "🌧️", "Rain's here! Don't forget your umbrella ☔"}
	snow   = bundle{types.GradientSnow, "❄️", "Snow is falling, time for a hot chocolate ☕"}
	storm  = bundle{types.GradientStorm, "⛈️", "Thunderstorm outside! Stay safe indoors ⚡"}
	fog    = bundle{types.GradientFog, "🌫️", "Fog ahead, drive safe and take it slow 🚗"}

	fallback = bundle{types.GradientNeutral, "🌍", "Weather data available, enjoy your day!"}
)

var themes = map[string]bundle{
	"Clear":         sunny,
	"Mainly Clear":  sunny,
	"Partly Cloudy": cloudy,
	"Cloudy":        cloudy,
	"Rainy":         rain,
	"Light Drizzle": rain,
	"Showers":       rain,
	"Snowy":         snow,
	"Thunderstorm":  storm,
	"Foggy":         fog,
	"Rime Fog":      fog,
}

// Label returns the condition label for code, or UnknownLabel.
func Label(code int) string {
	if l, ok := labels[code]; ok {
		return l
	}
	return UnknownLabel
}

// ThemeFor returns the theme for a label. Labels without a bundle get the
// neutral theme.
func ThemeFor(label string) types.ConditionTheme {
	b, ok := themes[label]
	if !ok {
		b = fallback
	}
	return types.ConditionTheme{
		Label:              label,
		BackgroundGradient: b.gradient,
		Icon:               b.icon,
		Message:            b.message,
	}
}

// Classify maps a weather code to its theme. It never fails.
func Classify(code int) types.ConditionTheme {
	return ThemeFor(Label(code))
}

// Entry is one row of the classification table.
type Entry struct {
	Code  int                  `json:"code"`
	Theme types.ConditionTheme `json:"theme"`
}

// Table lists every mapped code in ascending order.
func Table() []Entry {
	codes := make([]int, 0, len(labels))
	for code := range labels {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	entries := make([]Entry, len(codes))
	for i, code := range codes {
		entries[i] = Entry{Code: code, Theme: Classify(code)}
	}
	return entries
}

// Fallback is the theme returned for unmapped codes.
func Fallback() types.ConditionTheme {
	return ThemeFor(UnknownLabel)
}
