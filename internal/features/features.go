// package features computes and converts audio-feature values
package features

import (
	"math"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Average returns, per attribute, the floor of the arithmetic mean across items. Absent values count as 0,
// matching what the external service assumes for them, so the result is always fully populated.
//
// An empty list is rejected with a [shared.ValidationError].
func Average(items []models.AudioFeatures) (models.AudioFeatures, error) {
	if len(items) == 0 {
		return models.AudioFeatures{}, shared.NewValidationError("tracks", "must not be empty")
	}

	var out models.AudioFeatures
	n := float64(len(items))
	for _, f := range models.AllFeatures {
		var sum float64
		for _, item := range items {
			v, _ := item.Get(f)
			sum += v
		}
		out = out.With(f, math.Floor(sum/n))
	}
	return out, nil
}

// AverageTracks averages the audio features carried by tracks.
func AverageTracks(tracks []models.PlaylistTrack) (models.AudioFeatures, error) {
	items := make([]models.AudioFeatures, len(tracks))
	for i, t := range tracks {
		items[i] = t.AudioFeatures
	}
	return Average(items)
}

// FromUnit scales normalized attributes from the service's 0.0-1.0 range to 0-100. Tempo is left as is.
//
// Scaled values are rounded to two decimals so 0.57 becomes 57 rather than 56.99999999999999.
func FromUnit(a models.AudioFeatures) models.AudioFeatures {
	out := a.Clone()
	for _, f := range models.AllFeatures {
		v, ok := a.Get(f)
		if !ok || !f.Normalized() {
			continue
		}
		out = out.With(f, math.Round(v*models.MaxNormalized*100)/100)
	}
	return out
}

// ToUnit scales normalized attributes from 0-100 to the service's 0.0-1.0 range. Tempo is left as is.
func ToUnit(a models.AudioFeatures) models.AudioFeatures {
	out := a.Clone()
	for _, f := range models.AllFeatures {
		v, ok := a.Get(f)
		if !ok || !f.Normalized() {
			continue
		}
		out = out.With(f, v/models.MaxNormalized)
	}
	return out
}

// Clamp forces set values into their domain: 0-100 for normalized attributes, non-negative tempo.
// NaN values become unset.
func Clamp(a models.AudioFeatures) models.AudioFeatures {
	out := a.Clone()
	for _, f := range models.AllFeatures {
		v, ok := a.Get(f)
		if !ok {
			continue
		}

		switch {
		case math.IsNaN(v):
			out = out.Without(f)
		case v < 0:
			out = out.With(f, 0)
		case f.Normalized() && v > models.MaxNormalized:
			out = out.With(f, models.MaxNormalized)
		}
	}
	return out
}

// Mood names both ends of one adjustable attribute.
type Mood struct {
	Feature models.Feature
	Low     string
	High    string
}

// Moods lists the adjustable attributes in display order. Tempo is not adjustable.
var Moods = []Mood{
	{Feature: models.Danceability, Low: "Relaxed", High: "Danceable"},
	{Feature: models.Valence, Low: "Negative", High: "Positive"},
	{Feature: models.Energy, Low: "Chill", High: "Intense"},
	{Feature: models.Instrumentalness, Low: "Vocal", High: "Instrumental"},
}

// Label describes v on the mood's scale, e.g. "Danceable" above 60 or "Relaxed" below 40.
func (m Mood) Label(v float64) string {
	switch {
	case v >= 60:
		return m.High
	case v <= 40:
		return m.Low
	default:
		return "Balanced"
	}
}
