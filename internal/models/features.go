package models

// Feature names one audio attribute.
type Feature int

const (
	Danceability Feature = iota
	Energy
	Valence
	Instrumentalness
	Tempo
)

// AllFeatures lists every attribute in display order.
var AllFeatures = []Feature{Danceability, Energy, Valence, Instrumentalness, Tempo}

// MaxNormalized is the top of the 0-100 scale used by every attribute except tempo.
const MaxNormalized = 100

func (f Feature) String() string {
	switch f {
	case Danceability:
		return "danceability"
	case Energy:
		return "energy"
	case Valence:
		return "valence"
	case Instrumentalness:
		return "instrumentalness"
	case Tempo:
		return "tempo"
	default:
		return ""
	}
}

// Normalized reports whether the attribute uses the 0-100 scale. Tempo is in BPM.
func (f Feature) Normalized() bool {
	return f != Tempo
}

// ParseFeature returns the attribute named s.
func ParseFeature(s string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// AudioFeatures holds optional attributes. A nil field is unset, meaning the external service picks its default.
type AudioFeatures struct {
	Danceability     *float64 `json:"danceability,omitempty" validate:"omitempty,gte=0,lte=100"`
	Energy           *float64 `json:"energy,omitempty" validate:"omitempty,gte=0,lte=100"`
	Valence          *float64 `json:"valence,omitempty" validate:"omitempty,gte=0,lte=100"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty" validate:"omitempty,gte=0,lte=100"`
	Tempo            *float64 `json:"tempo,omitempty" validate:"omitempty,gte=0"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func (a *AudioFeatures) field(f Feature) **float64 {
	switch f {
	case Danceability:
		return &a.Danceability
	case Energy:
		return &a.Energy
	case Valence:
		return &a.Valence
	case Instrumentalness:
		return &a.Instrumentalness
	case Tempo:
		return &a.Tempo
	default:
		return nil
	}
}

// Get returns the value of f and whether it is set.
func (a AudioFeatures) Get(f Feature) (float64, bool) {
	p := a.field(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// With returns a copy with f set to v.
func (a AudioFeatures) With(f Feature, v float64) AudioFeatures {
	out := a.Clone()
	if p := out.field(f); p != nil {
		*p = Float(v)
	}
	return out
}

// Without returns a copy with f unset.
func (a AudioFeatures) Without(f Feature) AudioFeatures {
	out := a.Clone()
	if p := out.field(f); p != nil {
		*p = nil
	}
	return out
}

// Clone returns a deep copy so callers never share pointers.
func (a AudioFeatures) Clone() AudioFeatures {
	var out AudioFeatures
	for _, f := range AllFeatures {
		if v, ok := a.Get(f); ok {
			*out.field(f) = Float(v)
		}
	}
	return out
}

// Complete reports whether every attribute is set.
func (a AudioFeatures) Complete() bool {
	for _, f := range AllFeatures {
		if _, ok := a.Get(f); !ok {
			return false
		}
	}
	return true
}

// Empty reports whether no attribute is set.
func (a AudioFeatures) Empty() bool {
	for _, f := range AllFeatures {
		if _, ok := a.Get(f); ok {
			return false
		}
	}
	return true
}

// Equal compares set-ness and values attribute by attribute.
func (a AudioFeatures) Equal(b AudioFeatures) bool {
	for _, f := range AllFeatures {
		av, aok := a.Get(f)
		bv, bok := b.Get(f)
		if aok != bok || av != bv {
			return false
		}
	}
	return true
}
