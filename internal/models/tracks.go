package models

// TrackSeed is a minimal track reference used as recommendation input.
type TrackSeed struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// CoverImage is album or playlist artwork.
type CoverImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// PlaylistTrack is a full track record. Its position in a curated list is the submission order.
type PlaylistTrack struct {
	ID            string        `json:"id"`
	URI           string        `json:"uri"`
	Name          string        `json:"name"`
	Artists       []string      `json:"artists"`
	AlbumName     string        `json:"albumName"`
	PreviewURL    *string       `json:"previewUrl"`
	CoverImage    *CoverImage   `json:"coverImage,omitempty"`
	DurationMS    int           `json:"durationMs"`
	AudioFeatures AudioFeatures `json:"audioFeatures"`
}

// Seed projects the track to a [TrackSeed].
func (t PlaylistTrack) Seed() TrackSeed {
	return TrackSeed{ID: t.ID, Name: t.Name, Artists: t.Artists}
}

// Previewable reports whether the track carries an audio preview URL.
func (t PlaylistTrack) Previewable() bool {
	return t.PreviewURL != nil && *t.PreviewURL != ""
}
