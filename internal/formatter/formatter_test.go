package formatter

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
)

func sampleTracks() []models.PlaylistTrack {
	preview := "https://p.scdn.co/one"
	return []models.PlaylistTrack{
		{
			ID:         "track1",
			URI:        "spotify:track:track1",
			Name:       "Song One",
			Artists:    []string{"Artist One", "Guest"},
			AlbumName:  "Album One",
			PreviewURL: &preview,
			DurationMS: 180000,
			AudioFeatures: models.AudioFeatures{
				Danceability: models.Float(72),
				Tempo:        models.Float(118.5),
			},
		},
		{
			ID:         "track2",
			URI:        "spotify:track:track2",
			Name:       "Song Two",
			Artists:    []string{"Artist Two"},
			DurationMS: 245000,
		},
	}
}

func samplePage() *services.PlaylistPage {
	return &services.PlaylistPage{
		Items: []services.PlaylistSummary{
			{
				ID:          "rec-2",
				ExternalID:  "ext-2",
				Name:        "Late Night",
				Description: "slow ones",
				CoverImage:  &models.CoverImage{URL: "https://i.scdn.co/cover.jpg"},
				ExternalURI: "https://open.spotify.com/playlist/ext-2",
				TrackCount:  12,
				AverageAudioFeatures: &models.AudioFeatures{
					Danceability:     models.Float(30),
					Energy:           models.Float(20),
					Valence:          models.Float(50),
					Instrumentalness: models.Float(80),
					Tempo:            models.Float(92),
				},
				CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			{
				ID:          "rec-1",
				ExternalID:  "ext-1",
				Name:        "Empty",
				ExternalURI: "https://open.spotify.com/playlist/ext-1",
				CreatedAt:   time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		NextCursor: "rec-1",
		Total:      5,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", Text},
		{"txt", Text},
		{"TEXT", Text},
		{"json", JSON},
		{"csv", CSV},
		{"md", Markdown},
		{"markdown", Markdown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestTrackFormats(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := Tracks(CSV, "", sampleTracks())
		if err != nil {
			t.Fatalf("TracksToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}

		header := strings.Join(records[0], ",")
		if header != "ID,Name,Artists,Album,Duration,URI,Preview,Danceability,Energy,Valence,Instrumentalness,Tempo" {
			t.Errorf("unexpected headers: %s", header)
		}

		first := records[1]
		if first[2] != "Artist One; Guest" {
			t.Errorf("expected joined artists, got %s", first[2])
		}
		if first[4] != "3:00" {
			t.Errorf("expected duration 3:00, got %s", first[4])
		}
		if first[7] != "72" || first[8] != "" || first[11] != "118.5" {
			t.Errorf("unexpected feature cells: %v", first[7:])
		}
		if records[2][6] != "" {
			t.Errorf("expected blank preview, got %s", records[2][6])
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Tracks(Markdown, "Road Trip", sampleTracks())
		if err != nil {
			t.Fatalf("TracksToMarkdown failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "# Road Trip") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Tracks**: 2") {
			t.Errorf("Markdown missing track count")
		}
		if !strings.Contains(output, "1. Artist One, Guest - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing track1, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two [4:05]") {
			t.Errorf("Markdown missing track2 (no album), got: %s", output)
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := Tracks(Text, "", sampleTracks())
		if err != nil {
			t.Fatalf("TracksToText failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Tracks: 2") {
			t.Errorf("Text should start with the count when untitled, got: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two") {
			t.Errorf("Text missing track2")
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Tracks(JSON, "", sampleTracks())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded []models.PlaylistTrack
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].URI != "spotify:track:track1" {
			t.Errorf("unexpected JSON output: %s", data)
		}
	})
}

func TestPlaylistFormats(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := Playlists(CSV, samplePage())
		if err != nil {
			t.Fatalf("PlaylistsToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if records[1][4] != "2024-03-01" {
			t.Errorf("expected created date, got %s", records[1][4])
		}
		for _, cell := range records[2][6:] {
			if cell != "" {
				t.Errorf("playlist without average should have blank features, got %v", records[2][6:])
			}
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := Playlists(Markdown, samplePage())
		if err != nil {
			t.Fatalf("PlaylistsToMarkdown failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "**Showing**: 2 of 5") {
			t.Errorf("Markdown missing totals")
		}
		if !strings.Contains(output, "## [Late Night](https://open.spotify.com/playlist/ext-2)") {
			t.Errorf("Markdown missing linked heading, got: %s", output)
		}
		if !strings.Contains(output, "![Cover](https://i.scdn.co/cover.jpg)") {
			t.Errorf("Markdown missing cover")
		}
		if !strings.Contains(output, "**Mood**: Relaxed 30, Balanced 50, Chill 20, Instrumental 80 | 92 BPM") {
			t.Errorf("Markdown missing mood, got: %s", output)
		}
		if !strings.Contains(output, "--cursor rec-1") {
			t.Errorf("Markdown missing next cursor")
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := Playlists(Text, samplePage())
		if err != nil {
			t.Fatalf("PlaylistsToText failed: %v", err)
		}
		output := string(data)

		if !strings.Contains(output, "1. Late Night (12 tracks)") {
			t.Errorf("Text missing first playlist, got: %s", output)
		}
		if !strings.Contains(output, "2. Empty (0 tracks)") {
			t.Errorf("Text missing second playlist")
		}
	})

	t.Run("last page has no cursor", func(t *testing.T) {
		page := samplePage()
		page.NextCursor = ""
		data, _ := Playlists(Text, page)
		if strings.Contains(string(data), "--cursor") {
			t.Error("unexpected cursor hint on the last page")
		}
	})
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0:00", -5: "0:00", 59999: "0:59", 60000: "1:00", 3723000: "62:03"}
	for ms, want := range tests {
		if got := FormatDuration(ms); got != want {
			t.Errorf("FormatDuration(%d) = %s, want %s", ms, got, want)
		}
	}
}

func TestMoodSummary(t *testing.T) {
	if got := MoodSummary(nil); got != "" {
		t.Errorf("expected empty summary for nil, got %q", got)
	}
	if got := MoodSummary(&models.AudioFeatures{Tempo: models.Float(120)}); got != "120 BPM" {
		t.Errorf("expected tempo only, got %q", got)
	}
}
