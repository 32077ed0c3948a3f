// package formatter renders tracks and playlist listings for the CLI (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
)

// Format is an output format name.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name, also "md" and "text". Empty means [Text].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of json, csv, markdown, txt)", s)
	}
}

var featureHeaders = []string{"Danceability", "Energy", "Valence", "Instrumentalness", "Tempo"}

// Tracks renders tracks in format f under an optional title.
func Tracks(f Format, title string, tracks []models.PlaylistTrack) ([]byte, error) {
	switch f {
	case JSON:
		return ToJSON(tracks, true)
	case CSV:
		return TracksToCSV(tracks)
	case Markdown:
		return TracksToMarkdown(title, tracks), nil
	default:
		return TracksToText(title, tracks), nil
	}
}

// Playlists renders a page of playlist summaries in format f.
func Playlists(f Format, page *services.PlaylistPage) ([]byte, error) {
	switch f {
	case JSON:
		return ToJSON(page, true)
	case CSV:
		return PlaylistsToCSV(page.Items)
	case Markdown:
		return PlaylistsToMarkdown(page), nil
	default:
		return PlaylistsToText(page), nil
	}
}

// ToJSON marshals v, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// TracksToCSV writes columns ID, Name, Artists, Album, Duration, URI, Preview and one per audio feature.
func TracksToCSV(tracks []models.PlaylistTrack) ([]byte, error) {
	headers := append([]string{"ID", "Name", "Artists", "Album", "Duration", "URI", "Preview"}, featureHeaders...)

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		preview := ""
		if t.PreviewURL != nil {
			preview = *t.PreviewURL
		}
		row := []string{
			t.ID,
			t.Name,
			strings.Join(t.Artists, "; "),
			t.AlbumName,
			FormatDuration(t.DurationMS),
			t.URI,
			preview,
		}
		rows = append(rows, append(row, featureCells(&t.AudioFeatures)...))
	}
	return writeCSV(headers, rows)
}

// PlaylistsToCSV writes columns ID, External ID, Name, Tracks, Created, URL and one per average audio feature.
func PlaylistsToCSV(items []services.PlaylistSummary) ([]byte, error) {
	headers := append([]string{"ID", "External ID", "Name", "Tracks", "Created", "URL"}, featureHeaders...)

	rows := make([][]string, 0, len(items))
	for _, p := range items {
		row := []string{
			p.ID,
			p.ExternalID,
			p.Name,
			strconv.Itoa(p.TrackCount),
			p.CreatedAt.UTC().Format("2006-01-02"),
			p.ExternalURI,
		}
		rows = append(rows, append(row, featureCells(p.AverageAudioFeatures)...))
	}
	return writeCSV(headers, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// featureCells renders each attribute, blank when unset or when a is nil.
func featureCells(a *models.AudioFeatures) []string {
	cells := make([]string, len(models.AllFeatures))
	if a == nil {
		return cells
	}
	for i, f := range models.AllFeatures {
		if v, ok := a.Get(f); ok {
			cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return cells
}

// TracksToMarkdown renders a numbered track list.
func TracksToMarkdown(title string, tracks []models.PlaylistTrack) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, t := range tracks {
		albumPart := ""
		if t.AlbumName != "" {
			albumPart = fmt.Sprintf(" (%s)", t.AlbumName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, artists(t), t.Name, albumPart, FormatDuration(t.DurationMS))
	}
	return buf.Bytes()
}

// PlaylistsToMarkdown renders one section per playlist with its cover and mood.
func PlaylistsToMarkdown(page *services.PlaylistPage) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Mixtapes\n\n**Showing**: %d of %d\n\n", len(page.Items), page.Total)

	for _, p := range page.Items {
		fmt.Fprintf(&buf, "## [%s](%s)\n\n", p.Name, p.ExternalURI)
		if p.CoverImage != nil {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", p.CoverImage.URL)
		}
		if p.Description != "" {
			fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
		}
		fmt.Fprintf(&buf, "**Tracks**: %d\n", p.TrackCount)
		fmt.Fprintf(&buf, "**Created**: %s\n", p.CreatedAt.UTC().Format("2006-01-02"))
		if mood := MoodSummary(p.AverageAudioFeatures); mood != "" {
			fmt.Fprintf(&buf, "**Mood**: %s\n", mood)
		}
		buf.WriteString("\n")
	}

	if page.NextCursor != "" {
		fmt.Fprintf(&buf, "_Next page_: `--cursor %s`\n", page.NextCursor)
	}
	return buf.Bytes()
}

// TracksToText renders one "n. Artists - Name" line per track.
func TracksToText(title string, tracks []models.PlaylistTrack) []byte {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, artists(t), t.Name)
	}
	return buf.Bytes()
}

// PlaylistsToText renders one line per playlist.
func PlaylistsToText(page *services.PlaylistPage) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Mixtapes: %d of %d\n\n", len(page.Items), page.Total)

	for i, p := range page.Items {
		fmt.Fprintf(&buf, "%d. %s (%d tracks) %s\n", i+1, p.Name, p.TrackCount, p.ExternalURI)
		if mood := MoodSummary(p.AverageAudioFeatures); mood != "" {
			fmt.Fprintf(&buf, "   %s\n", mood)
		}
	}

	if page.NextCursor != "" {
		fmt.Fprintf(&buf, "\nNext: --cursor %s\n", page.NextCursor)
	}
	return buf.Bytes()
}

// MoodSummary describes set attributes, e.g. "Danceable 72, Positive 65, Chill 20 | 118 BPM".
func MoodSummary(a *models.AudioFeatures) string {
	if a == nil {
		return ""
	}

	var parts []string
	for _, m := range features.Moods {
		if v, ok := a.Get(m.Feature); ok {
			parts = append(parts, fmt.Sprintf("%s %d", m.Label(v), int(v)))
		}
	}

	out := strings.Join(parts, ", ")
	if tempo, ok := a.Get(models.Tempo); ok {
		if out != "" {
			out += " | "
		}
		out += fmt.Sprintf("%d BPM", int(tempo))
	}
	return out
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func artists(t models.PlaylistTrack) string {
	if len(t.Artists) == 0 {
		return "Unknown"
	}
	return strings.Join(t.Artists, ", ")
}
