// Package ui implements the interactive curation terminal interface using bubbletea's Elm architecture.
//
// The TUI drives a [curation.Mixer] through these views:
//  1. [SearchView] : Search the catalog and pick up to five seed tracks, or add tracks by hand
//  2. [MixView] : Review recommendations and tune the mood sliders (Relaxed/Danceable, Negative/Positive, Chill/Intense, Vocal/Instrumental)
//  3. [NameView] : Name the playlist and choose its visibility
//  4. [SubmitView] : Monitor progress while the playlist is created
//  5. [ResultView] : Link to the new playlist, or to the incomplete one when creation stopped partway
//
// Network calls run in tea.Cmd goroutines and come back as the Msg union type. Recommendation results that no
// longer match the current seeds and targets are dropped by the mixer. Progress updates flow through a channel
// during submission, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
