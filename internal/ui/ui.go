package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	MixView
	NameView
	SubmitView
	ResultView
)

// sliderStep is how far one key press moves a mood slider.
const sliderStep = 5

// Options configures [NewModel].
type Options struct {
	PageSize int // search results per query
	Logger   *log.Logger
}

// Model represents the TUI application state.
//
// The mixer is only touched from Update, except while submitting: SubmitView ignores input until the
// submission finishes.
type Model struct {
	ctx      context.Context
	view     ViewState
	mixer    *curation.Mixer
	logger   *log.Logger
	pageSize int

	width  int
	height int

	search      textinput.Model
	searching   bool // focus is on the search input rather than the results
	results     list.Model
	lastResults []models.PlaylistTrack

	playlist list.Model
	targets  models.AudioFeatures
	slider   int
	loading  int

	name     textinput.Model
	public   bool
	progress tasks.ProgressUpdate
	updates  <-chan tasks.ProgressUpdate
	done     <-chan Msg
	created  *services.CreatedPlaylist

	spinner spinner.Model
	status  string
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model curating through mixer.
func NewModel(ctx context.Context, mixer *curation.Mixer, opts Options) *Model {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	search := textinput.New()
	search.Placeholder = "Search for a track to seed your mixtape"
	search.Prompt = "♫ "
	search.Focus()

	name := textinput.New()
	name.Placeholder = "My mixtape"
	name.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	m := &Model{
		ctx:       ctx,
		view:      SearchView,
		mixer:     mixer,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,
		width:     80,
		height:    24,
		search:    search,
		searching: true,
		name:      name,
		spinner:   sp,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.results = newTrackList("Search results", m.width-4, m.listHeight())
	m.playlist = newTrackList("Your mixtape", m.width-4, m.listHeight())
	m.targets = mixer.Display()
	return m
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init starts the cursor blinking in the search box.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, m.listHeight())
		m.playlist.SetSize(msg.Width-4, m.listHeight())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case MixView:
			return m.handleMixKeys(msg)
		case NameView:
			return m.handleNameKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchResults:
		data := msg.data.(searchResults)
		m.loading--
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.lastResults = data.tracks
		m.results.Title = fmt.Sprintf("Results for %q", data.query)
		m.refreshResults()
		m.searching = len(data.tracks) == 0
		if m.searching {
			m.search.Focus()
		} else {
			m.search.Blur()
		}
		return m, nil

	case MsgRecommendations:
		data := msg.data.(recommendations)
		m.loading--
		// The submitted list is fixed once the submit goroutine owns the mixer.
		if m.view == SubmitView || m.view == ResultView {
			return m, nil
		}
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		if m.mixer.Apply(data.query, data.tracks) {
			m.err = nil
			m.syncPlaylist()
		}
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.updates, m.done)

	case MsgSubmitted:
		data := msg.data.(submitted)
		m.updates, m.done = nil, nil
		m.created = data.created
		m.err = data.err
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch {
		case key.Matches(msg, m.keys.enter):
			query := strings.TrimSpace(m.search.Value())
			if query == "" {
				return m, nil
			}
			return m, m.runSearch(query)
		case key.Matches(msg, m.keys.tab):
			m.view = MixView
			return m, nil
		case key.Matches(msg, m.keys.down) && msg.String() == "down" && len(m.lastResults) > 0:
			m.searching = false
			m.search.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.tab):
		m.view = MixView
		return m, nil
	case key.Matches(msg, m.keys.enter), key.Matches(msg, m.keys.seed):
		if item, ok := m.results.SelectedItem().(trackItem); ok {
			return m, m.toggleSeed(item.track)
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		if item, ok := m.results.SelectedItem().(trackItem); ok {
			m.mixer.Dispatch(curation.AddPlaylistTrack{Track: item.track})
			m.syncPlaylist()
			m.status = fmt.Sprintf("Added %s", item.track.Name)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleMixKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab), key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.playlist.SelectedItem().(trackItem); ok {
			m.mixer.Dispatch(curation.RemovePlaylistTrack{Track: item.track})
			m.syncPlaylist()
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.slider = (m.slider + len(features.Moods) - 1) % len(features.Moods)
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.slider = (m.slider + 1) % len(features.Moods)
		return m, nil
	case key.Matches(msg, m.keys.lower):
		m.nudge(-sliderStep)
		return m, nil
	case key.Matches(msg, m.keys.raise):
		m.nudge(sliderStep)
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.applyTargets()
	case key.Matches(msg, m.keys.create):
		if len(m.mixer.State().PlaylistTracks) == 0 {
			m.status = "Add some tracks first"
			return m, nil
		}
		m.view = NameView
		return m, m.name.Focus()
	}

	var cmd tea.Cmd
	m.playlist, cmd = m.playlist.Update(msg)
	return m, cmd
}

func (m *Model) handleNameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.name.Blur()
		m.view = MixView
		return m, nil
	case key.Matches(msg, m.keys.public):
		m.public = !m.public
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if strings.TrimSpace(m.name.Value()) == "" {
			m.status = "A name is required"
			return m, nil
		}
		m.name.Blur()
		m.view = SubmitView
		return m, m.startSubmit()
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.retry) && m.canRetry():
		m.err = nil
		m.status = ""
		m.progress = tasks.ProgressUpdate{}
		m.syncPlaylist()
		m.view = MixView
		return m, nil
	case key.Matches(msg, m.keys.restart):
		m.mixer.Reset()
		m.created = nil
		m.err = nil
		m.status = ""
		m.progress = tasks.ProgressUpdate{}
		m.name.SetValue("")
		m.syncPlaylist()
		m.refreshResults()
		m.view = SearchView
		m.searching = true
		return m, m.search.Focus()
	}
	return m, nil
}

// canRetry reports whether the last submission failed before any playlist existed.
func (m *Model) canRetry() bool {
	var partial *services.PartialCreationError
	return m.err != nil && !errors.As(m.err, &partial)
}

// toggleSeed selects or unselects t and refetches recommendations.
func (m *Model) toggleSeed(t models.PlaylistTrack) tea.Cmd {
	var action curation.Action = curation.SelectTrackSeed{Seed: t.Seed()}
	if m.mixer.State().HasSeed(t.ID) {
		action = curation.UnselectTrackSeed{Seed: t.Seed()}
	} else if len(m.mixer.State().TrackSeeds) >= curation.MaxTrackSeeds {
		m.status = fmt.Sprintf("At most %d seeds", curation.MaxTrackSeeds)
		return nil
	}

	m.mixer.Dispatch(action)
	m.status = ""
	m.refreshResults()
	m.targets = m.mixer.Display()
	return m.fetchRecommendations()
}

// nudge moves the focused slider by delta, starting from the midpoint when nothing is known yet.
func (m *Model) nudge(delta float64) {
	mood := features.Moods[m.slider]
	v, ok := m.targets.Get(mood.Feature)
	if !ok {
		v = 50
	}
	m.targets = m.targets.With(mood.Feature, max(0, min(v+delta, models.MaxNormalized)))
}

// applyTargets sets the four mood targets and refetches. Tempo is never targeted from the sliders.
func (m *Model) applyTargets() tea.Cmd {
	var next models.AudioFeatures
	for _, mood := range features.Moods {
		if v, ok := m.targets.Get(mood.Feature); ok {
			next = next.With(mood.Feature, v)
		}
	}
	m.mixer.Dispatch(curation.SetAudioFeatures{Features: next})
	m.targets = m.mixer.Display()
	return m.fetchRecommendations()
}

func (m *Model) runSearch(query string) tea.Cmd {
	m.loading++
	mixer, ctx, limit := m.mixer, m.ctx, m.pageSize
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		tracks, err := mixer.Search(ctx, query, 0, limit)
		return searchResultsMsg(query, tracks, err)
	})
}

func (m *Model) fetchRecommendations() tea.Cmd {
	m.loading++
	q := m.mixer.Query()
	mixer, ctx := m.mixer, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		tracks, err := mixer.Fetch(ctx, q)
		return recommendationsMsg(q, tracks, err)
	})
}

func (m *Model) startSubmit() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan Msg, 1)
	m.updates, m.done = progress, done
	name, description, public := strings.TrimSpace(m.name.Value()), "Made with mixtape", m.public
	mixer, ctx, logger := m.mixer, m.ctx, m.logger

	go func() {
		created, err := mixer.Submit(ctx, name, description, public, progress)
		if err != nil {
			logger.Error("playlist submission failed", "err", err)
		}
		close(progress)
		done <- submittedMsg(created, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

// waitForProgress relays progress until the channel closes, then the final result.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) busy() bool {
	return m.loading > 0 || m.view == SubmitView
}

func (m *Model) refreshResults() {
	state := m.mixer.State()
	m.results.SetItems(trackItems(m.lastResults, state.HasSeed))
}

func (m *Model) syncPlaylist() {
	state := m.mixer.State()
	m.playlist.SetItems(trackItems(state.PlaylistTracks, state.HasSeed))
	m.playlist.Title = fmt.Sprintf("Your mixtape (%d tracks)", len(state.PlaylistTracks))
	m.targets = m.mixer.Display()
}

func (m *Model) listHeight() int {
	return max(m.height-14, 5)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case MixView:
		return m.renderMix()
	case NameView:
		return m.renderName()
	case SubmitView:
		return m.renderSubmit()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("mixtape"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderSeeds())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.results.View())
	b.WriteString("\n\n")

	keys := []key.Binding{m.keys.enter, m.keys.tab}
	if !m.searching {
		keys = []key.Binding{m.keys.seed, m.keys.add, m.keys.back, m.keys.tab, m.keys.quit}
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderSeeds() string {
	seeds := m.mixer.State().TrackSeeds
	names := make([]string, len(seeds))
	for i, s := range seeds {
		names[i] = s.Name
	}
	line := fmt.Sprintf("Seeds (%d/%d): %s", len(seeds), curation.MaxTrackSeeds, strings.Join(names, ", "))
	if len(seeds) == 0 {
		line = fmt.Sprintf("Seeds (0/%d): pick tracks to base recommendations on", curation.MaxTrackSeeds)
	}
	return styles.help.Render(line)
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	case m.loading > 0:
		return m.spinner.View() + " Loading...\n"
	case m.status != "":
		return styles.warn.Render(m.status) + "\n"
	default:
		return "\n"
	}
}

func (m *Model) renderMix() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Tune your mixtape"))
	b.WriteString("\n")
	b.WriteString(m.renderSliders())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.playlist.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.prev, m.keys.next, m.keys.lower, m.keys.raise, m.keys.enter,
		m.keys.remove, m.keys.create, m.keys.tab, m.keys.quit,
	}))
	return b.String()
}

func (m *Model) renderSliders() string {
	var b strings.Builder
	for i, mood := range features.Moods {
		v, ok := m.targets.Get(mood.Feature)
		value := "  -"
		if ok {
			value = fmt.Sprintf("%3d", int(v))
		}
		line := fmt.Sprintf("%12s %s %-12s %s", mood.Low, bar(v), mood.High, value)
		if i == m.slider {
			line = styles.active.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if tempo, ok := m.targets.Get(models.Tempo); ok {
		b.WriteString(styles.help.Render(fmt.Sprintf("  Tempo ~%d BPM", int(tempo))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderName() string {
	visibility := "private"
	if m.public {
		visibility = "public"
	}
	tracks := len(m.mixer.State().PlaylistTracks)

	return fmt.Sprintf("%s\n%s\n\n%d tracks • %s\n%s\n%s",
		styles.title.Render("Name your mixtape"),
		m.name.View(),
		tracks,
		visibility,
		m.renderStatus(),
		m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.public, m.keys.back}),
	)
}

func (m *Model) renderSubmit() string {
	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Created playlist, adding tracks..."
	case tasks.AppendTracks:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RecordPlaylist:
		phase = "Saving mixtape..."
	default:
		phase = "Creating playlist on Spotify..."
	}

	return fmt.Sprintf("%s\n\n%s %s\n%s",
		styles.title.Render("Creating your mixtape"), m.spinner.View(), phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	var partial *services.PartialCreationError
	switch {
	case errors.As(m.err, &partial):
		return fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
			styles.warn.Render("The playlist was created but is incomplete."),
			fmt.Sprintf("Open it here instead of trying again: %s", partial.PlaylistURL),
			styles.help.Render(fmt.Sprintf("%s failed after %d tracks: %v", partial.Stage, partial.Appended, partial.Err)),
			helpView)
	case m.err != nil:
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Could not create playlist: %v", m.err)), helpView)
	case m.created == nil:
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s",
		styles.ok.Render("✓ Mixtape created!"),
		m.created.Name,
		m.created.URL,
		helpView)
}
