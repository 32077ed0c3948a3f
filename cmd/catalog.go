package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/mixtape/internal/curation"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search prints tracks matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	limit := cmd.Int("limit")
	if limit == 0 {
		limit = min(r.config.Catalog.PageSize, 50)
	}

	r.logger.Debug("searching", "query", query, "offset", cmd.Int("offset"), "limit", limit)

	tracks, err := catalog.Search(ctx, sess, services.SearchQuery{Query: query, Offset: cmd.Int("offset"), Limit: limit})
	if err != nil {
		return explain(err)
	}

	out, err := formatter.Tracks(format, fmt.Sprintf("Results for %q", query), tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Recommend prints recommendations for the --seed tracks and feature targets.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	mixer := curation.NewMixer(catalog, sess, curation.MixerOpts{
		Limit:  r.recommendationLimit(cmd),
		Logger: r.logger,
	})
	if err := seedMixer(mixer, cmd); err != nil {
		return err
	}
	if err := mixer.Refresh(ctx); err != nil {
		return explain(err)
	}

	tracks := mixer.State().PlaylistTracks
	r.logger.Info("fetched recommendations", "seeds", len(mixer.State().TrackSeeds), "tracks", len(tracks))

	out, err := formatter.Tracks(format, "Recommendations", tracks)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Playlists prints one page of recorded mixtapes.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	limit := cmd.Int("limit")
	if limit == 0 {
		limit = r.config.Catalog.PageSize
	}

	page, err := catalog.GetPlaylists(ctx, sess, services.PlaylistsQuery{
		Limit:       limit,
		Cursor:      cmd.String("cursor"),
		CreatorOnly: cmd.Bool("mine"),
	})
	if err != nil {
		return explain(err)
	}

	out, err := formatter.Playlists(format, page)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Create makes a Spotify playlist either from explicit --uri values or from recommendations for --seed tracks.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	uris := cmd.StringSlice("uri")
	seeds := cmd.StringSlice("seed")

	switch {
	case len(uris) == 0 && len(seeds) == 0:
		return fmt.Errorf("%w: --uri or --seed", shared.ErrMissingArgument)
	case len(uris) > 0 && len(seeds) > 0:
		return fmt.Errorf("%w: use either --uri or --seed, not both", shared.ErrInvalidArgument)
	}

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	mixer := curation.NewMixer(catalog, sess, curation.MixerOpts{
		Limit:  r.recommendationLimit(cmd),
		Logger: r.logger,
	})

	if len(seeds) > 0 {
		if err := seedMixer(mixer, cmd); err != nil {
			return err
		}
		if err := mixer.Refresh(ctx); err != nil {
			return explain(err)
		}
	} else {
		tracks := make([]models.PlaylistTrack, len(uris))
		for i, uri := range uris {
			tracks[i] = models.PlaylistTrack{ID: trackID(uri), URI: trackURI(uri)}
		}
		mixer.Dispatch(curation.ReplacePlaylistTracks{Tracks: tracks})
	}

	useJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if !useJSON {
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()

	created, err := mixer.Submit(ctx, cmd.String("name"), cmd.String("description"), cmd.Bool("public"), progress)
	close(progress)
	wg.Wait()

	if err != nil {
		var partial *services.PartialCreationError
		if errors.As(err, &partial) {
			r.writePlainln("⚠ The playlist was created but is incomplete. Do not retry; fix it in Spotify:")
			r.writePlain("%s\n", partial.PlaylistURL)
		}
		return explain(err)
	}

	if useJSON {
		return r.writeJSON(created, true)
	}

	r.writePlainln("✓ Created %s (%d tracks)", created.Name, len(mixer.State().PlaylistTracks))
	r.writePlain("  URL: %s\n", created.URL)
	r.writePlain("  Record: %s\n", created.RecordID)
	return nil
}

func (r *Runner) recommendationLimit(cmd *cli.Command) int {
	if limit := cmd.Int("limit"); limit > 0 {
		return limit
	}
	return r.config.Catalog.RecommendationLimit
}

// seedMixer selects the --seed tracks and applies any feature target flags.
func seedMixer(mixer *curation.Mixer, cmd *cli.Command) error {
	seeds := cmd.StringSlice("seed")
	if len(seeds) > curation.MaxTrackSeeds {
		return shared.NewValidationError("seed", "at most %d seeds are allowed, got %d", curation.MaxTrackSeeds, len(seeds))
	}
	for _, s := range seeds {
		mixer.Dispatch(curation.SelectTrackSeed{Seed: models.TrackSeed{ID: trackID(s)}})
	}

	var targets models.AudioFeatures
	for _, f := range models.AllFeatures {
		if cmd.IsSet(f.String()) {
			targets = targets.With(f, cmd.Float(f.String()))
		}
	}
	if err := shared.Validate(targets); err != nil {
		return err
	}
	if !targets.Empty() {
		mixer.Dispatch(curation.SetAudioFeatures{Features: targets})
	}
	return nil
}

// trackID accepts a bare id, a spotify:track: uri or an open.spotify.com link.
func trackID(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "spotify:track:"); ok {
		return rest
	}
	if i := strings.Index(s, "/track/"); i >= 0 {
		id := s[i+len("/track/"):]
		if j := strings.IndexAny(id, "?#/"); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return s
}

func trackURI(s string) string {
	return "spotify:track:" + trackID(s)
}
