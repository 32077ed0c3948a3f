package models

import "testing"

func TestAudioFeatures(t *testing.T) {
	t.Run("With does not share pointers", func(t *testing.T) {
		base := AudioFeatures{}.With(Danceability, 40)
		next := base.With(Danceability, 80)

		if v, _ := base.Get(Danceability); v != 40 {
			t.Errorf("expected original value 40, got %v", v)
		}
		if v, _ := next.Get(Danceability); v != 80 {
			t.Errorf("expected new value 80, got %v", v)
		}
	})

	t.Run("Complete and Empty", func(t *testing.T) {
		var a AudioFeatures
		if !a.Empty() || a.Complete() {
			t.Error("zero value should be empty and incomplete")
		}

		for _, f := range AllFeatures {
			a = a.With(f, 1)
		}
		if a.Empty() || !a.Complete() {
			t.Error("fully set value should be complete")
		}

		if a.Without(Tempo).Complete() {
			t.Error("unsetting tempo should make it incomplete")
		}
	})

	t.Run("Equal", func(t *testing.T) {
		a := AudioFeatures{Energy: Float(10)}
		if !a.Equal(a.Clone()) {
			t.Error("clone should be equal")
		}
		if a.Equal(AudioFeatures{}) {
			t.Error("set and unset should differ")
		}
		if a.Equal(AudioFeatures{Energy: Float(11)}) {
			t.Error("different values should differ")
		}
	})

	t.Run("ParseFeature", func(t *testing.T) {
		for _, f := range AllFeatures {
			got, ok := ParseFeature(f.String())
			if !ok || got != f {
				t.Errorf("ParseFeature(%q) = %v, %v", f.String(), got, ok)
			}
		}
		if _, ok := ParseFeature("loudness"); ok {
			t.Error("unknown feature should not parse")
		}
		if Tempo.Normalized() || !Valence.Normalized() {
			t.Error("only tempo is unnormalized")
		}
	})
}

func TestPlaylistRecord(t *testing.T) {
	r := NewPlaylistRecord("id-1", 1, "ext-1", "user-1")
	if err := r.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}
	if r.CreatedAt().IsZero() {
		t.Error("expected created at to be stamped")
	}

	if err := NewPlaylistRecord("id-2", 1, "", "").Validate(); err == nil {
		t.Error("expected error for missing external id")
	}
	if err := NewPlaylistRecord("id-3", 0, "ext", "").Validate(); err == nil {
		t.Error("expected error for zero sequence")
	}
}

func TestPlaylistTrack(t *testing.T) {
	track := PlaylistTrack{ID: "t1", Name: "Song", Artists: []string{"A"}}
	if track.Previewable() {
		t.Error("track without preview should not be previewable")
	}

	empty := ""
	track.PreviewURL = &empty
	if track.Previewable() {
		t.Error("empty preview url should not count")
	}

	seed := track.Seed()
	if seed.ID != "t1" || seed.Name != "Song" || len(seed.Artists) != 1 {
		t.Errorf("unexpected seed %+v", seed)
	}
}
