package model

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
    mt, err := ParseMediaType("movie")
    require.NoError(t, err)
    assert.Equal(t, MediaMovie, mt)

    mt, err = ParseMediaType("series")
    require.NoError(t, err)
    assert.Equal(t, MediaSeries, mt)

    // TMDB's own path segment is "tv" but it is not a valid API value here.
    _, err = ParseMediaType("tv")
    assert.ErrorIs(t, err, ErrInvalidMediaType)
    _, err = ParseMediaType("")
    assert.ErrorIs(t, err, ErrInvalidMediaType)
}

func TestParseWatchStatus(t *testing.T) {
    for _, s := range []string{"planned", "watching", "completed", "onhold", "dropped"} {
        st, err := ParseWatchStatus(s)
        require.NoError(t, err, s)
        assert.Equal(t, WatchStatus(s), st)
    }
    _, err := ParseWatchStatus("paused")
    assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestValidateRating(t *testing.T) {
    valid := []float64{0, 0.5, 1, 5, 7.5, 9.5, 10}
    for _, r := range valid {
        assert.NoError(t, ValidateRating(r), "rating %v", r)
    }
    invalid := []float64{-0.5, 10.5, 11, 7.3, 4.25, 9.99}
    for _, r := range invalid {
        assert.ErrorIs(t, ValidateRating(r), ErrInvalidRating, "rating %v", r)
    }
}

func TestEntryChangesEmpty(t *testing.T) {
    assert.True(t, EntryChanges{}.Empty())

    fav := true
    assert.False(t, EntryChanges{Favorite: &fav}.Empty())
    assert.False(t, EntryChanges{ClearRating: true}.Empty())
}

func TestEntryChangesValidateMovieProgress(t *testing.T) {
    movie := &Entry{Ref: MediaRef{TMDBID: 603, MediaType: MediaMovie}}

    zero := int64(0)
    ch := EntryChanges{Progress: &zero}
    assert.NoError(t, ch.Validate(movie))

    one := int64(1)
    ch = EntryChanges{Progress: &one}
    assert.ErrorIs(t, ch.Validate(movie), ErrInvalidProgress)
}

func TestEntryChangesValidateSeriesProgress(t *testing.T) {
    episodes := int64(62)
    series := &Entry{
        Ref:          MediaRef{TMDBID: 1396, MediaType: MediaSeries},
        EpisodeCount: &episodes,
    }

    // Within range passes untouched.
    p := int64(30)
    ch := EntryChanges{Progress: &p}
    require.NoError(t, ch.Validate(series))
    assert.Equal(t, int64(30), *ch.Progress)

    // Above the known episode count the value clamps instead of failing.
    p = 100
    ch = EntryChanges{Progress: &p}
    require.NoError(t, ch.Validate(series))
    assert.Equal(t, int64(62), *ch.Progress)

    // Negative progress is rejected outright.
    p = -1
    ch = EntryChanges{Progress: &p}
    assert.ErrorIs(t, ch.Validate(series), ErrInvalidProgress)

    // Unknown episode count accepts any non-negative value.
    unknown := &Entry{Ref: MediaRef{TMDBID: 456, MediaType: MediaSeries}}
    p = 9000
    ch = EntryChanges{Progress: &p}
    require.NoError(t, ch.Validate(unknown))
    assert.Equal(t, int64(9000), *ch.Progress)
}

func TestEntryChangesValidateNotesLength(t *testing.T) {
    e := &Entry{Ref: MediaRef{TMDBID: 1, MediaType: MediaMovie}}

    ok := strings.Repeat("a", MaxNotesLen)
    ch := EntryChanges{Notes: &ok}
    assert.NoError(t, ch.Validate(e))

    long := strings.Repeat("a", MaxNotesLen+1)
    ch = EntryChanges{Notes: &long}
    assert.ErrorIs(t, ch.Validate(e), ErrNotesTooLong)

    // Limit counts runes, not bytes.
    multibyte := strings.Repeat("ğ", MaxNotesLen)
    ch = EntryChanges{Notes: &multibyte}
    assert.NoError(t, ch.Validate(e))
}

func TestEntryChangesValidateRating(t *testing.T) {
    e := &Entry{Ref: MediaRef{TMDBID: 1, MediaType: MediaMovie}}

    bad := 7.3
    ch := EntryChanges{UserRating: &bad}
    assert.ErrorIs(t, ch.Validate(e), ErrInvalidRating)

    good := 8.5
    ch = EntryChanges{UserRating: &good}
    assert.NoError(t, ch.Validate(e))
}
