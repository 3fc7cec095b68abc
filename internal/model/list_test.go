package model

import (
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestValidateListName(t *testing.T) {
    name, err := ValidateListName("  Favori Filmler  ")
    require.NoError(t, err)
    assert.Equal(t, "Favori Filmler", name)

    _, err = ValidateListName("")
    assert.ErrorIs(t, err, ErrInvalidListName)
    _, err = ValidateListName("   ")
    assert.ErrorIs(t, err, ErrInvalidListName)

    // Exactly 30 runes is fine, 31 is not; the limit counts runes.
    _, err = ValidateListName(strings.Repeat("x", MaxListNameLen))
    assert.NoError(t, err)
    _, err = ValidateListName(strings.Repeat("x", MaxListNameLen+1))
    assert.ErrorIs(t, err, ErrInvalidListName)
    _, err = ValidateListName(strings.Repeat("ü", MaxListNameLen))
    assert.NoError(t, err)
}

func TestCustomListContains(t *testing.T) {
    ref := MediaRef{TMDBID: 603, MediaType: MediaMovie}
    l := &CustomList{Items: []ListItem{{Ref: ref, Title: "The Matrix"}}}

    assert.True(t, l.Contains(ref))
    // Same id under the other media type is a different item.
    assert.False(t, l.Contains(MediaRef{TMDBID: 603, MediaType: MediaSeries}))
    assert.False(t, l.Contains(MediaRef{TMDBID: 604, MediaType: MediaMovie}))
}
