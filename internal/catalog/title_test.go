package catalog

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestIsLatin(t *testing.T) {
    cases := []struct {
        in   string
        want bool
    }{
        {"", false},
        {"The Matrix", true},
        {"Amélie", true},
        {"Léon: The Professional", true},
        {"Kış Uykusu", true}, // Turkish dotless ı is Latin Extended
        {"2001: A Space Odyssey", true},
        {"WALL·E", true}, // middle dot sits in Latin-1 supplement
        {"Ocean's 11", true},
        {"Film ٣", false}, // Arabic-Indic digits are not Latin
        {"千と千尋の神隠し", false},
        {"기생충", false},
        {"Брат", false},
        {"Attack on Titan 進撃の巨人", false}, // one non-Latin rune fails the whole string
    }
    for _, c := range cases {
        assert.Equal(t, c.want, isLatin(c.in), "isLatin(%q)", c.in)
    }
}

func TestSelectDisplayTitle(t *testing.T) {
    // Latin alternate wins over everything.
    got := SelectDisplayTitle("Şahane Hayat", "素晴らしき人生", "A Wonderful Life")
    assert.Equal(t, "A Wonderful Life", got)

    // Without an alternate, a Latin original beats the localized title.
    got = SelectDisplayTitle("Dövüş Kulübü", "Fight Club", "")
    assert.Equal(t, "Fight Club", got)

    // Non-Latin original falls through to the Latin localized title.
    got = SelectDisplayTitle("Yedi Samuray", "七人の侍", "")
    assert.Equal(t, "Yedi Samuray", got)

    // Nothing Latin: first non-empty candidate in alternate, localized,
    // original order.
    got = SelectDisplayTitle("千と千尋の神隠し", "千と千尋の神隠し", "")
    assert.Equal(t, "千と千尋の神隠し", got)
    got = SelectDisplayTitle("", "기생충", "")
    assert.Equal(t, "기생충", got)

    // A non-Latin alternate never outranks a Latin original.
    got = SelectDisplayTitle("", "Oldboy", "올드보이")
    assert.Equal(t, "Oldboy", got)

    // All empty.
    assert.Equal(t, "", SelectDisplayTitle("", "", ""))
}
