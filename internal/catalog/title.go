package catalog

import "unicode"

// isLatin reports whether every rune of s belongs to the Latin Unicode
// blocks (Basic Latin through Latin Extended-B plus the Latin Extended
// Additional and Latin Extended-C blocks) or is whitespace or a
// general punctuation character.  ASCII digits sit inside Basic Latin;
// digits from other scripts do not pass.  Titles written in Japanese,
// Korean, Cyrillic etc. fail the test.  The empty string is not Latin.
func isLatin(s string) bool {
    if s == "" {
        return false
    }
    for _, r := range s {
        switch {
        case r <= 0x024F: // Basic Latin .. Latin Extended-B, digits, ASCII punctuation
        case r >= 0x1E00 && r <= 0x1EFF: // Latin Extended Additional
        case r >= 0x2C60 && r <= 0x2C7F: // Latin Extended-C
        case r >= 0x2000 && r <= 0x206F: // general punctuation (dashes, quotes, ellipsis)
        case unicode.IsSpace(r):
        default:
            return false
        }
    }
    return true
}

// SelectDisplayTitle picks the title to denormalize into entries and
// list snapshots.  The catalog serves localized titles, and anime and
// Asian dramas often localize into non-Latin scripts, so the English
// alternate title is preferred whenever it is Latin; then the original
// title, then the localized one.  When nothing passes the Latin test
// the first non-empty candidate wins, in alternate, localized,
// original order.  The function is pure and total: it never fails and
// returns "" only when every candidate is empty.
func SelectDisplayTitle(localized, original, alternate string) string {
    if alternate != "" && isLatin(alternate) {
        return alternate
    }
    if original != "" && isLatin(original) {
        return original
    }
    if localized != "" && isLatin(localized) {
        return localized
    }
    if alternate != "" {
        return alternate
    }
    if localized != "" {
        return localized
    }
    return original
}
