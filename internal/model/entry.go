package model

import (
    "errors"
    "math"
    "time"
)

// MediaType distinguishes the two trackable kinds of catalog items.
// The values are stored verbatim in the media_type column of both the
// entries and list_items tables.
type MediaType string

const (
    MediaMovie  MediaType = "movie"
    MediaSeries MediaType = "series"
)

// ParseMediaType validates a raw media type string coming from a
// request path or body.  Only "movie" and "series" are accepted.
func ParseMediaType(s string) (MediaType, error) {
    switch MediaType(s) {
    case MediaMovie, MediaSeries:
        return MediaType(s), nil
    }
    return "", ErrInvalidMediaType
}

// MediaRef identifies a single catalog item by its external TMDB id
// and media type.  It is the identity key used for all cross
// referencing between entries and list items and is immutable once
// created.
type MediaRef struct {
    TMDBID    int64     `json:"tmdb_id"`
    MediaType MediaType `json:"media_type"`
}

// WatchStatus enumerates the tracking states of a primary entry.
// There are no forbidden transitions between statuses; users may
// abandon, resume or correct an entry at any time.
type WatchStatus string

const (
    StatusPlanned   WatchStatus = "planned"
    StatusWatching  WatchStatus = "watching"
    StatusCompleted WatchStatus = "completed"
    StatusOnHold    WatchStatus = "onhold"
    StatusDropped   WatchStatus = "dropped"
)

// ParseWatchStatus validates a raw status string.
func ParseWatchStatus(s string) (WatchStatus, error) {
    switch WatchStatus(s) {
    case StatusPlanned, StatusWatching, StatusCompleted, StatusOnHold, StatusDropped:
        return WatchStatus(s), nil
    }
    return "", ErrInvalidStatus
}

// MaxNotesLen is the maximum length of the free-form notes field.
const MaxNotesLen = 500

// Domain validation errors.  These are rejected at the command
// boundary; invalid values are never silently clamped or dropped.
var (
    ErrInvalidMediaType = errors.New("invalid media type")
    ErrInvalidStatus    = errors.New("invalid status")
    ErrInvalidRating    = errors.New("rating must be between 0 and 10 in steps of 0.5")
    ErrInvalidProgress  = errors.New("progress must be a non-negative episode count")
    ErrNotesTooLong     = errors.New("notes exceed 500 characters")
)

// ValidateRating checks that a user rating lies in [0,10] in
// increments of 0.5.  Out-of-range or off-step values are rejected,
// not clamped.
func ValidateRating(r float64) error {
    if r < 0 || r > 10 {
        return ErrInvalidRating
    }
    if math.Mod(r*2, 1) != 0 {
        return ErrInvalidRating
    }
    return nil
}

// Entry is the single canonical per-user tracking record for one
// catalog item.  At most one entry exists per (UserID, Ref) pair;
// the entries table enforces this with a unique key.  Title, poster,
// backdrop, vote average, release date and genre ids are a display
// cache copied from the catalog when the entry is created.  They are
// never authoritative and may go stale.
//
// Progress counts watched episodes for series.  For movies it is
// meaningless and must stay zero.  EpisodeCount and SeasonCount are
// backfilled lazily for series and may be nil when the catalog did
// not know them at add time.
type Entry struct {
    ID           uint64      `json:"id"`                      // entries.id
    UserID       uint64      `json:"-"`                       // entries.user_id
    Ref          MediaRef    `json:"ref"`                     // entries.tmdb_id + entries.media_type
    Title        string      `json:"title"`                   // entries.title
    PosterPath   string      `json:"poster_path,omitempty"`   // entries.poster_path
    BackdropPath string      `json:"backdrop_path,omitempty"` // entries.backdrop_path
    VoteAverage  float64     `json:"vote_average"`            // entries.vote_average (catalog rating)
    ReleaseDate  string      `json:"release_date,omitempty"`  // entries.release_date (YYYY-MM-DD, may be empty)
    GenreIDs     []int64     `json:"genre_ids,omitempty"`     // entries.genre_ids (JSON array)
    Runtime      *int64      `json:"runtime,omitempty"`       // entries.runtime (minutes, movies only)
    EpisodeCount *int64      `json:"episode_count,omitempty"` // entries.episode_count (series only)
    SeasonCount  *int64      `json:"season_count,omitempty"`  // entries.season_count (series only)
    Status       WatchStatus `json:"status"`                  // entries.status
    UserRating   *float64    `json:"user_rating,omitempty"`   // entries.user_rating (nullable)
    Progress     int64       `json:"progress"`                // entries.progress
    Notes        string      `json:"notes,omitempty"`         // entries.notes
    StartDate    *time.Time  `json:"start_date,omitempty"`    // entries.start_date (nullable)
    EndDate      *time.Time  `json:"end_date,omitempty"`      // entries.end_date (nullable)
    RewatchCount int64       `json:"rewatch_count"`           // entries.rewatch_count
    Favorite     bool        `json:"favorite"`                // entries.favorite
    CreatedAt    time.Time   `json:"created_at"`              // entries.created_at
    UpdatedAt    time.Time   `json:"updated_at"`              // entries.updated_at
}

// EntryChanges carries a partial update for an entry.  Nil fields are
// left untouched.  Changing the status away from completed does not
// clear the user rating; historical ratings survive status changes.
type EntryChanges struct {
    Status       *WatchStatus
    UserRating   *float64
    ClearRating  bool
    Progress     *int64
    Notes        *string
    StartDate    *time.Time
    EndDate      *time.Time
    RewatchCount *int64
    Favorite     *bool
}

// Empty reports whether the change set would not modify anything.
func (ch EntryChanges) Empty() bool {
    return ch.Status == nil && ch.UserRating == nil && !ch.ClearRating &&
        ch.Progress == nil && ch.Notes == nil && ch.StartDate == nil &&
        ch.EndDate == nil && ch.RewatchCount == nil && ch.Favorite == nil
}

// Validate checks the change set against the entry it will be applied
// to.  Progress is clamped to [0, episode count] for series when the
// episode count is known; for movies any non-zero progress is
// rejected because the field must stay 0.
func (ch *EntryChanges) Validate(e *Entry) error {
    if ch.UserRating != nil {
        if err := ValidateRating(*ch.UserRating); err != nil {
            return err
        }
    }
    if ch.Notes != nil && len([]rune(*ch.Notes)) > MaxNotesLen {
        return ErrNotesTooLong
    }
    if ch.Progress != nil {
        p := *ch.Progress
        if p < 0 {
            return ErrInvalidProgress
        }
        if e.Ref.MediaType == MediaMovie {
            if p != 0 {
                return ErrInvalidProgress
            }
        } else if e.EpisodeCount != nil && p > *e.EpisodeCount {
            // Known episode count caps the progress; unknown counts
            // accept any non-negative value until backfilled.
            p = *e.EpisodeCount
            ch.Progress = &p
        }
    }
    if ch.RewatchCount != nil && *ch.RewatchCount < 0 {
        return ErrInvalidProgress
    }
    return nil
}
