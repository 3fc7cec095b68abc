package model

import (
    "errors"
    "strings"
    "time"
)

// List name length bounds.
const (
    MinListNameLen = 1
    MaxListNameLen = 30
)

// ErrInvalidListName is returned when a custom list name is empty or
// longer than 30 characters.
var ErrInvalidListName = errors.New("list name must be 1-30 characters")

// ValidateListName trims and checks a custom list name, returning the
// normalized value.
func ValidateListName(name string) (string, error) {
    name = strings.TrimSpace(name)
    if n := len([]rune(name)); n < MinListNameLen || n > MaxListNameLen {
        return "", ErrInvalidListName
    }
    return name, nil
}

// CustomList is a user-named, user-ordered collection of denormalized
// item snapshots.  Emoji and Color are display hints with no semantic
// meaning.  ItemCount is maintained alongside the list_items rows and
// must equal the number of items after every committed operation.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the list; lists are never shared for write.
//  Name      – user-chosen name, 1-30 characters.
//  Emoji     – display emoji shown next to the name.
//  Color     – display accent color.
//  ItemCount – maintained count, equal to len(Items).
//  Items     – insertion-ordered snapshots (populated on detail reads).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type CustomList struct {
    ID        uint64     `json:"id"`              // custom_lists.id
    UserID    uint64     `json:"-"`               // custom_lists.user_id
    Name      string     `json:"name"`            // custom_lists.name
    Emoji     string     `json:"emoji,omitempty"` // custom_lists.emoji
    Color     string     `json:"color,omitempty"` // custom_lists.color
    ItemCount int64      `json:"item_count"`      // custom_lists.item_count
    Items     []ListItem `json:"items,omitempty"` // list_items rows, ordered by position
    CreatedAt time.Time  `json:"created_at"`      // custom_lists.created_at
    UpdatedAt time.Time  `json:"updated_at"`      // custom_lists.updated_at
}

// ListItem is a value-type snapshot of an item inside a custom list.
// It copies the minimal display fields from the primary entry at
// insertion time; it holds no live reference back and is not
// refreshed when the entry's cached fields change.  The (TMDBID,
// MediaType) pair is unique within one list but may appear across
// many lists of the same user.
type ListItem struct {
    Ref        MediaRef  `json:"ref"`                   // list_items.tmdb_id + list_items.media_type
    Title      string    `json:"title"`                 // list_items.title
    PosterPath string    `json:"poster_path,omitempty"` // list_items.poster_path
    AddedAt    time.Time `json:"added_at"`              // list_items.added_at
}

// Contains reports whether the list already holds a snapshot for the
// given ref.  Items must be populated.
func (l *CustomList) Contains(ref MediaRef) bool {
    for _, it := range l.Items {
        if it.Ref == ref {
            return true
        }
    }
    return false
}
