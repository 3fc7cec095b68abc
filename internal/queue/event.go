// Package queue defines message payloads exchanged over the message
// broker, plus the publisher and the background consumer that turns
// them into an activity log.
package queue

// EntryTrackedEvent is published when a user starts tracking an item.
// It carries enough information for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type EntryTrackedEvent struct {
    UserID    uint64 `json:"user_id"`
    TMDBID    int64  `json:"tmdb_id"`
    MediaType string `json:"media_type"`
    Title     string `json:"title"`
    Status    string `json:"status"`
    ListID    uint64 `json:"list_id,omitempty"`
    TrackedAt string `json:"tracked_at"`
}

// EntryRemovedEvent is published when a user removes an item from
// tracking everywhere. PurgedLists holds the ids of the custom lists
// a snapshot was removed from.
type EntryRemovedEvent struct {
    UserID      uint64   `json:"user_id"`
    TMDBID      int64    `json:"tmdb_id"`
    MediaType   string   `json:"media_type"`
    PurgedLists []uint64 `json:"purged_lists"`
    RemovedAt   string   `json:"removed_at"`
}
