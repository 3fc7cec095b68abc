// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the consistency coordinator to distinguish between
// different failure scenarios without inspecting SQL errors. For
// example, ErrAlreadyTracked signals that a second primary entry was
// attempted for the same (user, item) pair, while ErrDuplicateInList
// signals that a list insertion would create a duplicate snapshot.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyTracked is returned when a primary entry already exists
// for the same (user, tmdb id, media type). At most one entry per
// pair may exist; callers should redirect to the edit flow.
var ErrAlreadyTracked = errors.New("already tracked")

// ErrEntryNotFound is returned when no primary entry exists for the
// requested (user, item) pair.
var ErrEntryNotFound = errors.New("entry not found")

// ErrListNotFound is returned when a custom list id does not exist.
var ErrListNotFound = errors.New("list not found")

// ErrDuplicateInList is returned when appending a snapshot that is
// already present in the target list. No write is performed.
var ErrDuplicateInList = errors.New("item already in list")

// ErrNotInList is returned when a removal or move references a
// snapshot the list does not contain. Callers that expect eventual
// consistency may treat it as an idempotent no-op.
var ErrNotInList = errors.New("item not in list")
