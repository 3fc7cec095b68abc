// Package service contains the consistency coordinator: the only
// component allowed to mutate primary entries and custom lists
// together. The underlying store offers no cross-document atomicity,
// so every multi-record operation follows a fixed ordering discipline
// (validate before writing, copy before removing, delete the entry
// before purging lists) and reports a typed PartialFailure when a
// later step fails after an earlier one committed.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"

    "github.com/mehmettevfikcetin/flixary/internal/catalog"
    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
)

// ErrNotTracked is returned when a list operation needs the item's
// primary entry (as the snapshot source) and none exists.
var ErrNotTracked = errors.New("item is not tracked")

// EntryStore is the persistence contract the coordinator requires for
// primary entries. Each call commits independently; the store only
// guarantees per-row atomicity and read-your-writes within a session.
type EntryStore interface {
    Create(ctx context.Context, e *model.Entry) (uint64, error)
    GetByRef(ctx context.Context, userID uint64, ref model.MediaRef) (*model.Entry, error)
    Update(ctx context.Context, userID uint64, ref model.MediaRef, ch model.EntryChanges) error
    SetSeriesCounts(ctx context.Context, userID uint64, ref model.MediaRef, episodes, seasons *int64) error
    Delete(ctx context.Context, userID uint64, ref model.MediaRef) (bool, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Entry, error)
}

// ListStore is the persistence contract for custom lists. A list and
// its item_count form one document: AppendItem and RemoveItem keep
// them consistent internally, but nothing spans two lists or a list
// and an entry.
type ListStore interface {
    GetByID(ctx context.Context, userID, listID uint64) (*model.CustomList, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.CustomList, error)
    AppendItem(ctx context.Context, userID, listID uint64, it model.ListItem) error
    RemoveItem(ctx context.Context, userID, listID uint64, ref model.MediaRef) error
}

// Catalog resolves display metadata for an external item reference.
type Catalog interface {
    Item(ctx context.Context, ref model.MediaRef) (*catalog.Item, error)
}

// PartialFailure reports that a multi-step operation committed some
// steps before a later one failed. Callers must not blindly retry the
// whole operation; Committed tells them what already happened and
// FailedStep which piece to retry or compensate.
type PartialFailure struct {
    Op         string   // operation name, e.g. "add_tracking"
    FailedStep string   // the step that failed
    Committed  []string // steps that committed before the failure
    Err        error    // underlying cause
}

func (e *PartialFailure) Error() string {
    return fmt.Sprintf("%s: step %s failed after [%s]: %v",
        e.Op, e.FailedStep, strings.Join(e.Committed, ","), e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

// Coordinator orchestrates multi-record operations across the entry
// and list stores so that counts, membership and denormalized fields
// stay consistent under concurrent, partial-failure-prone edits.
type Coordinator struct {
    entries EntryStore
    lists   ListStore
    catalog Catalog
}

// NewCoordinator wires the coordinator to its stores and the catalog.
func NewCoordinator(entries EntryStore, lists ListStore, cat Catalog) *Coordinator {
    return &Coordinator{entries: entries, lists: lists, catalog: cat}
}

// AddTracking creates the primary entry for an item, optionally
// placing a snapshot into one custom list. Ordering: duplicate check,
// catalog resolve, list membership validation, entry write, list
// write. A duplicate detected during validation fails before any
// write; a list write that fails after the entry committed surfaces
// as PartialFailure so the caller can retry just the list append or
// compensate with RemoveTrackingEverywhere.
func (co *Coordinator) AddTracking(ctx context.Context, userID uint64, ref model.MediaRef, status model.WatchStatus, targetListID *uint64, rating *float64) (*model.Entry, error) {
    if _, err := model.ParseWatchStatus(string(status)); err != nil {
        return nil, err
    }
    if rating != nil {
        if err := model.ValidateRating(*rating); err != nil {
            return nil, err
        }
    }

    if _, err := co.entries.GetByRef(ctx, userID, ref); err == nil {
        return nil, repository.ErrAlreadyTracked
    } else if !errors.Is(err, repository.ErrEntryNotFound) {
        return nil, err
    }

    item, err := co.catalog.Item(ctx, ref)
    if err != nil {
        return nil, err
    }

    // Validate the target list before any write so a duplicate never
    // leaves behind an orphan entry.
    if targetListID != nil {
        list, err := co.lists.GetByID(ctx, userID, *targetListID)
        if err != nil {
            return nil, err
        }
        if list.Contains(ref) {
            return nil, repository.ErrDuplicateInList
        }
    }

    e := &model.Entry{
        UserID:       userID,
        Ref:          ref,
        Title:        item.Title,
        PosterPath:   item.PosterPath,
        BackdropPath: item.BackdropPath,
        VoteAverage:  item.VoteAverage,
        ReleaseDate:  item.ReleaseDate,
        GenreIDs:     item.GenreIDs,
        Status:       status,
    }
    if ref.MediaType == model.MediaMovie {
        e.Runtime = item.Runtime
    } else {
        // Backfill may come up empty; nil counts are retried by later
        // progress updates.
        e.EpisodeCount = item.EpisodeCount
        e.SeasonCount = item.SeasonCount
    }
    // A rating at add time is only meaningful for items added as
    // completed; otherwise it is dropped, not stored.
    if rating != nil && status == model.StatusCompleted {
        e.UserRating = rating
    }

    if _, err := co.entries.Create(ctx, e); err != nil {
        return nil, err
    }

    if targetListID != nil {
        snap := model.ListItem{Ref: ref, Title: e.Title, PosterPath: e.PosterPath}
        if err := co.lists.AppendItem(ctx, userID, *targetListID, snap); err != nil {
            return e, &PartialFailure{
                Op:         "add_tracking",
                FailedStep: "list_append",
                Committed:  []string{"entry_create"},
                Err:        err,
            }
        }
    }
    return e, nil
}

// RemoveResult describes what RemoveTrackingEverywhere accomplished.
type RemoveResult struct {
    EntryDeleted bool     `json:"entry_deleted"`
    PurgedLists  []uint64 `json:"purged_lists"`
}

// RemoveTrackingEverywhere deletes the primary entry and purges the
// matching snapshot from every list the user owns, decrementing each
// item count by exactly one. The entry is deleted first; if the purge
// fails partway the committed purges are reported in a PartialFailure
// and the caller retries per list. A missing entry is not an error:
// the purge still runs so dangling snapshots get cleaned up.
func (co *Coordinator) RemoveTrackingEverywhere(ctx context.Context, userID uint64, ref model.MediaRef) (*RemoveResult, error) {
    deleted, err := co.entries.Delete(ctx, userID, ref)
    if err != nil {
        return nil, err
    }
    res := &RemoveResult{EntryDeleted: deleted, PurgedLists: make([]uint64, 0)}

    lists, err := co.lists.ListByUser(ctx, userID)
    if err != nil {
        return res, &PartialFailure{
            Op:         "remove_tracking",
            FailedStep: "list_scan",
            Committed:  []string{"entry_delete"},
            Err:        err,
        }
    }

    var purgeErrs []error
    committed := []string{"entry_delete"}
    for _, l := range lists {
        err := co.lists.RemoveItem(ctx, userID, l.ID, ref)
        switch {
        case err == nil:
            res.PurgedLists = append(res.PurgedLists, l.ID)
            committed = append(committed, fmt.Sprintf("purge_list_%d", l.ID))
        case errors.Is(err, repository.ErrNotInList):
            // List does not hold the item; nothing to purge.
        default:
            purgeErrs = append(purgeErrs, fmt.Errorf("list %d: %w", l.ID, err))
        }
    }
    if len(purgeErrs) > 0 {
        return res, &PartialFailure{
            Op:         "remove_tracking",
            FailedStep: "list_purge",
            Committed:  committed,
            Err:        errors.Join(purgeErrs...),
        }
    }
    return res, nil
}

// UpdateEntry applies a validated partial update to the primary
// entry. List snapshots are never touched; they are static copies.
// When a progress update arrives for a series whose episode count was
// never backfilled, one catalog lookup is attempted so the clamp has
// something to clamp to; its failure is non-fatal.
func (co *Coordinator) UpdateEntry(ctx context.Context, userID uint64, ref model.MediaRef, ch model.EntryChanges) (*model.Entry, error) {
    e, err := co.entries.GetByRef(ctx, userID, ref)
    if err != nil {
        return nil, err
    }

    if ch.Progress != nil && ref.MediaType == model.MediaSeries && e.EpisodeCount == nil {
        if item, err := co.catalog.Item(ctx, ref); err != nil {
            log.Printf("coordinator: episode count backfill failed for %d: %v", ref.TMDBID, err)
        } else if item.EpisodeCount != nil {
            if err := co.entries.SetSeriesCounts(ctx, userID, ref, item.EpisodeCount, item.SeasonCount); err != nil {
                log.Printf("coordinator: storing backfilled counts failed for %d: %v", ref.TMDBID, err)
            } else {
                e.EpisodeCount = item.EpisodeCount
                e.SeasonCount = item.SeasonCount
            }
        }
    }

    if err := ch.Validate(e); err != nil {
        return nil, err
    }
    if err := co.entries.Update(ctx, userID, ref, ch); err != nil {
        return nil, err
    }
    return co.entries.GetByRef(ctx, userID, ref)
}

// AddToCustomList appends a snapshot of a tracked item to a list,
// copying the display fields from the primary entry. The membership
// check runs before the write; a concurrent duplicate is still caught
// by the store's uniqueness guarantee.
func (co *Coordinator) AddToCustomList(ctx context.Context, userID, listID uint64, ref model.MediaRef) error {
    e, err := co.entries.GetByRef(ctx, userID, ref)
    if errors.Is(err, repository.ErrEntryNotFound) {
        return ErrNotTracked
    }
    if err != nil {
        return err
    }
    list, err := co.lists.GetByID(ctx, userID, listID)
    if err != nil {
        return err
    }
    if list.Contains(ref) {
        return repository.ErrDuplicateInList
    }
    snap := model.ListItem{Ref: ref, Title: e.Title, PosterPath: e.PosterPath}
    return co.lists.AppendItem(ctx, userID, listID, snap)
}

// CopyToCustomList duplicates an existing snapshot from one list into
// another. The source snapshot stays where it is.
func (co *Coordinator) CopyToCustomList(ctx context.Context, userID, fromListID, toListID uint64, ref model.MediaRef) error {
    snap, err := co.sourceSnapshot(ctx, userID, fromListID, ref)
    if err != nil {
        return err
    }
    to, err := co.lists.GetByID(ctx, userID, toListID)
    if err != nil {
        return err
    }
    if to.Contains(ref) {
        return repository.ErrDuplicateInList
    }
    return co.lists.AppendItem(ctx, userID, toListID, *snap)
}

// MoveBetweenCustomLists moves a snapshot from one list to another.
// The copy must be confirmed before the source removal starts, so a
// failed copy leaves the source untouched and a failed removal after
// a committed copy reports PartialFailure instead of losing the item.
func (co *Coordinator) MoveBetweenCustomLists(ctx context.Context, userID, fromListID, toListID uint64, ref model.MediaRef) error {
    if err := co.CopyToCustomList(ctx, userID, fromListID, toListID, ref); err != nil {
        return err
    }
    if err := co.lists.RemoveItem(ctx, userID, fromListID, ref); err != nil {
        if errors.Is(err, repository.ErrNotInList) {
            // Already gone, e.g. removed concurrently; the move still
            // holds.
            return nil
        }
        return &PartialFailure{
            Op:         "move_between_lists",
            FailedStep: "source_remove",
            Committed:  []string{"target_append"},
            Err:        err,
        }
    }
    return nil
}

// RemoveFromCustomList removes a single snapshot from one list. The
// primary entry and other lists are untouched.
func (co *Coordinator) RemoveFromCustomList(ctx context.Context, userID, listID uint64, ref model.MediaRef) error {
    return co.lists.RemoveItem(ctx, userID, listID, ref)
}

// sourceSnapshot locates the snapshot for ref inside a list.
func (co *Coordinator) sourceSnapshot(ctx context.Context, userID, listID uint64, ref model.MediaRef) (*model.ListItem, error) {
    list, err := co.lists.GetByID(ctx, userID, listID)
    if err != nil {
        return nil, err
    }
    for i := range list.Items {
        if list.Items[i].Ref == ref {
            return &list.Items[i], nil
        }
    }
    return nil, repository.ErrNotInList
}
