package service

import (
    "context"
    "errors"
    "fmt"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/mehmettevfikcetin/flixary/internal/catalog"
    "github.com/mehmettevfikcetin/flixary/internal/model"
    "github.com/mehmettevfikcetin/flixary/internal/repository"
)

// ----- in-memory fakes -----

type entryKey struct {
    userID uint64
    ref    model.MediaRef
}

type fakeEntries struct {
    nextID  uint64
    rows    map[entryKey]*model.Entry
    failGet error
}

func newFakeEntries() *fakeEntries {
    return &fakeEntries{rows: make(map[entryKey]*model.Entry)}
}

func (f *fakeEntries) Create(_ context.Context, e *model.Entry) (uint64, error) {
    k := entryKey{e.UserID, e.Ref}
    if _, ok := f.rows[k]; ok {
        return 0, repository.ErrAlreadyTracked
    }
    f.nextID++
    e.ID = f.nextID
    cp := *e
    f.rows[k] = &cp
    return e.ID, nil
}

func (f *fakeEntries) GetByRef(_ context.Context, userID uint64, ref model.MediaRef) (*model.Entry, error) {
    if f.failGet != nil {
        return nil, f.failGet
    }
    e, ok := f.rows[entryKey{userID, ref}]
    if !ok {
        return nil, repository.ErrEntryNotFound
    }
    cp := *e
    return &cp, nil
}

func (f *fakeEntries) Update(_ context.Context, userID uint64, ref model.MediaRef, ch model.EntryChanges) error {
    e, ok := f.rows[entryKey{userID, ref}]
    if !ok {
        return repository.ErrEntryNotFound
    }
    if ch.Status != nil {
        e.Status = *ch.Status
    }
    if ch.ClearRating {
        e.UserRating = nil
    } else if ch.UserRating != nil {
        e.UserRating = ch.UserRating
    }
    if ch.Progress != nil {
        e.Progress = *ch.Progress
    }
    if ch.Notes != nil {
        e.Notes = *ch.Notes
    }
    if ch.RewatchCount != nil {
        e.RewatchCount = *ch.RewatchCount
    }
    if ch.Favorite != nil {
        e.Favorite = *ch.Favorite
    }
    return nil
}

func (f *fakeEntries) SetSeriesCounts(_ context.Context, userID uint64, ref model.MediaRef, episodes, seasons *int64) error {
    e, ok := f.rows[entryKey{userID, ref}]
    if !ok {
        return repository.ErrEntryNotFound
    }
    e.EpisodeCount = episodes
    e.SeasonCount = seasons
    return nil
}

func (f *fakeEntries) Delete(_ context.Context, userID uint64, ref model.MediaRef) (bool, error) {
    k := entryKey{userID, ref}
    if _, ok := f.rows[k]; !ok {
        return false, nil
    }
    delete(f.rows, k)
    return true, nil
}

func (f *fakeEntries) ListByUser(_ context.Context, userID uint64) ([]model.Entry, error) {
    var out []model.Entry
    for k, e := range f.rows {
        if k.userID == userID {
            out = append(out, *e)
        }
    }
    return out, nil
}

type fakeLists struct {
    rows       map[uint64]*model.CustomList
    failAppend map[uint64]error // listID -> error
    failRemove map[uint64]error
    failScan   error
}

func newFakeLists(ids ...uint64) *fakeLists {
    f := &fakeLists{
        rows:       make(map[uint64]*model.CustomList),
        failAppend: make(map[uint64]error),
        failRemove: make(map[uint64]error),
    }
    for _, id := range ids {
        f.rows[id] = &model.CustomList{ID: id, UserID: 1, Name: fmt.Sprintf("list-%d", id)}
    }
    return f
}

func (f *fakeLists) GetByID(_ context.Context, userID, listID uint64) (*model.CustomList, error) {
    l, ok := f.rows[listID]
    if !ok {
        return nil, repository.ErrListNotFound
    }
    if l.UserID != userID {
        return nil, repository.ErrForbidden
    }
    cp := *l
    cp.Items = append([]model.ListItem(nil), l.Items...)
    return &cp, nil
}

func (f *fakeLists) ListByUser(_ context.Context, userID uint64) ([]model.CustomList, error) {
    if f.failScan != nil {
        return nil, f.failScan
    }
    var out []model.CustomList
    for _, l := range f.rows {
        if l.UserID == userID {
            out = append(out, *l)
        }
    }
    return out, nil
}

func (f *fakeLists) AppendItem(_ context.Context, userID, listID uint64, it model.ListItem) error {
    if err := f.failAppend[listID]; err != nil {
        return err
    }
    l, ok := f.rows[listID]
    if !ok {
        return repository.ErrListNotFound
    }
    if l.Contains(it.Ref) {
        return repository.ErrDuplicateInList
    }
    l.Items = append(l.Items, it)
    l.ItemCount++
    return nil
}

func (f *fakeLists) RemoveItem(_ context.Context, userID, listID uint64, ref model.MediaRef) error {
    if err := f.failRemove[listID]; err != nil {
        return err
    }
    l, ok := f.rows[listID]
    if !ok {
        return repository.ErrListNotFound
    }
    for i, it := range l.Items {
        if it.Ref == ref {
            l.Items = append(l.Items[:i], l.Items[i+1:]...)
            l.ItemCount--
            return nil
        }
    }
    return repository.ErrNotInList
}

type fakeCatalog struct {
    items map[model.MediaRef]*catalog.Item
    err   error
    calls int
}

func (f *fakeCatalog) Item(_ context.Context, ref model.MediaRef) (*catalog.Item, error) {
    f.calls++
    if f.err != nil {
        return nil, f.err
    }
    it, ok := f.items[ref]
    if !ok {
        return nil, catalog.ErrNotFound
    }
    return it, nil
}

// ----- fixtures -----

var (
    movieRef  = model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie}
    seriesRef = model.MediaRef{TMDBID: 1396, MediaType: model.MediaSeries}
)

func movieItem() *catalog.Item {
    rt := int64(136)
    return &catalog.Item{
        Ref:         movieRef,
        Title:       "The Matrix",
        PosterPath:  "/matrix.jpg",
        VoteAverage: 8.2,
        ReleaseDate: "1999-03-30",
        GenreIDs:    []int64{28, 878},
        Runtime:     &rt,
    }
}

func seriesItem() *catalog.Item {
    eps, seasons := int64(62), int64(5)
    return &catalog.Item{
        Ref:          seriesRef,
        Title:        "Breaking Bad",
        PosterPath:   "/bb.jpg",
        VoteAverage:  8.9,
        ReleaseDate:  "2008-01-20",
        GenreIDs:     []int64{18, 80},
        EpisodeCount: &eps,
        SeasonCount:  &seasons,
    }
}

func newTestCoordinator(lists *fakeLists) (*Coordinator, *fakeEntries, *fakeCatalog) {
    entries := newFakeEntries()
    cat := &fakeCatalog{items: map[model.MediaRef]*catalog.Item{
        movieRef:  movieItem(),
        seriesRef: seriesItem(),
    }}
    return NewCoordinator(entries, lists, cat), entries, cat
}

// ----- AddTracking -----

func TestAddTrackingMovie(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    e, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, nil, nil)
    require.NoError(t, err)

    assert.Equal(t, "The Matrix", e.Title)
    assert.Equal(t, model.StatusPlanned, e.Status)
    require.NotNil(t, e.Runtime)
    assert.Equal(t, int64(136), *e.Runtime)
    assert.Nil(t, e.EpisodeCount)
    assert.Nil(t, e.UserRating)

    stored, err := entries.GetByRef(ctx, 1, movieRef)
    require.NoError(t, err)
    assert.Equal(t, e.ID, stored.ID)
}

func TestAddTrackingSeriesCopiesCounts(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())

    e, err := co.AddTracking(context.Background(), 1, seriesRef, model.StatusWatching, nil, nil)
    require.NoError(t, err)

    require.NotNil(t, e.EpisodeCount)
    assert.Equal(t, int64(62), *e.EpisodeCount)
    require.NotNil(t, e.SeasonCount)
    assert.Equal(t, int64(5), *e.SeasonCount)
    assert.Nil(t, e.Runtime)
}

func TestAddTrackingIntoList(t *testing.T) {
    lists := newFakeLists(10)
    co, _, _ := newTestCoordinator(lists)
    listID := uint64(10)

    _, err := co.AddTracking(context.Background(), 1, movieRef, model.StatusPlanned, &listID, nil)
    require.NoError(t, err)

    l := lists.rows[10]
    require.Len(t, l.Items, 1)
    assert.Equal(t, movieRef, l.Items[0].Ref)
    assert.Equal(t, "The Matrix", l.Items[0].Title)
    assert.Equal(t, "/matrix.jpg", l.Items[0].PosterPath)
    assert.Equal(t, int64(1), l.ItemCount)
}

func TestAddTrackingDuplicateEntry(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, nil, nil)
    require.NoError(t, err)

    _, err = co.AddTracking(ctx, 1, movieRef, model.StatusWatching, nil, nil)
    assert.ErrorIs(t, err, repository.ErrAlreadyTracked)

    // The original entry is untouched.
    e, err := entries.GetByRef(ctx, 1, movieRef)
    require.NoError(t, err)
    assert.Equal(t, model.StatusPlanned, e.Status)
}

func TestAddTrackingDuplicateInListWritesNothing(t *testing.T) {
    lists := newFakeLists(10)
    lists.rows[10].Items = []model.ListItem{{Ref: movieRef, Title: "The Matrix"}}
    lists.rows[10].ItemCount = 1
    co, entries, _ := newTestCoordinator(lists)
    listID := uint64(10)

    _, err := co.AddTracking(context.Background(), 1, movieRef, model.StatusPlanned, &listID, nil)
    assert.ErrorIs(t, err, repository.ErrDuplicateInList)

    // Validation ran before any write: no orphan entry, count unchanged.
    _, err = entries.GetByRef(context.Background(), 1, movieRef)
    assert.ErrorIs(t, err, repository.ErrEntryNotFound)
    assert.Equal(t, int64(1), lists.rows[10].ItemCount)
}

func TestAddTrackingCatalogMiss(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())
    unknown := model.MediaRef{TMDBID: 404404, MediaType: model.MediaMovie}

    _, err := co.AddTracking(context.Background(), 1, unknown, model.StatusPlanned, nil, nil)
    assert.ErrorIs(t, err, catalog.ErrNotFound)
    assert.Empty(t, entries.rows)
}

func TestAddTrackingListAppendFailureIsPartial(t *testing.T) {
    lists := newFakeLists(10)
    lists.failAppend[10] = errors.New("connection reset")
    co, entries, _ := newTestCoordinator(lists)
    listID := uint64(10)

    _, err := co.AddTracking(context.Background(), 1, movieRef, model.StatusPlanned, &listID, nil)

    var pf *PartialFailure
    require.ErrorAs(t, err, &pf)
    assert.Equal(t, "add_tracking", pf.Op)
    assert.Equal(t, "list_append", pf.FailedStep)
    assert.Equal(t, []string{"entry_create"}, pf.Committed)

    // The entry write committed and survives the list failure.
    _, gerr := entries.GetByRef(context.Background(), 1, movieRef)
    assert.NoError(t, gerr)
}

func TestAddTrackingRatingOnlyStoredWhenCompleted(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())
    ctx := context.Background()
    r := 9.0

    e, err := co.AddTracking(ctx, 1, movieRef, model.StatusCompleted, nil, &r)
    require.NoError(t, err)
    require.NotNil(t, e.UserRating)
    assert.Equal(t, 9.0, *e.UserRating)

    e, err = co.AddTracking(ctx, 1, seriesRef, model.StatusPlanned, nil, &r)
    require.NoError(t, err)
    assert.Nil(t, e.UserRating)
}

func TestAddTrackingRejectsInvalidInput(t *testing.T) {
    co, _, cat := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    _, err := co.AddTracking(ctx, 1, movieRef, "binging", nil, nil)
    assert.ErrorIs(t, err, model.ErrInvalidStatus)

    bad := 7.3
    _, err = co.AddTracking(ctx, 1, movieRef, model.StatusCompleted, nil, &bad)
    assert.ErrorIs(t, err, model.ErrInvalidRating)

    // Neither call reached the catalog.
    assert.Zero(t, cat.calls)
}

// ----- RemoveTrackingEverywhere -----

func TestRemoveTrackingEverywhere(t *testing.T) {
    lists := newFakeLists(10, 20, 30)
    co, entries, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA, listB := uint64(10), uint64(20)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusCompleted, &listA, nil)
    require.NoError(t, err)
    require.NoError(t, co.AddToCustomList(ctx, 1, listB, movieRef))

    res, err := co.RemoveTrackingEverywhere(ctx, 1, movieRef)
    require.NoError(t, err)

    assert.True(t, res.EntryDeleted)
    assert.ElementsMatch(t, []uint64{10, 20}, res.PurgedLists)
    assert.Empty(t, entries.rows)
    assert.Equal(t, int64(0), lists.rows[10].ItemCount)
    assert.Equal(t, int64(0), lists.rows[20].ItemCount)
}

func TestRemoveTrackingMissingEntryStillPurges(t *testing.T) {
    lists := newFakeLists(10)
    lists.rows[10].Items = []model.ListItem{{Ref: movieRef, Title: "The Matrix"}}
    lists.rows[10].ItemCount = 1
    co, _, _ := newTestCoordinator(lists)

    res, err := co.RemoveTrackingEverywhere(context.Background(), 1, movieRef)
    require.NoError(t, err)

    // No entry existed, but the dangling snapshot is cleaned up.
    assert.False(t, res.EntryDeleted)
    assert.Equal(t, []uint64{10}, res.PurgedLists)
    assert.Empty(t, lists.rows[10].Items)
}

func TestRemoveTrackingPurgeFailureIsPartial(t *testing.T) {
    lists := newFakeLists(10, 20)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA, listB := uint64(10), uint64(20)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusCompleted, &listA, nil)
    require.NoError(t, err)
    require.NoError(t, co.AddToCustomList(ctx, 1, listB, movieRef))

    lists.failRemove[20] = errors.New("deadlock")

    res, err := co.RemoveTrackingEverywhere(ctx, 1, movieRef)

    var pf *PartialFailure
    require.ErrorAs(t, err, &pf)
    assert.Equal(t, "remove_tracking", pf.Op)
    assert.Equal(t, "list_purge", pf.FailedStep)
    assert.Contains(t, pf.Committed, "entry_delete")
    assert.Contains(t, pf.Committed, "purge_list_10")

    // The partial result still reports the purge that went through, so
    // the caller can retry only list 20.
    require.NotNil(t, res)
    assert.Equal(t, []uint64{10}, res.PurgedLists)
}

// ----- UpdateEntry -----

func TestUpdateEntryProgressBackfillsEpisodeCount(t *testing.T) {
    co, entries, cat := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    // Simulate an entry added before the catalog knew its episode count.
    noCounts := *seriesItem()
    noCounts.EpisodeCount = nil
    noCounts.SeasonCount = nil
    cat.items[seriesRef] = &noCounts
    _, err := co.AddTracking(ctx, 1, seriesRef, model.StatusWatching, nil, nil)
    require.NoError(t, err)

    // By update time the catalog knows 62 episodes; the clamp should
    // use the backfilled count.
    cat.items[seriesRef] = seriesItem()
    p := int64(100)
    e, err := co.UpdateEntry(ctx, 1, seriesRef, model.EntryChanges{Progress: &p})
    require.NoError(t, err)

    assert.Equal(t, int64(62), e.Progress)
    stored, _ := entries.GetByRef(ctx, 1, seriesRef)
    require.NotNil(t, stored.EpisodeCount)
    assert.Equal(t, int64(62), *stored.EpisodeCount)
}

func TestUpdateEntryBackfillFailureIsNonFatal(t *testing.T) {
    co, _, cat := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    noCounts := *seriesItem()
    noCounts.EpisodeCount = nil
    noCounts.SeasonCount = nil
    cat.items[seriesRef] = &noCounts
    _, err := co.AddTracking(ctx, 1, seriesRef, model.StatusWatching, nil, nil)
    require.NoError(t, err)

    cat.err = catalog.ErrUnavailable
    p := int64(12)
    e, err := co.UpdateEntry(ctx, 1, seriesRef, model.EntryChanges{Progress: &p})
    require.NoError(t, err)
    assert.Equal(t, int64(12), e.Progress)
}

func TestUpdateEntryRatingSurvivesStatusChange(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())
    ctx := context.Background()
    r := 8.5

    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusCompleted, nil, &r)
    require.NoError(t, err)

    st := model.StatusWatching
    e, err := co.UpdateEntry(ctx, 1, movieRef, model.EntryChanges{Status: &st})
    require.NoError(t, err)

    assert.Equal(t, model.StatusWatching, e.Status)
    require.NotNil(t, e.UserRating)
    assert.Equal(t, 8.5, *e.UserRating)

    // Clearing is explicit, never implied by a status change.
    e, err = co.UpdateEntry(ctx, 1, movieRef, model.EntryChanges{ClearRating: true})
    require.NoError(t, err)
    assert.Nil(t, e.UserRating)
}

func TestUpdateEntryRejectsMovieProgress(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())
    ctx := context.Background()

    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusWatching, nil, nil)
    require.NoError(t, err)

    p := int64(3)
    _, err = co.UpdateEntry(ctx, 1, movieRef, model.EntryChanges{Progress: &p})
    assert.ErrorIs(t, err, model.ErrInvalidProgress)
}

func TestUpdateEntryNotTracked(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())
    fav := true

    _, err := co.UpdateEntry(context.Background(), 1, movieRef, model.EntryChanges{Favorite: &fav})
    assert.ErrorIs(t, err, repository.ErrEntryNotFound)
}

// ----- list membership -----

func TestAddToCustomListRequiresEntry(t *testing.T) {
    lists := newFakeLists(10)
    co, _, _ := newTestCoordinator(lists)

    err := co.AddToCustomList(context.Background(), 1, 10, movieRef)
    assert.ErrorIs(t, err, ErrNotTracked)
    assert.Empty(t, lists.rows[10].Items)
}

func TestAddToCustomListSnapshotsEntry(t *testing.T) {
    lists := newFakeLists(10)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, nil, nil)
    require.NoError(t, err)
    require.NoError(t, co.AddToCustomList(ctx, 1, 10, movieRef))

    require.Len(t, lists.rows[10].Items, 1)
    it := lists.rows[10].Items[0]
    assert.Equal(t, "The Matrix", it.Title)
    assert.Equal(t, "/matrix.jpg", it.PosterPath)

    err = co.AddToCustomList(ctx, 1, 10, movieRef)
    assert.ErrorIs(t, err, repository.ErrDuplicateInList)
    assert.Equal(t, int64(1), lists.rows[10].ItemCount)
}

func TestCopyToCustomList(t *testing.T) {
    lists := newFakeLists(10, 20)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA := uint64(10)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, &listA, nil)
    require.NoError(t, err)

    require.NoError(t, co.CopyToCustomList(ctx, 1, 10, 20, movieRef))

    // Both lists hold the snapshot after a copy.
    assert.Len(t, lists.rows[10].Items, 1)
    assert.Len(t, lists.rows[20].Items, 1)
    assert.Equal(t, "The Matrix", lists.rows[20].Items[0].Title)

    // Copying something the source never held fails cleanly.
    err = co.CopyToCustomList(ctx, 1, 10, 20, seriesRef)
    assert.ErrorIs(t, err, repository.ErrNotInList)
}

func TestMoveBetweenCustomLists(t *testing.T) {
    lists := newFakeLists(10, 20)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA := uint64(10)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, &listA, nil)
    require.NoError(t, err)

    require.NoError(t, co.MoveBetweenCustomLists(ctx, 1, 10, 20, movieRef))

    assert.Empty(t, lists.rows[10].Items)
    require.Len(t, lists.rows[20].Items, 1)
    assert.Equal(t, movieRef, lists.rows[20].Items[0].Ref)
}

func TestMoveDuplicateTargetLeavesSourceIntact(t *testing.T) {
    lists := newFakeLists(10, 20)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA := uint64(10)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, &listA, nil)
    require.NoError(t, err)
    require.NoError(t, co.CopyToCustomList(ctx, 1, 10, 20, movieRef))

    err = co.MoveBetweenCustomLists(ctx, 1, 10, 20, movieRef)
    assert.ErrorIs(t, err, repository.ErrDuplicateInList)

    // The failed copy never started the removal.
    assert.Len(t, lists.rows[10].Items, 1)
    assert.Len(t, lists.rows[20].Items, 1)
}

func TestMoveSourceRemovalFailureIsPartial(t *testing.T) {
    lists := newFakeLists(10, 20)
    co, _, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA := uint64(10)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, &listA, nil)
    require.NoError(t, err)

    lists.failRemove[10] = errors.New("timeout")

    err = co.MoveBetweenCustomLists(ctx, 1, 10, 20, movieRef)

    var pf *PartialFailure
    require.ErrorAs(t, err, &pf)
    assert.Equal(t, "move_between_lists", pf.Op)
    assert.Equal(t, "source_remove", pf.FailedStep)
    assert.Equal(t, []string{"target_append"}, pf.Committed)

    // Copy-then-remove: the item is duplicated, never lost.
    assert.Len(t, lists.rows[10].Items, 1)
    assert.Len(t, lists.rows[20].Items, 1)
}

func TestRemoveFromCustomListLeavesEntry(t *testing.T) {
    lists := newFakeLists(10)
    co, entries, _ := newTestCoordinator(lists)
    ctx := context.Background()

    listA := uint64(10)
    _, err := co.AddTracking(ctx, 1, movieRef, model.StatusPlanned, &listA, nil)
    require.NoError(t, err)

    require.NoError(t, co.RemoveFromCustomList(ctx, 1, 10, movieRef))

    assert.Empty(t, lists.rows[10].Items)
    _, err = entries.GetByRef(ctx, 1, movieRef)
    assert.NoError(t, err)

    err = co.RemoveFromCustomList(ctx, 1, 10, movieRef)
    assert.ErrorIs(t, err, repository.ErrNotInList)
}
