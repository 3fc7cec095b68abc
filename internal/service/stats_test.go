package service

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

func seedEntry(t *testing.T, f *fakeEntries, e model.Entry) {
    t.Helper()
    _, err := f.Create(context.Background(), &e)
    require.NoError(t, err)
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func TestComputeStatsWatchTime(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())

    // Completed movie with a known runtime counts that runtime.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 1, MediaType: model.MediaMovie},
        Status: model.StatusCompleted, Runtime: i64(120),
    })
    // Completed series with a known episode count: 10 x 45 minutes.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 2, MediaType: model.MediaSeries},
        Status: model.StatusCompleted, EpisodeCount: i64(10),
    })
    // Watching items contribute nothing regardless of runtime.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 3, MediaType: model.MediaMovie},
        Status: model.StatusWatching, Runtime: i64(200),
    })

    s, err := co.ComputeStats(context.Background(), 1)
    require.NoError(t, err)

    assert.Equal(t, int64(120+10*45), s.TotalWatchTime)
    assert.Equal(t, 2, s.TotalMovies)
    assert.Equal(t, 1, s.TotalSeries)
    assert.Equal(t, 2, s.CompletedCount)
    assert.Equal(t, 1, s.WatchingCount)
}

func TestComputeStatsWatchTimeDefaults(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())

    // Unknown movie runtime estimates 120 minutes; unknown episode
    // count estimates 10 episodes.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 1, MediaType: model.MediaMovie},
        Status: model.StatusCompleted,
    })
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 2, MediaType: model.MediaSeries},
        Status: model.StatusCompleted,
    })

    s, err := co.ComputeStats(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, int64(120+10*45), s.TotalWatchTime)
}

func TestComputeStatsAverageRatingSpansAllStatuses(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())

    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 1, MediaType: model.MediaMovie},
        Status: model.StatusCompleted, UserRating: f64(9),
    })
    // A dropped entry's rating still counts toward the average.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 2, MediaType: model.MediaMovie},
        Status: model.StatusDropped, UserRating: f64(4),
    })
    // Unrated entries do not dilute it.
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 3, MediaType: model.MediaSeries},
        Status: model.StatusCompleted,
    })

    s, err := co.ComputeStats(context.Background(), 1)
    require.NoError(t, err)

    assert.Equal(t, 2, s.TotalRated)
    assert.InDelta(t, 6.5, s.AverageRating, 1e-9)
}

func TestComputeStatsGenreDistribution(t *testing.T) {
    co, entries, _ := newTestCoordinator(newFakeLists())

    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 1, MediaType: model.MediaMovie},
        Status: model.StatusCompleted, GenreIDs: []int64{18, 28},
    })
    seedEntry(t, entries, model.Entry{
        UserID: 1, Ref: model.MediaRef{TMDBID: 2, MediaType: model.MediaSeries},
        Status: model.StatusWatching, GenreIDs: []int64{18, 99999},
    })

    s, err := co.ComputeStats(context.Background(), 1)
    require.NoError(t, err)

    require.Len(t, s.GenreDistribution, 3)
    // Sorted by count descending, then id ascending.
    assert.Equal(t, GenreCount{ID: 18, Name: "Drama", Count: 2}, s.GenreDistribution[0])
    assert.Equal(t, GenreCount{ID: 28, Name: "Action", Count: 1}, s.GenreDistribution[1])
    // Ids outside the known map land in the Other bucket.
    assert.Equal(t, GenreCount{ID: 99999, Name: "Other", Count: 1}, s.GenreDistribution[2])
}

func TestComputeStatsEmpty(t *testing.T) {
    co, _, _ := newTestCoordinator(newFakeLists())

    s, err := co.ComputeStats(context.Background(), 1)
    require.NoError(t, err)

    assert.Zero(t, s.TotalMovies)
    assert.Zero(t, s.TotalWatchTime)
    assert.Zero(t, s.AverageRating)
    assert.NotNil(t, s.GenreDistribution)
    assert.Empty(t, s.GenreDistribution)
}
