package service

import (
    "context"
    "sort"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

// Watch time estimation defaults, used when the catalog never told us
// a movie's runtime or a series' episode count.
const (
    defaultMovieRuntimeMin  = 120
    defaultEpisodeCount     = 10
    estimatedEpisodeMinutes = 45
)

// GenreCount is one bucket of the genre histogram.
type GenreCount struct {
    ID    int64  `json:"id"`
    Name  string `json:"name"`
    Count int    `json:"count"`
}

// Stats is the derived profile aggregation over a user's entries. It
// is recomputed on every read and never durably cached.
type Stats struct {
    TotalMovies       int          `json:"total_movies"`
    TotalSeries       int          `json:"total_series"`
    WatchingCount     int          `json:"watching_count"`
    CompletedCount    int          `json:"completed_count"`
    PlannedCount      int          `json:"planned_count"`
    OnHoldCount       int          `json:"onhold_count"`
    DroppedCount      int          `json:"dropped_count"`
    TotalWatchTime    int64        `json:"total_watch_time"` // minutes
    AverageRating     float64      `json:"average_rating"`
    TotalRated        int          `json:"total_rated"`
    GenreDistribution []GenreCount `json:"genre_distribution"`
}

// genreNames maps TMDB genre ids to display labels; ids outside the
// map bucket into "Other".
var genreNames = map[int64]string{
    28:    "Action",
    12:    "Adventure",
    16:    "Animation",
    35:    "Comedy",
    80:    "Crime",
    99:    "Documentary",
    18:    "Drama",
    10751: "Family",
    14:    "Fantasy",
    36:    "History",
    27:    "Horror",
    10402: "Music",
    9648:  "Mystery",
    10749: "Romance",
    878:   "Science Fiction",
    53:    "Thriller",
    10752: "War",
    37:    "Western",
}

// ComputeStats aggregates the user's entries: counts by status and
// media kind, the average of all non-null ratings, an estimated total
// watch time and a genre frequency histogram. Watch time only counts
// completed items (movie runtime, defaulting to 120 minutes; episode
// count times 45 minutes for series, defaulting to 10 episodes), while
// the rating average spans every rated entry regardless of status.
func (co *Coordinator) ComputeStats(ctx context.Context, userID uint64) (*Stats, error) {
    entries, err := co.entries.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }

    s := &Stats{GenreDistribution: make([]GenreCount, 0)}
    var ratingSum float64
    genreCounts := make(map[int64]int)

    for i := range entries {
        e := &entries[i]
        if e.Ref.MediaType == model.MediaMovie {
            s.TotalMovies++
        } else {
            s.TotalSeries++
        }
        switch e.Status {
        case model.StatusWatching:
            s.WatchingCount++
        case model.StatusCompleted:
            s.CompletedCount++
        case model.StatusPlanned:
            s.PlannedCount++
        case model.StatusOnHold:
            s.OnHoldCount++
        case model.StatusDropped:
            s.DroppedCount++
        }

        if e.Status == model.StatusCompleted {
            if e.Ref.MediaType == model.MediaMovie {
                runtime := int64(defaultMovieRuntimeMin)
                if e.Runtime != nil && *e.Runtime > 0 {
                    runtime = *e.Runtime
                }
                s.TotalWatchTime += runtime
            } else {
                episodes := int64(defaultEpisodeCount)
                if e.EpisodeCount != nil && *e.EpisodeCount > 0 {
                    episodes = *e.EpisodeCount
                }
                s.TotalWatchTime += episodes * estimatedEpisodeMinutes
            }
        }

        if e.UserRating != nil {
            ratingSum += *e.UserRating
            s.TotalRated++
        }
        for _, g := range e.GenreIDs {
            genreCounts[g]++
        }
    }

    if s.TotalRated > 0 {
        s.AverageRating = ratingSum / float64(s.TotalRated)
    }

    for id, count := range genreCounts {
        name, ok := genreNames[id]
        if !ok {
            name = "Other"
        }
        s.GenreDistribution = append(s.GenreDistribution, GenreCount{ID: id, Name: name, Count: count})
    }
    sort.Slice(s.GenreDistribution, func(i, j int) bool {
        a, b := s.GenreDistribution[i], s.GenreDistribution[j]
        if a.Count != b.Count {
            return a.Count > b.Count
        }
        return a.ID < b.ID
    })
    return s, nil
}
