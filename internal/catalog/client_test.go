package catalog

import (
    "context"
    "fmt"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
    t.Helper()
    srv := httptest.NewServer(h)
    t.Cleanup(srv.Close)
    c := NewClient("test-key", "tr-TR", srv.Client())
    c.baseURL = srv.URL
    return c
}

func TestItemMergesEnglishTitle(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/tv/1396", r.URL.Path)
        require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
        switch r.URL.Query().Get("language") {
        case "tr-TR":
            fmt.Fprint(w, `{
                "id": 1396,
                "name": "ブレイキング・バッド",
                "original_name": "ブレイキング・バッド",
                "overview": "açıklama",
                "poster_path": "/p.jpg",
                "vote_average": 8.9,
                "first_air_date": "2008-01-20",
                "number_of_episodes": 62,
                "number_of_seasons": 5,
                "genres": [{"id": 18}, {"id": 80}]
            }`)
        case "en-US":
            fmt.Fprint(w, `{"id": 1396, "name": "Breaking Bad"}`)
        default:
            t.Errorf("unexpected language %q", r.URL.Query().Get("language"))
        }
    })

    ref := model.MediaRef{TMDBID: 1396, MediaType: model.MediaSeries}
    item, err := c.Item(context.Background(), ref)
    require.NoError(t, err)

    assert.Equal(t, "Breaking Bad", item.Title)
    assert.Equal(t, "Breaking Bad", item.AlternateTitle)
    assert.Equal(t, "ブレイキング・バッド", item.LocalizedTitle)
    assert.Equal(t, "2008-01-20", item.ReleaseDate)
    require.NotNil(t, item.EpisodeCount)
    assert.Equal(t, int64(62), *item.EpisodeCount)
    require.NotNil(t, item.SeasonCount)
    assert.Equal(t, int64(5), *item.SeasonCount)
    assert.Equal(t, []int64{18, 80}, item.GenreIDs)
    assert.Nil(t, item.Runtime)
}

func TestItemEnglishPassFailureIsNonFatal(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Query().Get("language") == "en-US" {
            w.WriteHeader(http.StatusNotFound)
            return
        }
        fmt.Fprint(w, `{"id": 550, "title": "Dövüş Kulübü", "original_title": "Fight Club", "runtime": 139}`)
    })

    ref := model.MediaRef{TMDBID: 550, MediaType: model.MediaMovie}
    item, err := c.Item(context.Background(), ref)
    require.NoError(t, err)

    // Latin original title still wins without the English pass.
    assert.Equal(t, "Fight Club", item.Title)
    assert.Empty(t, item.AlternateTitle)
    require.NotNil(t, item.Runtime)
    assert.Equal(t, int64(139), *item.Runtime)
}

func TestItemNotFound(t *testing.T) {
    var calls int32
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        atomic.AddInt32(&calls, 1)
        w.WriteHeader(http.StatusNotFound)
    })

    _, err := c.Item(context.Background(), model.MediaRef{TMDBID: 999999, MediaType: model.MediaMovie})
    assert.ErrorIs(t, err, ErrNotFound)
    // 404 is terminal; no retries.
    assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestItemServerErrorsRetryThenUnavailable(t *testing.T) {
    var calls int32
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        atomic.AddInt32(&calls, 1)
        w.WriteHeader(http.StatusInternalServerError)
    })

    _, err := c.Item(context.Background(), model.MediaRef{TMDBID: 550, MediaType: model.MediaMovie})
    assert.ErrorIs(t, err, ErrUnavailable)
    assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearchMultiDropsPeopleAndMergesTitles(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/search/multi", r.URL.Path)
        require.Equal(t, "parasite", r.URL.Query().Get("query"))
        if r.URL.Query().Get("language") == "en-US" {
            fmt.Fprint(w, `{"page":1,"total_pages":1,"total_results":3,"results":[
                {"id": 496243, "media_type": "movie", "title": "Parasite"}
            ]}`)
            return
        }
        fmt.Fprint(w, `{"page":1,"total_pages":1,"total_results":3,"results":[
            {"id": 496243, "media_type": "movie", "title": "기생충", "original_title": "기생충", "release_date": "2019-05-30", "genre_ids": [35, 53]},
            {"id": 12345, "media_type": "person", "name": "Bong Joon-ho"},
            {"id": 68421, "media_type": "tv", "name": "Parasyte", "original_name": "寄生獣"}
        ]}`)
    })

    res, err := c.Search(context.Background(), "parasite", "any", 1)
    require.NoError(t, err)
    require.Len(t, res.Results, 2)

    assert.Equal(t, model.MediaRef{TMDBID: 496243, MediaType: model.MediaMovie}, res.Results[0].Ref)
    assert.Equal(t, "Parasite", res.Results[0].Title)
    assert.Equal(t, "2019-05-30", res.Results[0].ReleaseDate)

    assert.Equal(t, model.MediaRef{TMDBID: 68421, MediaType: model.MediaSeries}, res.Results[1].Ref)
    assert.Equal(t, "Parasyte", res.Results[1].Title)
}

func TestSearchExplicitKindFixesMediaType(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/search/tv", r.URL.Path)
        fmt.Fprint(w, `{"page":1,"total_pages":1,"total_results":1,"results":[
            {"id": 456, "name": "The Simpsons"}
        ]}`)
    })

    res, err := c.Search(context.Background(), "simpsons", "series", 0)
    require.NoError(t, err)
    require.Len(t, res.Results, 1)
    assert.Equal(t, model.MediaSeries, res.Results[0].Ref.MediaType)
}

func TestTrendingSegments(t *testing.T) {
    var paths []string
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        paths = append(paths, r.URL.Path)
        fmt.Fprint(w, `{"page":1,"results":[]}`)
    })

    _, err := c.Trending(context.Background(), "movie")
    require.NoError(t, err)
    _, err = c.Trending(context.Background(), "series")
    require.NoError(t, err)
    _, err = c.Trending(context.Background(), "")
    require.NoError(t, err)

    // Each call performs the localized and the en-US pass.
    assert.Contains(t, paths, "/trending/movie/week")
    assert.Contains(t, paths, "/trending/tv/week")
    assert.Contains(t, paths, "/trending/all/week")
}
