// Package catalog implements the read-only client for the external
// TMDB catalog.  It resolves item display metadata at add time, backs
// the public search/trending proxy endpoints, and owns the display
// title selection policy.  The client keeps its own timeout and retry
// policy; callers never retry through it.
package catalog

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

const (
    defaultBaseURL = "https://api.themoviedb.org/3"
    englishLocale  = "en-US"
)

// ErrNotFound is returned when the catalog cannot resolve an external
// id.  An AddTracking attempt that hits this error fails without any
// partial write.
var ErrNotFound = errors.New("catalog: item not found")

// ErrUnavailable is returned for transient provider faults (network
// errors, rate limiting, 5xx).  Callers may retry the whole operation.
var ErrUnavailable = errors.New("catalog: provider unavailable")

// Client talks to the TMDB v3 API.  Detail lookups are performed in
// both the configured locale and en-US so that an English alternate
// title is available for the title selection policy.
type Client struct {
    baseURL string
    apiKey  string
    locale  string
    httpc   *http.Client
}

// NewClient builds a catalog client.  locale is the primary language
// requested from the provider (e.g. "tr-TR"); httpc may be nil in
// which case a client with a 15 second timeout is used.
func NewClient(apiKey, locale string, httpc *http.Client) *Client {
    if httpc == nil {
        httpc = &http.Client{Timeout: 15 * time.Second}
    }
    if locale == "" {
        locale = englishLocale
    }
    return &Client{
        baseURL: defaultBaseURL,
        apiKey:  strings.TrimSpace(apiKey),
        locale:  locale,
        httpc:   httpc,
    }
}

// Item is the resolved display metadata for one catalog item.  Title
// already went through SelectDisplayTitle; the raw candidates are kept
// so callers can re-run the policy if needed.
type Item struct {
    Ref            model.MediaRef `json:"ref"`
    Title          string         `json:"title"`
    LocalizedTitle string         `json:"localized_title,omitempty"`
    OriginalTitle  string         `json:"original_title,omitempty"`
    AlternateTitle string         `json:"alternate_title,omitempty"`
    Overview       string         `json:"overview,omitempty"`
    PosterPath     string         `json:"poster_path,omitempty"`
    BackdropPath   string         `json:"backdrop_path,omitempty"`
    VoteAverage    float64        `json:"vote_average"`
    ReleaseDate    string         `json:"release_date,omitempty"`
    GenreIDs       []int64        `json:"genre_ids,omitempty"`
    Runtime        *int64         `json:"runtime,omitempty"`
    EpisodeCount   *int64         `json:"episode_count,omitempty"`
    SeasonCount    *int64         `json:"season_count,omitempty"`
}

// detailResponse covers both /movie/{id} and /tv/{id} payloads; the
// unused half of the fields is simply zero.
type detailResponse struct {
    ID               int64  `json:"id"`
    Title            string `json:"title"`
    Name             string `json:"name"`
    OriginalTitle    string `json:"original_title"`
    OriginalName     string `json:"original_name"`
    Overview         string `json:"overview"`
    PosterPath       string `json:"poster_path"`
    BackdropPath     string `json:"backdrop_path"`
    VoteAverage      float64 `json:"vote_average"`
    ReleaseDate      string `json:"release_date"`
    FirstAirDate     string `json:"first_air_date"`
    Runtime          *int64 `json:"runtime"`
    NumberOfEpisodes *int64 `json:"number_of_episodes"`
    NumberOfSeasons  *int64 `json:"number_of_seasons"`
    Genres           []struct {
        ID int64 `json:"id"`
    } `json:"genres"`
}

func apiPathKind(mt model.MediaType) string {
    if mt == model.MediaSeries {
        return "tv"
    }
    return "movie"
}

// Item resolves a catalog reference to display metadata.  The primary
// locale response provides everything except the alternate title,
// which comes from a second en-US request.  A failing en-US request is
// non-fatal: the title policy falls back to the remaining candidates.
func (c *Client) Item(ctx context.Context, ref model.MediaRef) (*Item, error) {
    endpoint := fmt.Sprintf("%s/%s/%d", c.baseURL, apiPathKind(ref.MediaType), ref.TMDBID)

    var localized detailResponse
    if err := c.doGET(ctx, endpoint, url.Values{"language": {c.locale}}, &localized); err != nil {
        return nil, err
    }

    var alternate string
    if c.locale != englishLocale {
        var english detailResponse
        if err := c.doGET(ctx, endpoint, url.Values{"language": {englishLocale}}, &english); err != nil {
            log.Printf("catalog: english title lookup failed for %s/%d: %v", ref.MediaType, ref.TMDBID, err)
        } else {
            alternate = pickName(ref.MediaType, english.Title, english.Name)
        }
    }

    localTitle := pickName(ref.MediaType, localized.Title, localized.Name)
    origTitle := pickName(ref.MediaType, localized.OriginalTitle, localized.OriginalName)

    item := &Item{
        Ref:            ref,
        Title:          SelectDisplayTitle(localTitle, origTitle, alternate),
        LocalizedTitle: localTitle,
        OriginalTitle:  origTitle,
        AlternateTitle: alternate,
        Overview:       localized.Overview,
        PosterPath:     localized.PosterPath,
        BackdropPath:   localized.BackdropPath,
        VoteAverage:    localized.VoteAverage,
        GenreIDs:       make([]int64, 0, len(localized.Genres)),
    }
    for _, g := range localized.Genres {
        item.GenreIDs = append(item.GenreIDs, g.ID)
    }
    if ref.MediaType == model.MediaMovie {
        item.ReleaseDate = localized.ReleaseDate
        item.Runtime = localized.Runtime
    } else {
        item.ReleaseDate = localized.FirstAirDate
        item.EpisodeCount = localized.NumberOfEpisodes
        item.SeasonCount = localized.NumberOfSeasons
    }
    return item, nil
}

// SearchItem is one search or trending result.  Genre ids come from
// the provider's compact listing form.
type SearchItem struct {
    Ref          model.MediaRef `json:"ref"`
    Title        string         `json:"title"`
    Overview     string         `json:"overview,omitempty"`
    PosterPath   string         `json:"poster_path,omitempty"`
    BackdropPath string         `json:"backdrop_path,omitempty"`
    VoteAverage  float64        `json:"vote_average"`
    ReleaseDate  string         `json:"release_date,omitempty"`
    GenreIDs     []int64        `json:"genre_ids,omitempty"`
}

// SearchResult is a page of results ranked by the provider.
type SearchResult struct {
    Page         int          `json:"page"`
    TotalPages   int          `json:"total_pages"`
    TotalResults int          `json:"total_results"`
    Results      []SearchItem `json:"results"`
}

type listingResponse struct {
    Page         int `json:"page"`
    TotalPages   int `json:"total_pages"`
    TotalResults int `json:"total_results"`
    Results      []struct {
        ID            int64   `json:"id"`
        Title         string  `json:"title"`
        Name          string  `json:"name"`
        OriginalTitle string  `json:"original_title"`
        OriginalName  string  `json:"original_name"`
        Overview      string  `json:"overview"`
        PosterPath    string  `json:"poster_path"`
        BackdropPath  string  `json:"backdrop_path"`
        VoteAverage   float64 `json:"vote_average"`
        ReleaseDate   string  `json:"release_date"`
        FirstAirDate  string  `json:"first_air_date"`
        GenreIDs      []int64 `json:"genre_ids"`
        MediaType     string  `json:"media_type"`
    } `json:"results"`
}

// Search queries the catalog.  kind is "movie", "series" or "any";
// "any" uses the provider's multi search and drops non-media results
// (people).  Results are returned in the provider's relevance order.
func (c *Client) Search(ctx context.Context, query, kind string, page int) (*SearchResult, error) {
    var path string
    switch kind {
    case "movie":
        path = "/search/movie"
    case "series":
        path = "/search/tv"
    default:
        path = "/search/multi"
    }
    if page < 1 {
        page = 1
    }
    params := url.Values{
        "query":    {query},
        "page":     {strconv.Itoa(page)},
        "language": {c.locale},
    }
    return c.listing(ctx, c.baseURL+path, params, kind)
}

// Trending returns this week's trending items.  kind is "movie",
// "series" or "any".
func (c *Client) Trending(ctx context.Context, kind string) (*SearchResult, error) {
    seg := "all"
    switch kind {
    case "movie":
        seg = "movie"
    case "series":
        seg = "tv"
    }
    params := url.Values{"language": {c.locale}}
    return c.listing(ctx, c.baseURL+"/trending/"+seg+"/week", params, kind)
}

// listing performs a listing request in the configured locale plus a
// second en-US pass, then merges the English titles in as alternate
// candidates before applying the title policy.  The second pass is
// best-effort.
func (c *Client) listing(ctx context.Context, endpoint string, params url.Values, kind string) (*SearchResult, error) {
    var localized listingResponse
    if err := c.doGET(ctx, endpoint, params, &localized); err != nil {
        return nil, err
    }

    english := map[int64]string{}
    if c.locale != englishLocale {
        enParams := url.Values{}
        for k, v := range params {
            enParams[k] = v
        }
        enParams.Set("language", englishLocale)
        var enResp listingResponse
        if err := c.doGET(ctx, endpoint, enParams, &enResp); err != nil {
            log.Printf("catalog: english listing pass failed: %v", err)
        } else {
            for _, r := range enResp.Results {
                if t := firstNonEmpty(r.Title, r.Name); t != "" {
                    english[r.ID] = t
                }
            }
        }
    }

    out := &SearchResult{
        Page:         localized.Page,
        TotalPages:   localized.TotalPages,
        TotalResults: localized.TotalResults,
        Results:      make([]SearchItem, 0, len(localized.Results)),
    }
    for _, r := range localized.Results {
        mt, ok := resultMediaType(kind, r.MediaType)
        if !ok {
            continue
        }
        localTitle := pickName(mt, r.Title, r.Name)
        origTitle := pickName(mt, r.OriginalTitle, r.OriginalName)
        out.Results = append(out.Results, SearchItem{
            Ref:          model.MediaRef{TMDBID: r.ID, MediaType: mt},
            Title:        SelectDisplayTitle(localTitle, origTitle, english[r.ID]),
            Overview:     r.Overview,
            PosterPath:   r.PosterPath,
            BackdropPath: r.BackdropPath,
            VoteAverage:  r.VoteAverage,
            ReleaseDate:  firstNonEmpty(r.ReleaseDate, r.FirstAirDate),
            GenreIDs:     r.GenreIDs,
        })
    }
    return out, nil
}

// resultMediaType resolves the media type of a listing row.  Explicit
// search kinds fix the type; multi results carry their own media_type
// and anything that is not a movie or tv row is skipped.
func resultMediaType(kind, rowType string) (model.MediaType, bool) {
    switch kind {
    case "movie":
        return model.MediaMovie, true
    case "series":
        return model.MediaSeries, true
    }
    switch rowType {
    case "movie":
        return model.MediaMovie, true
    case "tv":
        return model.MediaSeries, true
    }
    return "", false
}

// doGET performs one API request with a bounded retry for transient
// failures.  4xx responses other than 429 are terminal.
func (c *Client) doGET(ctx context.Context, endpoint string, params url.Values, v any) error {
    if params == nil {
        params = url.Values{}
    }
    params.Set("api_key", c.apiKey)
    full := endpoint + "?" + params.Encode()

    var lastErr error
    backoff := 300 * time.Millisecond
    for attempt := 0; attempt < 3; attempt++ {
        if attempt > 0 {
            select {
            case <-ctx.Done():
                return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
            case <-time.After(backoff):
            }
            backoff *= 2
        }

        req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
        if err != nil {
            return err
        }
        resp, err := c.httpc.Do(req)
        if err != nil {
            lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
            continue
        }

        switch {
        case resp.StatusCode == http.StatusNotFound:
            resp.Body.Close()
            return ErrNotFound
        case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
            resp.Body.Close()
            lastErr = fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
            continue
        case resp.StatusCode >= 400:
            resp.Body.Close()
            return fmt.Errorf("catalog: request failed: %s", resp.Status)
        }

        err = json.NewDecoder(resp.Body).Decode(v)
        resp.Body.Close()
        if err != nil {
            return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
        }
        return nil
    }
    return lastErr
}

func pickName(mt model.MediaType, movieTitle, seriesName string) string {
    if mt == model.MediaSeries {
        return seriesName
    }
    return movieTitle
}

func firstNonEmpty(a, b string) string {
    if a != "" {
        return a
    }
    return b
}
