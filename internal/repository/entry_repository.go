package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strconv"
    "strings"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

// EntryRepo provides CRUD operations for primary tracking entries.
// One row exists per (user_id, tmdb_id, media_type); the entries
// table carries a unique key over those columns, so a duplicate
// insert surfaces as ErrAlreadyTracked. All timestamps are stored
// in UTC.
type EntryRepo struct {
    db *sql.DB
}

// NewEntryRepo returns a new EntryRepo bound to the given database.
func NewEntryRepo(db *sql.DB) *EntryRepo { return &EntryRepo{db: db} }

const entryColumns = `id, user_id, tmdb_id, media_type, title, poster_path, backdrop_path,
       vote_average, release_date, genre_ids, runtime, episode_count, season_count,
       status, user_rating, progress, notes, start_date, end_date,
       rewatch_count, favorite, created_at, updated_at`

// Create inserts a new entry and returns its generated id. The unique
// key on (user_id, tmdb_id, media_type) turns a second insert for the
// same pair into ErrAlreadyTracked.
func (r *EntryRepo) Create(ctx context.Context, e *model.Entry) (uint64, error) {
    genres, err := json.Marshal(e.GenreIDs)
    if err != nil {
        return 0, err
    }
    const q = `INSERT INTO entries
        (user_id, tmdb_id, media_type, title, poster_path, backdrop_path,
         vote_average, release_date, genre_ids, runtime, episode_count, season_count,
         status, user_rating, progress, notes, start_date, end_date, rewatch_count, favorite)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q,
        e.UserID, e.Ref.TMDBID, string(e.Ref.MediaType), e.Title, e.PosterPath, e.BackdropPath,
        e.VoteAverage, nullStr(e.ReleaseDate), string(genres), e.Runtime, e.EpisodeCount, e.SeasonCount,
        string(e.Status), e.UserRating, e.Progress, e.Notes, e.StartDate, e.EndDate,
        e.RewatchCount, e.Favorite)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrAlreadyTracked
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    e.ID = uint64(id)
    return e.ID, nil
}

func scanEntry(scan func(dest ...any) error) (*model.Entry, error) {
    var (
        e         model.Entry
        mediaType string
        status    string
        release   sql.NullString
        genres    sql.NullString
        rating    sql.NullFloat64
        runtime   sql.NullInt64
        episodes  sql.NullInt64
        seasons   sql.NullInt64
        startDate sql.NullTime
        endDate   sql.NullTime
    )
    err := scan(&e.ID, &e.UserID, &e.Ref.TMDBID, &mediaType, &e.Title, &e.PosterPath, &e.BackdropPath,
        &e.VoteAverage, &release, &genres, &runtime, &episodes, &seasons,
        &status, &rating, &e.Progress, &e.Notes, &startDate, &endDate,
        &e.RewatchCount, &e.Favorite, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    e.Ref.MediaType = model.MediaType(mediaType)
    e.Status = model.WatchStatus(status)
    if release.Valid {
        e.ReleaseDate = release.String
    }
    if genres.Valid && genres.String != "" {
        if err := json.Unmarshal([]byte(genres.String), &e.GenreIDs); err != nil {
            return nil, err
        }
    }
    if rating.Valid {
        v := rating.Float64
        e.UserRating = &v
    }
    if runtime.Valid {
        v := runtime.Int64
        e.Runtime = &v
    }
    if episodes.Valid {
        v := episodes.Int64
        e.EpisodeCount = &v
    }
    if seasons.Valid {
        v := seasons.Int64
        e.SeasonCount = &v
    }
    if startDate.Valid {
        t := startDate.Time
        e.StartDate = &t
    }
    if endDate.Valid {
        t := endDate.Time
        e.EndDate = &t
    }
    return &e, nil
}

// GetByRef returns the entry for (userID, ref) or ErrEntryNotFound.
func (r *EntryRepo) GetByRef(ctx context.Context, userID uint64, ref model.MediaRef) (*model.Entry, error) {
    const q = "SELECT " + entryColumns + ` FROM entries
        WHERE user_id=? AND tmdb_id=? AND media_type=? LIMIT 1`
    row := r.db.QueryRowContext(ctx, q, userID, ref.TMDBID, string(ref.MediaType))
    e, err := scanEntry(row.Scan)
    if err == sql.ErrNoRows {
        return nil, ErrEntryNotFound
    }
    return e, err
}

// Update applies a partial change set and refreshes updated_at. The
// change set is expected to be validated already; this method only
// translates it into SQL. ErrEntryNotFound is returned when the row
// does not exist.
func (r *EntryRepo) Update(ctx context.Context, userID uint64, ref model.MediaRef, ch model.EntryChanges) error {
    sets := make([]string, 0, 9)
    args := make([]any, 0, 10)
    if ch.Status != nil {
        sets = append(sets, "status=?")
        args = append(args, string(*ch.Status))
    }
    if ch.UserRating != nil {
        sets = append(sets, "user_rating=?")
        args = append(args, *ch.UserRating)
    } else if ch.ClearRating {
        sets = append(sets, "user_rating=NULL")
    }
    if ch.Progress != nil {
        sets = append(sets, "progress=?")
        args = append(args, *ch.Progress)
    }
    if ch.Notes != nil {
        sets = append(sets, "notes=?")
        args = append(args, *ch.Notes)
    }
    if ch.StartDate != nil {
        sets = append(sets, "start_date=?")
        args = append(args, *ch.StartDate)
    }
    if ch.EndDate != nil {
        sets = append(sets, "end_date=?")
        args = append(args, *ch.EndDate)
    }
    if ch.RewatchCount != nil {
        sets = append(sets, "rewatch_count=?")
        args = append(args, *ch.RewatchCount)
    }
    if ch.Favorite != nil {
        sets = append(sets, "favorite=?")
        args = append(args, *ch.Favorite)
    }
    if len(sets) == 0 {
        return nil
    }
    sets = append(sets, "updated_at=NOW()")
    args = append(args, userID, ref.TMDBID, string(ref.MediaType))
    res, err := r.db.ExecContext(ctx,
        "UPDATE entries SET "+strings.Join(sets, ", ")+" WHERE user_id=? AND tmdb_id=? AND media_type=?",
        args...)
    if err != nil {
        return err
    }
    // RowsAffected is zero both for a missing row and for a no-op
    // update, but updated_at=NOW() makes genuine no-ops rare enough
    // that a zero here is treated as missing.
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        if _, err := r.GetByRef(ctx, userID, ref); err != nil {
            return err
        }
    }
    return nil
}

// SetSeriesCounts backfills episode and season counts for a series
// entry. Used when a later catalog lookup learns values that were
// unknown at add time.
func (r *EntryRepo) SetSeriesCounts(ctx context.Context, userID uint64, ref model.MediaRef, episodes, seasons *int64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE entries SET episode_count=?, season_count=?, updated_at=NOW() WHERE user_id=? AND tmdb_id=? AND media_type=?",
        episodes, seasons, userID, ref.TMDBID, string(ref.MediaType))
    return err
}

// Delete removes the entry for (userID, ref). It reports whether a
// row was actually deleted so callers can stay idempotent.
func (r *EntryRepo) Delete(ctx context.Context, userID uint64, ref model.MediaRef) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        "DELETE FROM entries WHERE user_id=? AND tmdb_id=? AND media_type=?",
        userID, ref.TMDBID, string(ref.MediaType))
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ListByUser returns every entry owned by the user, newest first.
func (r *EntryRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Entry, error) {
    return r.ListFiltered(ctx, userID, EntryFilter{})
}

// EntryFilter narrows ListFiltered results. Zero values mean "no
// filter". Sort accepts created_desc (default), created_asc,
// title_asc, title_desc, rating_desc and updated_desc.
type EntryFilter struct {
    Status    model.WatchStatus
    MediaType model.MediaType
    GenreID   int64
    Year      int
    Favorite  bool
    Sort      string
}

// ListFiltered returns the user's entries matching the filter. Genre
// filtering happens in Go because genre ids live in a JSON column.
func (r *EntryRepo) ListFiltered(ctx context.Context, userID uint64, f EntryFilter) ([]model.Entry, error) {
    q := "SELECT " + entryColumns + " FROM entries WHERE user_id=?"
    args := []any{userID}
    if f.Status != "" {
        q += " AND status=?"
        args = append(args, string(f.Status))
    }
    if f.MediaType != "" {
        q += " AND media_type=?"
        args = append(args, string(f.MediaType))
    }
    if f.Year > 0 {
        q += " AND release_date LIKE ?"
        args = append(args, strconv.Itoa(f.Year)+"-%")
    }
    if f.Favorite {
        q += " AND favorite=1"
    }
    switch f.Sort {
    case "created_asc":
        q += " ORDER BY created_at ASC, id ASC"
    case "title_asc":
        q += " ORDER BY title ASC"
    case "title_desc":
        q += " ORDER BY title DESC"
    case "rating_desc":
        q += " ORDER BY user_rating DESC, created_at DESC"
    case "updated_desc":
        q += " ORDER BY updated_at DESC, id DESC"
    default:
        q += " ORDER BY created_at DESC, id DESC"
    }

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    entries := make([]model.Entry, 0)
    for rows.Next() {
        e, err := scanEntry(rows.Scan)
        if err != nil {
            return nil, err
        }
        if f.GenreID > 0 && !containsGenre(e.GenreIDs, f.GenreID) {
            continue
        }
        entries = append(entries, *e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

func containsGenre(ids []int64, want int64) bool {
    for _, id := range ids {
        if id == want {
            return true
        }
    }
    return false
}

func nullStr(s string) any {
    if s == "" {
        return nil
    }
    return s
}
