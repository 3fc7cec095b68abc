package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

// ListRepo provides CRUD operations for custom lists and their item
// snapshots. A list together with its item_count counter is treated
// as a single document: every item mutation updates both inside one
// transaction so the count never diverges from the rows in a
// committed state. Cross-list consistency is the coordinator's job,
// not the repository's.
type ListRepo struct {
    db *sql.DB
}

// NewListRepo returns a new ListRepo bound to the given database.
func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{db: db} }

// Create inserts an empty custom list and returns its id. The name
// is expected to be validated already.
func (r *ListRepo) Create(ctx context.Context, userID uint64, name, emoji, color string) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO custom_lists (user_id, name, emoji, color, item_count) VALUES (?,?,?,?,0)",
        userID, name, emoji, color)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// ownedList loads the list header row and enforces ownership. It
// returns ErrListNotFound for a missing id and ErrForbidden when the
// list belongs to another user.
func (r *ListRepo) ownedList(ctx context.Context, q interface {
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, userID, listID uint64) (*model.CustomList, error) {
    var l model.CustomList
    err := q.QueryRowContext(ctx,
        "SELECT id, user_id, name, emoji, color, item_count, created_at, updated_at FROM custom_lists WHERE id=?",
        listID).Scan(&l.ID, &l.UserID, &l.Name, &l.Emoji, &l.Color, &l.ItemCount, &l.CreatedAt, &l.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrListNotFound
    }
    if err != nil {
        return nil, err
    }
    if l.UserID != userID {
        return nil, ErrForbidden
    }
    return &l, nil
}

// GetByID returns a list with its items in insertion order.
func (r *ListRepo) GetByID(ctx context.Context, userID, listID uint64) (*model.CustomList, error) {
    l, err := r.ownedList(ctx, r.db, userID, listID)
    if err != nil {
        return nil, err
    }
    rows, err := r.db.QueryContext(ctx,
        "SELECT tmdb_id, media_type, title, poster_path, added_at FROM list_items WHERE list_id=? ORDER BY position ASC, id ASC",
        listID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    l.Items = make([]model.ListItem, 0, l.ItemCount)
    for rows.Next() {
        var (
            it        model.ListItem
            mediaType string
        )
        if err := rows.Scan(&it.Ref.TMDBID, &mediaType, &it.Title, &it.PosterPath, &it.AddedAt); err != nil {
            return nil, err
        }
        it.Ref.MediaType = model.MediaType(mediaType)
        l.Items = append(l.Items, it)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return l, nil
}

// ListByUser returns the user's lists (headers only, no items),
// newest first.
func (r *ListRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CustomList, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT id, user_id, name, emoji, color, item_count, created_at, updated_at FROM custom_lists WHERE user_id=? ORDER BY created_at DESC, id DESC",
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lists := make([]model.CustomList, 0)
    for rows.Next() {
        var l model.CustomList
        if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Emoji, &l.Color, &l.ItemCount, &l.CreatedAt, &l.UpdatedAt); err != nil {
            return nil, err
        }
        lists = append(lists, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return lists, nil
}

// UpdateMeta changes a list's display properties. Nil fields stay
// untouched.
func (r *ListRepo) UpdateMeta(ctx context.Context, userID, listID uint64, name, emoji, color *string) error {
    if _, err := r.ownedList(ctx, r.db, userID, listID); err != nil {
        return err
    }
    sets := make([]string, 0, 4)
    args := make([]any, 0, 4)
    if name != nil {
        sets = append(sets, "name=?")
        args = append(args, *name)
    }
    if emoji != nil {
        sets = append(sets, "emoji=?")
        args = append(args, *emoji)
    }
    if color != nil {
        sets = append(sets, "color=?")
        args = append(args, *color)
    }
    if len(sets) == 0 {
        return nil
    }
    sets = append(sets, "updated_at=NOW()")
    args = append(args, listID)
    _, err := r.db.ExecContext(ctx,
        "UPDATE custom_lists SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
    return err
}

// Delete removes a list and all of its item snapshots. Primary
// entries referencing the same items are untouched; the two entity
// kinds are independently destructible.
func (r *ListRepo) Delete(ctx context.Context, userID, listID uint64) error {
    if _, err := r.ownedList(ctx, r.db, userID, listID); err != nil {
        return err
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()
    if _, err := tx.ExecContext(ctx, "DELETE FROM list_items WHERE list_id=?", listID); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, "DELETE FROM custom_lists WHERE id=?", listID); err != nil {
        return err
    }
    return tx.Commit()
}

// AppendItem adds a snapshot to the end of a list and increments
// item_count, both in one transaction. The unique key on (list_id,
// tmdb_id, media_type) turns a duplicate into ErrDuplicateInList
// without any write taking effect.
func (r *ListRepo) AppendItem(ctx context.Context, userID, listID uint64, it model.ListItem) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    if _, err := r.ownedList(ctx, tx, userID, listID); err != nil {
        return err
    }

    addedAt := it.AddedAt
    if addedAt.IsZero() {
        addedAt = time.Now().UTC()
    }
    // MySQL rejects an INSERT whose subquery reads the insert-target
    // table (error 1093), so the next position is read separately
    // inside the same transaction.
    var pos int64
    if err := tx.QueryRowContext(ctx,
        "SELECT COALESCE(MAX(position),0)+1 FROM list_items WHERE list_id=?", listID).Scan(&pos); err != nil {
        return err
    }
    _, err = tx.ExecContext(ctx,
        `INSERT INTO list_items (list_id, tmdb_id, media_type, title, poster_path, position, added_at)
         VALUES (?,?,?,?,?,?,?)`,
        listID, it.Ref.TMDBID, string(it.Ref.MediaType), it.Title, it.PosterPath, pos, addedAt)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateInList
        }
        return err
    }
    if _, err := tx.ExecContext(ctx,
        "UPDATE custom_lists SET item_count=item_count+1, updated_at=NOW() WHERE id=?", listID); err != nil {
        return err
    }
    return tx.Commit()
}

// RemoveItem deletes the snapshot matching ref and decrements
// item_count by exactly 1, even if duplicates were left behind by an
// earlier bug. ErrNotInList is returned when nothing matched and no
// write happens.
func (r *ListRepo) RemoveItem(ctx context.Context, userID, listID uint64, ref model.MediaRef) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    if _, err := r.ownedList(ctx, tx, userID, listID); err != nil {
        return err
    }

    res, err := tx.ExecContext(ctx,
        "DELETE FROM list_items WHERE list_id=? AND tmdb_id=? AND media_type=? LIMIT 1",
        listID, ref.TMDBID, string(ref.MediaType))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotInList
    }
    if _, err := tx.ExecContext(ctx,
        "UPDATE custom_lists SET item_count=GREATEST(item_count-1,0), updated_at=NOW() WHERE id=?", listID); err != nil {
        return err
    }
    return tx.Commit()
}
