package repository

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/mehmettevfikcetin/flixary/internal/model"
)

func newListRepoMock(t *testing.T) (*ListRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewListRepo(db), mock
}

func ownedListRows(userID, listID uint64, count int64) *sqlmock.Rows {
    now := time.Now()
    return sqlmock.NewRows([]string{"id", "user_id", "name", "emoji", "color", "item_count", "created_at", "updated_at"}).
        AddRow(listID, userID, "Favoriler", "", "", count, now, now)
}

// AppendItem must read the next position separately and not reference
// list_items inside the INSERT: MySQL rejects an INSERT whose value
// subquery selects from the insert-target table (error 1093).
func TestAppendItemStatements(t *testing.T) {
    repo, mock := newListRepoMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, user_id, .+ FROM custom_lists WHERE id=\?`).
        WithArgs(10).
        WillReturnRows(ownedListRows(1, 10, 2))
    mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\),0\)\+1 FROM list_items WHERE list_id=\?`).
        WithArgs(10).
        WillReturnRows(sqlmock.NewRows([]string{"pos"}).AddRow(3))
    mock.ExpectExec(`INSERT INTO list_items \(list_id, tmdb_id, media_type, title, poster_path, position, added_at\)`).
        WithArgs(10, int64(603), "movie", "The Matrix", "/matrix.jpg", int64(3), sqlmock.AnyArg()).
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectExec(`UPDATE custom_lists SET item_count=item_count\+1`).
        WithArgs(10).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    it := model.ListItem{
        Ref:        model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie},
        Title:      "The Matrix",
        PosterPath: "/matrix.jpg",
    }
    require.NoError(t, repo.AppendItem(context.Background(), 1, 10, it))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendItemDuplicateKey(t *testing.T) {
    repo, mock := newListRepoMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, user_id, .+ FROM custom_lists WHERE id=\?`).
        WithArgs(10).
        WillReturnRows(ownedListRows(1, 10, 1))
    mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\),0\)\+1 FROM list_items`).
        WithArgs(10).
        WillReturnRows(sqlmock.NewRows([]string{"pos"}).AddRow(2))
    mock.ExpectExec(`INSERT INTO list_items`).
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '10-603-movie' for key 'uq_list_item'"))
    mock.ExpectRollback()

    it := model.ListItem{Ref: model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie}, Title: "The Matrix"}
    err := repo.AppendItem(context.Background(), 1, 10, it)
    assert.ErrorIs(t, err, ErrDuplicateInList)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendItemOwnership(t *testing.T) {
    repo, mock := newListRepoMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, user_id, .+ FROM custom_lists WHERE id=\?`).
        WithArgs(10).
        WillReturnRows(ownedListRows(99, 10, 0))
    mock.ExpectRollback()

    it := model.ListItem{Ref: model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie}}
    err := repo.AppendItem(context.Background(), 1, 10, it)
    assert.ErrorIs(t, err, ErrForbidden)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItemStatements(t *testing.T) {
    repo, mock := newListRepoMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, user_id, .+ FROM custom_lists WHERE id=\?`).
        WithArgs(10).
        WillReturnRows(ownedListRows(1, 10, 1))
    // LIMIT 1 keeps the count decrement honest even if duplicates
    // were ever left behind.
    mock.ExpectExec(`DELETE FROM list_items WHERE list_id=\? AND tmdb_id=\? AND media_type=\? LIMIT 1`).
        WithArgs(10, int64(603), "movie").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`UPDATE custom_lists SET item_count=GREATEST\(item_count-1,0\)`).
        WithArgs(10).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    ref := model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie}
    require.NoError(t, repo.RemoveItem(context.Background(), 1, 10, ref))
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveItemNotInList(t *testing.T) {
    repo, mock := newListRepoMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT id, user_id, .+ FROM custom_lists WHERE id=\?`).
        WithArgs(10).
        WillReturnRows(ownedListRows(1, 10, 0))
    mock.ExpectExec(`DELETE FROM list_items`).
        WithArgs(10, int64(603), "movie").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    ref := model.MediaRef{TMDBID: 603, MediaType: model.MediaMovie}
    err := repo.RemoveItem(context.Background(), 1, 10, ref)
    assert.ErrorIs(t, err, ErrNotInList)
    assert.NoError(t, mock.ExpectationsWereMet())
}
