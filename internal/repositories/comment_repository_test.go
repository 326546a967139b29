package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialapp/internal/models"
)

var commentRowColumns = []string{"id", "user_id", "post_id", "text", "replies", "created_at"}

func TestCommentRepository_Store(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments (id, user_id, post_id, text)`)).
		WithArgs(sqlmock.AnyArg(), "u-1", "p-1", "nice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	c := &models.Comment{UserID: "u-1", PostID: "p-1", Text: "nice"}
	require.NoError(t, repo.Store(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, []models.Reply{}, c.Replies)
}

func TestCommentRepository_Store_MissingPost(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments`)).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := repo.Store(context.Background(), &models.Comment{UserID: "u-1", PostID: "p-404", Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentRepository_AppendReply(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)

	mock.ExpectExec(`SET replies = replies \|\| jsonb_build_array`).
		WithArgs("c-1", "u-2", "thanks").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AppendReply(context.Background(), "c-1", models.Reply{UserID: "u-2", Text: "thanks"}))

	mock.ExpectExec(`SET replies = replies \|\| jsonb_build_array`).
		WithArgs("c-404", "u-2", "thanks").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.AppendReply(context.Background(), "c-404", models.Reply{UserID: "u-2", Text: "thanks"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentRepository_FindByIDs_DecodesReplies(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM comments WHERE id = ANY($1::uuid[])`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(commentRowColumns).
			AddRow("c-1", "u-1", "p-1", "first", []byte(`[{"user":"u-2","text":"reply"}]`), now).
			AddRow("c-2", "u-2", "p-1", "second", []byte(`[]`), now))

	comments, err := repo.FindByIDs(context.Background(), []string{"c-1", "c-2"})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, []models.Reply{{UserID: "u-2", Text: "reply"}}, comments[0].Replies)
	assert.Empty(t, comments[1].Replies)
}

func TestCommentRepository_FindByIDs_BadJSON(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)

	mock.ExpectQuery(`FROM comments WHERE id = ANY`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(commentRowColumns).
			AddRow("c-1", "u-1", "p-1", "first", []byte(`{not json`), time.Now()))

	_, err := repo.FindByIDs(context.Background(), []string{"c-1"})
	require.Error(t, err)
}

func TestCommentRepository_DeleteByPost(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewCommentRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM comments WHERE post_id = $1`)).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteByPost(context.Background(), "p-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
