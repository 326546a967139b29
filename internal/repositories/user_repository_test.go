package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialapp/internal/models"
)

var userRowColumns = []string{
	"id", "name", "email", "password_hash", "otp", "otp_expires_at",
	"reset_password_session", "created_at", "updated_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return conn, mock
}

func TestUserRepository_Create(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (id, name, email, password_hash)`)).
		WithArgs(sqlmock.AnyArg(), "Ana", "ana@x.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)
	now := time.Now()
	exp := now.Add(10 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-1", "Ana", "ana@x.com", "hash", "otp-hash", exp, false, now, now))

	u, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	require.NotNil(t, u.OTPHash)
	assert.Equal(t, "otp-hash", *u.OTPHash)
	require.NotNil(t, u.OTPExpiresAt)
	assert.True(t, exp.Equal(*u.OTPExpiresAt))
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByID_DBError(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WillReturnError(errors.New("db down"))

	_, err := repo.GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepository_ListRecent(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id <> $1 ORDER BY created_at DESC LIMIT $2`)).
		WithArgs("me", 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u-2", "Bo", "bo@x.com", "h", nil, nil, false, now, now).
			AddRow("u-3", "Cy", "cy@x.com", "h", nil, nil, false, now, now))

	users, err := repo.ListRecent(context.Background(), "me", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Nil(t, users[0].OTPHash)
	assert.Equal(t, "u-3", users[1].ID)
}

func TestUserRepository_ListByIDs_Empty(t *testing.T) {
	conn, _ := newMock(t)
	repo := NewUserRepository(conn)

	users, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_SetOTP(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)
	exp := time.Now().Add(10 * time.Minute)

	mock.ExpectExec(`UPDATE users\s+SET otp = \$2, otp_expires_at = \$3, reset_password_session = FALSE`).
		WithArgs("u-1", "otp-hash", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetOTP(context.Background(), "u-1", "otp-hash", exp))
}

func TestUserRepository_ConsumeOTP_AlreadyConsumed(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`WHERE id = \$1 AND otp = \$2`).
		WithArgs("u-1", "otp-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ConsumeOTP(context.Background(), "u-1", "otp-hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_ResetPassword_RequiresSession(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewUserRepository(conn)

	mock.ExpectExec(`WHERE id = \$1 AND reset_password_session`).
		WithArgs("u-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.ResetPassword(context.Background(), "u-1", "new-hash"))

	mock.ExpectExec(`WHERE id = \$1 AND reset_password_session`).
		WithArgs("u-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.ResetPassword(context.Background(), "u-1", "new-hash"), ErrNotFound)
}
