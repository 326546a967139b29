package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"socialapp/internal/db"
	"socialapp/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListRecent(ctx context.Context, excludeID string, limit int) ([]*models.User, error)

	// password reset helpers
	SetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, userID, otpHash string) error
	ResetPassword(ctx context.Context, userID, passwordHash string) error
}

type userRepository struct {
	db db.DBTX
}

func NewUserRepository(conn db.DBTX) UserRepository {
	return &userRepository{db: conn}
}

const userColumns = `id, name, email, password_hash, otp, otp_expires_at, reset_password_session, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q, user.ID, user.Name, user.Email, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound("get user", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return nil, notFound("get user by email", err)
	}
	return u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListRecent(ctx context.Context, excludeID string, limit int) ([]*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// SetOTP replaces any pending code and closes an open reset session.
func (r *userRepository) SetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET otp = $2, otp_expires_at = $3, reset_password_session = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	return execOne(ctx, r.db, "set otp", q, userID, otpHash, expiresAt)
}

// ConsumeOTP clears the code it was checked against and opens the reset session.
// It matches on the hash so a concurrent verify of the same code cannot win twice.
func (r *userRepository) ConsumeOTP(ctx context.Context, userID, otpHash string) error {
	const q = `
		UPDATE users
		SET otp = NULL, otp_expires_at = NULL, reset_password_session = TRUE, updated_at = NOW()
		WHERE id = $1 AND otp = $2
	`
	return execOne(ctx, r.db, "consume otp", q, userID, otpHash)
}

// ResetPassword only succeeds while a reset session is open, and closes it.
func (r *userRepository) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2, reset_password_session = FALSE, updated_at = NOW()
		WHERE id = $1 AND reset_password_session
	`
	return execOne(ctx, r.db, "reset password", q, userID, passwordHash)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		otp       sql.NullString
		otpExpiry sql.NullTime
	)
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&otp, &otpExpiry, &u.ResetPasswordSession,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if otp.Valid {
		s := otp.String
		u.OTPHash = &s
	}
	if otpExpiry.Valid {
		t := otpExpiry.Time
		u.OTPExpiresAt = &t
	}
	return u, nil
}

func scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var res []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// execOne runs an UPDATE/DELETE that must touch exactly one row.
func execOne(ctx context.Context, conn db.DBTX, what, q string, args ...any) error {
	res, err := conn.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
