package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"socialapp/internal/db"
	"socialapp/internal/models"
)

type CommentRepository interface {
	Store(ctx context.Context, comment *models.Comment) error
	AppendReply(ctx context.Context, commentID string, reply models.Reply) error
	FindByIDs(ctx context.Context, ids []string) ([]*models.Comment, error)
	FindByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)

	WithTx(tx db.DBTX) CommentRepository
}

type commentRepository struct {
	db db.DBTX
}

func NewCommentRepository(conn db.DBTX) CommentRepository {
	return &commentRepository{db: conn}
}

func (r *commentRepository) WithTx(tx db.DBTX) CommentRepository {
	return &commentRepository{db: tx}
}

const commentColumns = `id, user_id, post_id, text, replies, created_at`

func (r *commentRepository) Store(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.Replies == nil {
		comment.Replies = []models.Reply{}
	}
	const q = `
		INSERT INTO comments (id, user_id, post_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, q, comment.ID, comment.UserID, comment.PostID, comment.Text).
		Scan(&comment.CreatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("insert comment: post %s: %w", comment.PostID, ErrNotFound)
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) AppendReply(ctx context.Context, commentID string, reply models.Reply) error {
	const q = `
		UPDATE comments
		SET replies = replies || jsonb_build_array(jsonb_build_object('user', $2::text, 'text', $3::text))
		WHERE id = $1
	`
	return execOne(ctx, r.db, "append reply", q, commentID, reply.UserID, reply.Text)
}

func (r *commentRepository) FindByIDs(ctx context.Context, ids []string) ([]*models.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + commentColumns + ` FROM comments WHERE id = ANY($1::uuid[])`
	return r.query(ctx, q, pq.Array(ids))
}

func (r *commentRepository) FindByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	q := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 ORDER BY created_at`
	return r.query(ctx, q, postID)
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("delete comments: %w", err)
	}
	return res.RowsAffected()
}

func (r *commentRepository) query(ctx context.Context, q string, args ...any) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var res []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		var replies []byte
		if err := rows.Scan(&c.ID, &c.UserID, &c.PostID, &c.Text, &replies, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Replies = []models.Reply{}
		if len(replies) > 0 {
			if err := json.Unmarshal(replies, &c.Replies); err != nil {
				return nil, fmt.Errorf("decode replies of %s: %w", c.ID, err)
			}
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
