package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"socialapp/internal/db"
	"socialapp/internal/models"
)

type PostRepository interface {
	Store(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindAll(ctx context.Context, filter models.PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id, ownerID string) (int64, error)

	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	AppendComment(ctx context.Context, postID, commentID string) error

	WithTx(tx db.DBTX) PostRepository
}

type postRepository struct {
	db db.DBTX
}

func NewPostRepository(conn db.DBTX) PostRepository {
	return &postRepository{db: conn}
}

func (r *postRepository) WithTx(tx db.DBTX) PostRepository {
	return &postRepository{db: tx}
}

const postColumns = `id, user_id, content, image_url, image_id, likes, comments, created_at, updated_at`

func (r *postRepository) Store(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.CommentIDs == nil {
		post.CommentIDs = []string{}
	}
	const q = `
		INSERT INTO posts (id, user_id, content, image_url, image_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q, post.ID, post.UserID, post.Content, post.ImageURL, post.ImageID).
		Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	p, err := scanPost(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound("get post", err)
	}
	return p, nil
}

func (r *postRepository) FindAll(ctx context.Context, filter models.PostFilter) ([]*models.Post, error) {
	baseQuery := `SELECT ` + postColumns + ` FROM posts`

	conditions := []string{}
	args := []any{}
	argID := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argID))
		args = append(args, *filter.UserID)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	const q = `
		UPDATE posts
		SET content = $2, image_url = $3, image_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, q, post.ID, post.Content, post.ImageURL, post.ImageID).Scan(&post.UpdatedAt)
	if err != nil {
		return notFound("update post", err)
	}
	return nil
}

// Delete is scoped to the owner; a foreign id pair deletes nothing.
func (r *postRepository) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete post: %w", err)
	}
	return res.RowsAffected()
}

// ToggleLike flips the user's membership in the like-set in one statement and
// reports whether the user likes the post afterwards.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	const q = `
		UPDATE posts
		SET likes = CASE
			WHEN $2::uuid = ANY(likes) THEN array_remove(likes, $2::uuid)
			ELSE array_append(likes, $2::uuid)
		END
		WHERE id = $1
		RETURNING $2::uuid = ANY(likes)
	`
	var liked bool
	if err := r.db.QueryRowContext(ctx, q, postID, userID).Scan(&liked); err != nil {
		return false, notFound("toggle like", err)
	}
	return liked, nil
}

func (r *postRepository) AppendComment(ctx context.Context, postID, commentID string) error {
	const q = `
		UPDATE posts
		SET comments = array_append(comments, $2::uuid)
		WHERE id = $1
	`
	return execOne(ctx, r.db, "append comment", q, postID, commentID)
}

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var likes, comments pq.StringArray
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.ImageID,
		&likes, &comments, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Likes = []string(likes)
	p.CommentIDs = []string(comments)
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.CommentIDs == nil {
		p.CommentIDs = []string{}
	}
	return p, nil
}
