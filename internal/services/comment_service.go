package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"socialapp/internal/db"
	"socialapp/internal/models"
	"socialapp/internal/repositories"
)

type CommentService interface {
	Create(ctx context.Context, authorID string, req models.CreateCommentRequest) (*models.Comment, error)
	Reply(ctx context.Context, authorID string, req models.CreateReplyRequest) error
}

type commentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	tx       db.TxRunner
}

func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, tx db.TxRunner) CommentService {
	return &commentService{comments: comments, posts: posts, tx: tx}
}

// Create stores the comment and appends it to the post's comment list atomically.
func (s *commentService) Create(ctx context.Context, authorID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(req.Post) == "" || strings.TrimSpace(req.Text) == "" {
		return nil, validationError("Post and text are required")
	}
	postID, err := parseID(req.Post, "post")
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{UserID: authorID, PostID: postID, Text: req.Text}
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := s.comments.WithTx(tx).Store(ctx, comment); err != nil {
			return err
		}
		return s.posts.WithTx(tx).AppendComment(ctx, postID, comment.ID)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundError("post not found")
		}
		return nil, internalError(err)
	}
	log.Printf("[comment][create] commentID=%s postID=%s userID=%s", comment.ID, postID, authorID)
	return comment, nil
}

func (s *commentService) Reply(ctx context.Context, authorID string, req models.CreateReplyRequest) error {
	if strings.TrimSpace(req.CommentID) == "" || strings.TrimSpace(req.Text) == "" {
		return validationError("commentId and text are required")
	}
	commentID, err := parseID(req.CommentID, "commentId")
	if err != nil {
		return err
	}

	if err := s.comments.AppendReply(ctx, commentID, models.Reply{UserID: authorID, Text: req.Text}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFoundError("comment not found")
		}
		return internalError(err)
	}
	return nil
}
