package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"socialapp/internal/db"
	"socialapp/internal/media"
	"socialapp/internal/models"
	"socialapp/internal/repositories"
)

// mediaDeleteTimeout bounds the media call made while Delete holds row locks.
const mediaDeleteTimeout = 5 * time.Second

type PostService interface {
	UploadAuth(ctx context.Context) (*media.UploadAuth, error)
	Create(ctx context.Context, authorID string, req models.CreatePostRequest) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.PostView, error)
	ListByUser(ctx context.Context, userID string) ([]models.PostView, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	Update(ctx context.Context, ownerID string, req models.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, postID, ownerID string) error
}

type postService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	media    media.Store
	tx       db.TxRunner
}

func NewPostService(
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	store media.Store,
	tx db.TxRunner,
) PostService {
	return &postService{posts: posts, comments: comments, users: users, media: store, tx: tx}
}

func (s *postService) UploadAuth(ctx context.Context) (*media.UploadAuth, error) {
	auth, err := s.media.UploadAuth(ctx)
	if err != nil {
		log.Printf("[post][upload-auth] provider error: %v", err)
		return nil, &Error{Kind: KindValidation, Message: "Failed to generate imagekit options", Err: err}
	}
	return auth, nil
}

func (s *postService) Create(ctx context.Context, authorID string, req models.CreatePostRequest) (*models.Post, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, validationError("Content is required")
	}
	post := &models.Post{
		UserID:   authorID,
		Content:  req.Content,
		ImageURL: strings.TrimSpace(req.ImageURL),
		ImageID:  strings.TrimSpace(req.ImageID),
	}
	if err := s.posts.Store(ctx, post); err != nil {
		return nil, internalError(err)
	}
	log.Printf("[post][create] postID=%s userID=%s media=%v", post.ID, authorID, post.HasMedia())
	return post, nil
}

func (s *postService) ListAll(ctx context.Context) ([]models.PostView, error) {
	return s.list(ctx, models.PostFilter{})
}

func (s *postService) ListByUser(ctx context.Context, userID string) ([]models.PostView, error) {
	return s.list(ctx, models.PostFilter{UserID: &userID})
}

func (s *postService) list(ctx context.Context, filter models.PostFilter) ([]models.PostView, error) {
	posts, err := s.posts.FindAll(ctx, filter)
	if err != nil {
		return nil, internalError(err)
	}
	views, err := s.resolve(ctx, posts)
	if err != nil {
		return nil, internalError(err)
	}
	return views, nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	postID, err := parseID(postID, "postId")
	if err != nil {
		return false, err
	}
	liked, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return false, postLookupError(err)
	}
	return liked, nil
}

// Update applies the media policy: deleteOldImage with a new url and id replaces the
// image, deleteOldImage with neither clears it, anything else leaves media alone.
func (s *postService) Update(ctx context.Context, ownerID string, req models.UpdatePostRequest) (*models.Post, error) {
	postID, err := parseID(req.PostID, "postId")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, validationError("Content cannot be empty in a post")
	}

	post, err := s.owned(ctx, postID, ownerID)
	if err != nil {
		return nil, err
	}

	newURL, newID := strings.TrimSpace(req.ImageURL), strings.TrimSpace(req.ImageID)
	if req.DeleteOldImage {
		replace := newURL != "" && newID != ""
		drop := newURL == "" && newID == ""
		if replace || drop {
			if post.HasMedia() {
				if err := s.media.Delete(ctx, post.ImageID); err != nil {
					return nil, internalError(err)
				}
			}
			post.ImageURL, post.ImageID = newURL, newID
		}
	}
	post.Content = req.Content

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, postLookupError(err)
	}
	return post, nil
}

// Delete removes the post's comments and the post, then its image, in one
// transaction. Rows are committed only after the image is gone, so an image
// delete failure rolls them back. The image call runs last under a short deadline
// to keep the locks brief.
func (s *postService) Delete(ctx context.Context, postID, ownerID string) error {
	postID, err := parseID(postID, "postId")
	if err != nil {
		return err
	}
	post, err := s.owned(ctx, postID, ownerID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		n, err := s.comments.WithTx(tx).DeleteByPost(ctx, post.ID)
		if err != nil {
			return err
		}
		deleted, err := s.posts.WithTx(tx).Delete(ctx, post.ID, ownerID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return notFoundError("post not found")
		}
		if post.HasMedia() {
			mctx, cancel := context.WithTimeout(ctx, mediaDeleteTimeout)
			defer cancel()
			if err := s.media.Delete(mctx, post.ImageID); err != nil {
				return err
			}
		}
		log.Printf("[post][delete] postID=%s comments=%d", post.ID, n)
		return nil
	})
	if err != nil {
		if KindOf(err) == KindNotFound {
			return err
		}
		return internalError(err)
	}
	return nil
}

// owned loads a post and hides it from anyone but its owner.
func (s *postService) owned(ctx context.Context, postID, ownerID string) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, postLookupError(err)
	}
	if post.UserID != ownerID {
		log.Printf("[post] userID=%s is not the owner of postID=%s", ownerID, postID)
		return nil, notFoundError("post not found")
	}
	return post, nil
}

// resolve replaces user and comment references with display data, using one
// comment query and one user query for the whole page.
func (s *postService) resolve(ctx context.Context, posts []*models.Post) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	userIDs := newIDSet()
	commentIDs := newIDSet()
	for _, p := range posts {
		userIDs.add(p.UserID)
		userIDs.add(p.Likes...)
		commentIDs.add(p.CommentIDs...)
	}

	comments, err := s.comments.FindByIDs(ctx, commentIDs.list())
	if err != nil {
		return nil, err
	}
	commentByID := make(map[string]*models.Comment, len(comments))
	for _, c := range comments {
		commentByID[c.ID] = c
		userIDs.add(c.UserID)
		for _, r := range c.Replies {
			userIDs.add(r.UserID)
		}
	}

	users, err := s.users.ListByIDs(ctx, userIDs.list())
	if err != nil {
		return nil, err
	}
	userByID := make(map[string]models.PublicUser, len(users))
	for _, u := range users {
		userByID[u.ID] = u.Public()
	}
	lookup := func(id string) models.PublicUser {
		if u, ok := userByID[id]; ok {
			return u
		}
		return models.PublicUser{ID: id}
	}

	for _, p := range posts {
		v := models.PostView{
			ID:        p.ID,
			User:      lookup(p.UserID),
			Content:   p.Content,
			ImageURL:  p.ImageURL,
			ImageID:   p.ImageID,
			Likes:     make([]models.PublicUser, 0, len(p.Likes)),
			Comments:  make([]models.CommentView, 0, len(p.CommentIDs)),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
		for _, id := range p.Likes {
			v.Likes = append(v.Likes, lookup(id))
		}
		for _, id := range p.CommentIDs {
			c, ok := commentByID[id]
			if !ok {
				continue
			}
			cv := models.CommentView{
				ID:        c.ID,
				User:      lookup(c.UserID),
				Post:      c.PostID,
				Text:      c.Text,
				Replies:   make([]models.ReplyView, 0, len(c.Replies)),
				CreatedAt: c.CreatedAt,
			}
			for _, r := range c.Replies {
				cv.Replies = append(cv.Replies, models.ReplyView{User: lookup(r.UserID), Text: r.Text})
			}
			v.Comments = append(v.Comments, cv)
		}
		views = append(views, v)
	}
	return views, nil
}

func postLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFoundError("post not found")
	}
	return internalError(err)
}

// idSet keeps first-seen order so queries are deterministic.
type idSet struct {
	seen  map[string]struct{}
	order []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{})}
}

func (s *idSet) add(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

func (s *idSet) list() []string { return s.order }
