package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"socialapp/internal/db"
	"socialapp/internal/media"
	"socialapp/internal/models"
	"socialapp/internal/repositories"
)

// clock hands out strictly increasing timestamps so ordering is deterministic.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeUserRepo struct {
	mu    sync.Mutex
	clock *clock
	byID  map[string]*models.User
}

func newFakeUserRepo(c *clock) *fakeUserRepo {
	return &fakeUserRepo{clock: c, byID: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = r.clock.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.User
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			cp := *u
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeUserRepo) ListRecent(_ context.Context, excludeID string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.User
	for _, u := range r.byID {
		if u.ID != excludeID {
			cp := *u
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *fakeUserRepo) SetOTP(_ context.Context, userID, otpHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.OTPHash = &otpHash
	u.OTPExpiresAt = &expiresAt
	u.ResetPasswordSession = false
	return nil
}

func (r *fakeUserRepo) ConsumeOTP(_ context.Context, userID, otpHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok || u.OTPHash == nil || *u.OTPHash != otpHash {
		return repositories.ErrNotFound
	}
	u.OTPHash, u.OTPExpiresAt = nil, nil
	u.ResetPasswordSession = true
	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok || !u.ResetPasswordSession {
		return repositories.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordSession = false
	return nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakePostRepo struct {
	mu    sync.Mutex
	clock *clock
	byID  map[string]*models.Post
	err   error
}

func newFakePostRepo(c *clock) *fakePostRepo {
	return &fakePostRepo{clock: c, byID: map[string]*models.Post{}}
}

func (r *fakePostRepo) WithTx(db.DBTX) repositories.PostRepository { return r }

func (r *fakePostRepo) Store(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.CommentIDs == nil {
		p.CommentIDs = []string{}
	}
	p.CreatedAt = r.clock.tick()
	p.UpdatedAt = p.CreatedAt
	r.byID[p.ID] = clonePost(p)
	return nil
}

func (r *fakePostRepo) FindByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *fakePostRepo) FindAll(_ context.Context, filter models.PostFilter) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var res []*models.Post
	for _, p := range r.byID {
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		res = append(res, clonePost(p))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *fakePostRepo) Update(_ context.Context, p *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[p.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Content, stored.ImageURL, stored.ImageID = p.Content, p.ImageURL, p.ImageID
	stored.UpdatedAt = r.clock.tick()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakePostRepo) Delete(_ context.Context, id, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != ownerID {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

func (r *fakePostRepo) ToggleLike(_ context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

func (r *fakePostRepo) AppendComment(_ context.Context, postID, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.CommentIDs = append(p.CommentIDs, commentID)
	return nil
}

func (r *fakePostRepo) likes(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.byID[id].Likes...)
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	cp.CommentIDs = append([]string{}, p.CommentIDs...)
	return &cp
}

type fakeCommentRepo struct {
	mu    sync.Mutex
	clock *clock
	posts *fakePostRepo
	byID  map[string]*models.Comment
}

func newFakeCommentRepo(c *clock, posts *fakePostRepo) *fakeCommentRepo {
	return &fakeCommentRepo{clock: c, posts: posts, byID: map[string]*models.Comment{}}
}

func (r *fakeCommentRepo) WithTx(db.DBTX) repositories.CommentRepository { return r }

func (r *fakeCommentRepo) Store(ctx context.Context, c *models.Comment) error {
	if _, err := r.posts.FindByID(ctx, c.PostID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}
	c.CreatedAt = r.clock.tick()
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) AppendReply(_ context.Context, commentID string, reply models.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[commentID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Replies = append(c.Replies, reply)
	return nil
}

func (r *fakeCommentRepo) FindByIDs(_ context.Context, ids []string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.Comment
	for _, id := range ids {
		if c, ok := r.byID[id]; ok {
			cp := *c
			cp.Replies = append([]models.Reply{}, c.Replies...)
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeCommentRepo) FindByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.Comment
	for _, c := range r.byID {
		if c.PostID == postID {
			cp := *c
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeCommentRepo) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.byID {
		if c.PostID == postID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeMedia struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
	authErr   error
	onDelete  func(ctx context.Context)
}

func (m *fakeMedia) UploadAuth(context.Context) (*media.UploadAuth, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	return &media.UploadAuth{Token: "tok", Expire: 1, Signature: "sig"}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onDelete != nil {
		m.onDelete(ctx)
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

// fakeTx runs fn without a real transaction.
type fakeTx struct{ calls int }

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	f.calls++
	return fn(ctx, nil)
}

type fakeEmail struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (f *fakeEmail) SendPasswordResetOTP(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.codes == nil {
		f.codes = map[string]string{}
	}
	f.codes[email] = code
	return nil
}

func (f *fakeEmail) last(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[email]
}

var errBoom = errors.New("boom")

func newTestAuth() AuthService {
	return NewAuthService("test-secret", time.Hour, bcrypt.MinCost)
}

// env bundles every service over shared fakes.
type env struct {
	clock    *clock
	users    *fakeUserRepo
	posts    *fakePostRepo
	comments *fakeCommentRepo
	media    *fakeMedia
	tx       *fakeTx
	email    *fakeEmail
	auth     AuthService

	userSvc    UserService
	resetSvc   *passwordResetService
	postSvc    PostService
	commentSvc CommentService
}

func newEnv() *env {
	c := newClock()
	e := &env{
		clock: c,
		users: newFakeUserRepo(c),
		posts: newFakePostRepo(c),
		media: &fakeMedia{},
		tx:    &fakeTx{},
		email: &fakeEmail{},
		auth:  newTestAuth(),
	}
	e.comments = newFakeCommentRepo(c, e.posts)
	e.userSvc = NewUserService(e.users, e.auth)
	e.resetSvc = NewPasswordResetService(e.users, e.email, e.auth).(*passwordResetService)
	e.postSvc = NewPostService(e.posts, e.comments, e.users, e.media, e.tx)
	e.commentSvc = NewCommentService(e.comments, e.posts, e.tx)
	return e
}

func (e *env) register(name, email string) models.PublicUser {
	s, err := e.userSvc.Register(context.Background(), models.RegisterRequest{Name: name, Email: email, Password: "pw123"})
	if err != nil {
		panic(err)
	}
	return s.User
}
