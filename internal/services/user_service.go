package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"socialapp/internal/models"
	"socialapp/internal/repositories"
)

const recommendedUsersLimit = 10

// Session is what a successful register or login hands back to the transport layer.
type Session struct {
	User  models.PublicUser
	Token string
}

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*Session, error)
	Login(ctx context.Context, req models.LoginRequest) (*Session, error)
	RecommendUsers(ctx context.Context, currentUserID string) ([]models.PublicUser, error)
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, auth AuthService) UserService {
	return &userService{repo: repo, auth: auth}
}

func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*Session, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, validationError("Insufficient data received")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, conflictError("Email is already registered. Please login")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError(err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, internalError(err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, conflictError("Email is already registered. Please login")
		}
		return nil, internalError(err)
	}
	log.Printf("[auth][register] created userID=%s", user.ID)

	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, req models.LoginRequest) (*Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationError("Email and password are required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, internalError(err)
	}

	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		log.Printf("[auth][login] password mismatch userID=%s", user.ID)
		return nil, authError("Invalid credentials")
	}
	return s.issue(user)
}

func (s *userService) RecommendUsers(ctx context.Context, currentUserID string) ([]models.PublicUser, error) {
	users, err := s.repo.ListRecent(ctx, currentUserID, recommendedUsersLimit)
	if err != nil {
		return nil, internalError(err)
	}
	res := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		res = append(res, u.Public())
	}
	return res, nil
}

func (s *userService) issue(user *models.User) (*Session, error) {
	pub := user.Public()
	token, err := s.auth.GenerateToken(models.Identity{ID: pub.ID, Name: pub.Name, Email: pub.Email})
	if err != nil {
		return nil, internalError(err)
	}
	return &Session{User: pub, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseID rejects ids that are not UUIDs before they reach the database.
func parseID(id, what string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", validationError(what + " is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", validationError("invalid " + what)
	}
	return id, nil
}
