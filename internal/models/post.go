package models

import "time"

// Post is the stored shape: likes and comments hold user and comment ids.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"imageUrl"`
	ImageID    string    `json:"imageId"`
	Likes      []string  `json:"likes"`
	CommentIDs []string  `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (p *Post) HasMedia() bool {
	return p.ImageID != ""
}

// PostView is a post with every user and comment reference resolved.
type PostView struct {
	ID        string        `json:"id"`
	User      PublicUser    `json:"user"`
	Content   string        `json:"content"`
	ImageURL  string        `json:"imageUrl"`
	ImageID   string        `json:"imageId"`
	Likes     []PublicUser  `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PostFilter narrows a post listing.
type PostFilter struct {
	UserID *string
}

type CreatePostRequest struct {
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"imageUrl"`
	ImageID  string `json:"imageId"`
}

type UpdatePostRequest struct {
	PostID         string `json:"postId" binding:"required"`
	Content        string `json:"content"`
	ImageURL       string `json:"imageUrl"`
	ImageID        string `json:"imageId"`
	DeleteOldImage bool   `json:"deleteOldImage"`
}

type ToggleLikeRequest struct {
	PostID string `json:"postId" binding:"required"`
}
