package models

import "time"

type Reply struct {
	UserID string `json:"user"`
	Text   string `json:"text"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	PostID    string    `json:"post"`
	Text      string    `json:"text"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReplyView struct {
	User PublicUser `json:"user"`
	Text string     `json:"text"`
}

type CommentView struct {
	ID        string      `json:"id"`
	User      PublicUser  `json:"user"`
	Post      string      `json:"post"`
	Text      string      `json:"text"`
	Replies   []ReplyView `json:"replies"`
	CreatedAt time.Time   `json:"createdAt"`
}

type CreateCommentRequest struct {
	Post string `json:"post" binding:"required"`
	Text string `json:"text" binding:"required"`
}

type CreateReplyRequest struct {
	CommentID string `json:"commentId" binding:"required"`
	Text      string `json:"text" binding:"required"`
}
