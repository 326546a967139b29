package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialapp/internal/models"
	"socialapp/internal/services"
)

type CommentHandler struct {
	comments services.CommentService
}

func NewCommentHandler(comments services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// @Summary      Comment on a post
// @Tags         Post
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreateCommentRequest  true  "Comment"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Security     CookieAuth
// @Router       /post/create-comment [post]
func (h *CommentHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreateCommentRequest
	if !bindJSON(c, &req, "Post and text are required") {
		return
	}
	if _, err := h.comments.Create(c.Request.Context(), id.ID, req); err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "comment created successfully", nil)
}

// @Summary      Reply to a comment
// @Tags         Post
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreateReplyRequest  true  "Reply"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Security     CookieAuth
// @Router       /post/create-comment-reply [post]
func (h *CommentHandler) Reply(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreateReplyRequest
	if !bindJSON(c, &req, "commentId and text are required") {
		return
	}
	if err := h.comments.Reply(c.Request.Context(), id.ID, req); err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "reply created successfully", nil)
}
