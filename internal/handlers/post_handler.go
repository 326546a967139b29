package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialapp/internal/models"
	"socialapp/internal/services"
)

type PostHandler struct {
	posts services.PostService
}

func NewPostHandler(posts services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// @Summary      Direct upload parameters
// @Description  Signed parameters the browser uses to upload an image to the media host
// @Tags         Post
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  envelope
// @Security     CookieAuth
// @Router       /post/get-imagekit-options [get]
func (h *PostHandler) UploadOptions(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	auth, err := h.posts.UploadAuth(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "imagekit options generated", gin.H{"data": auth})
}

// @Summary      Create post
// @Tags         Post
// @Accept       json
// @Produce      json
// @Param        body  body      models.CreatePostRequest  true  "Post"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Security     CookieAuth
// @Router       /post/create-post [post]
func (h *PostHandler) Create(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.CreatePostRequest
	if !bindJSON(c, &req, "Content is required") {
		return
	}
	if _, err := h.posts.Create(c.Request.Context(), id.ID, req); err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "post created successfully", nil)
}

// @Summary      All posts
// @Description  Newest first, with authors, likes, comments and replies resolved
// @Tags         Post
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     CookieAuth
// @Router       /post/all-posts [get]
func (h *PostHandler) ListAll(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}
	posts, err := h.posts.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "all posts fetched successfully", gin.H{"posts": posts})
}

// @Summary      Own posts
// @Tags         Post
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     CookieAuth
// @Router       /post/user-posts [get]
func (h *PostHandler) ListMine(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	posts, err := h.posts.ListByUser(c.Request.Context(), id.ID)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "all user posts fetched successfully", gin.H{"posts": posts})
}

// @Summary      Toggle like
// @Tags         Post
// @Accept       json
// @Produce      json
// @Param        body  body      models.ToggleLikeRequest  true  "Post id"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  envelope
// @Security     CookieAuth
// @Router       /post/toggle-like [post]
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.ToggleLikeRequest
	if !bindJSON(c, &req, "postId is required") {
		return
	}
	liked, err := h.posts.ToggleLike(c.Request.Context(), req.PostID, id.ID)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "like on post toggled successfully", gin.H{"liked": liked})
}

// @Summary      Update own post
// @Tags         Post
// @Accept       json
// @Produce      json
// @Param        body  body      models.UpdatePostRequest  true  "Changes"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Security     CookieAuth
// @Router       /post/update-user-post [post]
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req models.UpdatePostRequest
	if !bindJSON(c, &req, "postId is required") {
		return
	}
	if _, err := h.posts.Update(c.Request.Context(), id.ID, req); err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "user post updated successfully", nil)
}

// @Summary      Delete own post
// @Description  Also deletes the post's comments and its image
// @Tags         Post
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  envelope
// @Failure      400     {object}  envelope
// @Security     CookieAuth
// @Router       /post/delete-user-post/{postId} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	postID := c.Param("postId")
	if err := h.posts.Delete(c.Request.Context(), postID, id.ID); err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "user post deleted successfully", nil)
}
