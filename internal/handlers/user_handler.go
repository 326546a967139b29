package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialapp/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// @Summary      Recommended users
// @Description  Up to ten of the newest accounts, excluding the caller
// @Tags         Post
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     CookieAuth
// @Router       /post/recommended-users [get]
func (h *UserHandler) Recommended(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	users, err := h.users.RecommendUsers(c.Request.Context(), id.ID)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}
	respondOK(c, "all recommended users fetched successfully", gin.H{"users": users})
}
