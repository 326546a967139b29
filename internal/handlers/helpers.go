package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/services"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, message string, payload gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// respondError maps a service error onto the envelope. Auth routes report a
// missing user as 404, post routes as 400, so the caller picks notFoundStatus.
func respondError(c *gin.Context, err error, notFoundStatus int) {
	var status int
	switch services.KindOf(err) {
	case services.KindValidation, services.KindConflict:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = notFoundStatus
	case services.KindAuth, services.KindExpired:
		status = http.StatusUnauthorized
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondFail(c, http.StatusInternalServerError, "Something went wrong")
		return
	}
	respondFail(c, status, messageOf(err))
}

func messageOf(err error) string {
	var e *services.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong"
}

// bindJSON reports a failed bind with message and returns false.
func bindJSON(c *gin.Context, dst any, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.Printf("[http] %s %s: bind json failed: %v", c.Request.Method, c.FullPath(), err)
		respondFail(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// identity returns the caller or writes the failure itself.
func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondFail(c, http.StatusBadRequest, "User not found")
		return models.Identity{}, false
	}
	return id, true
}
