package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialapp/internal/handlers"
	"socialapp/internal/middleware"
	"socialapp/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	basePath string,
	authService services.AuthService,
	limiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	userHandler *handlers.UserHandler,
) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})

	api := r.Group(basePath)
	requireSession := middleware.AuthMiddleware(authService)
	throttle := middleware.RateLimit(limiter)

	// ---- auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", throttle, authHandler.Login)
		auth.POST("/send-otp", throttle, authHandler.SendOTP)
		auth.POST("/verify-otp", throttle, authHandler.VerifyOTP)
		auth.POST("/reset-password", authHandler.ResetPassword)

		auth.GET("/get-user-data", requireSession, authHandler.GetUserData)
		auth.GET("/logout", requireSession, authHandler.Logout)
	}

	// ---- posts (session required)
	post := api.Group("/post", requireSession)
	{
		post.GET("/get-imagekit-options", postHandler.UploadOptions)
		post.GET("/all-posts", postHandler.ListAll)
		post.GET("/user-posts", postHandler.ListMine)
		post.GET("/recommended-users", userHandler.Recommended)

		post.POST("/create-post", postHandler.Create)
		post.POST("/create-comment", commentHandler.Create)
		post.POST("/create-comment-reply", commentHandler.Reply)
		post.POST("/toggle-like", postHandler.ToggleLike)
		post.POST("/update-user-post", postHandler.Update)
		post.DELETE("/delete-user-post/:postId", postHandler.Delete)
	}

	return r
}
