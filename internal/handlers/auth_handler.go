package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/services"
)

type AuthHandler struct {
	users     services.UserService
	resets    services.PasswordResetService
	cookieTTL time.Duration
	secure    bool
}

// NewAuthHandler: production issues Secure + SameSite=None cookies so a frontend
// on another origin keeps the session; otherwise Lax.
func NewAuthHandler(users services.UserService, resets services.PasswordResetService, cookieTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{users: users, resets: resets, cookieTTL: cookieTTL, secure: production}
}

// @Summary      Register
// @Description  Creates an account and sets the session cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Account data"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "Insufficient data received") {
		return
	}
	session, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, http.StatusNotFound)
		return
	}
	h.setSessionCookie(c, session.Token)
	respondOK(c, "User created successfully", gin.H{"userData": session.User})
}

// @Summary      Login
// @Description  Checks credentials and sets the session cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      404   {object}  envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "Email and password are required") {
		return
	}
	session, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, http.StatusNotFound)
		return
	}
	h.setSessionCookie(c, session.Token)
	respondOK(c, "Logged in successfully", gin.H{"userData": session.User})
}

// @Summary      Send password reset OTP
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.SendOTPRequest  true  "Email"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      404   {object}  envelope
// @Router       /auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if !bindJSON(c, &req, "Email is required") {
		return
	}
	if err := h.resets.RequestOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, http.StatusNotFound)
		return
	}
	respondOK(c, "OTP sent to your email", nil)
}

// @Summary      Verify password reset OTP
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.VerifyOTPRequest  true  "Email and code"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Router       /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !bindJSON(c, &req, "Email and OTP are required") {
		return
	}
	if err := h.resets.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err, http.StatusNotFound)
		return
	}
	respondOK(c, "OTP verified. You can now reset your password", nil)
}

// @Summary      Reset password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.ResetPasswordRequest  true  "Email and new password"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Failure      401   {object}  envelope
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req, "Email and new password are required") {
		return
	}
	if err := h.resets.ResetPassword(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		respondError(c, err, http.StatusNotFound)
		return
	}
	respondOK(c, "Password has been reset successfully", nil)
}

// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  envelope
// @Security     CookieAuth
// @Router       /auth/get-user-data [get]
func (h *AuthHandler) GetUserData(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		respondFail(c, http.StatusNotFound, "User not found")
		return
	}
	respondOK(c, "User data fetched successfully", gin.H{"userData": id})
}

// @Summary      Logout
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  envelope
// @Security     CookieAuth
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.writeCookie(c, "", -1)
	respondOK(c, "Logged out successfully", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	h.writeCookie(c, token, int(h.cookieTTL/time.Second))
}

func (h *AuthHandler) writeCookie(c *gin.Context, value string, maxAge int) {
	if h.secure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(middleware.CookieName, value, maxAge, "/", "", h.secure, true)
}
