package services

import (
	"context"
	"errors"
	"log"
	"time"

	"socialapp/internal/repositories"
	"socialapp/internal/utils"
)

const otpTTL = 10 * time.Minute

type PasswordResetService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type passwordResetService struct {
	users  repositories.UserRepository
	emails EmailService
	auth   AuthService

	now     func() time.Time
	newCode func() (string, error)
}

func NewPasswordResetService(users repositories.UserRepository, emails EmailService, auth AuthService) PasswordResetService {
	return &passwordResetService{
		users:   users,
		emails:  emails,
		auth:    auth,
		now:     time.Now,
		newCode: utils.NewOTPCode,
	}
}

func (s *passwordResetService) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("Email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return userLookupError(err)
	}

	code, err := s.newCode()
	if err != nil {
		return internalError(err)
	}
	hash, err := s.auth.HashPassword(code)
	if err != nil {
		return internalError(err)
	}
	expires := s.now().Add(otpTTL)
	if err := s.users.SetOTP(ctx, user.ID, hash, expires); err != nil {
		return internalError(err)
	}

	if err := s.emails.SendPasswordResetOTP(ctx, user.Email, code); err != nil {
		log.Printf("[password-reset] failed to send otp to userID=%s: %v", user.ID, err)
		return internalError(err)
	}
	log.Printf("[password-reset] otp issued userID=%s expires=%s", user.ID, expires.Format(time.RFC3339))
	return nil
}

func (s *passwordResetService) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return validationError("Email and OTP are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return userLookupError(err)
	}

	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return validationError("No OTP found. Please request a new one")
	}
	if s.now().After(*user.OTPExpiresAt) {
		return expiredError("OTP has expired. Please request a new one")
	}
	if !s.auth.CheckPassword(*user.OTPHash, code) {
		return authError("Invalid OTP")
	}

	// a concurrent verify of the same code already consumed it
	if err := s.users.ConsumeOTP(ctx, user.ID, *user.OTPHash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return validationError("No OTP found. Please request a new one")
		}
		return internalError(err)
	}
	log.Printf("[password-reset] otp verified userID=%s", user.ID)
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || newPassword == "" {
		return validationError("Email and new password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return userLookupError(err)
	}
	if !user.ResetPasswordSession {
		return authError("Unauthorized. Please verify OTP first")
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return internalError(err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return authError("Unauthorized. Please verify OTP first")
		}
		return internalError(err)
	}
	log.Printf("[password-reset] password reset userID=%s", user.ID)
	return nil
}

func userLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFoundError("User not found")
	}
	return internalError(err)
}
