package services

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendPasswordResetOTP(ctx context.Context, email, code string) error
}

// sender is the part of gomail.Dialer the service needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer sender
	from   string
	dryRun bool
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, dryRun bool) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
		dryRun: dryRun || smtpHost == "",
	}
}

func (s *emailService) SendPasswordResetOTP(ctx context.Context, email, code string) error {
	if s.dryRun {
		log.Printf("[email][dry-run] reset otp to=%s from=%s", email, s.from)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Reset Password OTP")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your OTP for resetting password is: %s. It expires in 10 minutes.", code))
	m.AddAlternative("text/html", fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>Your OTP for resetting password is: <strong>%s</strong></p>
		<p>It expires in 10 minutes. If you did not request this change, you can ignore this email.</p>
	`, code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}
