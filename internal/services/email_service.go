package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AWSSESMailService sends account mails through AWS SES.
type AWSSESMailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESMailService creates a new AWS SES mail service
func NewAWSSESMailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESMailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESMailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendVerificationMail sends the account activation link.
func (s *AWSSESMailService) SendVerificationMail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)

	textBody := fmt.Sprintf(`Verify Your Email Address

Welcome! Thank you for creating an account. To complete your registration, please verify your email address by clicking the link below:

%s

This link will expire shortly. If you didn't sign up for this account, you can ignore this email and the account will not be activated.

This is an automated message. Please do not reply to this email.
`, link)

	return s.send(ctx, email, "Verify your email address", textBody)
}

// SendPasswordResetMail sends the password reset link.
func (s *AWSSESMailService) SendPasswordResetMail(ctx context.Context, email, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)

	textBody := fmt.Sprintf(`Reset Your Password

We received a request to reset the password for your account. Click the link below to choose a new password:

%s

This link will expire shortly and can be used only once. If you didn't request a password reset, you can ignore this email. Your password will not change.

This is an automated message. Please do not reply to this email.
`, link)

	return s.send(ctx, email, "Reset your password", textBody)
}

func (s *AWSSESMailService) send(ctx context.Context, email, subject, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("mail sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
