package service

import (
	"context"

	"users/internal/domain"
)

type EmailService interface {
	SendMail(ctx context.Context, msg domain.MailMessage) error
}
