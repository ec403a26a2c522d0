// Package notify delivers password reset links to users through an outside
// channel. The API never sends mail itself.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/logger"
)

// PasswordReset is handed to the notification channel when a user asks to
// reset their password.
type PasswordReset struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier dispatches password reset links.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, msg PasswordReset) error
}

// LogNotifier writes reset requests to the log. It is used when no message
// broker is configured; the link itself is only logged outside production.
type LogNotifier struct {
	exposeLink bool
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(exposeLink bool) *LogNotifier {
	return &LogNotifier{exposeLink: exposeLink}
}

func (n *LogNotifier) NotifyPasswordReset(ctx context.Context, msg PasswordReset) error {
	fields := []zap.Field{
		zap.Int64("user_id", msg.UserID),
		zap.String("email", logger.MaskEmail(msg.Email)),
		zap.Time("expires_at", msg.ExpiresAt),
	}
	if n.exposeLink {
		fields = append(fields, zap.String("reset_url", msg.ResetURL))
	}
	logger.WithContext(ctx).Info("password reset requested", fields...)
	return nil
}
