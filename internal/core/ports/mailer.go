package ports

import (
	"context"

	"github.com/jurifinder/legal-vault/internal/core/domain"
)

// Mailer delivers one transactional email.
type Mailer interface {
	Send(ctx context.Context, mail domain.OutboundMail) error
}

// MailQueue accepts mail for asynchronous delivery.
type MailQueue interface {
	Enqueue(mail domain.OutboundMail)
}
