package identity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jurifinder/legal-vault/internal/core/domain"
	"github.com/jurifinder/legal-vault/pkg/logger"
)

// LogMailer writes outbound mail to the log instead of delivering it.
type LogMailer struct {
	from string
	log  zerolog.Logger
}

func NewLogMailer(from string, log zerolog.Logger) *LogMailer {
	return &LogMailer{from: from, log: logger.Component(log, "mailer")}
}

func (m *LogMailer) Send(_ context.Context, mail domain.OutboundMail) error {
	m.log.Info().
		Str("from", m.from).
		Str("to", mail.To).
		Str("kind", string(mail.Kind)).
		Str("link", mail.Link).
		Msg("mail sent")
	return nil
}
