package email

import (
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
)

// Sender es el transporte de bajo nivel: entrega un mensaje ya armado.
type Sender interface {
	Send(to string, subject string, htmlBody string, cc, bcc []string) error
}

// NoopSender loguea en vez de enviar. Para desarrollo local y tests
// donde no hay SMTP configurado.
type NoopSender struct{}

func (NoopSender) Send(to, subject, htmlBody string, cc, bcc []string) error {
	logger.Named("email").Info("noop send",
		logger.Recipient(to),
		logger.Subject(subject),
		logger.Int("body_bytes", len(htmlBody)),
	)
	return nil
}
