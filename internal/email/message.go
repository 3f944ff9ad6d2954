package email

import (
	"errors"
	"strings"
)

// EmailMessage es el value object inmutable (destinatario, asunto, cuerpo).
// Se construye por intento de envío; nunca se persiste directamente.
type EmailMessage struct {
	recipientEmail string
	subject        string
	body           string
	cc             []string
	bcc            []string
}

var errEmptyField = errors.New("email: recipient, subject and body are required")

// NewMessage crea un EmailMessage validando que ningún campo esté vacío.
func NewMessage(recipientEmail, subject, body string) (EmailMessage, error) {
	if strings.TrimSpace(recipientEmail) == "" ||
		strings.TrimSpace(subject) == "" ||
		strings.TrimSpace(body) == "" {
		return EmailMessage{}, errEmptyField
	}
	return EmailMessage{recipientEmail: recipientEmail, subject: subject, body: body}, nil
}

// NewMessageWithCopies crea un EmailMessage con CC/BCC opcionales.
func NewMessageWithCopies(recipientEmail, subject, body string, cc, bcc []string) (EmailMessage, error) {
	m, err := NewMessage(recipientEmail, subject, body)
	if err != nil {
		return EmailMessage{}, err
	}
	m.cc = append([]string(nil), cc...)
	m.bcc = append([]string(nil), bcc...)
	return m, nil
}

// RecipientEmail retorna el destinatario.
func (m EmailMessage) RecipientEmail() string { return m.recipientEmail }

// Subject retorna el asunto.
func (m EmailMessage) Subject() string { return m.subject }

// Body retorna el cuerpo HTML.
func (m EmailMessage) Body() string { return m.body }

// CC retorna los destinatarios en copia.
func (m EmailMessage) CC() []string { return m.cc }

// BCC retorna los destinatarios en copia oculta.
func (m EmailMessage) BCC() []string { return m.bcc }
