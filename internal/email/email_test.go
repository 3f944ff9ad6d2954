package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
)

func TestNewMessage_RejectsEmptyFields(t *testing.T) {
	cases := []struct {
		name            string
		to, subject, bd string
	}{
		{"sin destinatario", "", "s", "b"},
		{"sin asunto", "a@example.com", "", "b"},
		{"sin cuerpo", "a@example.com", "s", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewMessage(tc.to, tc.subject, tc.bd); err == nil {
				t.Fatal("se esperaba error")
			}
		})
	}

	msg, err := NewMessage("a@example.com", "s", "b")
	if err != nil {
		t.Fatalf("NewMessage err: %v", err)
	}
	if msg.RecipientEmail() != "a@example.com" || msg.Subject() != "s" || msg.Body() != "b" {
		t.Errorf("accessors: %q %q %q", msg.RecipientEmail(), msg.Subject(), msg.Body())
	}
}

func TestDiagnoseSMTP(t *testing.T) {
	cases := []struct {
		err       string
		code      string
		temporary bool
	}{
		{"dial tcp 10.0.0.1:587: connection refused", "dial", true},
		{"read tcp: i/o timeout", "timeout", true},
		{"x509: certificate signed by unknown authority", "tls", false},
		{"535 5.7.8 username and password not accepted", "auth", false},
		{"451 4.7.0 try again later", "rate_limited", true},
		{"550 5.1.1 user unknown", "invalid_recipient", false},
		{"554 5.7.1 message rejected due to dmarc", "rejected", false},
		{"algo completamente distinto", "unknown", false},
	}
	for _, tc := range cases {
		got := DiagnoseSMTP(errors.New(tc.err))
		if got.Code != tc.code {
			t.Errorf("DiagnoseSMTP(%q).Code = %s, want %s", tc.err, got.Code, tc.code)
		}
		if got.Temporary != tc.temporary {
			t.Errorf("DiagnoseSMTP(%q).Temporary = %v, want %v", tc.err, got.Temporary, tc.temporary)
		}
	}
	if got := DiagnoseSMTP(nil); got.Code != "unknown" {
		t.Errorf("DiagnoseSMTP(nil).Code = %s", got.Code)
	}
}

// captureSender guarda el último envío para inspeccionar el cuerpo.
type captureSender struct {
	to, subject, body string
	err               error
}

func (c *captureSender) Send(to, subject, htmlBody string, cc, bcc []string) error {
	if c.err != nil {
		return c.err
	}
	c.to, c.subject, c.body = to, subject, htmlBody
	return nil
}

func testUser() *repository.User {
	return &repository.User{
		ID:       uuid.New(),
		Username: "jdoe",
		Name:     "Jane Doe",
		Email:    "jane@example.com",
	}
}

func TestSendSignupVerificationEmail_BuildsLink(t *testing.T) {
	cap := &captureSender{}
	svc, err := NewService(ServiceConfig{
		Sender:    cap,
		BaseURL:   "https://board.example.com",
		VerifyTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	token := uuid.New().String()
	if err := svc.SendSignupVerificationEmail(context.Background(), testUser(), token); err != nil {
		t.Fatalf("SendSignupVerificationEmail err: %v", err)
	}

	if cap.to != "jane@example.com" {
		t.Errorf("to = %s", cap.to)
	}
	wantLink := "https://board.example.com/api/auth/verify-email?token=" + token
	if !strings.Contains(cap.body, wantLink) {
		t.Errorf("el cuerpo no contiene el link %q:\n%s", wantLink, cap.body)
	}
	if !strings.Contains(cap.body, "Jane Doe") {
		t.Error("el cuerpo no contiene el nombre del usuario")
	}
	if !strings.Contains(cap.body, "24") {
		t.Error("el cuerpo no menciona la ventana de validez")
	}
}

func TestSendEmailChangeVerificationEmail_GoesToCandidate(t *testing.T) {
	cap := &captureSender{}
	svc, err := NewService(ServiceConfig{
		Sender:    cap,
		BaseURL:   "https://board.example.com",
		VerifyTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SendEmailChangeVerificationEmail(context.Background(), testUser(), "nueva@example.com", "tok"); err != nil {
		t.Fatal(err)
	}
	// La verificación viaja a la dirección candidata.
	if cap.to != "nueva@example.com" {
		t.Errorf("to = %s, want nueva@example.com", cap.to)
	}
}

func TestSendEmail_FailureHandlerAbsorbs(t *testing.T) {
	boom := errors.New("smtp down")
	var queued []EmailMessage

	svc, err := NewService(ServiceConfig{
		Sender:    &captureSender{err: boom},
		BaseURL:   "http://localhost",
		VerifyTTL: time.Hour,
		OnSendFailure: func(ctx context.Context, msg EmailMessage, sendErr error) error {
			if !errors.Is(sendErr, boom) {
				t.Errorf("sendErr = %v", sendErr)
			}
			queued = append(queued, msg)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, _ := NewMessage("a@example.com", "s", "b")
	if err := svc.SendEmail(context.Background(), msg); err != nil {
		t.Fatalf("se esperaba nil con hook que absorbe, got %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("queued = %d, want 1", len(queued))
	}
}

func TestSendEmail_FailurePropagatesWithoutHandler(t *testing.T) {
	svc, err := NewService(ServiceConfig{
		Sender:    &captureSender{err: errors.New("smtp down")},
		BaseURL:   "http://localhost",
		VerifyTTL: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	msg, _ := NewMessage("a@example.com", "s", "b")
	if err := svc.SendEmail(context.Background(), msg); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err = %v, want ErrSendFailed", err)
	}
}
