package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
)

// ─── Errors ───

var (
	ErrSendFailed     = errors.New("email: send failed")
	ErrTemplateRender = errors.New("email: template render failed")
	ErrInvalidInput   = errors.New("email: invalid input")
)

// ─── Service Interface ───

// Service es el transporte de email que consumen los services de dominio.
// Un fallo de envío se reporta como error: el caller decide si va al outbox.
type Service interface {
	// SendEmail envía un mensaje ya armado (lo usa el retry sweep).
	SendEmail(ctx context.Context, msg EmailMessage) error

	// SendSignupVerificationEmail envía el email de verificación de registro.
	SendSignupVerificationEmail(ctx context.Context, user *repository.User, token string) error

	// SendEmailChangeVerificationEmail envía la verificación de cambio de email
	// a la dirección candidata.
	SendEmailChangeVerificationEmail(ctx context.Context, user *repository.User, newEmail, token string) error

	// SendWelcomeEmail envía el email de bienvenida post-verificación.
	SendWelcomeEmail(ctx context.Context, user *repository.User) error

	// SendEmailChangedNotification notifica que el cambio de email se aplicó.
	SendEmailChangedNotification(ctx context.Context, user *repository.User, newEmail string) error
}

// ─── Configuration ───

// FailureHandler recibe los mensajes cuyo envío inmediato falló.
// Si retorna nil el mensaje queda agendado para reintento y el envío se
// considera diferido, no fallido.
type FailureHandler func(ctx context.Context, msg EmailMessage, sendErr error) error

// ServiceConfig contiene la configuración del servicio de email.
type ServiceConfig struct {
	Sender Sender

	// BaseURL para armar links (ej: https://board.example.com)
	BaseURL string

	// VerifyTTL se muestra en el cuerpo del email como ventana de validez.
	VerifyTTL time.Duration

	// OnSendFailure, si está presente, absorbe los fallos de envío
	// (normalmente encolando en el outbox). Dejar nil para que los fallos
	// se propaguen tal cual, que es lo que necesita el retry sweep.
	OnSendFailure FailureHandler
}

// ─── Implementation ───

type service struct {
	sender        Sender
	baseURL       string
	verifyTTL     time.Duration
	onSendFailure FailureHandler
}

// NewService crea el transporte de email.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("email: sender is required")
	}
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 24 * time.Hour
	}
	return &service{
		sender:        cfg.Sender,
		baseURL:       cfg.BaseURL,
		verifyTTL:     cfg.VerifyTTL,
		onSendFailure: cfg.OnSendFailure,
	}, nil
}

func (s *service) SendEmail(ctx context.Context, msg EmailMessage) error {
	log := logger.From(ctx).With(
		logger.Op("SendEmail"),
		logger.Recipient(msg.RecipientEmail()),
	)

	if err := s.sender.Send(msg.RecipientEmail(), msg.Subject(), msg.Body(), msg.CC(), msg.BCC()); err != nil {
		if s.onSendFailure != nil {
			if qerr := s.onSendFailure(ctx, msg, err); qerr == nil {
				log.Warn("email send failed, queued for retry", logger.Err(err))
				return nil
			}
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	log.Info("email sent", logger.Subject(msg.Subject()))
	return nil
}

func (s *service) SendSignupVerificationEmail(ctx context.Context, user *repository.User, token string) error {
	if user == nil || token == "" {
		return ErrInvalidInput
	}

	body, err := render(tmplSignupVerification, verifyVars{
		UserName:        user.Name,
		UserEmail:       user.Email,
		VerificationURL: s.buildVerifyLink(token),
		ExpirationHours: s.expirationHours(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	msg, err := NewMessage(user.Email, subjectSignupVerification, body)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, msg)
}

func (s *service) SendEmailChangeVerificationEmail(ctx context.Context, user *repository.User, newEmail, token string) error {
	if user == nil || newEmail == "" || token == "" {
		return ErrInvalidInput
	}

	body, err := render(tmplChangeVerification, changeVerifyVars{
		UserName:        user.Name,
		CurrentEmail:    user.Email,
		NewEmail:        newEmail,
		VerificationURL: s.buildVerifyLink(token),
		ExpirationHours: s.expirationHours(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	// La verificación viaja a la dirección candidata, no a la actual.
	msg, err := NewMessage(newEmail, subjectChangeVerification, body)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, msg)
}

func (s *service) SendWelcomeEmail(ctx context.Context, user *repository.User) error {
	if user == nil {
		return ErrInvalidInput
	}

	body, err := render(tmplWelcome, welcomeVars{
		UserName: user.Name,
		LoginURL: s.buildLink("/login"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	msg, err := NewMessage(user.Email, subjectWelcome, body)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, msg)
}

func (s *service) SendEmailChangedNotification(ctx context.Context, user *repository.User, newEmail string) error {
	if user == nil || newEmail == "" {
		return ErrInvalidInput
	}

	body, err := render(tmplEmailChanged, changedVars{
		UserName: user.Name,
		NewEmail: newEmail,
		LoginURL: s.buildLink("/login"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	msg, err := NewMessage(newEmail, subjectEmailChanged, body)
	if err != nil {
		return err
	}
	return s.SendEmail(ctx, msg)
}

// ─── Helpers ───

func (s *service) buildVerifyLink(token string) string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + "/api/auth/verify-email?token=" + url.QueryEscape(token)
	}
	u.Path = "/api/auth/verify-email"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *service) buildLink(path string) string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + path
	}
	u.Path = path
	return u.String()
}

func (s *service) expirationHours() int {
	h := int(s.verifyTTL.Hours())
	if h < 1 {
		h = 1
	}
	return h
}
