package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/email"
	"github.com/dropDatabas3/boardhole/internal/i18n"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
	"github.com/dropDatabas3/boardhole/internal/rate"
)

// Config contiene los parámetros del servicio de verificación.
type Config struct {
	// Expiration ventana de validez de cada código emitido.
	Expiration time.Duration
}

// Service gestiona los códigos de verificación: emisión, consumo y
// reenvío. Los mensajes para el usuario final salen del catálogo
// inyectado; los fallos de dominio son *Error con Kind.
type Service struct {
	verifications repository.EmailVerificationRepository
	users         repository.UserRepository
	mailer        email.Service
	catalog       *i18n.Catalog
	limiter       rate.Limiter
	expiration    time.Duration
	now           func() time.Time
}

// NewService crea el servicio. limiter puede ser nil: el reenvío queda sin
// límite de frecuencia (útil en tests y desarrollo).
func NewService(
	verifications repository.EmailVerificationRepository,
	users repository.UserRepository,
	mailer email.Service,
	catalog *i18n.Catalog,
	limiter rate.Limiter,
	cfg Config,
) (*Service, error) {
	if verifications == nil || users == nil {
		return nil, fmt.Errorf("verification: repositories are required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("verification: mailer is required")
	}
	if catalog == nil {
		catalog = i18n.New("en")
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	return &Service{
		verifications: verifications,
		users:         users,
		mailer:        mailer,
		catalog:       catalog,
		limiter:       limiter,
		expiration:    cfg.Expiration,
		now:           time.Now,
	}, nil
}

// Issue emite un código nuevo para el usuario. El código es un uuid: no
// adivinable y único como clave primaria.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, newEmail string, typ repository.VerificationType) (*repository.EmailVerification, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("verification: unknown type %q", typ)
	}

	now := s.now()
	v := &repository.EmailVerification{
		Code:      uuid.New().String(),
		UserID:    userID,
		NewEmail:  newEmail,
		Type:      typ,
		ExpiresAt: now.Add(s.expiration),
		Used:      false,
		CreatedAt: now,
	}
	if err := s.verifications.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("verification: save code: %w", err)
	}

	logger.From(ctx).Debug("verification code issued",
		logger.UserID(userID.String()),
		logger.VerificationType(string(typ)),
	)
	return v, nil
}

// VerifyEmail consume un código y aplica su efecto sobre el usuario.
// Códigos desconocidos y ya usados responden lo mismo (NotFound) para no
// revelar qué códigos existen. Un código expirado es InvalidState.
func (s *Service) VerifyEmail(ctx context.Context, code string) (string, error) {
	log := logger.From(ctx).With(logger.Op("VerifyEmail"))

	v, err := s.verifications.FindByCodeAndUnused(ctx, code)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", newError(KindNotFound, s.catalog.Get("error.email-verification.invalid-token"))
		}
		return "", fmt.Errorf("verification: find code: %w", err)
	}

	now := s.now()
	if v.IsExpired(now) {
		return "", newError(KindInvalidState, s.catalog.Get("error.email-verification.expired"))
	}

	user, err := s.users.FindByID(ctx, v.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", newError(KindNotFound, s.catalog.Get("error.user.not-found.id", v.UserID))
		}
		return "", fmt.Errorf("verification: find user: %w", err)
	}

	switch v.Type {
	case repository.VerificationSignup:
		user.VerifyEmail()
		if v.NewEmail != "" {
			if err := user.ChangeEmail(v.NewEmail); err != nil {
				return "", fmt.Errorf("verification: apply email: %w", err)
			}
		}
	case repository.VerificationChangeEmail:
		if err := user.ChangeEmail(v.NewEmail); err != nil {
			return "", fmt.Errorf("verification: apply email: %w", err)
		}
	}

	if err := v.MarkUsed(now); err != nil {
		return "", fmt.Errorf("verification: mark used: %w", err)
	}
	if err := s.verifications.Save(ctx, v); err != nil {
		return "", fmt.Errorf("verification: persist code: %w", err)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return "", fmt.Errorf("verification: persist user: %w", err)
	}

	log.Info("email verified",
		logger.UserID(user.ID.String()),
		logger.VerificationType(string(v.Type)),
	)

	// La notificación es cortesía: un fallo no revierte la verificación.
	switch v.Type {
	case repository.VerificationSignup:
		if err := s.mailer.SendWelcomeEmail(ctx, user); err != nil {
			log.Warn("welcome email failed", logger.Err(err))
		}
	case repository.VerificationChangeEmail:
		if err := s.mailer.SendEmailChangedNotification(ctx, user, v.NewEmail); err != nil {
			log.Warn("email-changed notification failed", logger.Err(err))
		}
	}

	return s.catalog.Get("success.email-verification.completed"), nil
}

// ResendVerificationEmail invalida todos los códigos vivos del usuario,
// emite uno nuevo de registro y reenvía el email de verificación.
func (s *Service) ResendVerificationEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	log := logger.From(ctx).With(
		logger.Op("ResendVerificationEmail"),
		logger.UserID(userID.String()),
	)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", newError(KindNotFound, s.catalog.Get("error.user.not-found.id", userID))
		}
		return "", fmt.Errorf("verification: find user: %w", err)
	}
	if user.EmailVerified {
		return "", newError(KindInvalidState, s.catalog.Get("error.email-verification.already-verified"))
	}

	if err := s.checkResendLimit(ctx, userID); err != nil {
		return "", err
	}

	if err := s.verifications.InvalidateUserVerifications(ctx, userID); err != nil {
		return "", fmt.Errorf("verification: invalidate codes: %w", err)
	}

	v, err := s.Issue(ctx, userID, user.Email, repository.VerificationSignup)
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendSignupVerificationEmail(ctx, user, v.Code); err != nil {
		return "", fmt.Errorf("verification: send email: %w", err)
	}

	log.Info("verification email resent")
	return s.catalog.Get("success.email-verification.resent"), nil
}

// RequestEmailChange inicia un cambio de dirección: invalida códigos
// vivos, emite uno de tipo CHANGE_EMAIL y envía la verificación a la
// dirección candidata. El email del usuario no cambia hasta verificar.
func (s *Service) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) (string, error) {
	log := logger.From(ctx).With(
		logger.Op("RequestEmailChange"),
		logger.UserID(userID.String()),
	)

	if newEmail == "" {
		return "", fmt.Errorf("verification: %w", repository.ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", newError(KindNotFound, s.catalog.Get("error.user.not-found.id", userID))
		}
		return "", fmt.Errorf("verification: find user: %w", err)
	}

	if err := s.checkResendLimit(ctx, userID); err != nil {
		return "", err
	}

	if err := s.verifications.InvalidateUserVerifications(ctx, userID); err != nil {
		return "", fmt.Errorf("verification: invalidate codes: %w", err)
	}

	v, err := s.Issue(ctx, userID, newEmail, repository.VerificationChangeEmail)
	if err != nil {
		return "", err
	}

	if err := s.mailer.SendEmailChangeVerificationEmail(ctx, user, newEmail, v.Code); err != nil {
		return "", fmt.Errorf("verification: send email: %w", err)
	}

	log.Info("email change requested")
	return s.catalog.Get("success.email-change.requested"), nil
}

// CleanupExpired elimina códigos expirados o ya usados. Lo invoca el job
// de limpieza junto con la retención del outbox.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	deleted, err := s.verifications.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("verification: cleanup: %w", err)
	}
	if deleted > 0 {
		logger.From(ctx).Info("expired verification codes cleaned up", logger.Count(deleted))
	}
	return deleted, nil
}

func (s *Service) checkResendLimit(ctx context.Context, userID uuid.UUID) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Allow(ctx, "verif:resend:"+userID.String())
	if err != nil {
		// El limitador caído no debe bloquear la verificación.
		logger.From(ctx).Warn("resend limiter unavailable", logger.Err(err))
		return nil
	}
	if !res.Allowed {
		return newError(KindInvalidState, s.catalog.Get("error.email-verification.rate-limited"))
	}
	return nil
}
