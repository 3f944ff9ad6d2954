// Package i18n provee el catálogo de mensajes de usuario.
// Es un colaborador inyectado: ningún estado global, el idioma se fija al
// construir el catálogo.
package i18n

import "fmt"

// Catalog resuelve claves de mensaje en el idioma configurado.
type Catalog struct {
	lang string
}

// New crea un catálogo para el idioma dado ("en" o "ko").
// Idiomas desconocidos caen a "en".
func New(lang string) *Catalog {
	if _, ok := messages[lang]; !ok {
		lang = "en"
	}
	return &Catalog{lang: lang}
}

// Get resuelve una clave, aplicando los argumentos printf-style si los hay.
// Una clave desconocida se retorna tal cual para no ocultar el error de wiring.
func (c *Catalog) Get(key string, args ...any) string {
	msg, ok := messages[c.lang][key]
	if !ok {
		msg, ok = messages["en"][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

var messages = map[string]map[string]string{
	"en": {
		"error.email-verification.invalid-token":    "invalid verification token",
		"error.email-verification.expired":          "verification token has expired",
		"error.email-verification.already-verified": "user is already verified",
		"error.user.not-found.id":                   "user not found: id=%v",
		"error.email-verification.rate-limited":     "too many verification emails requested, try again later",
		"success.email-verification.completed":      "email verification completed",
		"success.email-verification.resent":         "verification email resent",
		"success.email-change.requested":            "email change verification sent",
	},
	"ko": {
		"error.email-verification.invalid-token":    "유효하지 않은 인증 토큰입니다",
		"error.email-verification.expired":          "인증 토큰이 만료되었습니다",
		"error.email-verification.already-verified": "이미 인증된 사용자입니다",
		"error.user.not-found.id":                   "사용자를 찾을 수 없습니다: id=%v",
		"error.email-verification.rate-limited":     "인증 이메일 요청이 너무 많습니다. 잠시 후 다시 시도해주세요",
		"success.email-verification.completed":      "이메일 인증이 완료되었습니다",
		"success.email-verification.resent":         "인증 이메일이 재발송되었습니다",
		"success.email-change.requested":            "이메일 변경 인증이 발송되었습니다",
	},
}
