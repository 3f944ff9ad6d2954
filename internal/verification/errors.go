// Package verification implementa el ciclo de vida de los códigos de
// verificación de email: emisión, consumo de un solo uso, reenvío con
// invalidación masiva y solicitud de cambio de dirección.
package verification

import "errors"

// Kind clasifica los fallos del servicio de verificación.
type Kind int

const (
	// KindNotFound el código no existe o ya fue usado. Ambos casos se
	// reportan igual para no filtrar qué códigos existen.
	KindNotFound Kind = iota

	// KindInvalidState la operación no aplica al estado actual (código
	// expirado, usuario ya verificado, reenvíos agotados).
	KindInvalidState
)

// Error es el error de dominio del servicio: un kind para decidir el
// manejo y un mensaje ya localizado para el usuario final.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// IsNotFound retorna true si err es un Error con KindNotFound.
func IsNotFound(err error) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == KindNotFound
}

// IsInvalidState retorna true si err es un Error con KindInvalidState.
func IsInvalidState(err error) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Kind == KindInvalidState
}
