package outbox

import "time"

// maxBackoffExp acota el backoff exponencial: 1m, 2m, 4m, 8m, 16m, 32m, 64m (máximo).
const maxBackoffExp = 6

// RetryDelay calcula la espera antes del próximo intento para un retryCount
// dado. Es estrictamente creciente hasta el tope y determinística: el mismo
// retryCount produce siempre la misma espera.
func RetryDelay(retryCount int) time.Duration {
	exp := retryCount - 1
	if exp < 0 {
		exp = 0
	}
	if exp > maxBackoffExp {
		exp = maxBackoffExp
	}
	return time.Duration(1<<exp) * time.Minute
}
