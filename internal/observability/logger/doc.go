// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request/worker puede llevar su propio logger
//     "scoped" con campos adicionales (request_id, op) sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via LOG_LEVEL).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" o "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En services/workers (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("outbox email queued", logger.Recipient(to), logger.RetryCount(n))
//
// Sin contexto (fallback al singleton):
//
//	logger.L().Info("application started")
package logger
