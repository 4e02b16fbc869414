// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request (login o callback) lleva su propio logger
//     con request_id, provider y attempt_id sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via AUTHBRIDGE_LOG_LEVEL).
//
// Los adapters de oauth solo loguean progreso en debug; los errores se
// devuelven al caller y los reporta la capa HTTP una sola vez.
//
// # Usage
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("callback completed", logger.Provider("twitter"), logger.AttemptID(id))
package logger
