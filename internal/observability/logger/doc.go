// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Global: una instancia inicializada con Init(); Replace() para tests.
//   - Context Scoping: cada request tiene su propio logger "scoped" con
//     request_id, method y path, sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Levels: debug, info, warn, error (configurable via log.level).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" o "prod"
//	    Level: cfg.Log.Level, // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx)
//	log.Info("manager deactivated", logger.ManagerID(id))
//
// Sin contexto (fallback a singleton):
//
//	logger.L().Info("application started")
package logger
