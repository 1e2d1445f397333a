// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON output for the server, text output on stderr for the CLI
//   - Request ID propagation
//   - Context-aware logging
//
// Example usage:
//
//	logger := logging.NewLogger(cfg.LogLevel)
//	slog.SetDefault(logger)
//
//	func handleRequest(ctx context.Context) {
//	    logger := logging.WithRequestID(ctx, slog.Default())
//	    logger.Info("resolving preview")
//	}
package logging
