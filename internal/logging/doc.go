// Package logging provides structured logging for karotzctl.
//
// This package wraps a package-global zap logger with convenience functions.
// Logging is silent unless a level is given, either through the --log-level
// flag or the KAROTZ_LOG_LEVEL environment variable, so that command output
// is not interleaved with log lines.
//
// # Log Levels
//
//   - Debug: every device request URL and raw response body
//   - Info: successful state changes (wake up, TTS started, bridge sessions)
//   - Warn: device refusals and network failures
//   - Error: unparseable status answers, bridge startup failures
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	logging.Info("Karotz is awake", zap.String("host", host))
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
