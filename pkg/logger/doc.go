// Package logger provides structured logging for the archiver.
//
// It wraps zerolog behind a small Logger interface so components can take
// a logger as a dependency and tests can substitute NewTestLogger or
// NewNopLogger. Console output is colored and goes to stderr; an optional
// log file receives the same events as JSON.
//
//	logger.Initialize(&cfg.Logging)
//	logger.GetLogger().WithField("mode", "saved").Info("Starting archive run")
package logger
