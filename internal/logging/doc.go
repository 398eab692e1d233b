// Package logging provides structured logging for action queues and the
// tools that host them.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. A queue logs its own lifecycle (concurrency
// changes, pauses, bulk clears, recovered panics) through a [Logger] handed
// to it at construction.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	queueLogger := logger.WithSession(runID).WithQueue("uploads")
//	queueLogger.Info("concurrency updated", "from", 2, "to", 4)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"concurrency updated","session_id":"...","queue":"uploads","from":2,"to":4}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] to capture it:
//
//	var buf bytes.Buffer
//	logger := logging.NewWriterLogger(&buf, logging.LevelDebug)
//
// # Log Levels
//
// The package defines four log levels: [LevelDebug], [LevelInfo] (default),
// [LevelWarn] and [LevelError]. Use [ParseLevel] to normalize user input and
// [ValidLevels] to list the accepted strings.
package logging
