// Package logging provides structured logging utilities for skiff components.
//
// # Overview
//
// This package wraps the standard library slog package with skiff-specific
// defaults and conventions for consistent logging across all components. It
// supports environment-based log level configuration, module/version context
// injection, and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("skiff", "v1.0.0")
//
//	    // Use slog as normal
//	    slog.Info("run starting", "id", runID)
//	    slog.Debug("resolved stage", "stage", stage.Name)
//	    slog.Error("stage failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("skiffd", "v2.0.0", "debug")
//	logger.Info("server starting", "port", 8080)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug skiff run
//	LOG_LEVEL=error skiffd
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "run complete",
//	    "module": "skiff",
//	    "version": "v1.0.0",
//	    "stages": 5
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "runner.(*Runner).Run",
//	        "file": "runner.go",
//	        "line": 45
//	    },
//	    "msg": "executing stage",
//	    "module": "skiff",
//	    "version": "v1.0.0"
//	}
//
// # Integration
//
// This package is used by:
//   - pkg/api - daemon server logging
//   - pkg/cli - CLI command logging
//   - pkg/runner - stage execution logging
//   - pkg/preflight - host check logging
//   - pkg/cluster - cluster verification logging
//
// All components share consistent logging format and configuration.
package logging
