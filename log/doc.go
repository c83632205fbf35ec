// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("template compiled", slog.Int("exprs", 12))
//	logger.Error("realize failed", slog.Any("error", err))
//
// # Configuration
//
// Configure the logger using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("kitchen"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger with additional options, and [Logger.With]
// one that adds attributes to every message.
//
// The zero [Logger] discards all messages.
//
// # Levels
//
// In addition to the four [log/slog] levels, [LevelTrace] sits below
// [LevelDebug] for high-volume diagnostics.
//
// # Time Formatting
//
// [WithTimeLayout] accepts the names understood by [TimeLayout] (such as
// "RFC3339", "kitchen", or "ms") or a custom [time.Time.Format] layout.
// The layout "none" omits timestamps.
//
// # Output Formats
//
// Two output formats are supported: [FormatJSON] (default) and
// [FormatText]. With [WithPretty] enabled, either format is colorized for
// terminals.
//
// # Package-Level Logger
//
// The package-level functions ([Info], [Error], and so on) write to a
// default logger configured with [Config].
package log
