package engine

import (
	"log/slog"
	"strings"
)

// levelVerbose sits between debug and info, for operators who want more
// than info but not full debug tracing.
const levelVerbose = slog.Level(-2)

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"verbose": levelVerbose,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"error":   slog.LevelError,
}

// SetLogLevel sets the engine's logging threshold. An unrecognized level
// falls back to info and logs a warning at whatever level was previously
// in effect. Only takes effect when the engine built its own logger (no
// WithLogger option, or one wrapping e.levelVar); a caller-supplied
// slog.Logger with a fixed-level handler is unaffected.
func (e *Engine) SetLogLevel(level string) {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		e.logger.Warn("engine: unknown log level, falling back to info",
			slog.String("level", level),
		)
		lvl = slog.LevelInfo
	}

	e.levelVar.Set(lvl)
}
