package gumdrop

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record; Enabled is false so no attributes are built.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

var logger atomic.Pointer[slog.Logger]

func init() { logger.Store(silent) }

// SetLogger routes the engine's log records to l. nil silences them again,
// which is the state a program starts in.
//
// What is logged, by package:
//
//   - history: Warn when an entry is rejected, Debug when the oldest entry
//     is evicted.
//   - composite: Debug on cache hits, band splits and finished flattens.
//   - session: Info when a document is opened or replaced, Warn when an
//     export restarts because the document changed.
//   - export: Info per encoded payload, Warn when an encode fails.
//   - project: Info when the store saves, Warn when it drops an unreadable
//     blob.
//   - dispatch: Debug per command, Warn when one fails (except an empty
//     history).
//
// The gumdrop command installs a text handler on stderr:
//
//	gumdrop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//	    &slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	logger.Store(l)
}

// Logger returns the logger set by SetLogger. It is safe to call from any
// goroutine.
func Logger() *slog.Logger { return logger.Load() }
