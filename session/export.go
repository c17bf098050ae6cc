package session

import (
	"context"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/export"
)

// ExportResult is the outcome of an export.
type ExportResult struct {
	Format export.Format
	Data   []byte
	Err    error

	// Stamp is the document state the data was encoded from.
	Stamp Stamp
	// Stale reports that the document changed after that state was
	// captured and before the export finished.
	Stale bool
	// Restarts counts RestartOnChange re-runs.
	Restarts int
}

// Export encodes the document with the session's default policy. It
// blocks until the export finishes or ctx is done.
func (s *Session) Export(ctx context.Context, f export.Format, opts export.Options) ExportResult {
	return <-s.ExportAsync(ctx, f, s.policy, opts)
}

// ExportAsync encodes a snapshot of the document on a separate goroutine
// and delivers the result on the returned channel, which receives exactly
// one value. Editing may continue while the export runs. Cancelling ctx
// abandons the encode and discards any partial output.
func (s *Session) ExportAsync(ctx context.Context, f export.Format, policy Policy, opts export.Options) <-chan ExportResult {
	out := make(chan ExportResult, 1)
	s.exports.Add(1)
	go func() {
		defer s.exports.Done()
		out <- s.runExport(ctx, f, policy, opts)
	}()
	return out
}

func (s *Session) runExport(ctx context.Context, f export.Format, policy Policy, opts export.Options) ExportResult {
	opts.Compositor = s.comp
	for attempt := 0; ; attempt++ {
		snap, stamp := s.Snapshot()
		data, err := export.Bytes(ctx, f, snap, opts)
		s.comp.Forget(snap)
		if s.afterEncode != nil {
			s.afterEncode()
		}
		if err != nil {
			return ExportResult{Format: f, Err: err, Stamp: stamp, Restarts: attempt}
		}

		current := s.Stamp()
		if current != stamp && policy == RestartOnChange && attempt < s.maxRestarts {
			gumdrop.Logger().Warn("session: document changed during export, restarting",
				"format", f, "attempt", attempt+1, "from", stamp.Version, "to", current.Version)
			continue
		}
		return ExportResult{
			Format:   f,
			Data:     data,
			Stamp:    stamp,
			Stale:    current != stamp,
			Restarts: attempt,
		}
	}
}
