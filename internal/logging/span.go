package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one step of a request and logs its outcome.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The returned context carries a
// logger tagged with the span id, name and parent span when one exists.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	spanID := uuid.NewString()
	logger := FromContext(ctx).With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent := spanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End logs the span duration, at error level when err is non-nil.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if err != nil {
		s.logger.Error("span failed", elapsed, slog.Any("error", err))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
