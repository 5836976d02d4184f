package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

// Sink is a best-effort tracing side channel. Every method is safe to call
// with a nil receiver, recovers from panics, and never returns an error:
// tracing must not be able to fail a chat turn. This is a deliberate
// fire-and-forget contract, not an accidental bare catch.
type Sink struct {
	log    *logger.Logger
	tracer trace.Tracer
}

func NewSink(log *logger.Logger) *Sink {
	if log == nil {
		return nil
	}
	return &Sink{
		log:    log.With("component", "TracingSink"),
		tracer: otel.Tracer("sejmwatch/chat"),
	}
}

// Span starts a span and returns an end function. Both calls swallow any
// failure inside the tracing stack.
func (s *Sink) Span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	if s == nil || s.tracer == nil {
		return ctx, func(error) {}
	}

	defer s.recover("span start")
	spanCtx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	return spanCtx, func(err error) {
		defer s.recover("span end")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Generation records one LLM call as an event on the current span.
func (s *Sink) Generation(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if s == nil {
		return
	}
	defer s.recover("generation")
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (s *Sink) recover(op string) {
	if r := recover(); r != nil && s.log != nil {
		s.log.Warn("Tracing call failed (ignored)", "op", op, "panic", r)
	}
}
