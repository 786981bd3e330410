package tracing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCtx marks the span in ctx as failed, and returns err unchanged so it
// can be propagated to the caller.
func ErrorCtx(ctx context.Context, err error) error {
	span := trace.SpanFromContext(ctx)

	return Error(span, err)
}

func Errorf(s trace.Span, format string, a ...interface{}) error {
	return Error(s, fmt.Errorf(format, a...))
}

func Error(s trace.Span, err error) error {
	s.RecordError(err)
	s.SetStatus(codes.Error, err.Error())

	return err
}

// HashedString attaches identifying values (user ids) to spans without
// writing the raw value into the trace.
func HashedString(key string, value string) attribute.KeyValue {

	sha := sha256.New()
	sha.Write([]byte(value))
	hash := sha.Sum(nil)

	return attribute.String(key, hex.EncodeToString(hash))
}
