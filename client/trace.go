package client

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

func traceparent(ctx context.Context) (string, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID().String(), sc.SpanID().String(), sc.TraceFlags().String()), true
}
