// Package outbox carries trace context and correlation ids through the outbox
// table and Kafka record headers as a plain string map.
package outbox

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/restock-watch/pkg/correlationid"
)

// BuildHeaders returns a new header map holding the trace context and correlation id of ctx.
func BuildHeaders(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	if id, ok := correlationid.FromContext(ctx); ok {
		carrier.Set(correlationid.Header, id)
	}

	return carrier
}

// ExtractContextFromHeaders is the inverse of BuildHeaders. An empty correlation id is ignored.
func ExtractContextFromHeaders(ctx context.Context, headers map[string]string) context.Context {
	carrier := propagation.MapCarrier(headers)
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	if id := carrier.Get(correlationid.Header); id != "" {
		ctx = correlationid.NewContext(ctx, id)
	}

	return ctx
}
