package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/sparkmatch/sparkmatch"

var (
	metricsOnce sync.Once

	matchesCreated  metric.Int64Counter
	messagesSent    metric.Int64Counter
	eventsPublished metric.Int64Counter
)

// initMetrics creates the engine counters on first use. Uses the globally
// installed meter provider, so it degrades to no-ops when OTel is disabled.
func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)

		matchesCreated, _ = meter.Int64Counter("sparkmatch.matches.created",
			metric.WithDescription("Number of mutual matches created"))
		messagesSent, _ = meter.Int64Counter("sparkmatch.messages.sent",
			metric.WithDescription("Number of chat messages appended"))
		eventsPublished, _ = meter.Int64Counter("sparkmatch.events.published",
			metric.WithDescription("Number of match-created events published"))
	})
}

// RecordMatchCreated increments the mutual-match counter
func RecordMatchCreated(ctx context.Context) {
	initMetrics()
	if matchesCreated != nil {
		matchesCreated.Add(ctx, 1)
	}
}

// RecordMessageSent increments the message counter
func RecordMessageSent(ctx context.Context) {
	initMetrics()
	if messagesSent != nil {
		messagesSent.Add(ctx, 1)
	}
}

// RecordEventPublished increments the published-event counter
func RecordEventPublished(ctx context.Context) {
	initMetrics()
	if eventsPublished != nil {
		eventsPublished.Add(ctx, 1)
	}
}
